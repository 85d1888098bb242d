package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"filedesk/internal/catalog"
	"filedesk/internal/filings"
	"filedesk/internal/session"
)

var (
	applyData     string
	applyDataFile string
	applyGeneric  bool
	fetchEmail    string
)

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List available service categories",
	RunE:  runServices,
}

var applyCmd = &cobra.Command{
	Use:   "apply <service-slug>",
	Short: "Submit an application to a service",
	Long: `Submit an application to one service category.

The form payload is given as inline JSON (--data) or a JSON file (--file).
With --generic the application goes to the cross-service store instead of
the service's own store.

Example:
  filedesk apply fssai --data '{"businessName":"Acme Foods","email":"owner@acme.test"}'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runApply,
}

var statusCmd = &cobra.Command{
	Use:   "status <service-slug> <submission-id> <new-status>",
	Short: "Update the status of a submission",
	Args:  cobra.ExactArgs(3),
	RunE:  runStatus,
}

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "Show applications aggregated across every service",
	Long: `Fetch the signed-in user's applications from every service store plus
the generic store, merged and de-duplicated. Stores that fail or time out
are reported alongside the records that could be fetched.`,
	RunE: runApplications,
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Show the generic store's requests, unmerged",
	RunE:  runRequests,
}

func init() {
	applyCmd.Flags().StringVarP(&applyData, "data", "d", "", "form payload as inline JSON")
	applyCmd.Flags().StringVarP(&applyDataFile, "file", "f", "", "form payload as a JSON file")
	applyCmd.Flags().BoolVar(&applyGeneric, "generic", false, "submit to the cross-service store")
	applicationsCmd.Flags().StringVar(&fetchEmail, "email", "", "fetch for this email instead of the session's")
	requestsCmd.Flags().StringVar(&fetchEmail, "email", "", "fetch for this email instead of the session's")
}

func runServices(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tFEE")
	for _, svc := range catalog.All() {
		fee := "-"
		if !svc.Fee.IsZero() {
			fee = "₹" + svc.Fee.StringFixed(0)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", svc.Slug, svc.Name, fee)
	}
	return w.Flush()
}

func runApply(cmd *cobra.Command, args []string) error {
	payload, err := loadPayload(applyData, applyDataFile)
	if err != nil {
		return err
	}

	if sess, err := cli.sessions.Current(); err == nil {
		if _, ok := payload["email"]; !ok && sess.User.Email != "" {
			payload["email"] = sess.User.Email
		}
	}

	var rec filings.Record
	switch {
	case applyGeneric:
		rec, err = cli.filings.ApplyGeneric(cmd.Context(), payload)
	case len(args) == 1:
		rec, err = cli.filings.Apply(cmd.Context(), args[0], payload)
	default:
		return fmt.Errorf("service slug required (or pass --generic)")
	}
	if err != nil {
		return err
	}

	fmt.Println("Application submitted.")
	if rec != nil {
		if id := rec.ID(); id != "" {
			fmt.Printf("Submission ID: %s\n", id)
		}
		if status := rec.Status(); status != "" {
			fmt.Printf("Status: %s\n", status)
		}
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	slug, id, status := args[0], args[1], args[2]
	if err := cli.filings.UpdateStatus(cmd.Context(), slug, id, status); err != nil {
		return err
	}
	fmt.Printf("Submission %s moved to %s\n", id, status)
	return nil
}

func runApplications(cmd *cobra.Command, args []string) error {
	email, err := resolveEmail()
	if err != nil {
		return err
	}

	result, err := cli.filings.Applications(cmd.Context(), email)
	if err != nil {
		return err
	}

	if len(result.Records) == 0 {
		fmt.Println("No applications found.")
	} else {
		printRecords(result.Records)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "\n%d store(s) could not be fetched:\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
	}
	return nil
}

func runRequests(cmd *cobra.Command, args []string) error {
	email, err := resolveEmail()
	if err != nil {
		return err
	}

	records, err := cli.filings.MyRequests(cmd.Context(), email)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No requests found.")
		return nil
	}
	printRecords(records)
	return nil
}

// resolveEmail prefers the --email flag, falling back to the stored session.
func resolveEmail() (string, error) {
	if fetchEmail != "" {
		return fetchEmail, nil
	}
	sess, err := cli.sessions.Current()
	if errors.Is(err, session.ErrNoSession) {
		return "", fmt.Errorf("not signed in; run 'filedesk login' or pass --email")
	}
	if err != nil {
		return "", err
	}
	if sess.User.Email == "" {
		return "", fmt.Errorf("stored session has no email; pass --email")
	}
	return sess.User.Email, nil
}

func loadPayload(data, file string) (map[string]any, error) {
	var src []byte
	switch {
	case data != "" && file != "":
		return nil, fmt.Errorf("--data and --file are mutually exclusive")
	case data != "":
		src = []byte(data)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
		src = b
	default:
		return nil, fmt.Errorf("form payload required; pass --data or --file")
	}

	var payload map[string]any
	if err := json.Unmarshal(src, &payload); err != nil {
		return nil, fmt.Errorf("invalid payload JSON: %w", err)
	}
	return payload, nil
}

func printRecords(records []filings.Record) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSERVICE\tSTATUS\tAPPLICANT\tSUBMITTED")
	for _, rec := range records {
		submitted := "-"
		if t := rec.SubmittedAt(); !t.IsZero() {
			submitted = t.Local().Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			orDash(rec.ID()), orDash(rec.ServiceName()), orDash(rec.Status()),
			orDash(rec.Client()), submitted)
	}
	w.Flush()
	fmt.Printf("\n%d application(s)\n", len(records))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
