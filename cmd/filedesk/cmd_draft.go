package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"filedesk/internal/drafts"
)

var (
	draftData     string
	draftDataFile string
	draftID       string
	draftListSlug string
	draftKeep     bool
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Manage local application drafts",
	Long: `Drafts hold application payloads locally so they can be prepared
offline and submitted later with 'filedesk draft submit'.`,
}

var draftSaveCmd = &cobra.Command{
	Use:   "save <service-slug>",
	Short: "Save a draft for a service",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftSave,
}

var draftListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored drafts",
	RunE:  runDraftList,
}

var draftShowCmd = &cobra.Command{
	Use:   "show <draft-id>",
	Short: "Print a draft's payload",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftShow,
}

var draftRemoveCmd = &cobra.Command{
	Use:     "rm <draft-id>",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete a draft",
	Args:    cobra.ExactArgs(1),
	RunE:    runDraftRemove,
}

var draftSubmitCmd = &cobra.Command{
	Use:   "submit <draft-id>",
	Short: "Submit a draft and delete it on success",
	Args:  cobra.ExactArgs(1),
	RunE:  runDraftSubmit,
}

func init() {
	draftSaveCmd.Flags().StringVarP(&draftData, "data", "d", "", "form payload as inline JSON")
	draftSaveCmd.Flags().StringVarP(&draftDataFile, "file", "f", "", "form payload as a JSON file")
	draftSaveCmd.Flags().StringVar(&draftID, "id", "", "overwrite an existing draft")
	draftListCmd.Flags().StringVar(&draftListSlug, "service", "", "only drafts for this service")
	draftSubmitCmd.Flags().BoolVar(&draftKeep, "keep", false, "keep the draft after submitting")
	draftCmd.AddCommand(draftSaveCmd, draftListCmd, draftShowCmd, draftRemoveCmd, draftSubmitCmd)
}

func runDraftSave(cmd *cobra.Command, args []string) error {
	payload, err := loadPayload(draftData, draftDataFile)
	if err != nil {
		return err
	}

	repo, err := cli.openDrafts()
	if err != nil {
		return err
	}

	draft := &drafts.Draft{
		ID:          draftID,
		ServiceSlug: args[0],
		Payload:     payload,
	}
	if draftID != "" {
		existing, err := repo.Get(cmd.Context(), draftID)
		if err != nil {
			return err
		}
		draft.CreatedAt = existing.CreatedAt
	}

	if err := repo.Save(cmd.Context(), draft); err != nil {
		return err
	}
	fmt.Printf("Draft saved: %s\n", draft.ID)
	return nil
}

func runDraftList(cmd *cobra.Command, args []string) error {
	repo, err := cli.openDrafts()
	if err != nil {
		return err
	}

	list, err := repo.List(cmd.Context(), draftListSlug)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No drafts.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSERVICE\tUPDATED")
	for _, d := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.ServiceSlug, d.UpdatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func runDraftShow(cmd *cobra.Command, args []string) error {
	repo, err := cli.openDrafts()
	if err != nil {
		return err
	}

	draft, err := repo.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Service: %s\n", draft.ServiceSlug)
	fmt.Printf("Updated: %s\n\n", draft.UpdatedAt.Local().Format(time.DateTime))
	return printJSON(draft.Payload)
}

func runDraftRemove(cmd *cobra.Command, args []string) error {
	repo, err := cli.openDrafts()
	if err != nil {
		return err
	}

	if err := repo.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Println("Draft deleted.")
	return nil
}

func runDraftSubmit(cmd *cobra.Command, args []string) error {
	repo, err := cli.openDrafts()
	if err != nil {
		return err
	}

	draft, err := repo.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	rec, err := cli.filings.Apply(cmd.Context(), draft.ServiceSlug, draft.Payload)
	if err != nil {
		return err
	}

	fmt.Println("Application submitted.")
	if rec != nil {
		if id := rec.ID(); id != "" {
			fmt.Printf("Submission ID: %s\n", id)
		}
	}

	if !draftKeep {
		if err := repo.Delete(cmd.Context(), draft.ID); err != nil {
			return fmt.Errorf("submitted, but failed to delete draft: %w", err)
		}
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
