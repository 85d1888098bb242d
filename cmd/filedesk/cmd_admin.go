package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"filedesk/internal/admin"
)

var (
	adminLogsLimit     int
	adminMaintenance   bool
	adminSupportEmail  string
	adminAnnouncement  string
	adminClearAnnounce bool
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Marketplace administration",
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show marketplace statistics",
	RunE:  runAdminStats,
}

var adminLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the audit log",
	RunE:  runAdminLogs,
}

var adminSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or update marketplace settings",
	RunE:  runAdminSettings,
}

var adminNotificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show dashboard notifications",
	RunE:  runAdminNotifications,
}

func init() {
	adminLogsCmd.Flags().IntVarP(&adminLogsLimit, "limit", "n", 50, "maximum entries to fetch")
	adminSettingsCmd.Flags().BoolVar(&adminMaintenance, "maintenance", false, "enable maintenance mode")
	adminSettingsCmd.Flags().StringVar(&adminSupportEmail, "support-email", "", "set the support email")
	adminSettingsCmd.Flags().StringVar(&adminAnnouncement, "announce", "", "set the announcement banner")
	adminSettingsCmd.Flags().BoolVar(&adminClearAnnounce, "clear-announce", false, "clear the announcement banner")
	adminCmd.AddCommand(adminStatsCmd, adminLogsCmd, adminSettingsCmd, adminNotificationsCmd)
}

func runAdminStats(cmd *cobra.Command, args []string) error {
	stats := cli.admin.Stats(cmd.Context())

	fmt.Printf("Users:       %d\n", stats.TotalUsers)
	fmt.Printf("Submissions: %d\n", stats.TotalSubmissions)
	fmt.Printf("In review:   %d\n", stats.PendingReview)

	if len(stats.ByStatus) > 0 {
		statuses := make([]string, 0, len(stats.ByStatus))
		for s := range stats.ByStatus {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		fmt.Println("\nBy status:")
		for _, s := range statuses {
			fmt.Printf("  %-12s %d\n", s, stats.ByStatus[s])
		}
	}
	return nil
}

func runAdminLogs(cmd *cobra.Command, args []string) error {
	entries, err := cli.admin.Logs(cmd.Context(), adminLogsLimit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Audit log is empty.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tACTOR\tACTION\tDETAIL")
	for _, e := range entries {
		when := "-"
		if !e.CreatedAt.IsZero() {
			when = e.CreatedAt.Local().Format(time.DateTime)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", when, e.Actor, e.Action, e.Detail)
	}
	return w.Flush()
}

func runAdminSettings(cmd *cobra.Command, args []string) error {
	settings, err := cli.admin.Settings(cmd.Context())
	if err != nil {
		return err
	}

	if !settingsFlagsChanged(cmd) {
		printSettings(settings)
		return nil
	}

	if cmd.Flags().Changed("maintenance") {
		settings.MaintenanceMode = adminMaintenance
	}
	if cmd.Flags().Changed("support-email") {
		settings.SupportEmail = adminSupportEmail
	}
	if cmd.Flags().Changed("announce") {
		settings.AnnouncementText = adminAnnouncement
	}
	if adminClearAnnounce {
		settings.AnnouncementText = ""
	}

	if err := cli.admin.UpdateSettings(cmd.Context(), *settings); err != nil {
		return err
	}
	fmt.Println("Settings updated.")
	printSettings(settings)
	return nil
}

func settingsFlagsChanged(cmd *cobra.Command) bool {
	for _, name := range []string{"maintenance", "support-email", "announce", "clear-announce"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func printSettings(s *admin.Settings) {
	fmt.Printf("Maintenance mode: %v\n", s.MaintenanceMode)
	fmt.Printf("Support email:    %s\n", orDash(s.SupportEmail))
	fmt.Printf("Max upload:       %d bytes\n", s.MaxUploadBytes)
	fmt.Printf("Announcement:     %s\n", orDash(s.AnnouncementText))
}

func runAdminNotifications(cmd *cobra.Command, args []string) error {
	notices := cli.admin.Notifications(cmd.Context())
	if len(notices) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	for _, n := range notices {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Printf("%s %s", marker, n.Title)
		if !n.CreatedAt.IsZero() {
			fmt.Printf(" (%s)", n.CreatedAt.Local().Format(time.DateOnly))
		}
		fmt.Println()
		if n.Body != "" {
			fmt.Printf("  %s\n", n.Body)
		}
	}
	return nil
}
