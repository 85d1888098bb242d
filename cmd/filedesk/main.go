package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"filedesk/internal/admin"
	"filedesk/internal/api"
	"filedesk/internal/chat"
	"filedesk/internal/config"
	"filedesk/internal/drafts"
	"filedesk/internal/filings"
	"filedesk/internal/session"
	"filedesk/internal/telemetry"
)

// app holds the wired services shared by all commands. It is populated by
// rootCmd's PersistentPreRunE so subcommands can assume it exists.
type app struct {
	cfg      *config.Config
	sessions session.Store
	client   *api.Client
	filings  *filings.Service
	chat     *chat.Service
	admin    *admin.Service

	draftDB  *drafts.DB
	shutdown func(context.Context) error
}

// openDrafts lazily opens the local draft database. Only the draft
// subcommands pay for it.
func (a *app) openDrafts() (*drafts.Repository, error) {
	if a.draftDB == nil {
		db, err := drafts.Open(a.cfg.Drafts.Path)
		if err != nil {
			return nil, err
		}
		a.draftDB = db
	}
	return drafts.NewRepository(a.draftDB), nil
}

func (a *app) close(ctx context.Context) {
	if a.draftDB != nil {
		if err := a.draftDB.Close(); err != nil {
			log.Printf("Error closing draft database: %v", err)
		}
	}
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}
}

var cli = &app{}

var rootCmd = &cobra.Command{
	Use:   "filedesk",
	Short: "filedesk - compliance filing client",
	Long: `filedesk is a command line client for the filing marketplace backend.

It signs in against the backend, submits applications for registration and
licensing services, aggregates application status across every service
category, uploads supporting documents and keeps local drafts for offline
preparation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cli.cfg = cfg

		shutdown, err := telemetry.Init(cmd.Context(), telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			Environment:  cfg.Telemetry.Environment,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		cli.shutdown = shutdown

		cli.sessions = session.NewFileStore(cfg.Session.Path)
		cli.client = api.NewClient(cfg.API.BaseURL(), cli.sessions,
			api.WithRequestTimeout(cfg.API.RequestTimeout),
			api.WithRateLimit(cfg.API.RequestsPerSecond, 1),
		)
		cli.filings = filings.NewService(cli.client, cli.sessions, filings.FanoutOptions{
			Concurrency:       cfg.API.FanoutConcurrency,
			PerRequestTimeout: cfg.API.FanoutTimeout,
			Budget:            cfg.API.FanoutBudget,
		})
		cli.chat = chat.NewService(cli.client)
		cli.admin = admin.NewService(cli.client)
		return nil
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(
		loginCmd, signupCmd, logoutCmd, whoamiCmd,
		servicesCmd, applyCmd, statusCmd, applicationsCmd, requestsCmd,
		uploadCmd,
		chatCmd,
		adminCmd,
		draftCmd,
	)

	err := rootCmd.ExecuteContext(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	cli.close(closeCtx)
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
