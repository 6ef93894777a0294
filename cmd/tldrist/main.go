package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tldrist/internal/app"
	"tldrist/internal/config"
	"tldrist/internal/logging"
)

var (
	flagDryRun bool
	flagMin    int
	flagMax    int
)

var rootCmd = &cobra.Command{
	Use:   "tldrist",
	Short: "Summarizes your reading list into a weekly email digest",
	Long: `tldrist pulls unread articles from a Todoist project, extracts their
content, summarizes them with Gemini, emails a digest, and closes the
tasks it processed.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the cron scheduler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		logger := logging.New(cfg.Logging.Level)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = application.Close() }()

		return application.Serve(ctx)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the pipeline once and print the report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.Load()
		logger := logging.New(cfg.Logging.Level)
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = application.Close() }()

		opts := application.DefaultOptions()
		if cmd.Flags().Changed("dry-run") {
			opts.DryRun = flagDryRun
		}
		if cmd.Flags().Changed("min") {
			opts.MinRequired = flagMin
		}
		if cmd.Flags().Changed("max") {
			opts.MaxCount = flagMax
		}

		report, err := application.Execute(ctx, opts)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(reportSummary(report), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func main() {
	runCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "process items but skip email delivery and task updates")
	runCmd.Flags().IntVar(&flagMin, "min", 0, "minimum pending items required to run")
	runCmd.Flags().IntVar(&flagMax, "max", 0, "maximum items to attempt (0 means no cap)")

	rootCmd.AddCommand(serveCmd, runCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
