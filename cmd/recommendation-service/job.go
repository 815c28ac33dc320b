package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/application/jobs"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/telemetry"
)

func jobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Run background jobs once",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run <name>",
		Short: "Run a single job and exit",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range []string{
				jobs.NamePerformanceReport,
				jobs.NameRecommendationPrewarm,
				jobs.NameRetention,
				jobs.NameTrendingPrewarm,
			} {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})
	return cmd
}

func runJob(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	flush := telemetry.Init(telemetry.Config{DSN: cfg.SentryDSN, Environment: cfg.AppEnv, Release: version})
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	j, err := app.Jobs.Get(args[0])
	if err != nil {
		return err
	}
	return jobs.Execute(ctx, j)
}
