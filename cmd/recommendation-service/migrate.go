package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/config"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/infrastructure/db/postgres"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return postgres.Migrate(cfg.DatabaseURL)
		},
	}
}
