package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	logger.Init()

	rootCmd := &cobra.Command{
		Use:           "recommendation-service",
		Short:         "Product recommendation API and background jobs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(jobCmd())
	rootCmd.AddCommand(migrateCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
