package main

import (
	"os"

	"github.com/spf13/cobra"
)

// @title SMA Score API
// @version 1.0.0
// @description Exam score entry, class and grade ranking, and score statistics.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "score-api",
		Short:        "School exam score ranking and statistics service",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, migrateCmd(), recalculateCmd())

	// bare `score-api` starts the server
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}
