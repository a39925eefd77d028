package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lian220/quintiq-backend/internal/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Consume pipeline requests and serve the status API",
	Long: `Starts the Kafka request consumer, the Redis queue workers and the cron
scheduler when configured, and the HTTP status surface. Blocks until SIGINT or SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	return app.Run(cmd.Context())
}
