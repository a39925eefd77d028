package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lian220/quintiq-backend/pkg/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "app",
	Short:         "Quantiq data engine: aggregation, technical and sentiment analysis pipelines",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "config file path")
	rootCmd.AddCommand(serveCmd, runCmd, versionCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
