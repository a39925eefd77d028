package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lian220/quintiq-backend/internal/di"
	"github.com/lian220/quintiq-backend/internal/domain/models"
)

var runDate string

var runCmd = &cobra.Command{
	Use:   "run <aggregate|technical|sentiment|combined>",
	Short: "Run one pipeline synchronously and print its outcome",
	Long: `Dispatches a single request in process, with the same notifications and
events as a bus request. Exits 1 when the outcome is failed.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: kindNames(),
	RunE:      runPipeline,
}

func init() {
	runCmd.Flags().StringVarP(&runDate, "date", "d", "", "target date YYYY-MM-DD (default today, UTC)")
}

func kindNames() []string {
	names := make([]string, 0, len(models.RequestKinds))
	for _, k := range models.RequestKinds {
		names = append(names, string(k))
	}
	return names
}

func runPipeline(cmd *cobra.Command, args []string) error {
	kind, ok := models.ParseRequestKind(args[0])
	if !ok {
		return fmt.Errorf("%w: %q (want one of %s)", models.ErrUnknownRequestKind, args[0], strings.Join(kindNames(), ", "))
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	engine, cleanup, err := di.InitializeEngine(cfg)
	if err != nil {
		return fmt.Errorf("engine initialization failed: %w", err)
	}
	defer cleanup()

	req := models.NewPipelineRequest(kind, "cli", runDate)
	outcome, _ := engine.Dispatcher.Dispatch(cmd.Context(), req)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	if outcome.Status != models.StatusSuccess {
		cleanup()
		os.Exit(1)
	}
	return nil
}
