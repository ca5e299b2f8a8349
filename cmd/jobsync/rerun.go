package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rerunCmd = &cobra.Command{
	Use:   "rerun <source-id>",
	Short: "Rerun ingestion for a single source",
	Args:  cobra.ExactArgs(1),
	RunE:  runRerun,
}

func init() {
	rootCmd.AddCommand(rerunCmd)
}

func runRerun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, dryRun, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.SyncSources(ctx, cfg.Sources); err != nil {
		logger.Error("failed to sync sources", "error", err)
		os.Exit(1)
	}

	orch := buildOrchestrator(cfg, st, logger)
	run, err := orch.RunSource(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s (found=%d relevant=%d processed=%d errors=%d)\n",
		run.Source.ID, string(run.Report.Status),
		run.Report.Stats.Found, run.Report.Stats.Relevant,
		run.Report.Stats.Processed, run.Report.Stats.Errors)
	if run.Report.Message != "" {
		fmt.Printf("message: %s\n", run.Report.Message)
	}
	return nil
}
