package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/latamjobs/jobsync/internal/model"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion pass over all enabled sources",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
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
	runs, err := orch.RunAll(ctx)
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}

	unhealthy := 0
	for _, run := range runs {
		if run.Report.Status != model.HealthHealthy {
			unhealthy++
		}
		fmt.Printf("%-25s %-10s found=%-4d relevant=%-4d processed=%-4d errors=%d\n",
			run.Source.ID, string(run.Report.Status),
			run.Report.Stats.Found, run.Report.Stats.Relevant,
			run.Report.Stats.Processed, run.Report.Stats.Errors)
	}
	fmt.Printf("\n%d sources ingested, %d unhealthy\n", len(runs), unhealthy)
	return nil
}
