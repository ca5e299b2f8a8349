package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/latamjobs/jobsync/internal/reaper"
)

var reapDays int

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Close job postings that ingestion stopped refreshing",
	Long:  "Marks ACTIVE jobs as CLOSED when they have not been refreshed within the staleness window. Use --dry-run to list candidates without writing.",
	RunE:  runReap,
}

func init() {
	reapCmd.Flags().IntVar(&reapDays, "days", 0, "staleness window in days (default: config staleness_days)")
	rootCmd.AddCommand(reapCmd)
}

func runReap(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The reaper only reads and updates rows, so dry-run is handled inside
	// Deactivate rather than by swapping the store.
	st, err := openStore(ctx, cfg, false, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	days := reapDays
	if days == 0 {
		days = cfg.StalenessDays
	}

	report, err := reaper.New(st, logger).Deactivate(ctx, days, dryRun)
	if err != nil {
		return err
	}

	for _, j := range report.Candidates {
		fmt.Printf("%-12s %-30s last updated %s\n", string(j.Source), j.SourceID, j.UpdatedAt.Format("2006-01-02"))
	}
	if report.DryRun {
		fmt.Printf("\ndry run: %d candidates older than %s\n", len(report.Candidates), report.Cutoff.Format("2006-01-02"))
	} else {
		fmt.Printf("\nclosed %d of %d candidates\n", report.Closed, len(report.Candidates))
	}
	return nil
}
