package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/latamjobs/jobsync/internal/api"
	"github.com/latamjobs/jobsync/internal/reaper"
	"github.com/latamjobs/jobsync/internal/schedule"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ingestion daemon with the admin API",
	Long:  "Starts scheduled ingestion plus the admin HTTP API; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"sources", len(cfg.Sources),
		"interval", cfg.Server.Interval.String(),
		"concurrency", cfg.Concurrency,
		"staleness_days", cfg.StalenessDays,
	)

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
	reap := reaper.New(st, logger)

	// Each scheduled cycle ingests everything and then closes whatever went
	// stale.
	cycle := func(ctx context.Context) error {
		if _, err := orch.RunAll(ctx); err != nil {
			return err
		}
		_, err := reap.Deactivate(ctx, cfg.StalenessDays, false)
		return err
	}

	sched := schedule.New(cycle, cfg.Server.Interval, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	apiServer := api.NewServer(st, orch, reap, logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           apiServer.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("admin API listening", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}

	logger.Info("goodbye")
	return nil
}
