package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/latamjobs/jobsync/internal/config"
	"github.com/latamjobs/jobsync/internal/fetcher"
	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/notify"
	"github.com/latamjobs/jobsync/internal/pipeline"
	"github.com/latamjobs/jobsync/internal/scoring"
	"github.com/latamjobs/jobsync/internal/store"
)

var (
	cfgPath string
	debug   bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "jobsync",
	Short: "Job board ingestion pipeline",
	Long:  "jobsync pulls postings from configured job boards, scores and classifies them, and keeps the canonical job table fresh.",
	// Default to `ingest` so cron entries can invoke the binary directly.
	RunE: runIngest,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSYNC_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "run without writing to the database")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBSYNC_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSYNC_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// openStore picks the backend from config. With discard set the no-op store
// is returned, so nothing touches the database.
func openStore(ctx context.Context, cfg *config.Config, discard bool, logger *slog.Logger) (store.Store, error) {
	if discard {
		logger.Info("dry-run mode enabled, nothing will be persisted")
		return store.NewNopStore(), nil
	}
	switch cfg.Database.Driver {
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.Database.DSN)
	default:
		return store.NewSQLiteStore(cfg.Database.Path)
	}
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notify.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notify.NewLogNotifier(logger)
	}
}

func buildOrchestrator(cfg *config.Config, st store.Store, logger *slog.Logger) *pipeline.Orchestrator {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	signals := scoring.Compile(cfg.Scoring, logger)
	if n := signals.Skipped(); n > 0 {
		logger.Warn("some scoring patterns were skipped", "count", n)
	}
	gate := fetcher.Gate{Signals: signals, MinScore: cfg.MinScore}

	registry := pipeline.NewRegistry(httpClient, gate, logger)
	notifier := setupNotifier(cfg, httpClient, logger)
	return pipeline.NewOrchestrator(registry, st, notifier, logger, cfg.Concurrency)
}
