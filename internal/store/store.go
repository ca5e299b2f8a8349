// Package store persists canonical jobs and job-source health. The default
// implementation is SQLite; a Postgres implementation is available for
// shared deployments, and a no-op store backs dry runs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/latamjobs/jobsync/internal/model"
)

// ErrNotFound is returned when a requested source does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence collaborator the pipeline depends on. UpsertJob is
// keyed on (source, source_id): both implementations enforce it with a unique
// constraint so concurrent writers cannot duplicate a posting.
type Store interface {
	// SyncSources reconciles the configured sources into the store. Identity,
	// type, config, and company metadata follow the config; the enabled flag
	// is only taken from config on first insert so admin toggles survive
	// restarts.
	SyncSources(ctx context.Context, sources []model.JobSource) error

	ListSources(ctx context.Context) ([]model.JobSource, error)
	ListEnabledSources(ctx context.Context) ([]model.JobSource, error)
	GetSource(ctx context.Context, id string) (model.JobSource, error)

	// ToggleSource flips the enabled flag and returns the new state.
	ToggleSource(ctx context.Context, id string) (bool, error)

	// UpdateSourceHealth persists the latest run snapshot and lastFetched,
	// regardless of how the run went.
	UpdateSourceHealth(ctx context.Context, id string, report model.RunReport, lastFetched time.Time) error

	UpsertJob(ctx context.Context, job model.StandardizedJob) (model.UpsertOutcome, error)

	// ListStaleJobs returns ACTIVE jobs not refreshed since cutoff.
	ListStaleJobs(ctx context.Context, cutoff time.Time) ([]model.StaleJob, error)

	// CloseStaleJobs transitions stale ACTIVE jobs to CLOSED. The staleness
	// predicate is re-evaluated inside the UPDATE so postings refreshed by a
	// concurrent ingestion run are left alone.
	CloseStaleJobs(ctx context.Context, cutoff time.Time) (int64, error)

	CountJobs(ctx context.Context, status model.JobStatus) (int, error)

	Close() error
}
