// Package reaper closes job postings that ingestion has stopped refreshing.
// A posting whose updated_at has not moved for the staleness window is
// assumed delisted upstream.
package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/store"
)

// DefaultStalenessDays is the window after which an unrefreshed posting is
// considered gone.
const DefaultStalenessDays = 14

// Report summarizes one reaper pass.
type Report struct {
	Cutoff     time.Time
	DryRun     bool
	Candidates []model.StaleJob
	Closed     int64
}

// Reaper deactivates stale jobs through the store.
type Reaper struct {
	store  store.Store
	logger *slog.Logger

	now func() time.Time
}

// New builds a reaper.
func New(st store.Store, logger *slog.Logger) *Reaper {
	return &Reaper{store: st, logger: logger, now: time.Now}
}

// Deactivate closes ACTIVE jobs not refreshed in the last stalenessDays. In
// dry-run mode it only reports the candidates. The close itself re-checks
// staleness, so a job refreshed between the listing and the update survives.
func (r *Reaper) Deactivate(ctx context.Context, stalenessDays int, dryRun bool) (Report, error) {
	if stalenessDays <= 0 {
		stalenessDays = DefaultStalenessDays
	}
	cutoff := r.now().UTC().AddDate(0, 0, -stalenessDays)
	report := Report{Cutoff: cutoff, DryRun: dryRun}

	candidates, err := r.store.ListStaleJobs(ctx, cutoff)
	if err != nil {
		return report, fmt.Errorf("listing stale jobs: %w", err)
	}
	report.Candidates = candidates

	for _, j := range candidates {
		r.logger.Debug("stale job",
			"source", string(j.Source),
			"source_id", j.SourceID,
			"title", j.Title,
			"last_updated", j.UpdatedAt,
		)
	}

	if dryRun {
		r.logger.Info("reaper dry run",
			"cutoff", cutoff,
			"candidates", len(candidates),
		)
		return report, nil
	}

	closed, err := r.store.CloseStaleJobs(ctx, cutoff)
	if err != nil {
		return report, fmt.Errorf("closing stale jobs: %w", err)
	}
	report.Closed = closed

	r.logger.Info("reaper finished",
		"cutoff", cutoff,
		"candidates", len(candidates),
		"closed", closed,
	)
	return report, nil
}
