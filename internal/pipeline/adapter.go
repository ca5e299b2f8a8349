package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/processor"
	"github.com/latamjobs/jobsync/internal/store"
)

// Adapter receives raw records from a fetcher, runs them through the source's
// processor, and persists the result. It is the only path into UpsertJob.
type Adapter struct {
	proc   model.Processor
	store  store.Store
	logger *slog.Logger
}

// NewAdapter builds the sink for one source run.
func NewAdapter(proc model.Processor, st store.Store, logger *slog.Logger) *Adapter {
	return &Adapter{proc: proc, store: st, logger: logger}
}

// ProcessRaw reports true only when the record was persisted. Rejections
// (missing id, irrelevant) and processing failures are logged and swallowed:
// one bad record never aborts the source run.
func (a *Adapter) ProcessRaw(ctx context.Context, source model.JobSource, raw model.RawJob) bool {
	job, err := a.proc.Process(ctx, raw, source)
	if err != nil {
		if errors.Is(err, processor.ErrMissingSourceID) || errors.Is(err, processor.ErrIrrelevant) {
			a.logger.Warn("job rejected",
				"source", source.ID,
				"title", raw.Title,
				"reason", err.Error(),
			)
		} else {
			a.logger.Warn("job processing failed",
				"source", source.ID,
				"title", raw.Title,
				"error", err,
			)
		}
		return false
	}

	outcome, err := a.store.UpsertJob(ctx, *job)
	if err != nil {
		a.logger.Error("job upsert failed",
			"source", source.ID,
			"source_id", job.SourceID,
			"error", err,
		)
		return false
	}

	a.logger.Debug("job saved",
		"source", source.ID,
		"source_id", job.SourceID,
		"outcome", string(outcome),
	)
	return true
}
