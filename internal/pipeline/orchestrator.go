package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/store"
)

// DefaultConcurrency bounds how many sources are ingested at once.
const DefaultConcurrency = 5

// SourceRun pairs a source with the report of its finished run.
type SourceRun struct {
	Source model.JobSource
	Report model.RunReport
}

// Orchestrator runs ingestion across configured sources. Each source run is
// isolated: a source that fails records an Error health status and a
// notification, and the remaining sources keep going.
type Orchestrator struct {
	registry    *Registry
	store       store.Store
	notifier    model.Notifier
	logger      *slog.Logger
	concurrency int

	now      func() time.Time
	newRunID func() string
}

// NewOrchestrator builds an orchestrator. A non-positive concurrency falls
// back to DefaultConcurrency. The notifier may be nil.
func NewOrchestrator(reg *Registry, st store.Store, notifier model.Notifier, logger *slog.Logger, concurrency int) *Orchestrator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Orchestrator{
		registry:    reg,
		store:       st,
		notifier:    notifier,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
		newRunID:    uuid.NewString,
	}
}

// RunAll ingests every enabled source through a bounded worker pool and
// returns the per-source reports sorted by source id.
func (o *Orchestrator) RunAll(ctx context.Context) ([]SourceRun, error) {
	sources, err := o.store.ListEnabledSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing enabled sources: %w", err)
	}
	if len(sources) == 0 {
		o.logger.Info("no enabled sources to ingest")
		return nil, nil
	}

	var (
		mu   sync.Mutex
		runs []SourceRun
		g    errgroup.Group
	)
	g.SetLimit(o.concurrency)

	for _, src := range sources {
		src := src
		g.Go(func() error {
			report := o.runSource(ctx, src)
			mu.Lock()
			runs = append(runs, SourceRun{Source: src, Report: report})
			mu.Unlock()
			return nil
		})
	}
	// Worker funcs never return errors; failures live in the reports.
	_ = g.Wait()

	sort.Slice(runs, func(i, j int) bool { return runs[i].Source.ID < runs[j].Source.ID })
	return runs, ctx.Err()
}

// RunSource ingests a single source by id, for admin-triggered reruns.
func (o *Orchestrator) RunSource(ctx context.Context, id string) (SourceRun, error) {
	src, err := o.store.GetSource(ctx, id)
	if err != nil {
		return SourceRun{}, err
	}
	if !src.Enabled {
		return SourceRun{}, fmt.Errorf("source %s is disabled", id)
	}
	return SourceRun{Source: src, Report: o.runSource(ctx, src)}, nil
}

func (o *Orchestrator) runSource(ctx context.Context, src model.JobSource) model.RunReport {
	report := model.RunReport{
		RunID:     o.newRunID(),
		StartedAt: o.now().UTC(),
	}
	o.logger.Info("source run started", "source", src.ID, "type", string(src.Type), "run_id", report.RunID)

	fetch, proc, err := o.registry.Lookup(src.Type)
	if err != nil {
		report.Status = model.HealthError
		report.Message = err.Error()
	} else {
		sink := NewAdapter(proc, o.store, o.logger)
		result, fetchErr := fetch.Fetch(ctx, src, sink)
		report.Stats = result.Stats
		report.Status = model.ClassifyHealth(result.Stats, fetchErr)
		if fetchErr != nil {
			report.Message = fetchErr.Error()
		}
	}
	report.FinishedAt = o.now().UTC()

	if err := o.store.UpdateSourceHealth(ctx, src.ID, report, report.FinishedAt); err != nil {
		o.logger.Error("failed to persist source health", "source", src.ID, "error", err)
	}

	o.logger.Info("source run finished",
		"source", src.ID,
		"run_id", report.RunID,
		"status", string(report.Status),
		"found", report.Stats.Found,
		"relevant", report.Stats.Relevant,
		"processed", report.Stats.Processed,
		"errors", report.Stats.Errors,
		"duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)

	if report.Status != model.HealthHealthy && o.notifier != nil {
		if err := o.notifier.RunFinished(src, report); err != nil {
			o.logger.Warn("run notification failed", "source", src.ID, "error", err)
		}
	}
	return report
}
