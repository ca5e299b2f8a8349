// Package schedule runs periodic ingestion through robfig/cron.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// RunAllFunc is the ingestion entry point the scheduler drives.
type RunAllFunc func(ctx context.Context) error

// Scheduler wraps robfig/cron around the ingestion loop. Overlapping ticks
// are skipped: if a cycle is still running when the next one fires, the new
// tick is dropped.
type Scheduler struct {
	cron     *cron.Cron
	run      RunAllFunc
	logger   *slog.Logger
	spec     string
	inFlight atomic.Bool
	initial  sync.WaitGroup
}

// New creates a Scheduler that fires every interval.
func New(run RunAllFunc, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		run:    run,
		logger: logger,
		spec:   fmt.Sprintf("@every %s", interval),
	}
}

// Start registers the job and starts the scheduler. One cycle runs
// immediately so the board is populated without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "spec", s.spec)

	// The first cycle runs outside cron, so Stop must track it separately.
	s.initial.Add(1)
	go func() {
		defer s.initial.Done()
		s.runCycle(ctx)
	}()

	return nil
}

// Stop shuts the scheduler down and waits for a running cycle to finish,
// including the immediate cycle kicked off by Start.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.initial.Wait()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn("previous ingestion cycle still running, skipping tick")
		return
	}
	defer s.inFlight.Store(false)

	s.logger.Info("ingestion cycle started")
	if err := s.run(ctx); err != nil {
		s.logger.Error("ingestion cycle failed", "error", err)
		return
	}
	s.logger.Info("ingestion cycle complete")
}
