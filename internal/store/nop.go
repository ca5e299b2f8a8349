package store

import (
	"context"
	"sync"
	"time"

	"github.com/latamjobs/jobsync/internal/model"
)

// NopStore is the dry-run store. Synced sources are kept in memory so a run
// still knows what to fetch, but job writes and health updates are discarded.
type NopStore struct {
	mu      sync.Mutex
	sources []model.JobSource
}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) SyncSources(ctx context.Context, sources []model.JobSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = sources
	return nil
}

func (s *NopStore) ListSources(ctx context.Context) ([]model.JobSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources, nil
}

func (s *NopStore) ListEnabledSources(ctx context.Context) ([]model.JobSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var enabled []model.JobSource
	for _, src := range s.sources {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled, nil
}

func (s *NopStore) GetSource(ctx context.Context, id string) (model.JobSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, src := range s.sources {
		if src.ID == id {
			return src, nil
		}
	}
	return model.JobSource{}, ErrNotFound
}

func (s *NopStore) ToggleSource(ctx context.Context, id string) (bool, error) {
	return false, ErrNotFound
}

func (s *NopStore) UpdateSourceHealth(ctx context.Context, id string, report model.RunReport, lastFetched time.Time) error {
	return nil
}

func (s *NopStore) UpsertJob(ctx context.Context, job model.StandardizedJob) (model.UpsertOutcome, error) {
	return model.Created, nil
}

func (s *NopStore) ListStaleJobs(ctx context.Context, cutoff time.Time) ([]model.StaleJob, error) {
	return nil, nil
}

func (s *NopStore) CloseStaleJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *NopStore) CountJobs(ctx context.Context, status model.JobStatus) (int, error) {
	return 0, nil
}

func (s *NopStore) Close() error { return nil }
