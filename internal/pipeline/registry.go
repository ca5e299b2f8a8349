// Package pipeline wires fetchers, processors, and the store into source
// ingestion runs. The orchestrator runs sources through a bounded worker
// pool; the adapter is the seam that turns a raw record into a persisted job.
package pipeline

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/latamjobs/jobsync/internal/fetcher"
	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/processor"
)

// entry pairs the fetcher and processor that handle one source type.
type entry struct {
	fetcher   model.Fetcher
	processor model.Processor
}

// Registry maps each supported source type to its fetcher/processor pair.
// The set is closed: an unknown type is a config error, not a runtime
// fallback.
type Registry struct {
	entries map[model.SourceType]entry
}

// NewRegistry builds the full registry. The relevance gate applies to the API
// fetchers; HTML boards are curated listings, so their relevance is decided
// during processing instead.
func NewRegistry(client *http.Client, gate fetcher.Gate, logger *slog.Logger) *Registry {
	return &Registry{entries: map[model.SourceType]entry{
		model.SourceGreenhouse: {
			fetcher:   fetcher.NewGreenhouse(client, gate, logger),
			processor: processor.NewGreenhouse(logger),
		},
		model.SourceLever: {
			fetcher:   fetcher.NewLever(client, gate, logger),
			processor: processor.NewLever(logger),
		},
		model.SourceAshby: {
			fetcher:   fetcher.NewAshby(client, gate, logger),
			processor: processor.NewAshby(logger),
		},
		model.SourceHTML: {
			fetcher:   fetcher.NewHTMLBoard(client, logger),
			processor: processor.NewHTMLBoard(client, logger),
		},
	}}
}

// Lookup returns the fetcher/processor pair for a source type.
func (r *Registry) Lookup(t model.SourceType) (model.Fetcher, model.Processor, error) {
	e, ok := r.entries[t]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported source type %q", t)
	}
	return e.fetcher, e.processor, nil
}
