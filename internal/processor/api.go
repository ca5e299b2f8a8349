package processor

import (
	"context"
	"log/slog"
	"time"

	"github.com/latamjobs/jobsync/internal/model"
)

// Greenhouse standardizes Greenhouse board records. The boards API returns
// descriptions HTML-entity-encoded; the shared strip pass handles both the
// encoded and plain forms.
type Greenhouse struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewGreenhouse creates the processor for Greenhouse records.
func NewGreenhouse(logger *slog.Logger) *Greenhouse {
	return &Greenhouse{logger: logger, now: time.Now}
}

// Process maps a raw Greenhouse record to the canonical representation.
func (p *Greenhouse) Process(_ context.Context, raw model.RawJob, source model.JobSource) (*model.StandardizedJob, error) {
	return standardize(raw, source, p.logger, p.now)
}

// Lever standardizes Lever posting records. The fetcher already prefers the
// plain-text description variant when the API provides one.
type Lever struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewLever creates the processor for Lever records.
func NewLever(logger *slog.Logger) *Lever {
	return &Lever{logger: logger, now: time.Now}
}

// Process maps a raw Lever record to the canonical representation.
func (p *Lever) Process(_ context.Context, raw model.RawJob, source model.JobSource) (*model.StandardizedJob, error) {
	return standardize(raw, source, p.logger, p.now)
}

// Ashby standardizes Ashby job-board records, which carry the richest
// structured fields (remote flag, postal address, employment type).
type Ashby struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAshby creates the processor for Ashby records.
func NewAshby(logger *slog.Logger) *Ashby {
	return &Ashby{logger: logger, now: time.Now}
}

// Process maps a raw Ashby record to the canonical representation.
func (p *Ashby) Process(_ context.Context, raw model.RawJob, source model.JobSource) (*model.StandardizedJob, error) {
	return standardize(raw, source, p.logger, p.now)
}
