package model

import (
	"context"
	"time"
)

// Sink receives raw records from fetchers and reports whether the record was
// persisted. It is the single seam between the fetch layer and storage.
type Sink interface {
	ProcessRaw(ctx context.Context, source JobSource, raw RawJob) bool
}

// Fetcher retrieves the postings of one configured source, forwarding each
// raw record to the sink. A returned error means the whole source run failed
// (transport, decode); per-record problems are reflected in the stats only.
type Fetcher interface {
	Fetch(ctx context.Context, source JobSource, sink Sink) (FetchResult, error)
}

// Processor maps a raw record into the canonical job representation. It
// returns ErrMissingSourceID or ErrIrrelevant (possibly wrapped) for normal
// rejections; other errors are processing failures.
type Processor interface {
	Process(ctx context.Context, raw RawJob, source JobSource) (*StandardizedJob, error)
}

// Notifier reports finished source runs to operators. Implementations decide
// which statuses are worth a message.
type Notifier interface {
	RunFinished(source JobSource, report RunReport) error
}

// UpsertOutcome tells whether an upsert created a new row or refreshed one.
type UpsertOutcome string

const (
	Created UpsertOutcome = "created"
	Updated UpsertOutcome = "updated"
)

// StaleJob is a reaper candidate: an ACTIVE posting not refreshed since the
// cutoff.
type StaleJob struct {
	Source    SourceType
	SourceID  string
	Title     string
	UpdatedAt time.Time
}
