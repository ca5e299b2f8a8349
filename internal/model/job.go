package model

import "time"

// SourceType discriminates which fetcher/processor pair handles a JobSource.
// The set is closed: adding a source type means adding a registry entry.
type SourceType string

const (
	SourceGreenhouse SourceType = "greenhouse"
	SourceLever      SourceType = "lever"
	SourceAshby      SourceType = "ashby"
	SourceHTML       SourceType = "html"
)

// SourceTypes lists every supported source type, used for registry
// exhaustiveness checks and config validation.
func SourceTypes() []SourceType {
	return []SourceType{SourceGreenhouse, SourceLever, SourceAshby, SourceHTML}
}

// JobStatus is the lifecycle state of a canonical job record.
type JobStatus string

const (
	StatusActive JobStatus = "ACTIVE"
	StatusClosed JobStatus = "CLOSED"
)

// WorkplaceType classifies where the work happens.
type WorkplaceType string

const (
	WorkplaceRemote  WorkplaceType = "REMOTE"
	WorkplaceHybrid  WorkplaceType = "HYBRID"
	WorkplaceOnSite  WorkplaceType = "ON_SITE"
	WorkplaceUnknown WorkplaceType = "UNKNOWN"
)

// HiringRegion is the coarse eligibility classification for a posting.
type HiringRegion string

const (
	RegionWorldwide HiringRegion = "WORLDWIDE"
	RegionLatam     HiringRegion = "LATAM"
	RegionBrazil    HiringRegion = "BRAZIL"
)

// JobType is the employment arrangement of a posting.
type JobType string

const (
	JobTypeFullTime   JobType = "FULL_TIME"
	JobTypePartTime   JobType = "PART_TIME"
	JobTypeContract   JobType = "CONTRACT"
	JobTypeInternship JobType = "INTERNSHIP"
	JobTypeUnknown    JobType = "UNKNOWN"
)

// ExperienceLevel is the seniority classification extracted from job text.
type ExperienceLevel string

const (
	LevelJunior  ExperienceLevel = "JUNIOR"
	LevelMid     ExperienceLevel = "MID_LEVEL"
	LevelSenior  ExperienceLevel = "SENIOR"
	LevelLead    ExperienceLevel = "LEAD"
	LevelUnknown ExperienceLevel = "UNKNOWN"
)

// JobSource is a configured upstream job board. Identity and config come from
// the operator; LastFetched and LatestRun are mutated by the orchestrator
// after every run.
type JobSource struct {
	ID             string
	Name           string
	Type           SourceType
	Enabled        bool
	Config         map[string]string // board token, listing URL, selectors...
	CompanyWebsite string
	LogoURL        string
	LastFetched    *time.Time
	LatestRun      *RunReport
}

// RawJob is the fetcher-specific intermediate record. It either carries a
// complete posting or just enough (an id / apply URL) for the processor to
// fetch the rest. It lives only for the duration of one source run.
type RawJob struct {
	ID                 string
	Title              string
	Description        string // may contain HTML
	Location           string
	SecondaryLocations []string
	Address            string
	Country            string
	IsRemote           *bool // nil when the source has no structured flag
	IsListed           *bool
	EmploymentType     string
	PublishedAt        string // raw upstream timestamp, parsed by the processor
	ApplyURL           string
	Department         string
}

// StandardizedJob is the canonical, source-agnostic job record. (Source,
// SourceID) is the natural key used for upsert: re-ingesting the same posting
// updates the existing row.
type StandardizedJob struct {
	Source           SourceType
	SourceID         string
	Title            string
	Description      string
	Requirements     string
	Responsibilities string
	Benefits         string
	Skills           []string
	JobType          JobType
	ExperienceLevel  ExperienceLevel
	WorkplaceType    WorkplaceType
	HiringRegion     HiringRegion
	Location         string
	ApplicationURL   string
	CompanyName      string
	CompanyWebsite   string
	CompanyLogo      string
	PublishedAt      time.Time
	Status           JobStatus
	UpdatedAt        time.Time
}

// RunStats aggregates one source run. Errors counts fetch/transport/parse
// failures only; downstream rejects never increment it.
type RunStats struct {
	Found     int
	Relevant  int
	Processed int
	Errors    int
}

// HealthStatus summarizes a source run for operators.
type HealthStatus string

const (
	HealthHealthy HealthStatus = "Healthy"
	HealthWarning HealthStatus = "Warning"
	HealthError   HealthStatus = "Error"
)

// RunReport is the health snapshot persisted on a JobSource after each run.
type RunReport struct {
	RunID      string
	Status     HealthStatus
	Stats      RunStats
	StartedAt  time.Time
	FinishedAt time.Time
	Message    string // fatal error text when Status is Error, else empty
}

// ClassifyHealth derives the health status for a finished run. A fatal fetch
// error or any counted error marks the source Error; a run that found records
// but produced nothing is a Warning; everything else, including an empty
// board, is Healthy.
func ClassifyHealth(stats RunStats, fatal error) HealthStatus {
	if fatal != nil || stats.Errors > 0 {
		return HealthError
	}
	if stats.Found > 0 && (stats.Relevant == 0 || stats.Processed == 0) {
		return HealthWarning
	}
	return HealthHealthy
}

// FetchResult is what a fetcher hands back to the orchestrator: the set of
// upstream ids seen this run plus the run counters.
type FetchResult struct {
	FoundIDs map[string]struct{}
	Stats    RunStats
}

// NewFetchResult returns a FetchResult with an allocated id set.
func NewFetchResult() FetchResult {
	return FetchResult{FoundIDs: make(map[string]struct{})}
}
