package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/latamjobs/jobsync/internal/model"
)

// PostgresStore persists jobs and source health in Postgres, for deployments
// where several processes share one database.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS job_sources (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	type              TEXT NOT NULL,
	website           TEXT NOT NULL DEFAULT '',
	logo_url          TEXT NOT NULL DEFAULT '',
	config            JSONB NOT NULL DEFAULT '{}',
	enabled           BOOLEAN NOT NULL DEFAULT TRUE,
	last_fetched      TIMESTAMPTZ,
	last_run_id       TEXT,
	last_run_status   TEXT,
	last_found        INTEGER NOT NULL DEFAULT 0,
	last_relevant     INTEGER NOT NULL DEFAULT 0,
	last_processed    INTEGER NOT NULL DEFAULT 0,
	last_errors       INTEGER NOT NULL DEFAULT 0,
	last_run_started  TIMESTAMPTZ,
	last_run_finished TIMESTAMPTZ,
	last_run_message  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS jobs (
	source           TEXT NOT NULL,
	source_id        TEXT NOT NULL,
	title            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	responsibilities TEXT NOT NULL DEFAULT '',
	requirements     TEXT NOT NULL DEFAULT '',
	benefits         TEXT NOT NULL DEFAULT '',
	company_name     TEXT NOT NULL DEFAULT '',
	company_website  TEXT NOT NULL DEFAULT '',
	company_logo     TEXT NOT NULL DEFAULT '',
	location         TEXT NOT NULL DEFAULT '',
	workplace_type   TEXT NOT NULL DEFAULT 'UNKNOWN',
	hiring_region    TEXT NOT NULL DEFAULT 'WORLDWIDE',
	job_type         TEXT NOT NULL DEFAULT 'UNKNOWN',
	experience_level TEXT NOT NULL DEFAULT 'UNKNOWN',
	skills           JSONB NOT NULL DEFAULT '[]',
	application_url  TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'ACTIVE',
	published_at     TIMESTAMPTZ NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (source, source_id)
);

CREATE INDEX IF NOT EXISTS idx_jobs_status_updated ON jobs (status, updated_at);
`

// NewPostgresStore connects to Postgres with the given DSN and ensures the
// schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// SyncSources inserts configured sources and refreshes the config-owned
// columns of existing ones. The enabled flag is left untouched on update.
func (s *PostgresStore) SyncSources(ctx context.Context, sources []model.JobSource) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning sync transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO job_sources (id, name, type, website, logo_url, config, enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			website = EXCLUDED.website,
			logo_url = EXCLUDED.logo_url,
			config = EXCLUDED.config`

	for _, src := range sources {
		cfg, err := json.Marshal(src.Config)
		if err != nil {
			return fmt.Errorf("encoding config for source %s: %w", src.ID, err)
		}
		if _, err := tx.Exec(ctx, q,
			src.ID, src.Name, string(src.Type), src.CompanyWebsite, src.LogoURL, string(cfg), src.Enabled,
		); err != nil {
			return fmt.Errorf("syncing source %s: %w", src.ID, err)
		}
	}
	return tx.Commit(ctx)
}

// ListSources returns every known source, enabled or not.
func (s *PostgresStore) ListSources(ctx context.Context) ([]model.JobSource, error) {
	return s.querySources(ctx, "SELECT "+sourceColumns+" FROM job_sources ORDER BY id")
}

// ListEnabledSources returns the sources eligible for ingestion runs.
func (s *PostgresStore) ListEnabledSources(ctx context.Context) ([]model.JobSource, error) {
	return s.querySources(ctx, "SELECT "+sourceColumns+" FROM job_sources WHERE enabled ORDER BY id")
}

func (s *PostgresStore) querySources(ctx context.Context, query string, args ...any) ([]model.JobSource, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []model.JobSource
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// GetSource returns one source by id, or ErrNotFound.
func (s *PostgresStore) GetSource(ctx context.Context, id string) (model.JobSource, error) {
	srcs, err := s.querySources(ctx, "SELECT "+sourceColumns+" FROM job_sources WHERE id = $1", id)
	if err != nil {
		return model.JobSource{}, err
	}
	if len(srcs) == 0 {
		return model.JobSource{}, fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	return srcs[0], nil
}

// ToggleSource flips the enabled flag and returns the new state.
func (s *PostgresStore) ToggleSource(ctx context.Context, id string) (bool, error) {
	var enabled bool
	err := s.pool.QueryRow(ctx,
		"UPDATE job_sources SET enabled = NOT enabled WHERE id = $1 RETURNING enabled", id,
	).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("toggling source %s: %w", id, err)
	}
	return enabled, nil
}

// UpdateSourceHealth stores the latest run snapshot for a source.
func (s *PostgresStore) UpdateSourceHealth(ctx context.Context, id string, report model.RunReport, lastFetched time.Time) error {
	const q = `UPDATE job_sources SET
		last_fetched = $1, last_run_id = $2, last_run_status = $3,
		last_found = $4, last_relevant = $5, last_processed = $6, last_errors = $7,
		last_run_started = $8, last_run_finished = $9, last_run_message = $10
		WHERE id = $11`
	tag, err := s.pool.Exec(ctx, q,
		lastFetched, report.RunID, string(report.Status),
		report.Stats.Found, report.Stats.Relevant, report.Stats.Processed, report.Stats.Errors,
		report.StartedAt, report.FinishedAt, report.Message, id,
	)
	if err != nil {
		return fmt.Errorf("updating health for source %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpsertJob inserts or refreshes a job keyed on (source, source_id). The
// outcome is derived from xmax: zero means the row version was freshly
// inserted.
func (s *PostgresStore) UpsertJob(ctx context.Context, job model.StandardizedJob) (model.UpsertOutcome, error) {
	skills, err := json.Marshal(job.Skills)
	if err != nil {
		return model.Created, fmt.Errorf("encoding skills for job %s: %w", job.SourceID, err)
	}

	const q = `INSERT INTO jobs (
		source, source_id, title, description, responsibilities, requirements, benefits,
		company_name, company_website, company_logo, location, workplace_type, hiring_region,
		job_type, experience_level, skills, application_url, status, published_at, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	ON CONFLICT (source, source_id) DO UPDATE SET
		title = EXCLUDED.title,
		description = EXCLUDED.description,
		responsibilities = EXCLUDED.responsibilities,
		requirements = EXCLUDED.requirements,
		benefits = EXCLUDED.benefits,
		company_name = EXCLUDED.company_name,
		company_website = EXCLUDED.company_website,
		company_logo = EXCLUDED.company_logo,
		location = EXCLUDED.location,
		workplace_type = EXCLUDED.workplace_type,
		hiring_region = EXCLUDED.hiring_region,
		job_type = EXCLUDED.job_type,
		experience_level = EXCLUDED.experience_level,
		skills = EXCLUDED.skills,
		application_url = EXCLUDED.application_url,
		status = EXCLUDED.status,
		published_at = EXCLUDED.published_at,
		updated_at = EXCLUDED.updated_at
	RETURNING (xmax = 0)`

	var inserted bool
	err = s.pool.QueryRow(ctx, q,
		string(job.Source), job.SourceID, job.Title, job.Description,
		job.Responsibilities, job.Requirements, job.Benefits,
		job.CompanyName, job.CompanyWebsite, job.CompanyLogo,
		job.Location, string(job.WorkplaceType), string(job.HiringRegion),
		string(job.JobType), string(job.ExperienceLevel), string(skills),
		job.ApplicationURL, string(job.Status), job.PublishedAt, job.UpdatedAt, job.UpdatedAt,
	).Scan(&inserted)
	if err != nil {
		return model.Created, fmt.Errorf("upserting job %s/%s: %w", job.Source, job.SourceID, err)
	}
	if inserted {
		return model.Created, nil
	}
	return model.Updated, nil
}

// ListStaleJobs returns ACTIVE jobs not refreshed since cutoff.
func (s *PostgresStore) ListStaleJobs(ctx context.Context, cutoff time.Time) ([]model.StaleJob, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT source, source_id, title, updated_at FROM jobs WHERE status = $1 AND updated_at < $2",
		string(model.StatusActive), cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("listing stale jobs: %w", err)
	}
	defer rows.Close()

	var stale []model.StaleJob
	for rows.Next() {
		var j model.StaleJob
		var source string
		if err := rows.Scan(&source, &j.SourceID, &j.Title, &j.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning stale job: %w", err)
		}
		j.Source = model.SourceType(source)
		stale = append(stale, j)
	}
	return stale, rows.Err()
}

// CloseStaleJobs marks stale ACTIVE jobs CLOSED and returns how many changed.
func (s *PostgresStore) CloseStaleJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		"UPDATE jobs SET status = $1 WHERE status = $2 AND updated_at < $3",
		string(model.StatusClosed), string(model.StatusActive), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("closing stale jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountJobs returns the number of jobs with the given status.
func (s *PostgresStore) CountJobs(ctx context.Context, status model.JobStatus) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM jobs WHERE status = $1", string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting jobs: %w", err)
	}
	return count, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
