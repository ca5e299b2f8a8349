package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/latamjobs/jobsync/internal/model"
)

// SQLiteStore persists jobs and source health in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS job_sources (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	type              TEXT NOT NULL,
	website           TEXT NOT NULL DEFAULT '',
	logo_url          TEXT NOT NULL DEFAULT '',
	config            TEXT NOT NULL DEFAULT '{}',
	enabled           INTEGER NOT NULL DEFAULT 1,
	last_fetched      DATETIME,
	last_run_id       TEXT,
	last_run_status   TEXT,
	last_found        INTEGER NOT NULL DEFAULT 0,
	last_relevant     INTEGER NOT NULL DEFAULT 0,
	last_processed    INTEGER NOT NULL DEFAULT 0,
	last_errors       INTEGER NOT NULL DEFAULT 0,
	last_run_started  DATETIME,
	last_run_finished DATETIME,
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
	skills           TEXT NOT NULL DEFAULT '[]',
	application_url  TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL DEFAULT 'ACTIVE',
	published_at     DATETIME NOT NULL,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL,
	PRIMARY KEY (source, source_id)
);

CREATE INDEX IF NOT EXISTS idx_jobs_status_updated ON jobs (status, updated_at);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// SQLite allows a single writer. Parallel source workers share one
	// connection so their writes serialize instead of hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SyncSources inserts configured sources and refreshes the config-owned
// columns of existing ones. The enabled flag is left untouched on update.
func (s *SQLiteStore) SyncSources(ctx context.Context, sources []model.JobSource) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning sync transaction: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT INTO job_sources (id, name, type, website, logo_url, config, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			website = excluded.website,
			logo_url = excluded.logo_url,
			config = excluded.config`

	for _, src := range sources {
		cfg, err := json.Marshal(src.Config)
		if err != nil {
			return fmt.Errorf("encoding config for source %s: %w", src.ID, err)
		}
		if _, err := tx.ExecContext(ctx, q,
			src.ID, src.Name, string(src.Type), src.CompanyWebsite, src.LogoURL, string(cfg), src.Enabled,
		); err != nil {
			return fmt.Errorf("syncing source %s: %w", src.ID, err)
		}
	}
	return tx.Commit()
}

const sourceColumns = `id, name, type, website, logo_url, config, enabled,
	last_fetched, last_run_id, last_run_status, last_found, last_relevant,
	last_processed, last_errors, last_run_started, last_run_finished, last_run_message`

// ListSources returns every known source, enabled or not.
func (s *SQLiteStore) ListSources(ctx context.Context) ([]model.JobSource, error) {
	return s.querySources(ctx, "SELECT "+sourceColumns+" FROM job_sources ORDER BY id")
}

// ListEnabledSources returns the sources eligible for ingestion runs.
func (s *SQLiteStore) ListEnabledSources(ctx context.Context) ([]model.JobSource, error) {
	return s.querySources(ctx, "SELECT "+sourceColumns+" FROM job_sources WHERE enabled = 1 ORDER BY id")
}

func (s *SQLiteStore) querySources(ctx context.Context, query string, args ...any) ([]model.JobSource, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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
func (s *SQLiteStore) GetSource(ctx context.Context, id string) (model.JobSource, error) {
	srcs, err := s.querySources(ctx, "SELECT "+sourceColumns+" FROM job_sources WHERE id = ?", id)
	if err != nil {
		return model.JobSource{}, err
	}
	if len(srcs) == 0 {
		return model.JobSource{}, fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	return srcs[0], nil
}

// ToggleSource flips the enabled flag and returns the new state.
func (s *SQLiteStore) ToggleSource(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "UPDATE job_sources SET enabled = NOT enabled WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("toggling source %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return false, fmt.Errorf("source %s: %w", id, ErrNotFound)
	}

	var enabled bool
	if err := s.db.QueryRowContext(ctx, "SELECT enabled FROM job_sources WHERE id = ?", id).Scan(&enabled); err != nil {
		return false, fmt.Errorf("reading toggled source %s: %w", id, err)
	}
	return enabled, nil
}

// UpdateSourceHealth stores the latest run snapshot for a source.
func (s *SQLiteStore) UpdateSourceHealth(ctx context.Context, id string, report model.RunReport, lastFetched time.Time) error {
	const q = `UPDATE job_sources SET
		last_fetched = ?, last_run_id = ?, last_run_status = ?,
		last_found = ?, last_relevant = ?, last_processed = ?, last_errors = ?,
		last_run_started = ?, last_run_finished = ?, last_run_message = ?
		WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q,
		lastFetched, report.RunID, string(report.Status),
		report.Stats.Found, report.Stats.Relevant, report.Stats.Processed, report.Stats.Errors,
		report.StartedAt, report.FinishedAt, report.Message, id,
	)
	if err != nil {
		return fmt.Errorf("updating health for source %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	return nil
}

// UpsertJob inserts or refreshes a job keyed on (source, source_id).
func (s *SQLiteStore) UpsertJob(ctx context.Context, job model.StandardizedJob) (model.UpsertOutcome, error) {
	skills, err := json.Marshal(job.Skills)
	if err != nil {
		return model.Created, fmt.Errorf("encoding skills for job %s: %w", job.SourceID, err)
	}

	// The existence check and the upsert share a transaction so the
	// created/updated outcome cannot be skewed by a concurrent insert.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Created, fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM jobs WHERE source = ? AND source_id = ?", string(job.Source), job.SourceID,
	).Scan(&exists)
	outcome := model.Updated
	if err == sql.ErrNoRows {
		outcome = model.Created
	} else if err != nil {
		return model.Created, fmt.Errorf("checking job %s/%s: %w", job.Source, job.SourceID, err)
	}

	const q = `INSERT INTO jobs (
		source, source_id, title, description, responsibilities, requirements, benefits,
		company_name, company_website, company_logo, location, workplace_type, hiring_region,
		job_type, experience_level, skills, application_url, status, published_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(source, source_id) DO UPDATE SET
		title = excluded.title,
		description = excluded.description,
		responsibilities = excluded.responsibilities,
		requirements = excluded.requirements,
		benefits = excluded.benefits,
		company_name = excluded.company_name,
		company_website = excluded.company_website,
		company_logo = excluded.company_logo,
		location = excluded.location,
		workplace_type = excluded.workplace_type,
		hiring_region = excluded.hiring_region,
		job_type = excluded.job_type,
		experience_level = excluded.experience_level,
		skills = excluded.skills,
		application_url = excluded.application_url,
		status = excluded.status,
		published_at = excluded.published_at,
		updated_at = excluded.updated_at`

	if _, err := tx.ExecContext(ctx, q,
		string(job.Source), job.SourceID, job.Title, job.Description,
		job.Responsibilities, job.Requirements, job.Benefits,
		job.CompanyName, job.CompanyWebsite, job.CompanyLogo,
		job.Location, string(job.WorkplaceType), string(job.HiringRegion),
		string(job.JobType), string(job.ExperienceLevel), string(skills),
		job.ApplicationURL, string(job.Status), job.PublishedAt, job.UpdatedAt, job.UpdatedAt,
	); err != nil {
		return outcome, fmt.Errorf("upserting job %s/%s: %w", job.Source, job.SourceID, err)
	}
	if err := tx.Commit(); err != nil {
		return outcome, fmt.Errorf("committing job %s/%s: %w", job.Source, job.SourceID, err)
	}
	return outcome, nil
}

// ListStaleJobs returns ACTIVE jobs not refreshed since cutoff.
func (s *SQLiteStore) ListStaleJobs(ctx context.Context, cutoff time.Time) ([]model.StaleJob, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT source, source_id, title, updated_at FROM jobs WHERE status = ? AND updated_at < ?",
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
func (s *SQLiteStore) CloseStaleJobs(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE jobs SET status = ? WHERE status = ? AND updated_at < ?",
		string(model.StatusClosed), string(model.StatusActive), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("closing stale jobs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting closed jobs: %w", err)
	}
	return n, nil
}

// CountJobs returns the number of jobs with the given status.
func (s *SQLiteStore) CountJobs(ctx context.Context, status model.JobStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE status = ?", string(status)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting jobs: %w", err)
	}
	return count, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSource(row rowScanner) (model.JobSource, error) {
	var (
		src         model.JobSource
		srcType     string
		cfg         string
		lastFetched sql.NullTime
		runID       sql.NullString
		runStatus   sql.NullString
		started     sql.NullTime
		finished    sql.NullTime
		message     string
		stats       model.RunStats
	)
	err := row.Scan(
		&src.ID, &src.Name, &srcType, &src.CompanyWebsite, &src.LogoURL, &cfg, &src.Enabled,
		&lastFetched, &runID, &runStatus, &stats.Found, &stats.Relevant,
		&stats.Processed, &stats.Errors, &started, &finished, &message,
	)
	if err != nil {
		return model.JobSource{}, fmt.Errorf("scanning source: %w", err)
	}
	src.Type = model.SourceType(srcType)
	if err := json.Unmarshal([]byte(cfg), &src.Config); err != nil {
		return model.JobSource{}, fmt.Errorf("decoding config for source %s: %w", src.ID, err)
	}
	if lastFetched.Valid {
		t := lastFetched.Time
		src.LastFetched = &t
	}
	if runID.Valid {
		src.LatestRun = &model.RunReport{
			RunID:   runID.String,
			Status:  model.HealthStatus(runStatus.String),
			Stats:   stats,
			Message: message,
		}
		if started.Valid {
			src.LatestRun.StartedAt = started.Time
		}
		if finished.Valid {
			src.LatestRun.FinishedAt = finished.Time
		}
	}
	return src, nil
}
