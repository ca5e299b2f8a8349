// Package api exposes the admin HTTP surface: source health, toggles,
// reruns, and the reaper.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/pipeline"
	"github.com/latamjobs/jobsync/internal/reaper"
	"github.com/latamjobs/jobsync/internal/store"
)

// Runner triggers ingestion runs, implemented by the pipeline orchestrator.
type Runner interface {
	RunSource(ctx context.Context, id string) (pipeline.SourceRun, error)
}

// Deactivator closes stale jobs, implemented by the reaper.
type Deactivator interface {
	Deactivate(ctx context.Context, stalenessDays int, dryRun bool) (reaper.Report, error)
}

// Server is the admin API over the store, orchestrator, and reaper.
type Server struct {
	store  store.Store
	runner Runner
	reaper Deactivator
	logger *slog.Logger
}

// NewServer wires the admin API.
func NewServer(st store.Store, runner Runner, deactivator Deactivator, logger *slog.Logger) *Server {
	return &Server{store: st, runner: runner, reaper: deactivator, logger: logger}
}

// Router builds the chi router with the middleware stack and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger(s.logger))
	r.Use(recovery(s.logger))

	r.Get("/api/v1/health", s.handleHealth)
	r.Get("/api/v1/sources", s.handleListSources)
	r.Post("/api/v1/sources/{id}/toggle", s.handleToggleSource)
	r.Post("/api/v1/sources/{id}/rerun", s.handleRerunSource)
	r.Post("/api/v1/reap", s.handleReap)

	return r
}

type healthResponse struct {
	Status     string `json:"status"`
	ActiveJobs int    `json:"active_jobs"`
	ClosedJobs int    `json:"closed_jobs"`
	Sources    int    `json:"sources"`
	Unhealthy  int    `json:"unhealthy_sources"`
}

// handleHealth reports overall service health: job counts plus how many
// sources had a non-healthy last run.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active, err := s.store.CountJobs(ctx, model.StatusActive)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE", err.Error())
		return
	}
	closed, err := s.store.CountJobs(ctx, model.StatusClosed)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE", err.Error())
		return
	}
	sources, err := s.store.ListSources(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE", err.Error())
		return
	}

	unhealthy := 0
	for _, src := range sources {
		if src.LatestRun != nil && src.LatestRun.Status != model.HealthHealthy {
			unhealthy++
		}
	}

	status := "ok"
	if unhealthy > 0 {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, healthResponse{
		Status:     status,
		ActiveJobs: active,
		ClosedJobs: closed,
		Sources:    len(sources),
		Unhealthy:  unhealthy,
	})
}

type sourceResponse struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Enabled     bool         `json:"enabled"`
	LastFetched *time.Time   `json:"last_fetched,omitempty"`
	LatestRun   *runResponse `json:"latest_run,omitempty"`
}

type runResponse struct {
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"`
	Found      int       `json:"found"`
	Relevant   int       `json:"relevant"`
	Processed  int       `json:"processed"`
	Errors     int       `json:"errors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Message    string    `json:"message,omitempty"`
}

func toSourceResponse(src model.JobSource) sourceResponse {
	resp := sourceResponse{
		ID:          src.ID,
		Name:        src.Name,
		Type:        string(src.Type),
		Enabled:     src.Enabled,
		LastFetched: src.LastFetched,
	}
	if src.LatestRun != nil {
		resp.LatestRun = &runResponse{
			RunID:      src.LatestRun.RunID,
			Status:     string(src.LatestRun.Status),
			Found:      src.LatestRun.Stats.Found,
			Relevant:   src.LatestRun.Stats.Relevant,
			Processed:  src.LatestRun.Stats.Processed,
			Errors:     src.LatestRun.Stats.Errors,
			StartedAt:  src.LatestRun.StartedAt,
			FinishedAt: src.LatestRun.FinishedAt,
			Message:    src.LatestRun.Message,
		}
	}
	return resp
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.ListSources(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE", err.Error())
		return
	}
	resp := make([]sourceResponse, 0, len(sources))
	for _, src := range sources {
		resp = append(resp, toSourceResponse(src))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggleSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	enabled, err := s.store.ToggleSource(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "unknown source "+id)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "enabled": enabled})
}

// handleRerunSource kicks off an ingestion run in the background and answers
// 202 immediately. The run outcome lands in the source's health snapshot.
func (s *Server) handleRerunSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	src, err := s.store.GetSource(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "unknown source "+id)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "STORE", err.Error())
		return
	}
	if !src.Enabled {
		respondError(w, http.StatusConflict, "DISABLED", "source "+id+" is disabled")
		return
	}

	go func() {
		// Detached from the request: the run outlives the 202 response.
		if _, err := s.runner.RunSource(context.Background(), id); err != nil {
			s.logger.Error("rerun failed", "source", id, "error", err)
		}
	}()

	respondJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "started"})
}

func (s *Server) handleReap(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "BAD_REQUEST", "days must be a non-negative integer")
			return
		}
		days = n
	}
	dryRun := r.URL.Query().Get("dry_run") == "true"

	report, err := s.reaper.Deactivate(r.Context(), days, dryRun)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "REAPER", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"cutoff":     report.Cutoff,
		"dry_run":    report.DryRun,
		"candidates": len(report.Candidates),
		"closed":     report.Closed,
	})
}
