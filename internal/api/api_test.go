package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/pipeline"
	"github.com/latamjobs/jobsync/internal/reaper"
	"github.com/latamjobs/jobsync/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	*store.NopStore

	sources    []model.JobSource
	active     int
	closed     int
	toggleErr  error
	toggledIDs []string
}

func (f *fakeStore) ListSources(ctx context.Context) ([]model.JobSource, error) {
	return f.sources, nil
}

func (f *fakeStore) GetSource(ctx context.Context, id string) (model.JobSource, error) {
	for _, s := range f.sources {
		if s.ID == id {
			return s, nil
		}
	}
	return model.JobSource{}, store.ErrNotFound
}

func (f *fakeStore) ToggleSource(ctx context.Context, id string) (bool, error) {
	if f.toggleErr != nil {
		return false, f.toggleErr
	}
	f.toggledIDs = append(f.toggledIDs, id)
	return true, nil
}

func (f *fakeStore) CountJobs(ctx context.Context, status model.JobStatus) (int, error) {
	if status == model.StatusActive {
		return f.active, nil
	}
	return f.closed, nil
}

type fakeRunner struct {
	ran chan string
}

func (f *fakeRunner) RunSource(ctx context.Context, id string) (pipeline.SourceRun, error) {
	f.ran <- id
	return pipeline.SourceRun{}, nil
}

type fakeReaper struct {
	gotDays   int
	gotDryRun bool
}

func (f *fakeReaper) Deactivate(ctx context.Context, stalenessDays int, dryRun bool) (reaper.Report, error) {
	f.gotDays = stalenessDays
	f.gotDryRun = dryRun
	return reaper.Report{
		Cutoff:     time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		DryRun:     dryRun,
		Candidates: []model.StaleJob{{SourceID: "old"}},
		Closed:     1,
	}, nil
}

func newTestServer(st *fakeStore, runner Runner, deactivator Deactivator) *httptest.Server {
	if st.NopStore == nil {
		st.NopStore = store.NewNopStore()
	}
	s := NewServer(st, runner, deactivator, discardLogger())
	return httptest.NewServer(s.Router())
}

func decodeData(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
}

func healthySource(id string) model.JobSource {
	run := model.RunReport{RunID: "r1", Status: model.HealthHealthy}
	return model.JobSource{ID: id, Name: id, Type: model.SourceGreenhouse, Enabled: true, LatestRun: &run}
}

func TestHealthEndpoint(t *testing.T) {
	badRun := model.RunReport{RunID: "r2", Status: model.HealthError, Message: "status code 500"}
	st := &fakeStore{
		active: 40,
		closed: 8,
		sources: []model.JobSource{
			healthySource("acme"),
			{ID: "globex", Type: model.SourceLever, Enabled: true, LatestRun: &badRun},
		},
	}
	srv := newTestServer(st, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var health healthResponse
	decodeData(t, resp, &health)
	if health.Status != "degraded" {
		t.Errorf("status = %q, want degraded with an unhealthy source", health.Status)
	}
	if health.ActiveJobs != 40 || health.ClosedJobs != 8 {
		t.Errorf("job counts = %d/%d", health.ActiveJobs, health.ClosedJobs)
	}
	if health.Unhealthy != 1 {
		t.Errorf("unhealthy = %d, want 1", health.Unhealthy)
	}
}

func TestListSources(t *testing.T) {
	st := &fakeStore{sources: []model.JobSource{healthySource("acme")}}
	srv := newTestServer(st, nil, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/sources")
	if err != nil {
		t.Fatalf("GET sources: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var sources []sourceResponse
	decodeData(t, resp, &sources)
	if len(sources) != 1 || sources[0].ID != "acme" {
		t.Fatalf("sources = %+v", sources)
	}
	if sources[0].LatestRun == nil || sources[0].LatestRun.Status != "Healthy" {
		t.Errorf("latest run = %+v", sources[0].LatestRun)
	}
}

func TestToggleSource(t *testing.T) {
	st := &fakeStore{sources: []model.JobSource{healthySource("acme")}}
	srv := newTestServer(st, nil, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/sources/acme/toggle", "application/json", nil)
	if err != nil {
		t.Fatalf("POST toggle: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	resp.Body.Close()
	if len(st.toggledIDs) != 1 || st.toggledIDs[0] != "acme" {
		t.Errorf("toggled = %v", st.toggledIDs)
	}

	st.toggleErr = store.ErrNotFound
	resp, err = http.Post(srv.URL+"/api/v1/sources/nope/toggle", "application/json", nil)
	if err != nil {
		t.Fatalf("POST toggle missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status for unknown source = %d, want 404", resp.StatusCode)
	}
}

func TestRerunSource(t *testing.T) {
	st := &fakeStore{sources: []model.JobSource{
		healthySource("acme"),
		{ID: "dormant", Type: model.SourceLever, Enabled: false},
	}}
	runner := &fakeRunner{ran: make(chan string, 1)}
	srv := newTestServer(st, runner, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/sources/acme/rerun", "application/json", nil)
	if err != nil {
		t.Fatalf("POST rerun: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	select {
	case id := <-runner.ran:
		if id != "acme" {
			t.Errorf("ran source %q, want acme", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("background run never started")
	}

	resp, err = http.Post(srv.URL+"/api/v1/sources/dormant/rerun", "application/json", nil)
	if err != nil {
		t.Fatalf("POST rerun disabled: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status for disabled source = %d, want 409", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/v1/sources/missing/rerun", "application/json", nil)
	if err != nil {
		t.Fatalf("POST rerun missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status for unknown source = %d, want 404", resp.StatusCode)
	}
}

func TestReapEndpoint(t *testing.T) {
	st := &fakeStore{}
	deactivator := &fakeReaper{}
	srv := newTestServer(st, nil, deactivator)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/reap?days=30&dry_run=true", "application/json", nil)
	if err != nil {
		t.Fatalf("POST reap: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var result struct {
		DryRun     bool  `json:"dry_run"`
		Candidates int   `json:"candidates"`
		Closed     int64 `json:"closed"`
	}
	decodeData(t, resp, &result)
	if deactivator.gotDays != 30 || !deactivator.gotDryRun {
		t.Errorf("reaper called with days=%d dryRun=%v", deactivator.gotDays, deactivator.gotDryRun)
	}
	if result.Candidates != 1 {
		t.Errorf("candidates = %d, want 1", result.Candidates)
	}

	resp, err = http.Post(srv.URL+"/api/v1/reap?days=banana", "application/json", nil)
	if err != nil {
		t.Fatalf("POST reap bad days: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status for bad days = %d, want 400", resp.StatusCode)
	}
}
