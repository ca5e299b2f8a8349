package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/latamjobs/jobsync/internal/model"
)

func greenhouseSource() model.JobSource {
	return model.JobSource{
		ID:     "acme-gh",
		Name:   "Acme",
		Type:   model.SourceGreenhouse,
		Config: map[string]string{"board_token": "acme"},
	}
}

func TestGreenhouseFetch_Success(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"id": 12345,
				"title": "Software Engineer (Remote)",
				"location": {"name": "Remote - LATAM"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
				"content": "&lt;p&gt;Build things in Go.&lt;/p&gt;",
				"updated_at": "2026-02-13T10:00:00Z",
				"offices": [{"name": "São Paulo"}]
			},
			{
				"id": 67890,
				"title": "Office Manager",
				"location": {"name": "New York, NY"},
				"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
				"updated_at": "2026-02-13T11:30:00Z"
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/acme/jobs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	f := NewGreenhouse(testClient(srv), remoteGate(t), discardLogger())
	sink := &fakeSink{accept: true}

	result, err := f.Fetch(context.Background(), greenhouseSource(), sink)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The office-manager posting has no remote/latam signal: found, not relevant.
	checkStats(t, result.Stats, 2, 1, 1, 0)

	if len(sink.records) != 1 {
		t.Fatalf("sink received %d records, want 1", len(sink.records))
	}
	raw := sink.records[0]
	if raw.ID != "12345" {
		t.Errorf("raw.ID = %s, want 12345", raw.ID)
	}
	if raw.ApplyURL != "https://boards.greenhouse.io/acme/jobs/12345" {
		t.Errorf("raw.ApplyURL = %s", raw.ApplyURL)
	}
	if len(raw.SecondaryLocations) != 1 || raw.SecondaryLocations[0] != "São Paulo" {
		t.Errorf("secondary locations = %v", raw.SecondaryLocations)
	}

	if _, ok := result.FoundIDs["67890"]; !ok {
		t.Error("found-id set should include gated-out postings")
	}
}

func TestGreenhouseFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewGreenhouse(testClient(srv), Gate{}, discardLogger())
	sink := &fakeSink{accept: true}

	result, err := f.Fetch(context.Background(), greenhouseSource(), sink)
	if err == nil {
		t.Fatal("expected error for HTTP 500, got nil")
	}
	checkStats(t, result.Stats, 0, 0, 0, 1)
	if len(sink.records) != 0 {
		t.Error("sink must never be invoked when the fetch fails")
	}
}

func TestGreenhouseFetch_MissingConfig(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	src := greenhouseSource()
	src.Config = nil

	f := NewGreenhouse(testClient(srv), Gate{}, discardLogger())
	result, err := f.Fetch(context.Background(), src, &fakeSink{})

	if err == nil {
		t.Fatal("expected config error, got nil")
	}
	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *model.ConfigError", err)
	}
	checkStats(t, result.Stats, 0, 0, 0, 1)
	if calls != 0 {
		t.Error("no network call may be attempted on invalid config")
	}
}

func TestGreenhouseFetch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	f := NewGreenhouse(testClient(srv), Gate{}, discardLogger())
	result, err := f.Fetch(context.Background(), greenhouseSource(), &fakeSink{accept: true})
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
	if result.Stats.Errors != 1 {
		t.Errorf("errors = %d, want 1", result.Stats.Errors)
	}
}
