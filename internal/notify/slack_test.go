package notify

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/latamjobs/jobsync/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleSource() model.JobSource {
	return model.JobSource{
		ID:   "acme-greenhouse",
		Name: "Acme",
		Type: model.SourceGreenhouse,
	}
}

func sampleReport(status model.HealthStatus, message string) model.RunReport {
	return model.RunReport{
		RunID:      "run-1",
		Status:     status,
		Stats:      model.RunStats{Found: 12, Relevant: 4, Processed: 3, Errors: 1},
		StartedAt:  time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 2, 10, 9, 1, 0, 0, time.UTC),
		Message:    message,
	}
}

func TestSlackNotifier_PayloadFormat(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	err := n.RunFinished(sampleSource(), sampleReport(model.HealthError, "status code 500"))
	if err != nil {
		t.Fatalf("RunFinished: %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(payload.Blocks))
	}

	header := payload.Blocks[0]
	if header.Type != "header" || !strings.Contains(header.Text.Text, "Acme: Error") {
		t.Errorf("header = %+v", header)
	}
	if payload.Blocks[1].Type != "section" || len(payload.Blocks[1].Fields) != 4 {
		t.Errorf("block[1] not a 4-field section: %+v", payload.Blocks[1])
	}
	counters := payload.Blocks[1].Fields[3].Text
	if !strings.Contains(counters, "found 12 / relevant 4 / processed 3 / errors 1") {
		t.Errorf("counters field = %q", counters)
	}
	details := payload.Blocks[2]
	if details.Text == nil || !strings.Contains(details.Text.Text, "status code 500") {
		t.Errorf("details block = %+v", details)
	}
	if payload.Blocks[3].Type != "divider" {
		t.Errorf("block[3] type = %q, want divider", payload.Blocks[3].Type)
	}
}

func TestSlackNotifier_NoDetailsBlockWithoutMessage(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.RunFinished(sampleSource(), sampleReport(model.HealthWarning, "")); err != nil {
		t.Fatalf("RunFinished: %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if len(payload.Blocks) != 3 {
		t.Fatalf("expected 3 blocks without a message, got %d", len(payload.Blocks))
	}
}

func TestSlackNotifier_SlackReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.RunFinished(sampleSource(), sampleReport(model.HealthError, "boom")); err == nil {
		t.Error("expected error when slack returns 500, got nil")
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.RunFinished(sampleSource(), sampleReport(model.HealthError, "boom")); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}
