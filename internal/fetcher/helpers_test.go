package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/scoring"
)

// roundTripFunc adapts a function into an http.RoundTripper.
type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// testClient returns a client whose requests are rewritten to hit srv,
// regardless of the host the fetcher builds.
func testClient(srv *httptest.Server) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = "http"
			req.URL.Host = srv.Listener.Addr().String()
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSink records every raw record it receives and answers with a canned
// accept/reject decision.
type fakeSink struct {
	accept  bool
	records []model.RawJob
}

func (s *fakeSink) ProcessRaw(_ context.Context, _ model.JobSource, raw model.RawJob) bool {
	s.records = append(s.records, raw)
	return s.accept
}

// remoteGate admits records whose text mentions remote or latam.
func remoteGate(t *testing.T) Gate {
	t.Helper()
	signals := scoring.Compile(scoring.Config{
		PositiveContent: scoring.GroupConfig{
			{Keyword: "remote", Weight: 1},
			{Keyword: "latam", Weight: 1},
			{Keyword: "latin america", Weight: 1},
		},
	}, discardLogger())
	return Gate{Signals: signals, MinScore: 1}
}

func checkStats(t *testing.T, got model.RunStats, found, relevant, processed, errors int) {
	t.Helper()
	if got.Found != found || got.Relevant != relevant || got.Processed != processed || got.Errors != errors {
		t.Errorf("stats = %+v, want found=%d relevant=%d processed=%d errors=%d",
			got, found, relevant, processed, errors)
	}
}
