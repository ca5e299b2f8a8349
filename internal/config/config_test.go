package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/latamjobs/jobsync/internal/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
concurrency: 3
staleness_days: 21
http_timeout: 15s
min_score: 2
database:
  driver: sqlite
  path: test.db
server:
  addr: ":9090"
  interval: 2h
scoring:
  positive_location:
    - keyword: remote
      weight: 2
    - pattern: "latin\\s+america"
      weight: 3
  negative_content:
    - keyword: on-site
      weight: 2
sources:
  - id: acme-greenhouse
    name: Acme
    type: greenhouse
    enabled: true
    config:
      board_token: acme
  - id: globex-html
    name: Globex
    type: html
    enabled: false
    config:
      url: https://globex.example.com/careers
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Concurrency != 3 {
		t.Errorf("Concurrency = %d, want 3", cfg.Concurrency)
	}
	if cfg.StalenessDays != 21 {
		t.Errorf("StalenessDays = %d, want 21", cfg.StalenessDays)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("HTTPTimeout = %v, want 15s", cfg.HTTPTimeout)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.Interval != 2*time.Hour {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(cfg.Sources))
	}
	src := cfg.Sources[0]
	if src.Type != model.SourceGreenhouse || !src.Enabled || src.Config["board_token"] != "acme" {
		t.Errorf("source[0] = %+v", src)
	}
	if len(cfg.Scoring.PositiveLocation) != 2 || cfg.Scoring.PositiveLocation[1].Pattern == "" {
		t.Errorf("PositiveLocation = %+v", cfg.Scoring.PositiveLocation)
	}
	if len(cfg.Scoring.NegativeContent) != 1 || cfg.Scoring.NegativeContent[0].Weight != 2 {
		t.Errorf("NegativeContent = %+v", cfg.Scoring.NegativeContent)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
sources:
  - id: acme
    name: Acme
    type: greenhouse
    enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Concurrency != defaultConcurrency {
		t.Errorf("Concurrency = %d, want %d", cfg.Concurrency, defaultConcurrency)
	}
	if cfg.StalenessDays != defaultStalenessDays {
		t.Errorf("StalenessDays = %d, want %d", cfg.StalenessDays, defaultStalenessDays)
	}
	if cfg.HTTPTimeout != defaultHTTPTimeout {
		t.Errorf("HTTPTimeout = %v, want %v", cfg.HTTPTimeout, defaultHTTPTimeout)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "jobsync.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Server.Addr != defaultServerAddr || cfg.Server.Interval != defaultInterval {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_DB_DSN", "postgres://app:secret@db/jobs")
	path := writeConfig(t, `
database:
  driver: postgres
  dsn: ${TEST_DB_DSN}
sources:
  - id: acme
    name: Acme
    type: lever
    enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.DSN != "postgres://app:secret@db/jobs" {
		t.Errorf("DSN = %q, env var not expanded", cfg.Database.DSN)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "concurrency: [broken")
	if _, err := Load(path); err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no sources",
			content: "concurrency: 2\n",
			wantErr: "at least one source",
		},
		{
			name: "duplicate source id",
			content: `
sources:
  - id: acme
    name: Acme
    type: greenhouse
    enabled: true
  - id: acme
    name: Acme Again
    type: lever
    enabled: true
`,
			wantErr: "duplicate source id",
		},
		{
			name: "unknown source type",
			content: `
sources:
  - id: acme
    name: Acme
    type: workday
    enabled: true
`,
			wantErr: "unknown type",
		},
		{
			name: "all sources disabled",
			content: `
sources:
  - id: acme
    name: Acme
    type: greenhouse
    enabled: false
`,
			wantErr: "at least one source must be enabled",
		},
		{
			name: "postgres without dsn",
			content: `
database:
  driver: postgres
sources:
  - id: acme
    name: Acme
    type: greenhouse
    enabled: true
`,
			wantErr: "database.dsn is required",
		},
		{
			name: "slack without webhook",
			content: `
notification:
  type: slack
sources:
  - id: acme
    name: Acme
    type: greenhouse
    enabled: true
`,
			wantErr: "webhook_url is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load: expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}
