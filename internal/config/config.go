// Package config loads and validates the YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/latamjobs/jobsync/internal/model"
	"github.com/latamjobs/jobsync/internal/scoring"
)

// Config is the root configuration for jobsync.
type Config struct {
	Concurrency   int           // bounded worker pool size for source runs
	StalenessDays int           // reaper window, in days
	HTTPTimeout   time.Duration // per-request timeout for upstream calls
	MinScore      int           // relevance threshold for API sources
	Database      DatabaseConfig
	Server        ServerConfig
	Notification  NotificationConfig
	Scoring       scoring.Config
	Sources       []model.JobSource
}

// DatabaseConfig selects and configures the storage backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "postgres"
	Path   string `yaml:"path"`   // sqlite file path
	DSN    string `yaml:"dsn"`    // postgres connection string, expanded from env
}

// ServerConfig controls serve mode.
type ServerConfig struct {
	Addr     string        // HTTP listen address
	Interval time.Duration // gap between scheduled ingestion runs
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations as
// strings).
type rawConfig struct {
	Concurrency   int                `yaml:"concurrency"`
	StalenessDays int                `yaml:"staleness_days"`
	HTTPTimeout   string             `yaml:"http_timeout"`
	MinScore      int                `yaml:"min_score"`
	Database      DatabaseConfig     `yaml:"database"`
	Server        rawServerConfig    `yaml:"server"`
	Notification  NotificationConfig `yaml:"notification"`
	Scoring       rawScoringConfig   `yaml:"scoring"`
	Sources       []rawSourceConfig  `yaml:"sources"`
}

type rawServerConfig struct {
	Addr     string `yaml:"addr"`
	Interval string `yaml:"interval"`
}

type rawScoringConfig struct {
	PositiveLocation []rawSignal `yaml:"positive_location"`
	NegativeLocation []rawSignal `yaml:"negative_location"`
	PositiveContent  []rawSignal `yaml:"positive_content"`
	NegativeContent  []rawSignal `yaml:"negative_content"`
}

type rawSignal struct {
	Keyword string `yaml:"keyword"`
	Pattern string `yaml:"pattern"`
	Weight  int    `yaml:"weight"`
}

type rawSourceConfig struct {
	ID      string            `yaml:"id"`
	Name    string            `yaml:"name"`
	Type    string            `yaml:"type"`
	Enabled bool              `yaml:"enabled"`
	Website string            `yaml:"website"`
	LogoURL string            `yaml:"logo_url"`
	Config  map[string]string `yaml:"config"`
}

const (
	defaultConcurrency   = 5
	defaultStalenessDays = 14
	defaultHTTPTimeout   = 30 * time.Second
	defaultServerAddr    = ":8080"
	defaultInterval      = 6 * time.Hour
)

// Load reads and parses the YAML config file at path, validates it, and
// returns Config. Environment variable references in the file are expanded
// before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	httpTimeout := defaultHTTPTimeout
	if raw.HTTPTimeout != "" {
		httpTimeout, err = time.ParseDuration(raw.HTTPTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse http_timeout %q: %w", raw.HTTPTimeout, err)
		}
	}

	interval := defaultInterval
	if raw.Server.Interval != "" {
		interval, err = time.ParseDuration(raw.Server.Interval)
		if err != nil {
			return nil, fmt.Errorf("parse server.interval %q: %w", raw.Server.Interval, err)
		}
	}

	addr := raw.Server.Addr
	if addr == "" {
		addr = defaultServerAddr
	}

	concurrency := raw.Concurrency
	if concurrency == 0 {
		concurrency = defaultConcurrency
	}

	stalenessDays := raw.StalenessDays
	if stalenessDays == 0 {
		stalenessDays = defaultStalenessDays
	}

	driver := raw.Database.Driver
	if driver == "" {
		driver = "sqlite"
	}
	dbPath := raw.Database.Path
	if driver == "sqlite" && dbPath == "" {
		dbPath = "jobsync.db"
	}

	sources := make([]model.JobSource, 0, len(raw.Sources))
	for _, s := range raw.Sources {
		sources = append(sources, model.JobSource{
			ID:             s.ID,
			Name:           s.Name,
			Type:           model.SourceType(s.Type),
			Enabled:        s.Enabled,
			Config:         s.Config,
			CompanyWebsite: s.Website,
			LogoURL:        s.LogoURL,
		})
	}

	cfg := &Config{
		Concurrency:   concurrency,
		StalenessDays: stalenessDays,
		HTTPTimeout:   httpTimeout,
		MinScore:      raw.MinScore,
		Database: DatabaseConfig{
			Driver: driver,
			Path:   dbPath,
			DSN:    raw.Database.DSN,
		},
		Server: ServerConfig{
			Addr:     addr,
			Interval: interval,
		},
		Notification: raw.Notification,
		Scoring: scoring.Config{
			PositiveLocation: signalGroup(raw.Scoring.PositiveLocation),
			NegativeLocation: signalGroup(raw.Scoring.NegativeLocation),
			PositiveContent:  signalGroup(raw.Scoring.PositiveContent),
			NegativeContent:  signalGroup(raw.Scoring.NegativeContent),
		},
		Sources: sources,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func signalGroup(raw []rawSignal) scoring.GroupConfig {
	group := make(scoring.GroupConfig, 0, len(raw))
	for _, s := range raw {
		group = append(group, scoring.SignalEntry{
			Keyword: s.Keyword,
			Pattern: s.Pattern,
			Weight:  s.Weight,
		})
	}
	return group
}

func validate(cfg *Config) error {
	if cfg.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", cfg.Concurrency)
	}
	if cfg.StalenessDays < 0 {
		return fmt.Errorf("staleness_days must be positive, got %d", cfg.StalenessDays)
	}
	if cfg.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %v", cfg.HTTPTimeout)
	}
	if cfg.Server.Interval <= 0 {
		return fmt.Errorf("server.interval must be positive, got %v", cfg.Server.Interval)
	}

	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database.driver %q", cfg.Database.Driver)
	}

	if cfg.Notification.Type == "slack" && cfg.Notification.WebhookURL == "" {
		return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
	}

	if len(cfg.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}

	known := make(map[model.SourceType]bool)
	for _, t := range model.SourceTypes() {
		known[t] = true
	}
	seen := make(map[string]bool)
	enabled := 0
	for _, s := range cfg.Sources {
		if s.ID == "" {
			return fmt.Errorf("source %q is missing an id", s.Name)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate source id %q", s.ID)
		}
		seen[s.ID] = true
		if !known[s.Type] {
			return fmt.Errorf("source %q has unknown type %q", s.ID, s.Type)
		}
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	return nil
}
