package model

import "fmt"

// HTTPError wraps a non-2xx upstream response so callers can inspect the
// status code.
type HTTPError struct {
	StatusCode int
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// ConfigError marks a missing or invalid per-source config field. It is fatal
// for that source only and means no network call was attempted.
type ConfigError struct {
	Source string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("source %s: config field %q %s", e.Source, e.Field, e.Reason)
}
