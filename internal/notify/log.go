// Package notify reports unhealthy source runs to operators.
package notify

import (
	"log/slog"

	"github.com/latamjobs/jobsync/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes run reports to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each finished run via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// RunFinished logs the report with source, status, and counters. Returns nil
// (stdout logging does not fail).
func (n *LogNotifier) RunFinished(source model.JobSource, report model.RunReport) error {
	args := []any{
		"source", source.ID,
		"run_id", report.RunID,
		"status", string(report.Status),
		"found", report.Stats.Found,
		"relevant", report.Stats.Relevant,
		"processed", report.Stats.Processed,
		"errors", report.Stats.Errors,
	}
	if report.Message != "" {
		args = append(args, "message", report.Message)
	}

	switch report.Status {
	case model.HealthError:
		n.logger.Error("source run unhealthy", args...)
	case model.HealthWarning:
		n.logger.Warn("source run degraded", args...)
	default:
		n.logger.Info("source run finished", args...)
	}
	return nil
}
