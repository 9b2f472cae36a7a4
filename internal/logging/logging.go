// Package logging builds the structured diagnostic logger for a run.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/example/payments-engine/internal/config"
)

// RunIDKey is the attribute carrying the run id on every log line.
const RunIDKey = "run_id"

// New returns a logger writing to w in the configured format, tagged with runID.
func New(cfg config.LogConfig, w io.Writer, runID uuid.UUID) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h).With(RunIDKey, runID.String())
}

// ParseLevel maps a configured level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
