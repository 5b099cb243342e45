// Package telemetry wraps log/slog for cmd/typecheck's own diagnostics
// about the run itself — symbol counts, error counts, timing per checked
// unit — as distinct from the diagnostics package's user-facing type
// errors. The core checker packages (typesystem, diagnostics, symbols,
// analyzer) stay logging-free and return errors, matching the donor's own
// internal/typesystem and internal/analyzer; only the CLI driver logs,
// exactly where the donor's cmd/funxy/main.go prints directly to stdio.
package telemetry

import (
	"log/slog"
	"os"
	"time"
)

// NewLogger builds the CLI's structured logger: human-readable text to
// stderr by default, since the driver's stdout is reserved for diagnostic
// output a user might pipe elsewhere.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// UnitResult is one compiled unit's summary, logged as a single structured
// line once its checking pass finishes.
type UnitResult struct {
	Path        string
	SymbolCount int
	ErrorCount  int
	Duration    time.Duration
}

// LogUnit emits one line per checked compilation unit.
func LogUnit(logger *slog.Logger, r UnitResult) {
	logger.Info("checked unit",
		"path", r.Path,
		"symbols", r.SymbolCount,
		"errors", r.ErrorCount,
		"duration", r.Duration,
	)
}
