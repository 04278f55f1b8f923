// Package logging assembles structured slog loggers and formatting helpers used
// across downyoutube.
//
// It owns the configurable console/JSON handlers, routes file output through a
// size-rotated writer, and exposes context-aware helpers so execution code
// tags log lines with task IDs, stages, and correlation IDs automatically. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail, plus a sampler that keeps download progress logging readable.
package logging
