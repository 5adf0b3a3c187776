// Package logging assembles structured slog loggers and formatting helpers used
// across speechcorpus.
//
// It owns the console and JSON handlers, routes output to stdout plus an
// optional size-rotated log file, and exposes context-aware helpers so
// pipeline code automatically tags log lines with recording IDs, stages, and
// run IDs. A no-op logger is provided for tests and wiring code that cannot
// fail.
package logging
