// Package logging assembles structured slog loggers and formatting helpers used
// across ptpkit commands.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so tracker requests and reseed
// attempts are tagged with the run correlation ID. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
package logging
