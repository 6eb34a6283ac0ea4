// Package logging assembles structured slog loggers and formatting helpers used
// across sortbot.
//
// It owns the console/JSON handlers, the optional JSON log file fan-out, and
// context-aware helpers that tag log lines with the run identifier and the
// organized root. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
