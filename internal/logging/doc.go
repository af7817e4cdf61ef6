// Package logging assembles structured slog loggers used across cardvault.
//
// It owns the console and JSON handlers, the daily log file fan-out, and the
// attribute helpers that keep warnings shaped as cause, impact, and next step.
// Context-aware helpers tag log lines with request and character identifiers
// stamped by the HTTP layer and the library service. NewNop provides a
// discarding logger for tests and wiring code that cannot fail.
package logging
