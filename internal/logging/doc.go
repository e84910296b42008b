// Package logging provides structured logging helpers built on log/slog.
//
// It defines the canonical attribute keys used across the codebase
// (operation, tool, collection, strategy, status, error) so that log
// output stays queryable, plus a small Logger interface for code that
// should not depend on slog directly.
//
// Credentials must never reach the log stream verbatim; SanitizeSecret
// renders a length-only placeholder for debug output.
package logging
