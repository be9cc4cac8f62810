// Package logging provides structured logging helpers built on log/slog.
//
// It defines canonical attribute keys so that log entries are queryable
// across the codebase and PII-safe helpers for logging email addresses.
package logging
