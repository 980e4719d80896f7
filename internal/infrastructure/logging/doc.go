// Package logging provides structured logging for smartplug.
//
// It wraps log/slog with the settings the tool needs: text output on stderr
// for interactive and cron use (stdout is reserved for report output), JSON
// when shipping logs to a collector, and default service/version fields on
// every entry.
//
// Never log the Tuya API key or secret.
package logging
