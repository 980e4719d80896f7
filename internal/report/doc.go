// Package report renders stored state intervals as human-readable rows:
// a local-time range, an HH:MM duration, and the two state columns.
// Pure formatting; it never touches storage.
package report
