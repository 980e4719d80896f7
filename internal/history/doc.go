// Package history persists plug samples and maintains the run-length
// encoded state interval table.
//
// Every sample becomes an immutable event_log row (the audit trail). The
// status_log table compresses consecutive samples with the same state pair
// into intervals: a sample matching the latest interval's pair extends that
// interval's end in place, anything else opens a new interval. The interval
// set is therefore non-overlapping, ordered, and as small as the number of
// state transitions allows.
//
// Both writes happen in one transaction. Overlapping cron invocations are
// serialised by SQLite's write lock plus the configured busy timeout; there
// is no in-process locking and no cached "last interval" state.
package history
