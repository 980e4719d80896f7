// Package database manages the SQLite history database.
//
// It wraps database/sql with the settings a cron-invoked recorder needs:
// WAL mode so reports can run alongside a recording, a busy timeout so
// overlapping invocations queue on the write lock instead of failing, and a
// single-connection pool because SQLite has one writer anyway.
//
// Schema setup is idempotent: migrations are embedded in the binary (see the
// migrations package) and applied on startup, each in its own transaction.
package database
