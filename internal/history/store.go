package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emick/smartplug/internal/plug"
)

// timeLayout is the storage format for all timestamps: UTC RFC 3339 at
// second precision. Part of the persisted format; do not change.
const timeLayout = "2006-01-02T15:04:05Z"

// Interval is one maximal contiguous run of samples sharing a state pair.
//
// Start and End are inclusive UTC instants. Only the newest interval is ever
// mutated (its End extends while the pair holds); all earlier intervals are
// immutable history. Intervals never overlap and never get deleted.
type Interval struct {
	// ID is the auto-incremented primary key of the status_log row.
	ID int64

	// Start is the timestamp of the first sample in the run.
	Start time.Time

	// End is the timestamp of the most recent sample in the run.
	End time.Time

	// Pair is the state classification shared by every sample in the run.
	Pair plug.StatePair
}

// Event is one immutable audit-trail row: the full telemetry snapshot and
// its classification at a single instant.
type Event struct {
	ID         int64
	RecordedAt time.Time
	Pair       plug.StatePair
	Snapshot   plug.Snapshot
}

// Result describes what RecordSample did.
type Result struct {
	// Pair is the classification of the recorded sample.
	Pair plug.StatePair

	// Merged is true when the sample extended the existing interval and
	// false when a new interval was opened.
	Merged bool

	// Interval is the interval the sample landed in, after the write.
	Interval Interval
}

// Store owns the event_log and status_log tables. No other component writes
// to them.
type Store struct {
	db *sql.DB
}

// NewStore creates a history store on an open database.
// The schema must already be migrated (see the migrations package).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordSample classifies a snapshot and persists it: one event_log append
// plus one status_log insert-or-update, in a single transaction.
//
// If the latest interval carries the same state pair, its end is extended to
// ts (the merge step: interval count is bounded by state transitions, not by
// sample count). Otherwise a new interval opens with start = end = ts.
// Exactly one of extend/insert happens per call, never both.
//
// Samples must arrive in non-decreasing timestamp order. A ts earlier than
// the latest interval's end fails with ErrOutOfOrder and writes nothing; a
// ts equal to it is accepted, so re-running within the same second is an
// idempotent extend.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - ts: Sample timestamp (stored in UTC at second precision)
//   - snap: Normalised telemetry snapshot
//   - thresholdW: Device-active power threshold in watts
//
// Returns:
//   - Result: What was written
//   - error: ErrOutOfOrder, or ErrStorageUnavailable (wrapped) with no
//     partial state committed
func (s *Store) RecordSample(ctx context.Context, ts time.Time, snap plug.Snapshot, thresholdW float64) (Result, error) {
	ts = ts.UTC().Truncate(time.Second)
	pair := plug.Classify(snap, thresholdW)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%w: starting transaction: %w", ErrStorageUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if err := insertEvent(ctx, tx, ts, pair, snap); err != nil {
		return Result{}, err
	}

	last, err := latestInterval(ctx, tx)
	if err != nil {
		return Result{}, err
	}

	result := Result{Pair: pair}

	switch {
	case last != nil && ts.Before(last.End):
		return Result{}, fmt.Errorf("%w: sample at %s precedes interval end %s",
			ErrOutOfOrder, ts.Format(timeLayout), last.End.Format(timeLayout))

	case last != nil && last.Pair == pair:
		if _, err := tx.ExecContext(ctx,
			`UPDATE status_log SET "end" = ? WHERE id = ?`,
			ts.Format(timeLayout), last.ID,
		); err != nil {
			return Result{}, fmt.Errorf("%w: extending interval: %w", ErrStorageUnavailable, err)
		}
		last.End = ts
		result.Merged = true
		result.Interval = *last

	default:
		res, err := tx.ExecContext(ctx,
			`INSERT INTO status_log (start, "end", plug_state, device_state) VALUES (?, ?, ?, ?)`,
			ts.Format(timeLayout), ts.Format(timeLayout), string(pair.Plug), string(pair.Device),
		)
		if err != nil {
			return Result{}, fmt.Errorf("%w: inserting interval: %w", ErrStorageUnavailable, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return Result{}, fmt.Errorf("%w: reading interval id: %w", ErrStorageUnavailable, err)
		}
		result.Interval = Interval{ID: id, Start: ts, End: ts, Pair: pair}
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("%w: committing sample: %w", ErrStorageUnavailable, err)
	}

	return result, nil
}

// Intervals returns all recorded intervals, newest first by start.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - []Interval: May be empty; an empty history is not an error
//   - error: ErrStorageUnavailable (wrapped) on query failure
func (s *Store) Intervals(ctx context.Context) ([]Interval, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start, "end", plug_state, device_state FROM status_log ORDER BY start DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: querying intervals: %w", ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var intervals []Interval
	for rows.Next() {
		iv, err := scanInterval(rows.Scan)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating intervals: %w", ErrStorageUnavailable, err)
	}
	return intervals, nil
}

// Latest returns the most recently created interval, or nil when the
// history is empty.
func (s *Store) Latest(ctx context.Context) (*Interval, error) {
	return latestInterval(ctx, s.db)
}

// LatestEvent returns the most recent audit-trail entry, or nil when no
// sample has ever been recorded.
func (s *Store) LatestEvent(ctx context.Context) (*Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, recorded_at, plug_state, device_state, plug_power,
		       countdown_s, energy_wh, current_a, voltage_v, power_w,
		       relay_status, fault_code
		FROM event_log ORDER BY id DESC LIMIT 1`,
	)

	var (
		e          Event
		recordedAt string
		plugState  string
		devState   string
		plugPower  int
	)
	err := row.Scan(&e.ID, &recordedAt, &plugState, &devState, &plugPower,
		&e.Snapshot.CountdownS, &e.Snapshot.EnergyWh, &e.Snapshot.CurrentA,
		&e.Snapshot.VoltageV, &e.Snapshot.PowerW, &e.Snapshot.RelayStatus,
		&e.Snapshot.FaultCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying latest event: %w", ErrStorageUnavailable, err)
	}

	e.RecordedAt, err = parseStoredTime(recordedAt)
	if err != nil {
		return nil, err
	}
	e.Pair = plug.StatePair{Plug: plug.State(plugState), Device: plug.State(devState)}
	e.Snapshot.Power = plugPower != 0
	return &e, nil
}

// EventCount returns the number of audit-trail rows.
func (s *Store) EventCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM event_log").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting events: %w", ErrStorageUnavailable, err)
	}
	return count, nil
}

// insertEvent appends one audit-trail row inside the transaction.
func insertEvent(ctx context.Context, tx *sql.Tx, ts time.Time, pair plug.StatePair, snap plug.Snapshot) error {
	plugPower := 0
	if snap.Power {
		plugPower = 1
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO event_log (
			recorded_at, plug_state, device_state, plug_power,
			countdown_s, energy_wh, current_a, voltage_v, power_w,
			relay_status, fault_code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.Format(timeLayout),
		string(pair.Plug),
		string(pair.Device),
		plugPower,
		snap.CountdownS,
		snap.EnergyWh,
		snap.CurrentA,
		snap.VoltageV,
		snap.PowerW,
		snap.RelayStatus,
		snap.FaultCode,
	)
	if err != nil {
		return fmt.Errorf("%w: inserting event: %w", ErrStorageUnavailable, err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// latestInterval fetches the most recently created interval.
// Insertion order (highest id), not time order: the merge decision always
// targets the row the previous invocation touched.
func latestInterval(ctx context.Context, q querier) (*Interval, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, start, "end", plug_state, device_state FROM status_log ORDER BY id DESC LIMIT 1`,
	)

	iv, err := scanInterval(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

// scanInterval scans one status_log row via the given scan function.
func scanInterval(scan func(...any) error) (Interval, error) {
	var (
		iv         Interval
		start, end string
		plugState  string
		devState   string
	)
	if err := scan(&iv.ID, &start, &end, &plugState, &devState); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Interval{}, err
		}
		return Interval{}, fmt.Errorf("%w: scanning interval: %w", ErrStorageUnavailable, err)
	}

	var err error
	if iv.Start, err = parseStoredTime(start); err != nil {
		return Interval{}, err
	}
	if iv.End, err = parseStoredTime(end); err != nil {
		return Interval{}, err
	}
	iv.Pair = plug.StatePair{Plug: plug.State(plugState), Device: plug.State(devState)}
	return iv, nil
}

// parseStoredTime parses a timestamp in the storage format.
func parseStoredTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parsing stored timestamp %q: %w", ErrStorageUnavailable, value, err)
	}
	return t, nil
}
