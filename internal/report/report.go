package report

import (
	"fmt"
	"time"

	"github.com/emick/smartplug/internal/history"
)

// Display layouts for interval boundaries, rendered in the caller's zone.
const (
	dateTimeLayout = "2006-01-02 15:04"
	timeLayout     = "15:04"
)

// Row is one rendered history line.
type Row struct {
	// TimeRange is the interval's span in local time, with the date
	// elided on the right side when both ends fall on the same day.
	TimeRange string

	// Duration is the interval length as zero-padded HH:MM. Hours are
	// not capped at 24; seconds are floored away, never rounded up.
	Duration string

	// Plug and Device are the interval's state values.
	Plug   string
	Device string
}

// Rows renders intervals as display rows in the given time zone.
//
// The returned sequence is lazy and restartable: each range over it walks
// the interval slice once, formatting on the fly, without mutating or
// copying the input. Intervals are expected newest-first, as the history
// store returns them. An empty slice yields an empty sequence; no history
// is not an error.
//
// Parameters:
//   - intervals: Stored intervals (UTC instants)
//   - loc: Zone for display, e.g. time.Local
//
// Returns:
//   - func(yield func(Row) bool): One row per interval
func Rows(intervals []history.Interval, loc *time.Location) func(yield func(Row) bool) {
	return func(yield func(Row) bool) {
		for _, iv := range intervals {
			if !yield(renderRow(iv, loc)) {
				return
			}
		}
	}
}

// renderRow formats a single interval.
func renderRow(iv history.Interval, loc *time.Location) Row {
	start := iv.Start.In(loc)
	end := iv.End.In(loc)

	var timeRange string
	if sameDay(start, end) {
		timeRange = fmt.Sprintf("%s - %s", start.Format(dateTimeLayout), end.Format(timeLayout))
	} else {
		timeRange = fmt.Sprintf("%s - %s", start.Format(dateTimeLayout), end.Format(dateTimeLayout))
	}

	return Row{
		TimeRange: timeRange,
		Duration:  formatDuration(iv.End.Sub(iv.Start)),
		Plug:      string(iv.Pair.Plug),
		Device:    string(iv.Pair.Device),
	}
}

// sameDay reports whether two local times fall on the same calendar date.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// formatDuration renders a duration as zero-padded HH:MM.
// Hours run past 24 for multi-day intervals; leftover seconds are floored.
func formatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}
