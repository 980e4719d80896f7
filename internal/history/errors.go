package history

import "errors"

// Domain errors for the history package.
//
// Check with errors.Is():
//
//	if errors.Is(err, history.ErrStorageUnavailable) {
//	    // nothing was written; retry on the next cron run
//	}
var (
	// ErrStorageUnavailable is returned when the database cannot complete
	// the recording transaction. No partial state is committed.
	ErrStorageUnavailable = errors.New("history: storage unavailable")

	// ErrOutOfOrder is returned when a sample's timestamp is earlier than
	// the end of the latest recorded interval. The sample is discarded;
	// backwards time means a broken clock, not a state change.
	ErrOutOfOrder = errors.New("history: sample timestamp out of order")
)
