package plug

import "errors"

// Domain errors for the plug package.
//
// Check with errors.Is():
//
//	if errors.Is(err, plug.ErrInvalidSnapshot) {
//	    // malformed telemetry, sample discarded
//	}
var (
	// ErrInvalidSnapshot is returned when raw telemetry cannot be parsed
	// into a Snapshot (wrong type for a known datapoint).
	ErrInvalidSnapshot = errors.New("plug: invalid snapshot")
)
