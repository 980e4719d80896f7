package tuya

import "errors"

// Domain errors for the tuya package.
//
// Check with errors.Is():
//
//	if errors.Is(err, tuya.ErrFetchFailed) {
//	    // remote call failed; caller decides whether the next cron
//	    // invocation retries
//	}
var (
	// ErrFetchFailed is returned when the cloud API call fails, times
	// out, or reports success=false.
	ErrFetchFailed = errors.New("tuya: fetch failed")

	// ErrMissingCredentials is returned when the device ID, API key or
	// API secret is not configured.
	ErrMissingCredentials = errors.New("tuya: missing credentials")
)
