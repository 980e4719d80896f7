package mqtt

import "errors"

// Sentinel errors for MQTT operations.
var (
	// ErrDisabled indicates MQTT announcements are switched off in the
	// configuration. Callers treat it as "nothing to do", not a failure.
	ErrDisabled = errors.New("mqtt: disabled in configuration")

	// ErrConnectionFailed indicates the broker could not be reached.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed indicates a publish did not complete.
	ErrPublishFailed = errors.New("mqtt: publish failed")
)
