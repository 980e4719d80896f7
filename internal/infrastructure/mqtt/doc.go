// Package mqtt announces recorded samples to an MQTT broker.
//
// Announcements are optional and publish-only: after each sample the
// recorder publishes a retained JSON state message to
// smartplug/<device_id>/state and a retained availability marker to
// smartplug/<device_id>/availability. Retained messages let consumers join
// at any time and still see the last known state.
//
// The client is built for a short-lived process: no auto-reconnect, no
// subscriptions, bounded connect and publish timeouts. When MQTT is
// disabled in the configuration, Connect returns ErrDisabled and recording
// proceeds without announcements.
package mqtt
