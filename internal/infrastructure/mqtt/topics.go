package mqtt

import "fmt"

// TopicPrefix is the base for all smartplug topics.
const TopicPrefix = "smartplug"

// StateTopic returns the retained state announcement topic for a device.
//
// Example: smartplug/bf1234/state
func StateTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefix, deviceID)
}

// AvailabilityTopic returns the availability topic for a device.
//
// Example: smartplug/bf1234/availability
func AvailabilityTopic(deviceID string) string {
	return fmt.Sprintf("%s/%s/availability", TopicPrefix, deviceID)
}
