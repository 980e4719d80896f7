package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/emick/smartplug/internal/plug"
)

// Availability payload values.
const (
	AvailabilityOnline  = "online"
	AvailabilityOffline = "offline"
)

// StateMessage is the retained JSON announcement published after each
// recorded sample. Consumers (Home Assistant, dashboards) read the retained
// message instead of polling the recorder.
type StateMessage struct {
	DeviceID   string  `json:"device_id"`
	RecordedAt string  `json:"recorded_at"`
	PlugState  string  `json:"plug_state"`
	DevState   string  `json:"device_state"`
	PowerW     float64 `json:"power_w"`
	VoltageV   float64 `json:"voltage_v"`
	CurrentA   float64 `json:"current_a"`
	EnergyWh   int     `json:"energy_wh"`
}

// newStateMessage builds the announcement payload for one sample.
func newStateMessage(deviceID string, ts time.Time, snap plug.Snapshot, pair plug.StatePair) StateMessage {
	return StateMessage{
		DeviceID:   deviceID,
		RecordedAt: ts.UTC().Format(time.RFC3339),
		PlugState:  string(pair.Plug),
		DevState:   string(pair.Device),
		PowerW:     snap.PowerW,
		VoltageV:   snap.VoltageV,
		CurrentA:   snap.CurrentA,
		EnergyWh:   snap.EnergyWh,
	}
}

// PublishState publishes the retained state announcement for a sample.
//
// Parameters:
//   - deviceID: Tuya device ID, used in the topic
//   - ts: Sample timestamp
//   - snap: Telemetry snapshot
//   - pair: Classified plug/device states
//
// Returns:
//   - error: ErrPublishFailed (wrapped) on timeout or broker rejection
func (c *Client) PublishState(deviceID string, ts time.Time, snap plug.Snapshot, pair plug.StatePair) error {
	msg := newStateMessage(deviceID, ts, snap, pair)
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encoding state message: %w", ErrPublishFailed, err)
	}
	return c.publish(StateTopic(deviceID), payload)
}

// PublishAvailability publishes a retained online/offline marker.
//
// Parameters:
//   - deviceID: Tuya device ID, used in the topic
//   - online: true publishes "online", false publishes "offline"
//
// Returns:
//   - error: ErrPublishFailed (wrapped) on timeout or broker rejection
func (c *Client) PublishAvailability(deviceID string, online bool) error {
	payload := AvailabilityOffline
	if online {
		payload = AvailabilityOnline
	}
	return c.publish(AvailabilityTopic(deviceID), []byte(payload))
}

// publish sends one retained message at the configured QoS.
func (c *Client) publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, byte(c.cfg.QoS), true, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout publishing to %s", ErrPublishFailed, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}
