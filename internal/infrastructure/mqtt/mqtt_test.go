package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/emick/smartplug/internal/infrastructure/config"
	"github.com/emick/smartplug/internal/plug"
)

// TestConnectDisabled verifies that disabled config short-circuits.
func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.MQTTConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

// TestTopics verifies topic construction.
func TestTopics(t *testing.T) {
	if got := StateTopic("bf1234"); got != "smartplug/bf1234/state" {
		t.Errorf("StateTopic() = %q", got)
	}
	if got := AvailabilityTopic("bf1234"); got != "smartplug/bf1234/availability" {
		t.Errorf("AvailabilityTopic() = %q", got)
	}
}

// TestBuildClientOptionsScheme verifies TLS selects the ssl scheme.
func TestBuildClientOptionsScheme(t *testing.T) {
	tests := []struct {
		name string
		tls  bool
		want string
	}{
		{name: "plain", tls: false, want: "tcp://broker.local:1883"},
		{name: "tls", tls: true, want: "ssl://broker.local:8883"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := 1883
			if tt.tls {
				port = 8883
			}
			opts := buildClientOptions(config.MQTTConfig{
				Enabled: true,
				Broker: config.MQTTBrokerConfig{
					Host:     "broker.local",
					Port:     port,
					TLS:      tt.tls,
					ClientID: "smartplug-test",
				},
			})
			if len(opts.Servers) != 1 {
				t.Fatalf("Servers = %d, want 1", len(opts.Servers))
			}
			if got := opts.Servers[0].String(); got != tt.want {
				t.Errorf("broker URL = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestStateMessagePayload verifies the JSON announcement shape.
func TestStateMessagePayload(t *testing.T) {
	ts := time.Date(2026, 8, 15, 14, 30, 0, 0, time.UTC)
	snap := plug.Snapshot{
		Power:    true,
		PowerW:   150.3,
		VoltageV: 237.1,
		CurrentA: 0.652,
		EnergyWh: 4521,
	}
	pair := plug.StatePair{Plug: plug.StateOn, Device: plug.StateOn}

	msg := newStateMessage("bf1234", ts, snap, pair)

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded["device_id"] != "bf1234" {
		t.Errorf("device_id = %v", decoded["device_id"])
	}
	if decoded["recorded_at"] != "2026-08-15T14:30:00Z" {
		t.Errorf("recorded_at = %v", decoded["recorded_at"])
	}
	if decoded["plug_state"] != "On" || decoded["device_state"] != "On" {
		t.Errorf("states = %v/%v, want On/On", decoded["plug_state"], decoded["device_state"])
	}
	if decoded["power_w"] != 150.3 {
		t.Errorf("power_w = %v, want 150.3", decoded["power_w"])
	}
}

// TestStateMessageNormalisesToUTC verifies local timestamps are converted.
func TestStateMessageNormalisesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	ts := time.Date(2026, 8, 15, 17, 30, 0, 0, loc)

	msg := newStateMessage("bf1234", ts, plug.Snapshot{}, plug.StatePair{Plug: plug.StateOff, Device: plug.StateOff})

	if msg.RecordedAt != "2026-08-15T14:30:00Z" {
		t.Errorf("RecordedAt = %q, want 2026-08-15T14:30:00Z", msg.RecordedAt)
	}
}
