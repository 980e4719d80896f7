package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/emick/smartplug/internal/plug"
)

// measurementTelemetry is the measurement name for plug samples.
const measurementTelemetry = "plug_telemetry"

// WriteSample writes one recorded sample as a telemetry point.
//
// Electrical readings become fields; the classified states become tags so
// dashboards can filter and group on them. The write is non-blocking; data
// is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Tuya device ID, used as a tag
//   - ts: Sample timestamp
//   - snap: Telemetry snapshot
//   - pair: Classified plug/device states
func (c *Client) WriteSample(deviceID string, ts time.Time, snap plug.Snapshot, pair plug.StatePair) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		measurementTelemetry,
		map[string]string{
			"device_id":    deviceID,
			"plug_state":   string(pair.Plug),
			"device_state": string(pair.Device),
		},
		map[string]interface{}{
			"power_w":   snap.PowerW,
			"voltage_v": snap.VoltageV,
			"current_a": snap.CurrentA,
			"energy_wh": snap.EnergyWh,
		},
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point for measurements the helper doesn't cover.
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
