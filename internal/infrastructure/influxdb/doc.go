// Package influxdb mirrors plug telemetry into an InfluxDB v2 bucket.
//
// The mirror is optional and strictly secondary to the SQLite history:
// recording never fails because a telemetry write failed. Writes go through
// the non-blocking batched write API; asynchronous failures are reported via
// a caller-supplied error callback.
//
// When the mirror is disabled in the configuration, Connect returns
// ErrDisabled and recording proceeds without it.
package influxdb
