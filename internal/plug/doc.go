// Package plug holds the smart plug domain model: the normalised telemetry
// Snapshot, the parser that builds one from raw Tuya datapoints, and the
// classifier that turns a Snapshot into an On/Off state pair.
//
// Everything here is pure; fetching and persistence live elsewhere.
package plug
