// Package tuya fetches smart plug telemetry from the Tuya cloud API.
//
// It implements the v2 request signing scheme (HMAC-SHA256 over the
// client ID, access token, timestamp, nonce and a canonical request string)
// and the token grant flow, then maps the device status datapoint list into
// a plug.Snapshot.
//
// The package is an external collaborator from the history engine's point
// of view: it produces Snapshots and errors, nothing else. It never retries;
// the periodic scheduler invoking the process is the retry loop.
package tuya
