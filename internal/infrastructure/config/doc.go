// Package config loads and validates smartplug configuration.
//
// Configuration comes from three layers, later layers winning:
//
//  1. Built-in defaults
//  2. YAML file (configs/config.yaml, or SMARTPLUG_CONFIG)
//  3. Environment variables (TUYA_* for credentials, SMARTPLUG_* for the rest)
//
// The YAML file is optional. A cron deployment that only exports TUYA_*
// variables and THRESHOLD runs entirely on defaults, matching how the tool
// was originally operated.
//
// # Example
//
//	device:
//	  id: "bf1234567890abcdef"
//	  region: "eu"
//	  threshold_w: 5.0
//
//	database:
//	  path: "./data/history.db"
//	  wal_mode: true
//	  busy_timeout: 5
//
//	logging:
//	  level: "info"
//	  format: "text"
//	  output: "stderr"
//
// Credentials (device.key, device.secret) should come from the environment
// rather than the file; never commit them.
package config
