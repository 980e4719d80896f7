package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv unsets every override variable for the duration of a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TUYA_DEVICE_ID", "TUYA_API_REGION", "TUYA_API_KEY", "TUYA_API_SECRET",
		"THRESHOLD", "SMARTPLUG_DATABASE_PATH", "SMARTPLUG_MQTT_HOST",
		"SMARTPLUG_MQTT_USERNAME", "SMARTPLUG_MQTT_PASSWORD",
		"SMARTPLUG_INFLUXDB_TOKEN",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

// writeConfig writes a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

// TestLoadMissingFile verifies a missing config file falls back to defaults.
func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ThresholdW != 5.0 {
		t.Errorf("ThresholdW = %v, want 5.0", cfg.Device.ThresholdW)
	}
	if cfg.Database.Path != "./data/history.db" {
		t.Errorf("Database.Path = %q, want default", cfg.Database.Path)
	}
	if !cfg.Database.WALMode {
		t.Error("WALMode = false, want true by default")
	}
}

// TestLoadFromFile verifies YAML values override defaults.
func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
device:
  id: "bf000test"
  region: "us"
  threshold_w: 12.5

database:
  path: "/tmp/plug.db"
  busy_timeout: 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "bf000test" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "bf000test")
	}
	if cfg.Device.Region != "us" {
		t.Errorf("Device.Region = %q, want %q", cfg.Device.Region, "us")
	}
	if cfg.Device.ThresholdW != 12.5 {
		t.Errorf("ThresholdW = %v, want 12.5", cfg.Device.ThresholdW)
	}
	if cfg.Database.Path != "/tmp/plug.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/plug.db")
	}
}

// TestLoadEnvOverrides verifies environment variables win over the file.
func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
device:
  id: "from-file"
  threshold_w: 1.0
`)

	t.Setenv("TUYA_DEVICE_ID", "from-env")
	t.Setenv("THRESHOLD", "7.5")
	t.Setenv("SMARTPLUG_DATABASE_PATH", "/var/lib/smartplug/history.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "from-env" {
		t.Errorf("Device.ID = %q, want env override", cfg.Device.ID)
	}
	if cfg.Device.ThresholdW != 7.5 {
		t.Errorf("ThresholdW = %v, want 7.5", cfg.Device.ThresholdW)
	}
	if cfg.Database.Path != "/var/lib/smartplug/history.db" {
		t.Errorf("Database.Path = %q, want env override", cfg.Database.Path)
	}
}

// TestLoadInvalidYAML verifies parse errors are surfaced.
func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "device: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail on invalid YAML")
	}
}

// TestValidate exercises validation failure cases.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "bad region",
			mutate:  func(c *Config) { c.Device.Region = "mars" },
			wantErr: "device.region",
		},
		{
			name:    "bad qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name: "influx enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Bucket = "plug"
			},
			wantErr: "influxdb.url",
		},
		{
			name:    "bad api port",
			mutate:  func(c *Config) { c.API.Port = 0 },
			wantErr: "api.port",
		},
		{
			name:    "zero fetch timeout",
			mutate:  func(c *Config) { c.Device.FetchTimeout = 0 },
			wantErr: "device.fetch_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

// TestValidateDefaults verifies the default config is valid.
func TestValidateDefaults(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

// TestNegativeThresholdAllowed verifies a negative threshold passes
// validation; it simply makes device state track plug state.
func TestNegativeThresholdAllowed(t *testing.T) {
	cfg := defaultConfig()
	cfg.Device.ThresholdW = -1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("negative threshold should be allowed: %v", err)
	}
}
