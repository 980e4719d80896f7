package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	originalEnv := os.Getenv("SMARTPLUG_CONFIG")
	defer os.Setenv("SMARTPLUG_CONFIG", originalEnv)

	os.Unsetenv("SMARTPLUG_CONFIG")

	path := getConfigPath()
	if path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	originalEnv := os.Getenv("SMARTPLUG_CONFIG")
	defer os.Setenv("SMARTPLUG_CONFIG", originalEnv)

	expected := "/custom/path/config.yaml"
	os.Setenv("SMARTPLUG_CONFIG", expected)

	path := getConfigPath()
	if path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_MissingCommand verifies usage error without a subcommand.
func TestRun_MissingCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil {
		t.Error("run() without a command should fail")
	}
}

// TestRun_UnknownCommand verifies unknown subcommands fail.
func TestRun_UnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"frobnicate"}); err == nil {
		t.Error("run() with unknown command should fail")
	}
}

// TestRun_Version verifies the version command succeeds without config.
func TestRun_Version(t *testing.T) {
	if err := run(context.Background(), []string{"version"}); err != nil {
		t.Errorf("run(version) error = %v", err)
	}
}

// TestRun_InvalidConfig verifies run fails with a broken config file.
func TestRun_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("device: [not a mapping"), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	originalEnv := os.Getenv("SMARTPLUG_CONFIG")
	defer os.Setenv("SMARTPLUG_CONFIG", originalEnv)
	os.Setenv("SMARTPLUG_CONFIG", configPath)

	if err := run(context.Background(), []string{"history"}); err == nil {
		t.Error("run() should fail with unparseable config")
	}
}

// TestRun_HistoryEmptyDatabase verifies the history command succeeds against
// a fresh database (migrations run, no rows, "No history found." path).
func TestRun_HistoryEmptyDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	dbPath := filepath.Join(tmpDir, "history.db")

	configContent := `
database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

logging:
  level: error
  format: text
  output: stderr
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	originalEnv := os.Getenv("SMARTPLUG_CONFIG")
	defer os.Setenv("SMARTPLUG_CONFIG", originalEnv)
	os.Setenv("SMARTPLUG_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, []string{"history"}); err != nil {
		t.Errorf("run(history) error = %v", err)
	}

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file should exist after history command: %v", err)
	}
}

// TestRun_RecordWithoutCredentials verifies record fails fast when the Tuya
// credentials are absent.
func TestRun_RecordWithoutCredentials(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
database:
  path: "` + filepath.Join(tmpDir, "history.db") + `"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	for _, env := range []string{"SMARTPLUG_CONFIG", "TUYA_DEVICE_ID", "TUYA_API_KEY", "TUYA_API_SECRET"} {
		original := os.Getenv(env)
		defer os.Setenv(env, original)
	}
	os.Setenv("SMARTPLUG_CONFIG", configPath)
	os.Unsetenv("TUYA_DEVICE_ID")
	os.Unsetenv("TUYA_API_KEY")
	os.Unsetenv("TUYA_API_SECRET")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, []string{"record"}); err == nil {
		t.Error("run(record) should fail without credentials")
	}
}
