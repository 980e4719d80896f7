package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/emick/smartplug/internal/history"
	"github.com/emick/smartplug/internal/infrastructure/config"
	"github.com/emick/smartplug/internal/infrastructure/logging"
	"github.com/emick/smartplug/internal/plug"
)

// newTestServer builds a server over an in-memory history store and returns
// both the router and the store for seeding.
func newTestServer(t *testing.T) (http.Handler, *history.Store) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE event_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at TEXT NOT NULL,
			plug_state TEXT NOT NULL,
			device_state TEXT NOT NULL,
			plug_power INTEGER NOT NULL,
			countdown_s INTEGER NOT NULL,
			energy_wh INTEGER NOT NULL,
			current_a REAL NOT NULL,
			voltage_v REAL NOT NULL,
			power_w REAL NOT NULL,
			relay_status TEXT NOT NULL,
			fault_code INTEGER NOT NULL
		) STRICT;
		CREATE TABLE status_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			start TEXT NOT NULL,
			"end" TEXT NOT NULL,
			plug_state TEXT NOT NULL,
			device_state TEXT NOT NULL
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating test schema: %v", err)
	}

	store := history.NewStore(db)

	server, err := New(Deps{
		Config:   config.APIConfig{Host: "127.0.0.1", Port: 8099},
		Logger:   logging.Default(),
		Store:    store,
		DeviceID: "bf-test-device",
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	return server.buildRouter(), store
}

// seedSample records one sample through the real store.
func seedSample(t *testing.T, store *history.Store, ts time.Time, powerW float64) {
	t.Helper()

	snap := plug.Snapshot{
		Power:       powerW > 0,
		PowerW:      powerW,
		VoltageV:    237.0,
		CurrentA:    powerW / 237.0,
		EnergyWh:    4521,
		RelayStatus: "last",
	}
	if _, err := store.RecordSample(context.Background(), ts, snap, 5.0); err != nil {
		t.Fatalf("seeding sample: %v", err)
	}
}

// get performs a GET against the router and decodes the JSON body.
func get(t *testing.T, router http.Handler, path string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response from %s: %v\n%s", path, err, rec.Body.String())
	}
	return rec.Code, body
}

// TestNewValidatesDeps verifies required dependencies are checked.
func TestNewValidatesDeps(t *testing.T) {
	if _, err := New(Deps{Store: nil, Logger: logging.Default()}); err == nil {
		t.Error("New() without store should fail")
	}
	if _, err := New(Deps{Store: &history.Store{}, Logger: nil}); err == nil {
		t.Error("New() without logger should fail")
	}
}

// TestHealth verifies the health endpoint.
func TestHealth(t *testing.T) {
	router, _ := newTestServer(t)

	code, body := get(t, router, "/api/v1/health")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["version"] != "test" {
		t.Errorf("version = %v, want test", body["version"])
	}
}

// TestStatusEmpty verifies 404 before any sample exists.
func TestStatusEmpty(t *testing.T) {
	router, _ := newTestServer(t)

	code, body := get(t, router, "/api/v1/status")
	if code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", code)
	}
	if body["code"] != "not_found" {
		t.Errorf("error code = %v, want not_found", body["code"])
	}
}

// TestStatus verifies the current-state payload.
func TestStatus(t *testing.T) {
	router, store := newTestServer(t)

	start := time.Date(2026, 8, 15, 14, 0, 0, 0, time.UTC)
	seedSample(t, store, start, 150.3)
	seedSample(t, store, start.Add(10*time.Minute), 148.0)

	code, body := get(t, router, "/api/v1/status")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}

	if body["device_id"] != "bf-test-device" {
		t.Errorf("device_id = %v", body["device_id"])
	}
	if body["plug_state"] != "On" || body["device_state"] != "On" {
		t.Errorf("states = %v/%v, want On/On", body["plug_state"], body["device_state"])
	}
	if body["since"] != "2026-08-15T14:00:00Z" {
		t.Errorf("since = %v, want interval start", body["since"])
	}
	if body["last_sample"] != "2026-08-15T14:10:00Z" {
		t.Errorf("last_sample = %v, want latest sample time", body["last_sample"])
	}
	if body["power_w"] != 148.0 {
		t.Errorf("power_w = %v, want latest reading 148", body["power_w"])
	}
}

// TestHistory verifies rendered rows come back newest first.
func TestHistory(t *testing.T) {
	router, store := newTestServer(t)

	start := time.Date(2026, 8, 15, 14, 0, 0, 0, time.UTC)
	seedSample(t, store, start, 150.3)
	seedSample(t, store, start.Add(30*time.Minute), 150.3)
	seedSample(t, store, start.Add(45*time.Minute), 0) // Transition: new interval.

	code, body := get(t, router, "/api/v1/history")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["count"] != float64(2) {
		t.Fatalf("count = %v, want 2", body["count"])
	}

	rows, ok := body["rows"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("rows = %v", body["rows"])
	}

	newest, ok := rows[0].(map[string]any)
	if !ok {
		t.Fatalf("row shape: %v", rows[0])
	}
	if newest["plug"] != "Off" {
		t.Errorf("newest row plug = %v, want Off", newest["plug"])
	}
	if newest["time_range"] != "2026-08-15 14:45 - 14:45" {
		t.Errorf("newest time_range = %v", newest["time_range"])
	}

	older, ok := rows[1].(map[string]any)
	if !ok {
		t.Fatalf("row shape: %v", rows[1])
	}
	if older["duration"] != "00:30" {
		t.Errorf("older duration = %v, want 00:30", older["duration"])
	}
}

// TestHistoryTimeZone verifies the tz query parameter shifts display times.
func TestHistoryTimeZone(t *testing.T) {
	router, store := newTestServer(t)

	seedSample(t, store, time.Date(2026, 8, 15, 23, 30, 0, 0, time.UTC), 150.3)

	code, body := get(t, router, "/api/v1/history?tz=Etc/GMT-3")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	rows := body["rows"].([]any)
	row := rows[0].(map[string]any)
	// 23:30 UTC is 02:30 the next day at UTC+3.
	if row["time_range"] != "2026-08-16 02:30 - 02:30" {
		t.Errorf("time_range = %v, want shifted to UTC+3", row["time_range"])
	}

	code, body = get(t, router, "/api/v1/history?tz=Not/AZone")
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if body["code"] != "bad_request" {
		t.Errorf("error code = %v, want bad_request", body["code"])
	}
}

// TestLatestEvent verifies the full audit-trail payload.
func TestLatestEvent(t *testing.T) {
	router, store := newTestServer(t)

	code, _ := get(t, router, "/api/v1/events/latest")
	if code != http.StatusNotFound {
		t.Fatalf("status on empty history = %d, want 404", code)
	}

	seedSample(t, store, time.Date(2026, 8, 15, 14, 0, 0, 0, time.UTC), 150.3)

	code, body := get(t, router, "/api/v1/events/latest")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["recorded_at"] != "2026-08-15T14:00:00Z" {
		t.Errorf("recorded_at = %v", body["recorded_at"])
	}
	if body["power"] != true {
		t.Errorf("power = %v, want true", body["power"])
	}
	if body["relay_status"] != "last" {
		t.Errorf("relay_status = %v, want last", body["relay_status"])
	}
	if body["energy_wh"] != float64(4521) {
		t.Errorf("energy_wh = %v, want 4521", body["energy_wh"])
	}
}

// TestRequestIDHeader verifies request IDs are echoed and generated.
func TestRequestIDHeader(t *testing.T) {
	router, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want echoed req-42", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID should be generated when absent")
	}
}
