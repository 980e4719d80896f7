// smartplug - Tuya smart plug state recorder
//
// Samples a Tuya smart plug's power telemetry via the cloud API, classifies
// it into a (plug, device) state pair, and maintains a run-length-encoded
// history of state intervals in SQLite. The record command is designed to be
// invoked once a minute from cron; the other commands are ad-hoc queries over
// the same database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	_ "github.com/emick/smartplug/migrations"

	"github.com/emick/smartplug/internal/api"
	"github.com/emick/smartplug/internal/history"
	"github.com/emick/smartplug/internal/infrastructure/config"
	"github.com/emick/smartplug/internal/infrastructure/database"
	"github.com/emick/smartplug/internal/infrastructure/influxdb"
	"github.com/emick/smartplug/internal/infrastructure/logging"
	"github.com/emick/smartplug/internal/infrastructure/mqtt"
	"github.com/emick/smartplug/internal/plug"
	"github.com/emick/smartplug/internal/report"
	"github.com/emick/smartplug/internal/tuya"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

const usage = `Usage: smartplug <command> [flags]

Commands:
  info      Fetch and print the plug's current telemetry snapshot
  status    Fetch a snapshot and print the classified state pair
  record    Record the current state to the history database (for cron)
  history   Print the log of status ranges
  serve     Run the read-only JSON API over the history database
  version   Print version information
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches the subcommand, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command-line arguments without the program name
//
// Returns:
//   - error: nil on success, or error describing failure
func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	// Credentials commonly live in a .env next to the binary; absence is fine.
	_ = godotenv.Load()

	cmd, cmdArgs := args[0], args[1:]

	if cmd == "version" {
		fmt.Printf("smartplug %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logging.New(cfg.Logging, version)

	switch cmd {
	case "info":
		return runInfo(ctx, cfg, cmdArgs)
	case "status":
		return runStatus(ctx, cfg, cmdArgs)
	case "record":
		return runRecord(ctx, cfg, log, cmdArgs)
	case "history":
		return runHistory(ctx, cfg, cmdArgs)
	case "serve":
		return runServe(ctx, cfg, log)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// getConfigPath returns the configuration file path.
// Uses SMARTPLUG_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SMARTPLUG_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// fetchSnapshot builds a cloud client and retrieves one snapshot, bounded by
// the configured fetch timeout.
func fetchSnapshot(ctx context.Context, cfg *config.Config) (plug.Snapshot, error) {
	client, err := tuya.New(cfg.Device)
	if err != nil {
		return plug.Snapshot{}, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.GetFetchTimeout())
	defer cancel()

	return client.FetchSnapshot(fetchCtx)
}

// openStore opens the history database, runs migrations, and wraps it in a
// store. The caller owns closing the returned DB.
func openStore(ctx context.Context, cfg *config.Config) (*database.DB, *history.Store, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close() //nolint:errcheck // Best effort cleanup on error path
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, history.NewStore(db.DB), nil
}

// runInfo fetches and prints the current telemetry snapshot.
func runInfo(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap, err := fetchSnapshot(ctx, cfg)
	if err != nil {
		return fmt.Errorf("fetching plug info: %w", err)
	}

	power := "Off"
	if snap.Power {
		power = "On"
	}
	fmt.Printf("Power:         %s\n", power)
	fmt.Printf("Countdown:     %d s\n", snap.CountdownS)
	fmt.Printf("Voltage:       %.1f V\n", snap.VoltageV)
	fmt.Printf("Current:       %.3f A\n", snap.CurrentA)
	fmt.Printf("Power Usage:   %.1f W\n", snap.PowerW)
	fmt.Printf("Energy Used:   %d Wh\n", snap.EnergyWh)
	fmt.Printf("Relay Status:  %s\n", snap.RelayStatus)
	fmt.Printf("Fault Code:    %d\n", snap.FaultCode)
	return nil
}

// runStatus fetches a snapshot and prints the classified state pair.
func runStatus(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	threshold := fs.Float64("threshold", cfg.Device.ThresholdW, "power threshold (W) to detect active usage")
	if err := fs.Parse(args); err != nil {
		return err
	}

	snap, err := fetchSnapshot(ctx, cfg)
	if err != nil {
		return fmt.Errorf("fetching plug status: %w", err)
	}

	pair := plug.Classify(snap, *threshold)
	fmt.Printf("Plug:     %s\n", pair.Plug)
	fmt.Printf("Device:   %s\n", pair.Device)
	return nil
}

// runRecord samples the plug and persists the result, then feeds the
// optional MQTT and InfluxDB mirrors. Intended to be run from cron, once a
// minute; a non-nil return means a non-zero exit so cron mail fires.
func runRecord(ctx context.Context, cfg *config.Config, log *logging.Logger, args []string) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	threshold := fs.Float64("threshold", cfg.Device.ThresholdW, "power threshold (W)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log = log.With("run_id", uuid.NewString())

	snap, err := fetchSnapshot(ctx, cfg)
	if err != nil {
		log.Error("fetching snapshot failed", "error", err)
		return fmt.Errorf("fetching snapshot: %w", err)
	}

	db, store, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("opening history store failed", "error", err)
		return err
	}
	defer db.Close() //nolint:errcheck // Read-mostly teardown

	now := time.Now()
	result, err := store.RecordSample(ctx, now, snap, *threshold)
	if err != nil {
		log.Error("recording sample failed", "error", err)
		return fmt.Errorf("recording sample: %w", err)
	}

	log.Info("sample recorded",
		"plug_state", result.Pair.Plug,
		"device_state", result.Pair.Device,
		"power_w", snap.PowerW,
		"merged", result.Merged,
		"interval_start", result.Interval.Start,
	)

	// Mirrors are best-effort: the store is the source of truth, so a dead
	// broker or bucket must not fail the recording.
	announceMQTT(cfg, log, now, snap, result.Pair)
	mirrorInfluxDB(cfg, log, now, snap, result.Pair)

	return nil
}

// announceMQTT publishes the retained state announcement, logging failures.
func announceMQTT(cfg *config.Config, log *logging.Logger, ts time.Time, snap plug.Snapshot, pair plug.StatePair) {
	client, err := mqtt.Connect(cfg.MQTT)
	if errors.Is(err, mqtt.ErrDisabled) {
		return
	}
	if err != nil {
		log.Warn("MQTT announce skipped", "error", err)
		return
	}
	defer client.Close() //nolint:errcheck // Best-effort side channel

	if err := client.PublishState(cfg.Device.ID, ts, snap, pair); err != nil {
		log.Warn("MQTT state publish failed", "error", err)
		return
	}
	if err := client.PublishAvailability(cfg.Device.ID, true); err != nil {
		log.Warn("MQTT availability publish failed", "error", err)
	}
}

// mirrorInfluxDB writes the sample to the telemetry mirror, logging failures.
func mirrorInfluxDB(cfg *config.Config, log *logging.Logger, ts time.Time, snap plug.Snapshot, pair plug.StatePair) {
	client, err := influxdb.Connect(cfg.InfluxDB)
	if errors.Is(err, influxdb.ErrDisabled) {
		return
	}
	if err != nil {
		log.Warn("InfluxDB mirror skipped", "error", err)
		return
	}
	defer client.Close() //nolint:errcheck // Best-effort side channel

	client.SetOnError(func(err error) {
		log.Warn("InfluxDB write error", "error", err)
	})
	client.WriteSample(cfg.Device.ID, ts, snap, pair)
	client.Flush()
}

// runHistory prints the log of status ranges, newest first, in local time.
func runHistory(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Read-only teardown

	intervals, err := store.Intervals(ctx)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if len(intervals) == 0 {
		fmt.Println("No history found.")
		return nil
	}

	fmt.Printf("%-40s %-8s %-6s %-8s\n", "Time Range", "Duration", "Plug", "Device")
	fmt.Println("----------------------------------------------------------------------")
	report.Rows(intervals, time.Local)(func(row report.Row) bool {
		fmt.Printf("%-40s %-8s %-6s %-8s\n", row.TimeRange, row.Duration, row.Plug, row.Device)
		return true
	})
	return nil
}

// runServe runs the read-only JSON API until the context is cancelled.
func runServe(ctx context.Context, cfg *config.Config, log *logging.Logger) error {
	db, store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Store:    store,
		DeviceID: cfg.Device.ID,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}

	log.Info("serving history API", "host", cfg.API.Host, "port", cfg.API.Port)
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return server.Close()
}
