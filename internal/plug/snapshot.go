package plug

import "fmt"

// Tuya datapoint codes reported by smart plugs.
// See the smart-switch product function definition:
// https://developer.tuya.com/en/docs/iot/smart-switch-product-function-definition?id=K9r7gh4lbe886
const (
	dpSwitch      = "switch_1"
	dpCountdown   = "countdown_1"
	dpEnergy      = "add_ele"
	dpCurrent     = "cur_current"
	dpVoltage     = "cur_voltage"
	dpPower       = "cur_power"
	dpFault       = "fault"
	dpRelayStatus = "relay_status"
)

// Raw datapoint scaling factors. The cloud reports current in mA and
// voltage/power in tenths of their unit.
const (
	currentScale = 1000.0
	voltageScale = 10.0
	powerScale   = 10.0
)

// Snapshot is one point-in-time normalised telemetry reading from the plug.
//
// It is a plain value: construct it with ParseSnapshot and treat it as
// immutable afterwards.
type Snapshot struct {
	// Power reports whether the relay is energised.
	Power bool

	// CountdownS is the remaining switch-off countdown in seconds.
	CountdownS int

	// EnergyWh is the cumulative energy counter in watt-hours.
	EnergyWh int

	// CurrentA, VoltageV and PowerW are the instantaneous electrical
	// readings, already scaled to amps, volts and watts.
	CurrentA float64
	VoltageV float64
	PowerW   float64

	// FaultCode is the device fault bitmask, zero when healthy.
	FaultCode int

	// RelayStatus is the configured power-on behaviour ("power_on",
	// "power_off", "last", or "unknown" when the plug doesn't report it).
	RelayStatus string
}

// ParseSnapshot builds a Snapshot from the decoded datapoint map.
//
// Missing datapoints fall back to zero values ("unknown" for relay status),
// since plugs legitimately omit codes they don't support. A datapoint that
// is present with the wrong type fails with ErrInvalidSnapshot instead of
// being silently defaulted; that distinguishes "plug doesn't report this"
// from "the payload is garbage".
//
// Parameters:
//   - dps: Datapoint code to value, as decoded from the cloud status result
//
// Returns:
//   - Snapshot: Normalised telemetry with scaling applied
//   - error: ErrInvalidSnapshot (wrapped) on any type mismatch
func ParseSnapshot(dps map[string]any) (Snapshot, error) {
	power, err := dpBool(dps, dpSwitch)
	if err != nil {
		return Snapshot{}, err
	}
	countdown, err := dpInt(dps, dpCountdown)
	if err != nil {
		return Snapshot{}, err
	}
	energy, err := dpInt(dps, dpEnergy)
	if err != nil {
		return Snapshot{}, err
	}
	currentRaw, err := dpFloat(dps, dpCurrent)
	if err != nil {
		return Snapshot{}, err
	}
	voltageRaw, err := dpFloat(dps, dpVoltage)
	if err != nil {
		return Snapshot{}, err
	}
	powerRaw, err := dpFloat(dps, dpPower)
	if err != nil {
		return Snapshot{}, err
	}
	fault, err := dpInt(dps, dpFault)
	if err != nil {
		return Snapshot{}, err
	}
	relay, err := dpString(dps, dpRelayStatus, "unknown")
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		Power:       power,
		CountdownS:  countdown,
		EnergyWh:    energy,
		CurrentA:    currentRaw / currentScale,
		VoltageV:    voltageRaw / voltageScale,
		PowerW:      powerRaw / powerScale,
		FaultCode:   fault,
		RelayStatus: relay,
	}, nil
}

// dpBool extracts a boolean datapoint, defaulting to false when absent.
func dpBool(dps map[string]any, code string) (bool, error) {
	v, ok := dps[code]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: datapoint %q: expected bool, got %T", ErrInvalidSnapshot, code, v)
	}
	return b, nil
}

// dpInt extracts an integer datapoint, defaulting to zero when absent.
// JSON decoding yields float64 for all numbers, so both are accepted.
func dpInt(dps map[string]any, code string) (int, error) {
	v, ok := dps[code]
	if !ok {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: datapoint %q: expected number, got %T", ErrInvalidSnapshot, code, v)
	}
}

// dpFloat extracts a numeric datapoint, defaulting to zero when absent.
func dpFloat(dps map[string]any, code string) (float64, error) {
	v, ok := dps[code]
	if !ok {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: datapoint %q: expected number, got %T", ErrInvalidSnapshot, code, v)
	}
}

// dpString extracts a string datapoint with an explicit default.
func dpString(dps map[string]any, code, def string) (string, error) {
	v, ok := dps[code]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: datapoint %q: expected string, got %T", ErrInvalidSnapshot, code, v)
	}
	return s, nil
}
