package plug

// State is an On/Off classification value.
// The string forms are stored in the database and shown in reports, so they
// are part of the persisted format.
type State string

// State values.
const (
	StateOn  State = "On"
	StateOff State = "Off"
)

// StatePair is the derived classification of one Snapshot: whether the plug
// relay is energised, and whether the attached appliance is actually doing
// something with the power.
type StatePair struct {
	Plug   State
	Device State
}

// Classify derives the StatePair for a snapshot against a power threshold.
//
// Plug state mirrors the relay. Device state is On only when the relay is
// energised and the instantaneous draw strictly exceeds thresholdW; a
// reading exactly at the threshold stays Off. With the relay off the device
// is always Off, whatever PowerW says, which filters residual or noise
// readings from a de-energised plug. A negative threshold degenerates to
// device state tracking plug state.
//
// Pure function: no side effects, same inputs always yield the same pair.
func Classify(s Snapshot, thresholdW float64) StatePair {
	pair := StatePair{Plug: StateOff, Device: StateOff}
	if !s.Power {
		return pair
	}
	pair.Plug = StateOn
	if s.PowerW > thresholdW {
		pair.Device = StateOn
	}
	return pair
}
