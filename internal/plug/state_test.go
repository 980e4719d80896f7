package plug

import "testing"

// TestClassify exercises the classification table including boundaries.
func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		power      bool
		powerW     float64
		thresholdW float64
		want       StatePair
	}{
		{
			name:       "powered and drawing",
			power:      true,
			powerW:     150.0,
			thresholdW: 5.0,
			want:       StatePair{Plug: StateOn, Device: StateOn},
		},
		{
			name:       "powered but idle",
			power:      true,
			powerW:     1.2,
			thresholdW: 5.0,
			want:       StatePair{Plug: StateOn, Device: StateOff},
		},
		{
			name:       "exactly at threshold stays off",
			power:      true,
			powerW:     5.0,
			thresholdW: 5.0,
			want:       StatePair{Plug: StateOn, Device: StateOff},
		},
		{
			name:       "just above threshold",
			power:      true,
			powerW:     5.01,
			thresholdW: 5.0,
			want:       StatePair{Plug: StateOn, Device: StateOn},
		},
		{
			name:       "relay off",
			power:      false,
			powerW:     0,
			thresholdW: 5.0,
			want:       StatePair{Plug: StateOff, Device: StateOff},
		},
		{
			name:       "relay off with residual reading",
			power:      false,
			powerW:     42.0,
			thresholdW: 5.0,
			want:       StatePair{Plug: StateOff, Device: StateOff},
		},
		{
			name:       "negative threshold tracks plug state",
			power:      true,
			powerW:     0,
			thresholdW: -1.0,
			want:       StatePair{Plug: StateOn, Device: StateOn},
		},
		{
			name:       "negative threshold with relay off",
			power:      false,
			powerW:     0,
			thresholdW: -1.0,
			want:       StatePair{Plug: StateOff, Device: StateOff},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Snapshot{Power: tt.power, PowerW: tt.powerW}
			if got := Classify(snap, tt.thresholdW); got != tt.want {
				t.Errorf("Classify() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestClassifyPure verifies repeated calls with the same inputs agree.
func TestClassifyPure(t *testing.T) {
	snap := Snapshot{Power: true, PowerW: 7.3}
	first := Classify(snap, 5.0)
	for i := 0; i < 100; i++ {
		if got := Classify(snap, 5.0); got != first {
			t.Fatalf("Classify() not deterministic: %+v != %+v", got, first)
		}
	}
}
