package sensors

import (
	"errors"
	"math"
	"testing"
)

func TestValidateAcceptsTypicalReading(t *testing.T) {
	r := Reading{MachineID: 1, Temperature: 300.2, Vibration: 1500, Timestamp: 10}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateAcceptsZeroVibration(t *testing.T) {
	// A stopped spindle reads zero; that is a valid state, not a bad row.
	r := Reading{MachineID: 1, Temperature: 295, Vibration: 0}
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		reading Reading
	}{
		{"negative machine id", Reading{MachineID: -1, Temperature: 300, Vibration: 1000}},
		{"zero temperature", Reading{MachineID: 1, Temperature: 0, Vibration: 1000}},
		{"negative temperature", Reading{MachineID: 1, Temperature: -4, Vibration: 1000}},
		{"negative vibration", Reading{MachineID: 1, Temperature: 300, Vibration: -1}},
		{"nan temperature", Reading{MachineID: 1, Temperature: math.NaN(), Vibration: 1000}},
		{"inf vibration", Reading{MachineID: 1, Temperature: 300, Vibration: math.Inf(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.reading.Validate()
			if !errors.Is(err, ErrMalformedReading) {
				t.Fatalf("Validate() = %v, want ErrMalformedReading", err)
			}
		})
	}
}
