package sensors

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedReading marks readings rejected at the boundary. Callers can
// match it with errors.Is and keep processing the rest of the stream.
var ErrMalformedReading = errors.New("sensors: malformed reading")

// Reading is a single immutable sensor sample for one machine.
// Timestamp is monotonic per machine but carries no global ordering.
type Reading struct {
	MachineID   int
	Temperature float64 // Kelvin
	Vibration   float64 // RPM (rotational speed used as vibration proxy)
	Timestamp   int64
}

// Validate checks reading invariants before the sample may reach a window.
func (r Reading) Validate() error {
	if r.MachineID < 0 {
		return fmt.Errorf("%w: negative machine id %d", ErrMalformedReading, r.MachineID)
	}
	if math.IsNaN(r.Temperature) || math.IsInf(r.Temperature, 0) {
		return fmt.Errorf("%w: non-finite temperature", ErrMalformedReading)
	}
	if math.IsNaN(r.Vibration) || math.IsInf(r.Vibration, 0) {
		return fmt.Errorf("%w: non-finite vibration", ErrMalformedReading)
	}
	if r.Temperature <= 0 {
		return fmt.Errorf("%w: temperature %.2f must be positive", ErrMalformedReading, r.Temperature)
	}
	if r.Vibration < 0 {
		return fmt.Errorf("%w: vibration %.2f must not be negative", ErrMalformedReading, r.Vibration)
	}
	return nil
}
