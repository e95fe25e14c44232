package detection

import (
	"errors"
	"math"
	"strings"
)

// Status labels in evaluation order. The final status is the pipe-joined list
// of triggered labels, or StatusNormal when nothing triggers.
const (
	LabelHighTemperature    = "CRITICAL: High Temperature"
	LabelTemperatureSpike   = "WARNING: Sudden Temperature Spike"
	LabelExcessiveVibration = "CRITICAL: Excessive Vibration"
	LabelVibrationSpike     = "WARNING: Sudden Vibration Spike"

	StatusNormal = "Normal Operation"
)

const statusSeparator = " | "

// ErrInvalidThresholds is returned for non-positive threshold values.
var ErrInvalidThresholds = errors.New("detection: thresholds must be positive")

// Thresholds are the externally tunable classification limits.
type Thresholds struct {
	TempHigh       float64 `yaml:"temp_high"`       // Kelvin, absolute
	TempSpike      float64 `yaml:"temp_spike"`      // Kelvin, deviation from window average
	VibrationHigh  float64 `yaml:"vibration_high"`  // RPM, absolute
	VibrationSpike float64 `yaml:"vibration_spike"` // RPM, deviation from window average
}

// DefaultThresholds returns the stock limits for the AI4I sensor ranges.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TempHigh:       320,
		TempSpike:      15,
		VibrationHigh:  2000,
		VibrationSpike: 500,
	}
}

// Validate rejects threshold sets the classifier cannot run with.
func (t Thresholds) Validate() error {
	if t.TempHigh <= 0 || t.TempSpike <= 0 || t.VibrationHigh <= 0 || t.VibrationSpike <= 0 {
		return ErrInvalidThresholds
	}
	return nil
}

// Classifier maps a reading plus prior window averages to a status label.
// It is stateless; all history lives in the WindowStore.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier constructs a classifier, failing fast on bad thresholds.
func NewClassifier(t Thresholds) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{thresholds: t}, nil
}

// Thresholds returns the configured limits.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify evaluates the four conditions in fixed order. The spike checks are
// skipped entirely when the corresponding average is nil: a machine with no
// prior window has no deviation, which is not the same as a zero deviation.
func (c *Classifier) Classify(temperature, vibration float64, avgTemperature, avgVibration *float64) string {
	var labels []string

	if temperature > c.thresholds.TempHigh {
		labels = append(labels, LabelHighTemperature)
	}
	if avgTemperature != nil && math.Abs(temperature-*avgTemperature) > c.thresholds.TempSpike {
		labels = append(labels, LabelTemperatureSpike)
	}
	if vibration > c.thresholds.VibrationHigh {
		labels = append(labels, LabelExcessiveVibration)
	}
	if avgVibration != nil && math.Abs(vibration-*avgVibration) > c.thresholds.VibrationSpike {
		labels = append(labels, LabelVibrationSpike)
	}

	if len(labels) == 0 {
		return StatusNormal
	}
	return strings.Join(labels, statusSeparator)
}

// IsAnomalous reports whether a status carries at least one triggered label.
func IsAnomalous(status string) bool {
	return status != "" && status != StatusNormal
}

// IsCritical reports whether a status carries a CRITICAL label.
func IsCritical(status string) bool {
	return strings.Contains(status, "CRITICAL")
}

// IsWarning reports whether a status carries a WARNING label.
func IsWarning(status string) bool {
	return strings.Contains(status, "WARNING")
}
