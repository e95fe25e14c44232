package alerts

import (
	detection "predictive-maintenance/internal/detection/domain"
)

// Severity buckets derived from a record's status labels.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityNormal   = "normal"
)

// Record is the classification outcome for one input reading. Records are
// produced 1:1 with readings, in input order.
//
// AvgTemperature/AvgVibration are nil when the machine had no window at
// classification time. The deviation fields fall back to 0 in that case.
// That is a reporting convention only; the classifier itself skips spike
// checks when an average is absent.
type Record struct {
	MachineID            int      `json:"machine_id"`
	Timestamp            int64    `json:"timestamp"`
	Temperature          float64  `json:"temperature"`
	Vibration            float64  `json:"vibration"`
	AvgTemperature       *float64 `json:"avg_temperature"`
	TemperatureDeviation float64  `json:"temperature_deviation"`
	AvgVibration         *float64 `json:"avg_vibration"`
	VibrationDeviation   float64  `json:"vibration_deviation"`
	Status               string   `json:"status"`
}

// Anomalous reports whether the record triggered at least one condition.
func (r Record) Anomalous() bool {
	return detection.IsAnomalous(r.Status)
}

// Severity maps the status to its highest severity bucket.
func (r Record) Severity() string {
	switch {
	case detection.IsCritical(r.Status):
		return SeverityCritical
	case detection.IsWarning(r.Status):
		return SeverityWarning
	default:
		return SeverityNormal
	}
}
