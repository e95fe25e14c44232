package alerts

import (
	"testing"

	detection "predictive-maintenance/internal/detection/domain"
)

func TestSeverityBuckets(t *testing.T) {
	cases := []struct {
		status string
		want   string
	}{
		{detection.StatusNormal, SeverityNormal},
		{detection.LabelHighTemperature, SeverityCritical},
		{detection.LabelTemperatureSpike, SeverityWarning},
		{detection.LabelVibrationSpike, SeverityWarning},
		// Critical wins when both kinds of label are present.
		{detection.LabelTemperatureSpike + " | " + detection.LabelExcessiveVibration, SeverityCritical},
	}
	for _, tc := range cases {
		record := Record{Status: tc.status}
		if got := record.Severity(); got != tc.want {
			t.Fatalf("Severity(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestAnomalous(t *testing.T) {
	if (Record{Status: detection.StatusNormal}).Anomalous() {
		t.Fatal("normal record must not be anomalous")
	}
	if !(Record{Status: detection.LabelVibrationSpike}).Anomalous() {
		t.Fatal("labeled record must be anomalous")
	}
}
