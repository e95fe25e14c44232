package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	alerts "predictive-maintenance/internal/alerts/domain"
	detection "predictive-maintenance/internal/detection/domain"
)

func testReport() (Summary, []MachineRow, []alerts.Record) {
	summary := Summary{
		GeneratedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		TotalMachines:  2,
		TotalReadings:  120,
		CriticalAlerts: 3,
		WarningAlerts:  5,
		NormalReadings: 112,
		AnomalyRate:    6.67,
		SystemHealth:   93.33,
		AvgTemperature: 300.4,
		MaxTemperature: 331.2,
		AvgVibration:   1498,
		MaxVibration:   2620,
	}
	machines := []MachineRow{
		{MachineID: 1, Readings: 60, AvgTemperature: 300.1, MaxTemperature: 331.2, AvgVibration: 1480, MaxVibration: 2620, HealthStatus: "Warning", HealthScore: 71.5},
		{MachineID: 2, Readings: 60, AvgTemperature: 300.7, MaxTemperature: 305.0, AvgVibration: 1516, MaxVibration: 1630, HealthStatus: "Healthy", HealthScore: 94.2},
	}
	anomalies := []alerts.Record{
		{MachineID: 1, Timestamp: 42, Temperature: 331.2, Vibration: 1500, Status: detection.LabelHighTemperature},
	}
	return summary, machines, anomalies
}

func TestBuildXLSX(t *testing.T) {
	summary, machines, anomalies := testReport()
	payload, err := BuildXLSX(summary, machines, anomalies)
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	for _, sheet := range []string{"summary", "machines", "anomalies"} {
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			t.Fatalf("missing sheet %q", sheet)
		}
	}

	readings, err := f.GetCellValue("summary", "B5")
	if err != nil {
		t.Fatal(err)
	}
	if readings != "120" {
		t.Fatalf("summary B5 = %q, want 120", readings)
	}

	machineCell, err := f.GetCellValue("machines", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if machineCell != "1" {
		t.Fatalf("machines A2 = %q, want 1", machineCell)
	}

	status, err := f.GetCellValue("anomalies", "G2")
	if err != nil {
		t.Fatal(err)
	}
	if status != detection.LabelHighTemperature {
		t.Fatalf("anomalies G2 = %q, want %q", status, detection.LabelHighTemperature)
	}
}

func TestBuildPDF(t *testing.T) {
	summary, machines, anomalies := testReport()
	payload, err := BuildPDF(summary, machines, anomalies)
	if err != nil {
		t.Fatal(err)
	}
	if len(payload) == 0 {
		t.Fatal("empty pdf output")
	}
	if !bytes.HasPrefix(payload, []byte("%PDF")) {
		t.Fatalf("output does not start with %%PDF: %q", payload[:8])
	}
}
