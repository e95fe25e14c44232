package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	alerts "predictive-maintenance/internal/alerts/domain"
	detection "predictive-maintenance/internal/detection/domain"
)

func TestCSVSinkWritesHeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewCSVSink(&buf)
	if err != nil {
		t.Fatal(err)
	}

	avgTemp := 301.5
	avgVib := 1480.0
	err = s.Emit(context.Background(), alerts.Record{
		MachineID:            7,
		Timestamp:            12,
		Temperature:          325,
		Vibration:            1500,
		AvgTemperature:       &avgTemp,
		TemperatureDeviation: 23.5,
		AvgVibration:         &avgVib,
		VibrationDeviation:   20,
		Status:               detection.LabelHighTemperature,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want header + 1", len(rows))
	}
	if rows[0][0] != "machine_id" || rows[0][8] != "status" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	want := []string{"7", "12", "325", "1500", "301.5", "23.5", "1480", "20", detection.LabelHighTemperature}
	for i, cell := range want {
		if rows[1][i] != cell {
			t.Fatalf("row[%d] = %q, want %q", i, rows[1][i], cell)
		}
	}
}

func TestCSVSinkRendersAbsentAveragesAsNA(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewCSVSink(&buf)
	if err != nil {
		t.Fatal(err)
	}
	err = s.Emit(context.Background(), alerts.Record{
		MachineID: 1, Timestamp: 0, Temperature: 300, Vibration: 1000,
		Status: detection.StatusNormal,
	})
	if err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if rows[1][4] != "N/A" || rows[1][6] != "N/A" {
		t.Fatalf("absent averages = %q, %q, want N/A", rows[1][4], rows[1][6])
	}
	if rows[1][5] != "0" || rows[1][7] != "0" {
		t.Fatalf("deviations = %q, %q, want 0", rows[1][5], rows[1][7])
	}
}

func TestMultiAttemptsAllSinks(t *testing.T) {
	wantErr := errors.New("first sink failed")
	var secondCalled bool
	first := failingEmitter{err: wantErr}
	second := funcEmitter(func() { secondCalled = true })

	multi := NewMulti(first, second)
	err := multi.Emit(context.Background(), alerts.Record{Status: detection.StatusNormal})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected first sink error, got %v", err)
	}
	if !secondCalled {
		t.Fatal("second sink must still be attempted after the first fails")
	}
}

type failingEmitter struct{ err error }

func (f failingEmitter) Emit(context.Context, alerts.Record) error { return f.err }

type funcEmitter func()

func (f funcEmitter) Emit(context.Context, alerts.Record) error {
	f()
	return nil
}
