package ingest

import (
	"errors"
	"strings"
	"testing"
)

func TestReadNativeSchema(t *testing.T) {
	data := `machine_id,temperature,vibration,timestamp
1,300.5,1500,0
2,301.0,1520,1
`
	result, err := Read(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Readings) != 2 || len(result.Skipped) != 0 {
		t.Fatalf("got %d readings %d skipped, want 2/0", len(result.Readings), len(result.Skipped))
	}
	first := result.Readings[0]
	if first.MachineID != 1 || first.Temperature != 300.5 || first.Vibration != 1500 || first.Timestamp != 0 {
		t.Fatalf("first reading = %+v", first)
	}
}

func TestReadAI4IHeaders(t *testing.T) {
	data := `UDI,Air temperature [K],Rotational speed [rpm]
1,298.1,1551
2,298.2,1408
`
	result, err := Read(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(result.Readings))
	}
	// No timestamp column: ordinals are assigned in file order.
	if result.Readings[0].Timestamp != 1 || result.Readings[1].Timestamp != 2 {
		t.Fatalf("ordinal timestamps = %d, %d", result.Readings[0].Timestamp, result.Readings[1].Timestamp)
	}
}

func TestReadSkipsBadRowsAndKeepsGoing(t *testing.T) {
	data := `machine_id,temperature,vibration,timestamp
1,300.5,1500,0
1,not-a-number,1500,1
-3,300.0,1500,2
1,301.5,1510,3
`
	result, err := Read(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(result.Readings))
	}
	if len(result.Skipped) != 2 {
		t.Fatalf("got %d skipped, want 2", len(result.Skipped))
	}
	if result.Skipped[0].Line != 3 || result.Skipped[1].Line != 4 {
		t.Fatalf("skipped lines = %d, %d, want 3, 4", result.Skipped[0].Line, result.Skipped[1].Line)
	}
	// Surviving rows keep their original order.
	if result.Readings[0].Timestamp != 0 || result.Readings[1].Timestamp != 3 {
		t.Fatalf("surviving timestamps = %d, %d", result.Readings[0].Timestamp, result.Readings[1].Timestamp)
	}
}

func TestReadMissingColumn(t *testing.T) {
	data := `machine_id,vibration
1,1500
`
	_, err := Read(strings.NewReader(data))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}
