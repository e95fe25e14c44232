package sink

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	alerts "predictive-maintenance/internal/alerts/domain"
)

var csvHeader = []string{
	"machine_id",
	"timestamp",
	"temperature",
	"vibration",
	"avg_temperature",
	"temperature_deviation",
	"avg_vibration",
	"vibration_deviation",
	"status",
}

// CSVSink appends alert records to a CSV stream, one row per record, in
// emission order. Absent averages render as N/A.
type CSVSink struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
}

// NewCSVSink wraps an open writer and emits the header immediately.
func NewCSVSink(w io.Writer) (*CSVSink, error) {
	if w == nil {
		return nil, errors.New("csv sink: nil writer")
	}
	s := &CSVSink{w: csv.NewWriter(w)}
	if err := s.w.Write(csvHeader); err != nil {
		return nil, err
	}
	s.w.Flush()
	return s, s.w.Error()
}

// NewCSVFileSink creates (or truncates) path and writes records to it.
func NewCSVFileSink(path string) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s, err := NewCSVSink(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.closer = f
	return s, nil
}

// Emit implements the runner sink contract.
func (s *CSVSink) Emit(_ context.Context, record alerts.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := []string{
		strconv.Itoa(record.MachineID),
		strconv.FormatInt(record.Timestamp, 10),
		formatFloat(record.Temperature),
		formatFloat(record.Vibration),
		formatNullable(record.AvgTemperature),
		formatFloat(record.TemperatureDeviation),
		formatNullable(record.AvgVibration),
		formatFloat(record.VibrationDeviation),
		record.Status,
	}
	if err := s.w.Write(row); err != nil {
		return err
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes and releases the underlying file, if any.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatNullable(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return formatFloat(*v)
}
