package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	sensors "predictive-maintenance/internal/sensors/domain"
)

// Column aliases cover both the native schema and the raw AI4I dataset
// headers the preprocessing scripts start from.
var (
	machineIDColumns   = []string{"machine_id", "udi"}
	temperatureColumns = []string{"temperature", "air temperature [k]"}
	vibrationColumns   = []string{"vibration", "rotational speed [rpm]"}
	timestampColumns   = []string{"timestamp"}
)

// ErrMissingColumn is returned when a required column cannot be resolved.
var ErrMissingColumn = errors.New("ingest: missing required column")

// RowError records one rejected row; the rest of the file still loads.
type RowError struct {
	Line int
	Err  error
}

// Result is the outcome of loading one CSV source.
type Result struct {
	Readings []sensors.Reading
	Skipped  []RowError
}

// ReadFile loads an ordered reading sequence from a CSV file.
func ReadFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()
	return Read(f)
}

// Read loads an ordered reading sequence from CSV data. Rows that fail to
// parse or validate are reported in Result.Skipped and never reach the
// caller's window state. Missing timestamps default to the row ordinal.
func Read(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return Result{}, fmt.Errorf("ingest: read header: %w", err)
	}

	machineIdx, err := resolveColumn(header, machineIDColumns)
	if err != nil {
		return Result{}, err
	}
	tempIdx, err := resolveColumn(header, temperatureColumns)
	if err != nil {
		return Result{}, err
	}
	vibIdx, err := resolveColumn(header, vibrationColumns)
	if err != nil {
		return Result{}, err
	}
	tsIdx, tsErr := resolveColumn(header, timestampColumns)
	hasTimestamp := tsErr == nil

	var result Result
	line := 1
	ordinal := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Skipped = append(result.Skipped, RowError{Line: line, Err: err})
			continue
		}
		ordinal++

		reading, err := parseRow(row, machineIdx, tempIdx, vibIdx, tsIdx, hasTimestamp, ordinal)
		if err != nil {
			result.Skipped = append(result.Skipped, RowError{Line: line, Err: err})
			continue
		}
		if err := reading.Validate(); err != nil {
			result.Skipped = append(result.Skipped, RowError{Line: line, Err: err})
			continue
		}
		result.Readings = append(result.Readings, reading)
	}
	return result, nil
}

func parseRow(row []string, machineIdx, tempIdx, vibIdx, tsIdx int, hasTimestamp bool, ordinal int) (sensors.Reading, error) {
	if err := checkWidth(row, machineIdx, tempIdx, vibIdx); err != nil {
		return sensors.Reading{}, err
	}

	machineID, err := strconv.Atoi(strings.TrimSpace(row[machineIdx]))
	if err != nil {
		return sensors.Reading{}, fmt.Errorf("%w: machine_id %q", sensors.ErrMalformedReading, row[machineIdx])
	}
	temperature, err := strconv.ParseFloat(strings.TrimSpace(row[tempIdx]), 64)
	if err != nil {
		return sensors.Reading{}, fmt.Errorf("%w: temperature %q", sensors.ErrMalformedReading, row[tempIdx])
	}
	vibration, err := strconv.ParseFloat(strings.TrimSpace(row[vibIdx]), 64)
	if err != nil {
		return sensors.Reading{}, fmt.Errorf("%w: vibration %q", sensors.ErrMalformedReading, row[vibIdx])
	}

	timestamp := int64(ordinal)
	if hasTimestamp {
		if len(row) <= tsIdx {
			return sensors.Reading{}, fmt.Errorf("%w: short row", sensors.ErrMalformedReading)
		}
		timestamp, err = strconv.ParseInt(strings.TrimSpace(row[tsIdx]), 10, 64)
		if err != nil {
			return sensors.Reading{}, fmt.Errorf("%w: timestamp %q", sensors.ErrMalformedReading, row[tsIdx])
		}
	}

	return sensors.Reading{
		MachineID:   machineID,
		Temperature: temperature,
		Vibration:   vibration,
		Timestamp:   timestamp,
	}, nil
}

func checkWidth(row []string, indexes ...int) error {
	for _, idx := range indexes {
		if len(row) <= idx {
			return fmt.Errorf("%w: short row", sensors.ErrMalformedReading)
		}
	}
	return nil
}

func resolveColumn(header []string, candidates []string) (int, error) {
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		for _, candidate := range candidates {
			if normalized == candidate {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: one of %v", ErrMissingColumn, candidates)
}
