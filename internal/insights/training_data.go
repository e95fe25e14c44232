package insights

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column aliases cover the native schema and the raw AI4I dataset headers.
var (
	sampleTemperatureColumns = []string{"temperature", "air temperature [k]"}
	sampleVibrationColumns   = []string{"vibration", "rotational speed [rpm]"}
	sampleLabelColumns       = []string{"failed", "machine failure"}
)

// ErrMissingSampleColumn is returned when a training CSV lacks a required column.
var ErrMissingSampleColumn = errors.New("insights: missing training column")

// LoadSamplesFile reads a labeled training dataset from a CSV file.
func LoadSamplesFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("insights: open training data: %w", err)
	}
	defer f.Close()
	return LoadSamples(f)
}

// LoadSamples reads labeled (temperature, vibration, failed) rows. Rows that
// fail to parse are skipped so one bad line does not lose the dataset.
func LoadSamples(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("insights: read training header: %w", err)
	}
	tempIdx, err := resolveSampleColumn(header, sampleTemperatureColumns)
	if err != nil {
		return nil, err
	}
	vibIdx, err := resolveSampleColumn(header, sampleVibrationColumns)
	if err != nil {
		return nil, err
	}
	labelIdx, err := resolveSampleColumn(header, sampleLabelColumns)
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		max := tempIdx
		if vibIdx > max {
			max = vibIdx
		}
		if labelIdx > max {
			max = labelIdx
		}
		if len(row) <= max {
			continue
		}
		temp, tErr := strconv.ParseFloat(strings.TrimSpace(row[tempIdx]), 64)
		vib, vErr := strconv.ParseFloat(strings.TrimSpace(row[vibIdx]), 64)
		failed, lErr := parseSampleLabel(row[labelIdx])
		if tErr != nil || vErr != nil || lErr != nil {
			continue
		}
		samples = append(samples, Sample{Temperature: temp, Vibration: vib, Failed: failed})
	}
	return samples, nil
}

func resolveSampleColumn(header []string, aliases []string) (int, error) {
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		for _, alias := range aliases {
			if normalized == alias {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrMissingSampleColumn, aliases[0])
}

func parseSampleLabel(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes":
		return true, nil
	case "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("insights: bad label %q", raw)
}
