package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	detection "predictive-maintenance/internal/detection/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WindowSize != detection.DefaultWindowSize {
		t.Fatalf("WindowSize = %d, want %d", cfg.WindowSize, detection.DefaultWindowSize)
	}
	if cfg.ChunkSize != 100 {
		t.Fatalf("ChunkSize = %d, want 100", cfg.ChunkSize)
	}
	if cfg.Thresholds != detection.DefaultThresholds() {
		t.Fatalf("Thresholds = %+v, want defaults", cfg.Thresholds)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("WINDOW_SIZE", "25")
	t.Setenv("CHUNK_SIZE", "10")
	t.Setenv("CHUNK_DELAY", "250ms")
	t.Setenv("WORKERS", "4")
	t.Setenv("TEMP_HIGH_THRESHOLD", "310.5")
	t.Setenv("VIBRATION_SPIKE_THRESHOLD", "450")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("TRAINING_DATA_PATH", "data/labeled.csv")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WindowSize != 25 || cfg.ChunkSize != 10 || cfg.Workers != 4 {
		t.Fatalf("sizes = %d/%d/%d, want 25/10/4", cfg.WindowSize, cfg.ChunkSize, cfg.Workers)
	}
	if cfg.ChunkDelay != 250*time.Millisecond {
		t.Fatalf("ChunkDelay = %s, want 250ms", cfg.ChunkDelay)
	}
	if cfg.Thresholds.TempHigh != 310.5 || cfg.Thresholds.VibrationSpike != 450 {
		t.Fatalf("Thresholds = %+v", cfg.Thresholds)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
	if cfg.TrainingDataPath != "data/labeled.csv" {
		t.Fatalf("TrainingDataPath = %q, want data/labeled.csv", cfg.TrainingDataPath)
	}
}

func TestLoadYAMLFileThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `window_size: 40
chunk_size: 20
thresholds:
  temp_high: 315
  temp_spike: 12
  vibration_high: 1900
  vibration_spike: 480
http_addr: ":7070"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MAINTENANCE_CONFIG", path)
	t.Setenv("CHUNK_SIZE", "33")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WindowSize != 40 {
		t.Fatalf("WindowSize = %d, want yaml value 40", cfg.WindowSize)
	}
	if cfg.ChunkSize != 33 {
		t.Fatalf("ChunkSize = %d, env must override yaml", cfg.ChunkSize)
	}
	if cfg.Thresholds.TempHigh != 315 || cfg.Thresholds.TempSpike != 12 {
		t.Fatalf("Thresholds = %+v", cfg.Thresholds)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("HTTPAddr = %q, want :7070", cfg.HTTPAddr)
	}
}

func TestLoadRejectsNegativeWindowSize(t *testing.T) {
	t.Setenv("WINDOW_SIZE", "-1")
	if _, err := Load(); !errors.Is(err, detection.ErrNegativeWindowSize) {
		t.Fatalf("expected ErrNegativeWindowSize, got %v", err)
	}
}

func TestLoadAllowsZeroWindowSize(t *testing.T) {
	// Zero selects unbounded whole-history aggregates.
	t.Setenv("WINDOW_SIZE", "0")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.WindowSize != 0 {
		t.Fatalf("WindowSize = %d, want 0", cfg.WindowSize)
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	t.Setenv("TEMP_HIGH_THRESHOLD", "-5")
	if _, err := Load(); !errors.Is(err, detection.ErrInvalidThresholds) {
		t.Fatalf("expected ErrInvalidThresholds, got %v", err)
	}
}
