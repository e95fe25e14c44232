package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	detection "predictive-maintenance/internal/detection/domain"
)

// Config is the full engine configuration. Defaults are set in code, a yaml
// file pointed to by MAINTENANCE_CONFIG overrides them, and environment
// variables override both.
type Config struct {
	WindowSize int `yaml:"window_size"`
	ChunkSize  int `yaml:"chunk_size"`
	Workers    int `yaml:"workers"`

	// ChunkDelay comes from the CHUNK_DELAY env var (Go duration syntax).
	ChunkDelay time.Duration `yaml:"-"`

	Thresholds detection.Thresholds `yaml:"thresholds"`

	SensorDataPath   string `yaml:"sensor_data_path"`
	TrainingDataPath string `yaml:"training_data_path"`

	AlertsCSVPath   string `yaml:"alerts_csv_path"`
	AlertsJSONLPath string `yaml:"alerts_jsonl_path"`
	ReportDir       string `yaml:"report_dir"`

	HTTPAddr    string `yaml:"http_addr"`
	DatabaseURL string `yaml:"database_url"`
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
	WebhookURL  string `yaml:"webhook_url"`

	RecentAlerts int `yaml:"recent_alerts"`
}

// Load builds the configuration from defaults, yaml and environment.
func Load() (Config, error) {
	cfg := Config{
		WindowSize:       detection.DefaultWindowSize,
		ChunkSize:        100,
		ChunkDelay:       100 * time.Millisecond,
		Workers:          1,
		Thresholds:       detection.DefaultThresholds(),
		SensorDataPath:   "data/sensor_data.csv",
		TrainingDataPath: "data/ai4i2020.csv",
		AlertsCSVPath:    "output/alerts.csv",
		AlertsJSONLPath:  "output/alerts.jsonl",
		ReportDir:        "output/reports",
		HTTPAddr:         ":8080",
		NATSSubject:      "alerts.machine",
		RecentAlerts:     500,
	}

	if path := os.Getenv("MAINTENANCE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.WindowSize = getenvIntDefault("WINDOW_SIZE", cfg.WindowSize)
	cfg.ChunkSize = getenvIntDefault("CHUNK_SIZE", cfg.ChunkSize)
	cfg.ChunkDelay = getenvDuration("CHUNK_DELAY", cfg.ChunkDelay)
	cfg.Workers = getenvIntDefault("WORKERS", cfg.Workers)

	cfg.Thresholds.TempHigh = getenvFloatDefault("TEMP_HIGH_THRESHOLD", cfg.Thresholds.TempHigh)
	cfg.Thresholds.TempSpike = getenvFloatDefault("TEMP_SPIKE_THRESHOLD", cfg.Thresholds.TempSpike)
	cfg.Thresholds.VibrationHigh = getenvFloatDefault("VIBRATION_HIGH_THRESHOLD", cfg.Thresholds.VibrationHigh)
	cfg.Thresholds.VibrationSpike = getenvFloatDefault("VIBRATION_SPIKE_THRESHOLD", cfg.Thresholds.VibrationSpike)

	cfg.SensorDataPath = getenvDefault("SENSOR_DATA_PATH", cfg.SensorDataPath)
	cfg.TrainingDataPath = getenvDefault("TRAINING_DATA_PATH", cfg.TrainingDataPath)
	cfg.AlertsCSVPath = getenvDefault("ALERTS_CSV_PATH", cfg.AlertsCSVPath)
	cfg.AlertsJSONLPath = getenvDefault("ALERTS_JSONL_PATH", cfg.AlertsJSONLPath)
	cfg.ReportDir = getenvDefault("REPORT_DIR", cfg.ReportDir)

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DatabaseURL = getenvDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.NATSURL = getenvDefault("NATS_URL", cfg.NATSURL)
	cfg.NATSSubject = getenvDefault("NATS_SUBJECT", cfg.NATSSubject)
	cfg.WebhookURL = getenvDefault("ALERT_WEBHOOK_URL", cfg.WebhookURL)
	cfg.RecentAlerts = getenvIntDefault("RECENT_ALERTS", cfg.RecentAlerts)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate fails fast on values the engine cannot start with.
func (c Config) Validate() error {
	if c.WindowSize < 0 {
		return detection.ErrNegativeWindowSize
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: chunk size must be positive")
	}
	if c.ChunkDelay < 0 {
		return errors.New("config: chunk delay must not be negative")
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.RecentAlerts <= 0 {
		return errors.New("config: recent alerts buffer must be positive")
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
