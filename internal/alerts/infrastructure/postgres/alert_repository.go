package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	alerts "predictive-maintenance/internal/alerts/domain"
)

const defaultAlertTable = "machine_alerts"

// AlertRepository is a Postgres implementation of the alert sink and the
// recent-alerts query used by the API.
type AlertRepository struct {
	db    *sql.DB
	table string
}

// RepositoryOption configures the repository.
type RepositoryOption func(*AlertRepository)

// WithTable overrides the default table name.
func WithTable(table string) RepositoryOption {
	return func(repo *AlertRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewAlertRepository constructs a repository with the default table name.
func NewAlertRepository(db *sql.DB, opts ...RepositoryOption) *AlertRepository {
	repo := &AlertRepository{db: db, table: defaultAlertTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Emit inserts one alert record. Implements the runner sink contract.
func (r *AlertRepository) Emit(ctx context.Context, record alerts.Record) error {
	if r == nil || r.db == nil {
		return errors.New("alert repo: nil db")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	machine_id,
	ts,
	temperature,
	vibration,
	avg_temperature,
	temperature_deviation,
	avg_vibration,
	vibration_deviation,
	status
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9
)`, r.table)

	avgTemp := sql.NullFloat64{}
	if record.AvgTemperature != nil {
		avgTemp = sql.NullFloat64{Float64: *record.AvgTemperature, Valid: true}
	}
	avgVib := sql.NullFloat64{}
	if record.AvgVibration != nil {
		avgVib = sql.NullFloat64{Float64: *record.AvgVibration, Valid: true}
	}

	_, err := r.db.ExecContext(
		ctx,
		query,
		record.MachineID,
		record.Timestamp,
		record.Temperature,
		record.Vibration,
		avgTemp,
		record.TemperatureDeviation,
		avgVib,
		record.VibrationDeviation,
		record.Status,
	)
	return err
}

// ListRecent returns the newest records first, up to limit.
func (r *AlertRepository) ListRecent(ctx context.Context, limit int) ([]alerts.Record, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert repo: nil db")
	}
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
SELECT
	machine_id,
	ts,
	temperature,
	vibration,
	avg_temperature,
	temperature_deviation,
	avg_vibration,
	vibration_deviation,
	status
FROM %s
ORDER BY id DESC
LIMIT $1`, r.table)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []alerts.Record
	for rows.Next() {
		var record alerts.Record
		var avgTemp, avgVib sql.NullFloat64
		if err := rows.Scan(
			&record.MachineID,
			&record.Timestamp,
			&record.Temperature,
			&record.Vibration,
			&avgTemp,
			&record.TemperatureDeviation,
			&avgVib,
			&record.VibrationDeviation,
			&record.Status,
		); err != nil {
			return nil, err
		}
		if avgTemp.Valid {
			v := avgTemp.Float64
			record.AvgTemperature = &v
		}
		if avgVib.Valid {
			v := avgVib.Float64
			record.AvgVibration = &v
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
