package apihttp

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	alerts "predictive-maintenance/internal/alerts/domain"
	"predictive-maintenance/internal/alerts/sink"
	"predictive-maintenance/internal/detection/application"
	detection "predictive-maintenance/internal/detection/domain"
	"predictive-maintenance/internal/insights"
	"predictive-maintenance/internal/observability/metrics"
	"predictive-maintenance/internal/report"
	sensors "predictive-maintenance/internal/sensors/domain"
)

// StatisticsHandler serves fleet-level statistics.
type StatisticsHandler struct {
	store  *detection.WindowStore
	memory *sink.Memory
}

// NewStatisticsHandler constructs a StatisticsHandler.
func NewStatisticsHandler(store *detection.WindowStore, memory *sink.Memory) *StatisticsHandler {
	return &StatisticsHandler{store: store, memory: memory}
}

type statisticsResponse struct {
	TotalMachines  int     `json:"total_machines"`
	TotalReadings  int     `json:"total_readings"`
	CriticalAlerts int     `json:"critical_alerts"`
	WarningAlerts  int     `json:"warning_alerts"`
	NormalReadings int     `json:"normal_readings"`
	AnomalyRate    float64 `json:"anomaly_rate"`
	SystemHealth   float64 `json:"system_health"`
	AvgTemperature float64 `json:"avg_temperature"`
	MaxTemperature float64 `json:"max_temperature"`
	AvgVibration   float64 `json:"avg_vibration"`
	MaxVibration   float64 `json:"max_vibration"`
}

// ServeHTTP handles GET /api/v1/statistics.
func (h *StatisticsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.store == nil || h.memory == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(buildStatistics(h.store, h.memory))
}

func buildStatistics(store *detection.WindowStore, memory *sink.Memory) statisticsResponse {
	total, critical, warning, normal := memory.Counts()
	resp := statisticsResponse{
		TotalReadings:  total,
		CriticalAlerts: critical,
		WarningAlerts:  warning,
		NormalReadings: normal,
	}
	if total > 0 {
		resp.AnomalyRate = round2(float64(critical+warning) / float64(total) * 100)
		resp.SystemHealth = round2(float64(normal) / float64(total) * 100)
	}

	ids := store.Machines()
	resp.TotalMachines = len(ids)
	var sumTemp, sumVib float64
	var machines int
	for _, id := range ids {
		stats, ok := store.Query(id)
		if !ok || stats.Count == 0 {
			continue
		}
		machines++
		sumTemp += stats.AvgTemperature
		sumVib += stats.AvgVibration
		if stats.MaxTemperature > resp.MaxTemperature {
			resp.MaxTemperature = stats.MaxTemperature
		}
		if stats.MaxVibration > resp.MaxVibration {
			resp.MaxVibration = stats.MaxVibration
		}
	}
	if machines > 0 {
		resp.AvgTemperature = round2(sumTemp / float64(machines))
		resp.AvgVibration = round2(sumVib / float64(machines))
	}
	return resp
}

// AlertArchive is the persisted alert history. When a database is configured
// the recent-alerts endpoint reads from it instead of the in-process ring.
type AlertArchive interface {
	ListRecent(ctx context.Context, limit int) ([]alerts.Record, error)
}

// RecentAlertsHandler serves the most recent alert records.
type RecentAlertsHandler struct {
	memory       *sink.Memory
	archive      AlertArchive
	defaultLimit int
}

// NewRecentAlertsHandler constructs a RecentAlertsHandler. archive may be nil;
// the handler then serves from the in-process ring only.
func NewRecentAlertsHandler(memory *sink.Memory, archive AlertArchive, defaultLimit int) *RecentAlertsHandler {
	return &RecentAlertsHandler{memory: memory, archive: archive, defaultLimit: defaultLimit}
}

// ServeHTTP handles GET /api/v1/alerts/recent.
func (h *RecentAlertsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.memory == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	limit := h.defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	anomalousOnly := r.URL.Query().Get("anomalous") == "true"
	records := h.recent(r.Context(), limit)
	if anomalousOnly {
		filtered := records[:0]
		for _, record := range records {
			if record.Anomalous() {
				filtered = append(filtered, record)
			}
		}
		records = filtered
	}
	if records == nil {
		records = []alerts.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(records)
}

// recent prefers the archive when one is configured and falls back to the
// in-process ring when the archive query fails.
func (h *RecentAlertsHandler) recent(ctx context.Context, limit int) []alerts.Record {
	if h.archive != nil {
		records, err := h.archive.ListRecent(ctx, limit)
		if err == nil {
			return records
		}
	}
	return h.memory.Recent(limit)
}

// MachineHandler serves per-machine detail and insights.
type MachineHandler struct {
	store    *detection.WindowStore
	memory   *sink.Memory
	insights *insights.Service
}

// NewMachineHandler constructs a MachineHandler.
func NewMachineHandler(store *detection.WindowStore, memory *sink.Memory, service *insights.Service) *MachineHandler {
	return &MachineHandler{store: store, memory: memory, insights: service}
}

type machineResponse struct {
	MachineID      int                       `json:"machine_id"`
	Stats          detection.Stats           `json:"stats"`
	LatestAlert    *alerts.Record            `json:"latest_alert"`
	Insights       *insights.MachineInsights `json:"insights"`
	CriticalAlerts int                       `json:"critical_alerts"`
	WarningAlerts  int                       `json:"warning_alerts"`
}

// ServeHTTP handles GET /api/v1/machines/{id}.
func (h *MachineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.store == nil || h.memory == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/machines/")
	if raw == "" || strings.Contains(raw, "/") {
		http.Error(w, "machine id is required", http.StatusBadRequest)
		return
	}
	machineID, err := strconv.Atoi(raw)
	if err != nil || machineID < 0 {
		http.Error(w, "machine id must be a non-negative integer", http.StatusBadRequest)
		return
	}

	stats, ok := h.store.Query(machineID)
	if !ok {
		http.Error(w, "machine not found", http.StatusNotFound)
		return
	}

	resp := machineResponse{MachineID: machineID, Stats: stats}
	if latest, ok := h.memory.Latest(machineID); ok {
		resp.LatestAlert = &latest
	}
	resp.CriticalAlerts, resp.WarningAlerts = h.memory.MachineCounts(machineID)
	if h.insights != nil {
		history := h.store.Window(machineID)
		if computed, err := h.insights.Compute(machineID, history, resp.CriticalAlerts, resp.WarningAlerts); err == nil {
			resp.Insights = computed
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// IngestHandler accepts readings over HTTP and runs them through the
// detection pipeline.
type IngestHandler struct {
	runner *application.Runner
}

// NewIngestHandler constructs an IngestHandler.
func NewIngestHandler(runner *application.Runner) (*IngestHandler, error) {
	if runner == nil {
		return nil, errors.New("apihttp: runner is required")
	}
	return &IngestHandler{runner: runner}, nil
}

type ingestRequest struct {
	MachineID   int     `json:"machine_id"`
	Temperature float64 `json:"temperature"`
	Vibration   float64 `json:"vibration"`
	Timestamp   int64   `json:"timestamp"`
}

// ServeHTTP handles POST /api/v1/readings.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.runner == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.ObserveIngest(metrics.IngestResultError, time.Since(start))
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	reading := sensors.Reading{
		MachineID:   req.MachineID,
		Temperature: req.Temperature,
		Vibration:   req.Vibration,
		Timestamp:   req.Timestamp,
	}
	record, err := h.runner.Process(r.Context(), reading)
	if err != nil {
		metrics.ObserveIngest(metrics.IngestResultError, time.Since(start))
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	metrics.ObserveIngest(metrics.IngestResultSuccess, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(record)
}

// ExportHandler serves alert exports in csv, json, xlsx and pdf formats.
type ExportHandler struct {
	store    *detection.WindowStore
	memory   *sink.Memory
	insights *insights.Service
}

// NewExportHandler constructs an ExportHandler.
func NewExportHandler(store *detection.WindowStore, memory *sink.Memory, service *insights.Service) *ExportHandler {
	return &ExportHandler{store: store, memory: memory, insights: service}
}

// ServeHTTP handles GET /api/v1/export/{format}.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.store == nil || h.memory == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	format := strings.TrimPrefix(r.URL.Path, "/api/v1/export/")
	switch format {
	case "csv":
		h.exportCSV(w)
	case "json":
		h.exportJSON(w)
	case "xlsx":
		h.exportXLSX(w)
	case "pdf":
		h.exportPDF(w)
	default:
		http.Error(w, "format must be csv, json, xlsx or pdf", http.StatusBadRequest)
	}
}

func (h *ExportHandler) exportCSV(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="alerts.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"machine_id",
		"timestamp",
		"temperature",
		"vibration",
		"avg_temperature",
		"temperature_deviation",
		"avg_vibration",
		"vibration_deviation",
		"status",
	})
	for _, record := range h.memory.All() {
		_ = writer.Write([]string{
			strconv.Itoa(record.MachineID),
			strconv.FormatInt(record.Timestamp, 10),
			formatFloat(record.Temperature),
			formatFloat(record.Vibration),
			formatNullableFloat(record.AvgTemperature),
			formatFloat(record.TemperatureDeviation),
			formatNullableFloat(record.AvgVibration),
			formatFloat(record.VibrationDeviation),
			record.Status,
		})
	}
	writer.Flush()
}

func (h *ExportHandler) exportJSON(w http.ResponseWriter) {
	records := h.memory.All()
	if records == nil {
		records = []alerts.Record{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="alerts.json"`)
	_ = json.NewEncoder(w).Encode(records)
}

func (h *ExportHandler) exportXLSX(w http.ResponseWriter) {
	summary, machines, anomalies := h.buildReport()
	payload, err := report.BuildXLSX(summary, machines, anomalies)
	if err != nil {
		http.Error(w, "build report error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="maintenance_report.xlsx"`)
	_, _ = w.Write(payload)
}

func (h *ExportHandler) exportPDF(w http.ResponseWriter) {
	summary, machines, anomalies := h.buildReport()
	payload, err := report.BuildPDF(summary, machines, anomalies)
	if err != nil {
		http.Error(w, "build report error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="maintenance_report.pdf"`)
	_, _ = w.Write(payload)
}

func (h *ExportHandler) buildReport() (report.Summary, []report.MachineRow, []alerts.Record) {
	stats := buildStatistics(h.store, h.memory)
	summary := report.Summary{
		GeneratedAt:    time.Now().UTC(),
		TotalMachines:  stats.TotalMachines,
		TotalReadings:  stats.TotalReadings,
		CriticalAlerts: stats.CriticalAlerts,
		WarningAlerts:  stats.WarningAlerts,
		NormalReadings: stats.NormalReadings,
		AnomalyRate:    stats.AnomalyRate,
		SystemHealth:   stats.SystemHealth,
		AvgTemperature: stats.AvgTemperature,
		MaxTemperature: stats.MaxTemperature,
		AvgVibration:   stats.AvgVibration,
		MaxVibration:   stats.MaxVibration,
	}

	ids := h.store.Machines()
	rows := make([]report.MachineRow, 0, len(ids))
	for _, id := range ids {
		machineStats, ok := h.store.Query(id)
		if !ok {
			continue
		}
		row := report.MachineRow{
			MachineID:      id,
			Readings:       machineStats.Count,
			AvgTemperature: machineStats.AvgTemperature,
			MaxTemperature: machineStats.MaxTemperature,
			AvgVibration:   machineStats.AvgVibration,
			MaxVibration:   machineStats.MaxVibration,
		}
		if h.insights != nil {
			critical, warning := h.memory.MachineCounts(id)
			if computed, err := h.insights.Compute(id, h.store.Window(id), critical, warning); err == nil {
				row.HealthStatus = computed.HealthStatus
				row.HealthScore = computed.HealthScore
			}
		}
		rows = append(rows, row)
	}
	sortMachineRows(rows)

	var anomalies []alerts.Record
	for _, record := range h.memory.Recent(0) {
		if record.Anomalous() {
			anomalies = append(anomalies, record)
		}
	}
	return summary, rows, anomalies
}

// HealthHandler reports liveness.
type HealthHandler struct{}

// ServeHTTP handles GET /healthz.
func (HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func sortMachineRows(rows []report.MachineRow) {
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].MachineID < rows[j].MachineID
	})
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatNullableFloat(value *float64) string {
	if value == nil {
		return "N/A"
	}
	return formatFloat(*value)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
