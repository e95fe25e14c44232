package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	alerts "predictive-maintenance/internal/alerts/domain"
)

// Summary is the fleet-level section of a maintenance report.
type Summary struct {
	GeneratedAt    time.Time
	TotalMachines  int
	TotalReadings  int
	CriticalAlerts int
	WarningAlerts  int
	NormalReadings int
	AnomalyRate    float64 // percent
	SystemHealth   float64 // percent
	AvgTemperature float64
	MaxTemperature float64
	AvgVibration   float64
	MaxVibration   float64
}

// MachineRow is one machine's line in the per-machine table.
type MachineRow struct {
	MachineID      int
	Readings       int
	AvgTemperature float64
	MaxTemperature float64
	AvgVibration   float64
	MaxVibration   float64
	HealthStatus   string
	HealthScore    float64
}

// BuildPDF renders a maintenance report as PDF.
func BuildPDF(summary Summary, machines []MachineRow, anomalies []alerts.Record) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Predictive Maintenance Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", summary.GeneratedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Machines Monitored: %d", summary.TotalMachines))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Readings Processed: %d", summary.TotalReadings))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Critical Alerts: %d", summary.CriticalAlerts))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Warning Alerts: %d", summary.WarningAlerts))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Anomaly Rate: %.2f%%", summary.AnomalyRate))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("System Health: %.2f%%", summary.SystemHealth))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Fleet Avg Temperature: %.2f K (max %.2f K)", summary.AvgTemperature, summary.MaxTemperature))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Fleet Avg Vibration: %.0f RPM (max %.0f RPM)", summary.AvgVibration, summary.MaxVibration))
	pdf.Ln(8)

	// Machine table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, "Machine", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Readings", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Avg Temp (K)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Avg Vib (RPM)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Health", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Score", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, row := range machines {
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", row.MachineID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%d", row.Readings), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.2f", row.AvgTemperature), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%.0f", row.AvgVibration), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, row.HealthStatus, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.1f", row.HealthScore), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	if len(anomalies) > 0 {
		pdf.Ln(6)
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 6, "Recent Anomalies")
		pdf.Ln(7)
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(20, 6, "Machine", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "Time", "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 6, "Temp (K)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 6, "Vib (RPM)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(85, 6, "Status", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
		for _, record := range anomalies {
			pdf.CellFormat(20, 6, fmt.Sprintf("%d", record.MachineID), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 6, fmt.Sprintf("%d", record.Timestamp), "1", 0, "R", false, 0, "")
			pdf.CellFormat(28, 6, fmt.Sprintf("%.1f", record.Temperature), "1", 0, "R", false, 0, "")
			pdf.CellFormat(28, 6, fmt.Sprintf("%.0f", record.Vibration), "1", 0, "R", false, 0, "")
			pdf.CellFormat(85, 6, record.Status, "1", 0, "L", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildXLSX renders a maintenance report as XLSX with summary, machines and
// anomalies sheets.
func BuildXLSX(summary Summary, machines []MachineRow, anomalies []alerts.Record) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	machinesSheet := "machines"
	anomaliesSheet := "anomalies"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(machinesSheet)
	f.NewSheet(anomaliesSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Predictive Maintenance Report")
	_ = f.SetCellValue(summarySheet, "A3", "Generated")
	_ = f.SetCellValue(summarySheet, "B3", summary.GeneratedAt.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A4", "Machines Monitored")
	_ = f.SetCellValue(summarySheet, "B4", summary.TotalMachines)
	_ = f.SetCellValue(summarySheet, "A5", "Readings Processed")
	_ = f.SetCellValue(summarySheet, "B5", summary.TotalReadings)
	_ = f.SetCellValue(summarySheet, "A6", "Critical Alerts")
	_ = f.SetCellValue(summarySheet, "B6", summary.CriticalAlerts)
	_ = f.SetCellValue(summarySheet, "A7", "Warning Alerts")
	_ = f.SetCellValue(summarySheet, "B7", summary.WarningAlerts)
	_ = f.SetCellValue(summarySheet, "A8", "Normal Readings")
	_ = f.SetCellValue(summarySheet, "B8", summary.NormalReadings)
	_ = f.SetCellValue(summarySheet, "A9", "Anomaly Rate (%)")
	_ = f.SetCellValue(summarySheet, "B9", summary.AnomalyRate)
	_ = f.SetCellValue(summarySheet, "A10", "System Health (%)")
	_ = f.SetCellValue(summarySheet, "B10", summary.SystemHealth)
	_ = f.SetCellValue(summarySheet, "A11", "Fleet Avg Temperature (K)")
	_ = f.SetCellValue(summarySheet, "B11", summary.AvgTemperature)
	_ = f.SetCellValue(summarySheet, "A12", "Fleet Max Temperature (K)")
	_ = f.SetCellValue(summarySheet, "B12", summary.MaxTemperature)
	_ = f.SetCellValue(summarySheet, "A13", "Fleet Avg Vibration (RPM)")
	_ = f.SetCellValue(summarySheet, "B13", summary.AvgVibration)
	_ = f.SetCellValue(summarySheet, "A14", "Fleet Max Vibration (RPM)")
	_ = f.SetCellValue(summarySheet, "B14", summary.MaxVibration)

	machineHeader := []string{"Machine", "Readings", "Avg Temp (K)", "Max Temp (K)", "Avg Vib (RPM)", "Max Vib (RPM)", "Health", "Score"}
	for i, title := range machineHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(machinesSheet, cell, title)
	}
	for i, row := range machines {
		values := []any{row.MachineID, row.Readings, row.AvgTemperature, row.MaxTemperature, row.AvgVibration, row.MaxVibration, row.HealthStatus, row.HealthScore}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(machinesSheet, cell, v)
		}
	}

	anomalyHeader := []string{"Machine", "Timestamp", "Temperature (K)", "Vibration (RPM)", "Temp Deviation", "Vib Deviation", "Status"}
	for i, title := range anomalyHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(anomaliesSheet, cell, title)
	}
	for i, record := range anomalies {
		values := []any{record.MachineID, record.Timestamp, record.Temperature, record.Vibration, record.TemperatureDeviation, record.VibrationDeviation, record.Status}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(anomaliesSheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
