package insights

import (
	"errors"
	"math"

	detection "predictive-maintenance/internal/detection/domain"
	sensors "predictive-maintenance/internal/sensors/domain"
)

// Health status buckets.
const (
	HealthHealthy  = "Healthy"
	HealthWarning  = "Warning"
	HealthCritical = "Critical"
)

const (
	baseMaintenanceCostUSD = 10000
	trendWindow            = 10
)

// MachineInsights summarizes one machine's condition for operators.
type MachineInsights struct {
	MachineID               int      `json:"machine_id"`
	HealthScore             float64  `json:"health_score"`
	HealthStatus            string   `json:"health_status"`
	RiskScore               int      `json:"risk_score"`
	FailureProbability      *float64 `json:"failure_probability"`
	EstimatedCostUSD        float64  `json:"estimated_cost_usd"`
	PredictedFailureMinutes *float64 `json:"predicted_failure_minutes"`
	AvgTemperature          float64  `json:"avg_temperature"`
	AvgVibration            float64  `json:"avg_vibration"`
	LastTemperature         float64  `json:"last_temperature"`
	LastVibration           float64  `json:"last_vibration"`
	Recommendations         []string `json:"recommendations"`
}

// Service computes machine insights from retained reading history.
// The failure model is optional; without it FailureProbability stays nil.
type Service struct {
	thresholds detection.Thresholds
	model      *FailureModel
}

// ServiceOption customizes the service.
type ServiceOption func(*Service)

// WithFailureModel attaches a trained failure model.
func WithFailureModel(model *FailureModel) ServiceOption {
	return func(s *Service) {
		s.model = model
	}
}

// NewService constructs an insights service.
func NewService(thresholds detection.Thresholds, opts ...ServiceOption) (*Service, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	s := &Service{thresholds: thresholds}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Compute builds insights over a machine's history, oldest first.
// criticalCount/warningCount are the machine's retained alert counts.
func (s *Service) Compute(machineID int, history []sensors.Reading, criticalCount, warningCount int) (*MachineInsights, error) {
	if len(history) == 0 {
		return nil, errors.New("insights: empty history")
	}

	temps := make([]float64, len(history))
	vibs := make([]float64, len(history))
	for i, r := range history {
		temps[i] = r.Temperature
		vibs[i] = r.Vibration
	}

	avgTemp := mean(temps)
	avgVib := mean(vibs)
	lastTemp := temps[len(temps)-1]
	lastVib := vibs[len(vibs)-1]
	minTemp, maxTemp := minMax(temps)
	minVib, maxVib := minMax(vibs)
	tempStd := std(temps, avgTemp)
	vibStd := std(vibs, avgVib)

	// Risk blends how far the latest sample sits in the observed range with
	// its z-score against the machine's own history, weighted toward
	// temperature like the alert thresholds are.
	tempNorm := normalize(lastTemp, minTemp, maxTemp)
	vibNorm := normalize(lastVib, minVib, maxVib)
	tempZ := zscore(lastTemp, avgTemp, tempStd)
	vibZ := zscore(lastVib, avgVib, vibStd)

	zRisk := math.Min(1, (tempZ/3)*0.6+(vibZ/3)*0.4)
	rangeRisk := tempNorm*0.6 + vibNorm*0.4
	risk := math.Max(zRisk, rangeRisk)

	healthScore := clamp(100*(1-risk), 0, 100)
	healthStatus := HealthCritical
	switch {
	case healthScore > 80:
		healthStatus = HealthHealthy
	case healthScore > 60:
		healthStatus = HealthWarning
	}

	riskScore := int(math.Min(100, math.Round((100-healthScore)+float64(criticalCount*5)+float64(warningCount*2))))

	var failureProbability *float64
	if s.model != nil {
		p := s.model.Probability(lastTemp, lastVib)
		failureProbability = &p
	}

	insights := &MachineInsights{
		MachineID:          machineID,
		HealthScore:        round2(healthScore),
		HealthStatus:       healthStatus,
		RiskScore:          riskScore,
		FailureProbability: failureProbability,
		EstimatedCostUSD:   estimateMaintenanceCost(healthScore, failureProbability, healthStatus),
		AvgTemperature:     round2(avgTemp),
		AvgVibration:       round2(avgVib),
		LastTemperature:    round2(lastTemp),
		LastVibration:      round2(lastVib),
	}

	tempSlope, vibSlope := s.trendSlopes(temps, vibs)
	insights.PredictedFailureMinutes = s.predictFailureMinutes(lastTemp, lastVib, tempSlope, vibSlope)
	insights.Recommendations = s.recommend(lastTemp, lastVib, tempSlope, vibSlope, riskScore)
	return insights, nil
}

// trendSlopes are per-step deltas over the most recent readings.
func (s *Service) trendSlopes(temps, vibs []float64) (float64, float64) {
	n := len(temps)
	window := trendWindow
	if window > n {
		window = n
	}
	if window < 2 {
		return 0, 0
	}
	steps := float64(window - 1)
	tempSlope := (temps[n-1] - temps[n-window]) / steps
	vibSlope := (vibs[n-1] - vibs[n-window]) / steps
	return tempSlope, vibSlope
}

// predictFailureMinutes extrapolates the current slopes to the absolute
// thresholds. Nil when neither signal is trending upward.
func (s *Service) predictFailureMinutes(lastTemp, lastVib, tempSlope, vibSlope float64) *float64 {
	var candidates []float64
	if tempSlope > 0 {
		if m := (s.thresholds.TempHigh - lastTemp) / tempSlope; m >= 0 {
			candidates = append(candidates, m)
		}
	}
	if vibSlope > 0 {
		if m := (s.thresholds.VibrationHigh - lastVib) / vibSlope; m >= 0 {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c < best {
			best = c
		}
	}
	best = math.Round(best*10) / 10
	return &best
}

func (s *Service) recommend(lastTemp, lastVib, tempSlope, vibSlope float64, riskScore int) []string {
	var recommendations []string
	if lastTemp >= s.thresholds.TempHigh {
		recommendations = append(recommendations, "Check cooling system")
	}
	if lastVib >= s.thresholds.VibrationHigh {
		recommendations = append(recommendations, "Inspect bearing components")
	}
	if tempSlope > 0 || vibSlope > 0 {
		recommendations = append(recommendations, "Reduce load temporarily")
	}
	if riskScore >= 70 {
		recommendations = append(recommendations, "Schedule maintenance within 48 hours")
	}
	if len(recommendations) == 0 {
		recommendations = append(recommendations, "Continue routine monitoring")
	}
	return recommendations
}

func estimateMaintenanceCost(healthScore float64, failureProbability *float64, healthStatus string) float64 {
	multiplier := 1.0
	switch healthStatus {
	case HealthHealthy:
		multiplier = 0.3
	case HealthWarning:
		multiplier = 0.8
	case HealthCritical:
		multiplier = 1.6
	}

	healthRisk := clamp(100-healthScore, 0, 100) / 100
	combinedRisk := healthRisk
	if failureProbability != nil {
		failureRisk := clamp(*failureProbability, 0, 100) / 100
		combinedRisk = failureRisk*0.6 + healthRisk*0.4
	}
	return round2(baseMaintenanceCostUSD * combinedRisk * multiplier)
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func std(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func normalize(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}

func zscore(v, mean, std float64) float64 {
	if std == 0 {
		return 0
	}
	return math.Abs((v - mean) / std)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
