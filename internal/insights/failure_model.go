package insights

import (
	"errors"
	"math"
)

// ErrNotEnoughClasses is returned when training data does not contain both
// failed and healthy samples; the model cannot separate a single class.
var ErrNotEnoughClasses = errors.New("insights: training data needs both classes")

// Sample is one labeled observation for the failure model.
type Sample struct {
	Temperature float64
	Vibration   float64
	Failed      bool
}

// FailureModel is a logistic regression over standardized temperature and
// vibration features.
type FailureModel struct {
	meanTemp float64
	stdTemp  float64
	meanVib  float64
	stdVib   float64

	bias       float64
	weightTemp float64
	weightVib  float64
}

const (
	trainIterations   = 500
	trainLearningRate = 0.1
)

// TrainFailureModel fits the model with batch gradient descent.
func TrainFailureModel(samples []Sample) (*FailureModel, error) {
	if len(samples) < 2 {
		return nil, ErrNotEnoughClasses
	}
	var failed int
	for _, s := range samples {
		if s.Failed {
			failed++
		}
	}
	if failed == 0 || failed == len(samples) {
		return nil, ErrNotEnoughClasses
	}

	m := &FailureModel{}
	m.meanTemp, m.stdTemp = meanStd(samples, func(s Sample) float64 { return s.Temperature })
	m.meanVib, m.stdVib = meanStd(samples, func(s Sample) float64 { return s.Vibration })

	n := float64(len(samples))
	for iter := 0; iter < trainIterations; iter++ {
		var gradBias, gradTemp, gradVib float64
		for _, s := range samples {
			xt := m.standardizeTemp(s.Temperature)
			xv := m.standardizeVib(s.Vibration)
			predicted := sigmoid(m.bias + m.weightTemp*xt + m.weightVib*xv)
			target := 0.0
			if s.Failed {
				target = 1.0
			}
			diff := predicted - target
			gradBias += diff
			gradTemp += diff * xt
			gradVib += diff * xv
		}
		m.bias -= trainLearningRate * gradBias / n
		m.weightTemp -= trainLearningRate * gradTemp / n
		m.weightVib -= trainLearningRate * gradVib / n
	}
	return m, nil
}

// Probability returns the failure probability as a percentage in [0, 100].
func (m *FailureModel) Probability(temperature, vibration float64) float64 {
	xt := m.standardizeTemp(temperature)
	xv := m.standardizeVib(vibration)
	p := sigmoid(m.bias + m.weightTemp*xt + m.weightVib*xv)
	return math.Round(p*100*100) / 100
}

func (m *FailureModel) standardizeTemp(v float64) float64 {
	if m.stdTemp == 0 {
		return 0
	}
	return (v - m.meanTemp) / m.stdTemp
}

func (m *FailureModel) standardizeVib(v float64) float64 {
	if m.stdVib == 0 {
		return 0
	}
	return (v - m.meanVib) / m.stdVib
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func meanStd(samples []Sample, value func(Sample) float64) (float64, float64) {
	n := float64(len(samples))
	var sum float64
	for _, s := range samples {
		sum += value(s)
	}
	mean := sum / n
	var sq float64
	for _, s := range samples {
		d := value(s) - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / n)
}
