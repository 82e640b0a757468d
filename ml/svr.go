package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// SVR is a linear support vector regressor trained with stochastic
// subgradient descent on the epsilon-insensitive loss. Inputs and
// targets are standardized internally; the fitted statistics are part
// of the model and applied again at prediction time.
type SVR struct {
	Weights []float64
	Bias    float64

	FeatureMean []float64
	FeatureStd  []float64
	TargetMean  float64
	TargetStd   float64

	C            float64
	Epsilon      float64
	LearningRate float64
	Epochs       int
	Seed         int64
}

func (m *SVR) Name() string { return "svr" }

func (m *SVR) Fit(features [][]float64, targets []float64) error {
	n := len(features)
	if n == 0 {
		return errors.New("no training rows")
	}
	if n != len(targets) {
		return fmt.Errorf("rows/targets mismatch: %d vs %d", n, len(targets))
	}
	d := len(features[0])
	if d == 0 {
		return errors.New("empty feature vectors")
	}
	if m.C <= 0 {
		m.C = 1
	}
	if m.Epsilon <= 0 {
		m.Epsilon = 0.1
	}
	if m.LearningRate <= 0 {
		m.LearningRate = 0.01
	}
	if m.Epochs <= 0 {
		m.Epochs = 200
	}

	m.FeatureMean, m.FeatureStd = columnStats(features)
	m.TargetMean = meanOf(targets)
	m.TargetStd = stdOf(targets, m.TargetMean)

	scaledX := make([][]float64, n)
	scaledY := make([]float64, n)
	for i := range features {
		scaledX[i] = m.scaleFeatures(features[i])
		scaledY[i] = (targets[i] - m.TargetMean) / m.TargetStd
	}

	m.Weights = make([]float64, d)
	m.Bias = 0

	rnd := rand.New(rand.NewSource(m.Seed))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	regularization := 1.0 / (m.C * float64(n))
	for epoch := 0; epoch < m.Epochs; epoch++ {
		rnd.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
		step := m.LearningRate / (1 + 0.01*float64(epoch))
		for _, i := range order {
			x := scaledX[i]
			predicted := m.Bias
			for j, w := range m.Weights {
				predicted += w * x[j]
			}
			residual := scaledY[i] - predicted

			for j := range m.Weights {
				gradient := regularization * m.Weights[j]
				if math.Abs(residual) > m.Epsilon {
					gradient -= sign(residual) * x[j]
				}
				m.Weights[j] -= step * gradient
			}
			if math.Abs(residual) > m.Epsilon {
				m.Bias += step * sign(residual)
			}
		}
	}

	for _, w := range m.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return errors.New("training diverged")
		}
	}
	return nil
}

func (m *SVR) Predict(features []float64) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, errors.New("model not trained")
	}
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("feature width %d, want %d", len(features), len(m.Weights))
	}
	x := m.scaleFeatures(features)
	predicted := m.Bias
	for j, w := range m.Weights {
		predicted += w * x[j]
	}
	return predicted*m.TargetStd + m.TargetMean, nil
}

func (m *SVR) scaleFeatures(features []float64) []float64 {
	scaled := make([]float64, len(features))
	for j, v := range features {
		scaled[j] = (v - m.FeatureMean[j]) / m.FeatureStd[j]
	}
	return scaled
}

func columnStats(features [][]float64) (means, stds []float64) {
	d := len(features[0])
	means = make([]float64, d)
	stds = make([]float64, d)
	for j := 0; j < d; j++ {
		column := make([]float64, len(features))
		for i := range features {
			column[i] = features[i][j]
		}
		means[j] = meanOf(column)
		stds[j] = stdOf(column, means[j])
	}
	return means, stds
}

// stdOf returns 1 for constant columns so standardization stays a
// no-op instead of dividing by zero.
func stdOf(values []float64, mean float64) float64 {
	if len(values) <= 1 {
		return 1
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	std := math.Sqrt(sum / float64(len(values)))
	if std == 0 {
		return 1
	}
	return std
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
