package ml

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ridgeScale sets the regularization term relative to the scale of the
// gram matrix. The intercept column plus a full set of one-hot
// indicators is always collinear, so plain least squares has no unique
// solution; a tiny ridge term keeps the normal equations solvable
// without visibly shrinking the weights.
const ridgeScale = 1e-12

// LinearRegression is least squares with an intercept term, solved via
// the ridge-stabilized normal equations.
type LinearRegression struct {
	Weights   []float64
	Intercept float64
}

func (m *LinearRegression) Name() string { return "linear" }

func (m *LinearRegression) Fit(features [][]float64, targets []float64) error {
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

	design := mat.NewDense(n, d+1, nil)
	response := mat.NewDense(n, 1, nil)
	for i, row := range features {
		if len(row) != d {
			return fmt.Errorf("row %d has width %d, want %d", i, len(row), d)
		}
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
		response.Set(i, 0, targets[i])
	}

	var gram mat.Dense
	gram.Mul(design.T(), design)
	var moment mat.Dense
	moment.Mul(design.T(), response)

	lambda := ridgeScale * mat.Trace(&gram) / float64(d+1)
	for j := 0; j <= d; j++ {
		gram.Set(j, j, gram.At(j, j)+lambda)
	}

	var solution mat.Dense
	if err := solution.Solve(&gram, &moment); err != nil {
		// An ill-conditioned system still produces a usable solution;
		// only a hard failure aborts the fit.
		if _, ok := err.(mat.Condition); !ok {
			return fmt.Errorf("least squares solve: %w", err)
		}
	}

	m.Intercept = solution.At(0, 0)
	m.Weights = make([]float64, d)
	for j := 0; j < d; j++ {
		m.Weights[j] = solution.At(j+1, 0)
	}
	for _, w := range append(m.Weights, m.Intercept) {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return errors.New("least squares solve produced no finite solution")
		}
	}
	return nil
}

func (m *LinearRegression) Predict(features []float64) (float64, error) {
	if len(m.Weights) == 0 {
		return 0, errors.New("model not trained")
	}
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("feature width %d, want %d", len(features), len(m.Weights))
	}
	prediction := m.Intercept
	for j, w := range m.Weights {
		prediction += w * features[j]
	}
	return prediction, nil
}
