package ml

import (
	"math"
	"testing"
)

func TestLinearRegressionRecoversExactRelation(t *testing.T) {
	// price = 2*area + 1000
	features := [][]float64{{50}, {80}, {120}, {200}, {350}}
	targets := make([]float64, len(features))
	for i, row := range features {
		targets[i] = 2*row[0] + 1000
	}

	model := &LinearRegression{}
	if err := model.Fit(features, targets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(model.Intercept-1000) > 1e-4 {
		t.Fatalf("expected intercept 1000, got %v", model.Intercept)
	}
	if math.Abs(model.Weights[0]-2) > 1e-4 {
		t.Fatalf("expected weight 2, got %v", model.Weights[0])
	}

	predicted, err := model.Predict([]float64{100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(predicted-1200) > 1e-4 {
		t.Fatalf("expected 1200, got %v", predicted)
	}
}

func TestLinearRegressionMultipleFeatures(t *testing.T) {
	// y = 3*x1 - 2*x2 + 5
	features := [][]float64{{1, 1}, {2, 1}, {1, 3}, {4, 2}, {3, 5}, {6, 1}}
	targets := make([]float64, len(features))
	for i, row := range features {
		targets[i] = 3*row[0] - 2*row[1] + 5
	}

	model := &LinearRegression{}
	if err := model.Fit(features, targets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	predicted, err := model.Predict([]float64{10, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(predicted-27) > 1e-4 {
		t.Fatalf("expected 27, got %v", predicted)
	}
}

func TestLinearRegressionInputChecks(t *testing.T) {
	model := &LinearRegression{}
	if err := model.Fit(nil, nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if err := model.Fit([][]float64{{1}}, []float64{1, 2}); err == nil {
		t.Fatalf("expected error for mismatched lengths")
	}
	if _, err := model.Predict([]float64{1}); err == nil {
		t.Fatalf("expected error before training")
	}
}

func TestLinearRegressionWidthMismatch(t *testing.T) {
	model := &LinearRegression{}
	if err := model.Fit([][]float64{{1, 2}, {2, 3}, {3, 5}}, []float64{1, 2, 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := model.Predict([]float64{1}); err == nil {
		t.Fatalf("expected error for wrong feature width")
	}
}
