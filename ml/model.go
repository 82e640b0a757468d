package ml

import "fmt"

// Model is a regression estimator. Fit learns from encoded feature
// vectors and their target prices; Predict scores a single vector.
type Model interface {
	Fit(features [][]float64, targets []float64) error
	Predict(features []float64) (float64, error)
	Name() string
}

// TrainingError names the estimator that failed to fit. One estimator
// failing never aborts the others.
type TrainingError struct {
	Estimator string
	Err       error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training %s: %v", e.Estimator, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }
