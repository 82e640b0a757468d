package ml

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoEvalRecords means every evaluation record was unusable (empty
// split, or all true targets were zero) and no score could be computed.
var ErrNoEvalRecords = errors.New("no usable evaluation records")

// Selection is the outcome of comparing all trained candidates.
type Selection struct {
	Model  Model
	MAPE   float64
	Scores map[string]float64
	Failed map[string]string
}

// MAPE computes the mean absolute percentage error of the model over
// the evaluation split. Records whose true target is zero are skipped;
// if nothing remains the result is ErrNoEvalRecords.
func MAPE(model Model, features [][]float64, targets []float64) (float64, error) {
	sum := 0.0
	used := 0
	for i, row := range features {
		actual := targets[i]
		if actual == 0 {
			continue
		}
		predicted, err := model.Predict(row)
		if err != nil {
			return 0, fmt.Errorf("evaluate %s: %w", model.Name(), err)
		}
		sum += math.Abs(predicted-actual) / math.Abs(actual)
		used++
	}
	if used == 0 {
		return 0, ErrNoEvalRecords
	}
	return sum / float64(used), nil
}

// Select scores every successfully trained candidate and returns the
// one with the strictly lowest MAPE. Candidates are assumed to be in
// priority order, so on an exact tie the earlier one wins. A candidate
// whose training or evaluation failed is excluded rather than aborting
// the selection; only an empty field of candidates is an error.
func Select(candidates []Candidate, features [][]float64, targets []float64) (*Selection, error) {
	selection := &Selection{
		Scores: make(map[string]float64),
		Failed: make(map[string]string),
	}

	best := math.Inf(1)
	for _, candidate := range candidates {
		name := candidate.Model.Name()
		if candidate.Err != nil {
			selection.Failed[name] = candidate.Err.Error()
			continue
		}
		score, err := MAPE(candidate.Model, features, targets)
		if err != nil {
			if errors.Is(err, ErrNoEvalRecords) {
				return nil, err
			}
			selection.Failed[name] = err.Error()
			continue
		}
		selection.Scores[name] = score
		if score < best {
			best = score
			selection.Model = candidate.Model
			selection.MAPE = score
		}
	}

	if selection.Model == nil {
		return nil, fmt.Errorf("model selection: no candidate produced a score")
	}
	return selection, nil
}
