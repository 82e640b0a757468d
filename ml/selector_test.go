package ml

import (
	"errors"
	"math"
	"testing"
)

// stubModel returns a fixed multiple of the true target, giving it a
// known MAPE.
type stubModel struct {
	name   string
	factor float64
	err    error
}

func (m *stubModel) Name() string { return m.name }

func (m *stubModel) Fit(features [][]float64, targets []float64) error { return m.err }

func (m *stubModel) Predict(features []float64) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.factor * features[0], m.err
}

func evalSplit() ([][]float64, []float64) {
	features := [][]float64{{100}, {200}, {300}}
	targets := []float64{100, 200, 300}
	return features, targets
}

func TestMAPEComputesMeanError(t *testing.T) {
	features, targets := evalSplit()
	score, err := MAPE(&stubModel{name: "a", factor: 1.1}, features, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(score-0.1) > 1e-9 {
		t.Fatalf("expected MAPE 0.1, got %v", score)
	}
}

func TestMAPESkipsZeroTargets(t *testing.T) {
	features := [][]float64{{100}, {50}}
	targets := []float64{100, 0}
	score, err := MAPE(&stubModel{name: "a", factor: 1.2}, features, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(score-0.2) > 1e-9 {
		t.Fatalf("expected MAPE 0.2 over the single usable record, got %v", score)
	}
}

func TestMAPEAllTargetsZero(t *testing.T) {
	_, err := MAPE(&stubModel{name: "a", factor: 1}, [][]float64{{1}, {2}}, []float64{0, 0})
	if !errors.Is(err, ErrNoEvalRecords) {
		t.Fatalf("expected ErrNoEvalRecords, got %v", err)
	}
}

func TestSelectPicksLowestMAPE(t *testing.T) {
	features, targets := evalSplit()
	candidates := []Candidate{
		{Model: &stubModel{name: "linear", factor: 1.3}},
		{Model: &stubModel{name: "forest", factor: 1.05}},
		{Model: &stubModel{name: "svr", factor: 1.2}},
	}

	selection, err := Select(candidates, features, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selection.Model.Name() != "forest" {
		t.Fatalf("expected forest to win, got %s", selection.Model.Name())
	}
	if len(selection.Scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(selection.Scores))
	}
}

func TestSelectTieGoesToEarlierCandidate(t *testing.T) {
	features, targets := evalSplit()
	candidates := []Candidate{
		{Model: &stubModel{name: "linear", factor: 1.1}},
		{Model: &stubModel{name: "forest", factor: 1.1}},
	}

	selection, err := Select(candidates, features, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selection.Model.Name() != "linear" {
		t.Fatalf("expected the earlier candidate on a tie, got %s", selection.Model.Name())
	}
}

func TestSelectExcludesFailedCandidates(t *testing.T) {
	features, targets := evalSplit()
	candidates := []Candidate{
		{Model: &stubModel{name: "linear"}, Err: errors.New("singular matrix")},
		{Model: &stubModel{name: "forest", factor: 1.2}},
	}

	selection, err := Select(candidates, features, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selection.Model.Name() != "forest" {
		t.Fatalf("expected forest, got %s", selection.Model.Name())
	}
	if _, ok := selection.Failed["linear"]; !ok {
		t.Fatalf("expected linear to be recorded as failed")
	}
}

func TestSelectAllCandidatesFailed(t *testing.T) {
	features, targets := evalSplit()
	candidates := []Candidate{
		{Model: &stubModel{name: "linear"}, Err: errors.New("boom")},
	}
	if _, err := Select(candidates, features, targets); err == nil {
		t.Fatalf("expected error when no candidate scored")
	}
}

func TestSelectPropagatesNoEvalRecords(t *testing.T) {
	candidates := []Candidate{
		{Model: &stubModel{name: "linear", factor: 1}},
	}
	_, err := Select(candidates, [][]float64{{1}}, []float64{0})
	if !errors.Is(err, ErrNoEvalRecords) {
		t.Fatalf("expected ErrNoEvalRecords, got %v", err)
	}
}
