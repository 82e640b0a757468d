package ml

import (
	"math"
	"reflect"
	"testing"
)

func forestTrainingData() ([][]float64, []float64) {
	// Two well-separated clusters with distinct price levels.
	features := [][]float64{
		{50, 1}, {55, 1}, {60, 1}, {52, 1}, {58, 1},
		{200, 3}, {210, 3}, {220, 3}, {205, 3}, {215, 3},
	}
	targets := []float64{
		100000, 105000, 110000, 102000, 108000,
		400000, 410000, 420000, 405000, 415000,
	}
	return features, targets
}

func TestRandomForestSeparatesClusters(t *testing.T) {
	features, targets := forestTrainingData()
	model := &RandomForest{NumTrees: 20, MaxDepth: 4, MinLeaf: 1, Seed: 42}
	if err := model.Fit(features, targets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	low, err := model.Predict([]float64{55, 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	high, err := model.Predict([]float64{210, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if low > 200000 {
		t.Fatalf("small house predicted too high: %v", low)
	}
	if high < 300000 {
		t.Fatalf("large house predicted too low: %v", high)
	}
}

func TestRandomForestReproducibleWithSeed(t *testing.T) {
	features, targets := forestTrainingData()

	a := &RandomForest{NumTrees: 10, MaxDepth: 4, MinLeaf: 1, Seed: 7}
	b := &RandomForest{NumTrees: 10, MaxDepth: 4, MinLeaf: 1, Seed: 7}
	if err := a.Fit(features, targets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Fit(features, targets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a.Trees, b.Trees) {
		t.Fatalf("same seed produced different forests")
	}
}

func TestRandomForestConstantTargets(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}}
	targets := []float64{500, 500, 500, 500}
	model := &RandomForest{NumTrees: 5, Seed: 1}
	if err := model.Fit(features, targets); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	predicted, err := model.Predict([]float64{2.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(predicted-500) > 1e-9 {
		t.Fatalf("expected 500, got %v", predicted)
	}
}

func TestRandomForestUntrained(t *testing.T) {
	model := &RandomForest{}
	if _, err := model.Predict([]float64{1}); err == nil {
		t.Fatalf("expected error before training")
	}
}

func TestWalkTreeRejectsBadFeatureIndex(t *testing.T) {
	nodes := []ForestNode{
		{FeatureIdx: 5, Threshold: 1, LeftChild: 1, RightChild: 2},
		{IsLeaf: true, Value: 1},
		{IsLeaf: true, Value: 2},
	}
	if _, err := walkTree(nodes, []float64{1}); err == nil {
		t.Fatalf("expected error for out-of-range feature index")
	}
}
