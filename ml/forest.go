package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ForestNode is one node of a regression tree stored as a flat array;
// child fields index into the same array.
type ForestNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	Value      float64 `json:"value"`
	IsLeaf     bool    `json:"is_leaf"`
}

// RandomForest averages bootstrap-trained regression trees with
// variance-reduction splits. Seed fixes the bootstrap sampling so a
// fit is reproducible.
type RandomForest struct {
	Trees    [][]ForestNode
	NumTrees int
	MaxDepth int
	MinLeaf  int
	Seed     int64
}

func (m *RandomForest) Name() string { return "forest" }

func (m *RandomForest) Fit(features [][]float64, targets []float64) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("no training rows")
	}
	if len(features) != len(targets) {
		return fmt.Errorf("rows/targets mismatch: %d vs %d", len(features), len(targets))
	}
	if m.NumTrees <= 0 {
		m.NumTrees = 50
	}
	if m.MaxDepth <= 0 {
		m.MaxDepth = 8
	}
	if m.MinLeaf <= 0 {
		m.MinLeaf = 2
	}

	n := len(features)
	rnd := rand.New(rand.NewSource(m.Seed))
	m.Trees = make([][]ForestNode, m.NumTrees)
	for t := 0; t < m.NumTrees; t++ {
		sampleX := make([][]float64, n)
		sampleY := make([]float64, n)
		for i := 0; i < n; i++ {
			j := rnd.Intn(n)
			sampleX[i] = features[j]
			sampleY[i] = targets[j]
		}
		m.Trees[t] = buildRegressionTree(sampleX, sampleY, m.MaxDepth, m.MinLeaf)
	}
	return nil
}

func (m *RandomForest) Predict(features []float64) (float64, error) {
	if len(m.Trees) == 0 {
		return 0, errors.New("model not trained")
	}
	sum := 0.0
	for _, tree := range m.Trees {
		value, err := walkTree(tree, features)
		if err != nil {
			return 0, err
		}
		sum += value
	}
	return sum / float64(len(m.Trees)), nil
}

func walkTree(nodes []ForestNode, features []float64) (float64, error) {
	idx := 0
	for {
		node := nodes[idx]
		if node.IsLeaf {
			return node.Value, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx <= 0 || idx >= len(nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

// buildRegressionTree returns the subtree rooted at index 0 with child
// indexes relative to the returned slice.
func buildRegressionTree(features [][]float64, targets []float64, depth, minLeaf int) []ForestNode {
	leaf := ForestNode{FeatureIdx: -1, LeftChild: -1, RightChild: -1, Value: meanOf(targets), IsLeaf: true}
	if depth <= 0 || len(targets) <= minLeaf {
		return []ForestNode{leaf}
	}

	bestFeature, bestThreshold, ok := bestVarianceSplit(features, targets, minLeaf)
	if !ok {
		return []ForestNode{leaf}
	}

	var leftX, rightX [][]float64
	var leftY, rightY []float64
	for i, row := range features {
		if row[bestFeature] <= bestThreshold {
			leftX = append(leftX, row)
			leftY = append(leftY, targets[i])
		} else {
			rightX = append(rightX, row)
			rightY = append(rightY, targets[i])
		}
	}
	if len(leftY) == 0 || len(rightY) == 0 {
		return []ForestNode{leaf}
	}

	leftNodes := buildRegressionTree(leftX, leftY, depth-1, minLeaf)
	rightNodes := buildRegressionTree(rightX, rightY, depth-1, minLeaf)

	root := ForestNode{
		FeatureIdx: bestFeature,
		Threshold:  bestThreshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
		Value:      meanOf(targets),
	}

	nodes := make([]ForestNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	for _, node := range leftNodes {
		nodes = append(nodes, shiftNode(node, 1))
	}
	for _, node := range rightNodes {
		nodes = append(nodes, shiftNode(node, 1+len(leftNodes)))
	}
	return nodes
}

func shiftNode(node ForestNode, offset int) ForestNode {
	if !node.IsLeaf {
		node.LeftChild += offset
		node.RightChild += offset
	}
	return node
}

func bestVarianceSplit(features [][]float64, targets []float64, minLeaf int) (int, float64, bool) {
	width := len(features[0])
	bestFeature := -1
	bestThreshold := 0.0
	bestScore := math.Inf(1)

	for f := 0; f < width; f++ {
		values := make([]float64, len(features))
		for i := range features {
			values[i] = features[i][f]
		}
		for _, threshold := range splitCandidates(values) {
			var leftY, rightY []float64
			for i := range features {
				if features[i][f] <= threshold {
					leftY = append(leftY, targets[i])
				} else {
					rightY = append(rightY, targets[i])
				}
			}
			if len(leftY) < minLeaf || len(rightY) < minLeaf {
				continue
			}
			score := float64(len(leftY))*varianceOf(leftY) + float64(len(rightY))*varianceOf(rightY)
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}
	if bestFeature == -1 {
		return -1, 0, false
	}
	return bestFeature, bestThreshold, true
}

// splitCandidates returns the midpoints between consecutive distinct
// values.
func splitCandidates(values []float64) []float64 {
	distinct := make(map[float64]bool, len(values))
	for _, v := range values {
		distinct[v] = true
	}
	if len(distinct) < 2 {
		return nil
	}
	sorted := make([]float64, 0, len(distinct))
	for v := range distinct {
		sorted = append(sorted, v)
	}
	sort.Float64s(sorted)
	midpoints := make([]float64, 0, len(sorted)-1)
	for i := 0; i < len(sorted)-1; i++ {
		midpoints = append(midpoints, (sorted[i]+sorted[i+1])/2)
	}
	return midpoints
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func varianceOf(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	m := meanOf(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}
