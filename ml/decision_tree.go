package ml

import (
	"errors"
	"fmt"
)

type DecisionTree struct {
	nodes []TreeNode
}

// TreeNode uses sklearn's split convention: a row goes left when
// row[FeatureIdx] <= Threshold.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

// NewDecisionTree checks that nodes form a well-formed tree over featureCount
// columns whose leaves only emit the given classes.
func NewDecisionTree(nodes []TreeNode, featureCount int, classes []int) (*DecisionTree, error) {
	if len(nodes) == 0 {
		return nil, ErrNotTrained
	}
	known := make(map[int]bool, len(classes))
	for _, class := range classes {
		known[class] = true
	}
	for i, node := range nodes {
		if node.IsLeaf {
			if !known[node.ClassLabel] {
				return nil, fmt.Errorf("node %d: leaf class %d not in model classes", i, node.ClassLabel)
			}
			continue
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= featureCount {
			return nil, fmt.Errorf("node %d: feature index %d out of range [0,%d)", i, node.FeatureIdx, featureCount)
		}
		// children always come after their parent, so traversal terminates
		for _, child := range []int{node.LeftChild, node.RightChild} {
			if child <= i || child >= len(nodes) {
				return nil, fmt.Errorf("node %d: invalid child index %d", i, child)
			}
		}
	}
	return &DecisionTree{nodes: nodes}, nil
}

func (dt *DecisionTree) PredictRow(features []float64) (int, error) {
	if len(dt.nodes) == 0 {
		return 0, ErrNotTrained
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, errors.New("feature index out of range")
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
}

func (dt *DecisionTree) Classify(rows [][]float64) ([]int, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFrame
	}
	labels := make([]int, len(rows))
	for i, row := range rows {
		label, err := dt.PredictRow(row)
		if err != nil {
			return nil, err
		}
		labels[i] = label
	}
	return labels, nil
}
