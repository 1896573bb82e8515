package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const (
	DecisionTreeType = "decision_tree"
	RandomForestType = "random_forest"
)

// artifact is the on-disk JSON layout of a trained model.
type artifact struct {
	ModelType string                        `json:"model_type"`
	Version   string                        `json:"version"`
	Features  []string                      `json:"features"`
	Encodings map[string]map[string]float64 `json:"encodings"`
	Classes   []int                         `json:"classes"`
	Trees     [][]TreeNode                  `json:"trees"`
}

// LoadModel reads the artifact at path and checks it was exported as
// modelType. Any error means the artifact is missing or corrupt.
func LoadModel(modelType, path string) (*Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	model, err := ParseModel(modelType, payload)
	if err != nil {
		return nil, fmt.Errorf("load model artifact %s: %w", path, err)
	}
	return model, nil
}

func ParseModel(modelType string, payload []byte) (*Model, error) {
	switch modelType {
	case DecisionTreeType, RandomForestType:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, modelType)
	}

	var a artifact
	if err := json.Unmarshal(payload, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.ModelType != modelType {
		return nil, fmt.Errorf("artifact holds %q, expected %q", a.ModelType, modelType)
	}
	if len(a.Classes) == 0 {
		return nil, errors.New("artifact declares no classes")
	}

	schema, err := NewFeatureSchema(a.Features, a.Encodings)
	if err != nil {
		return nil, err
	}

	trees := make([]*DecisionTree, 0, len(a.Trees))
	for i, nodes := range a.Trees {
		tree, err := NewDecisionTree(nodes, len(schema.Names), a.Classes)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees = append(trees, tree)
	}

	var classifier Classifier
	switch modelType {
	case DecisionTreeType:
		if len(trees) != 1 {
			return nil, fmt.Errorf("decision tree artifact has %d trees, expected 1", len(trees))
		}
		classifier = trees[0]
	case RandomForestType:
		forest, err := NewRandomForest(trees)
		if err != nil {
			return nil, err
		}
		classifier = forest
	}

	return NewModel(a.ModelType, a.Version, schema, a.Classes, classifier), nil
}
