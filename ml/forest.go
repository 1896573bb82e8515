package ml

// RandomForest labels a row by majority vote over its trees. Ties go to the
// smallest label, matching an argmax over sorted classes.
type RandomForest struct {
	trees []*DecisionTree
}

func NewRandomForest(trees []*DecisionTree) (*RandomForest, error) {
	if len(trees) == 0 {
		return nil, ErrNotTrained
	}
	return &RandomForest{trees: trees}, nil
}

func (f *RandomForest) PredictRow(features []float64) (int, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotTrained
	}
	votes := make(map[int]int)
	for _, tree := range f.trees {
		label, err := tree.PredictRow(features)
		if err != nil {
			return 0, err
		}
		votes[label]++
	}
	return majorityVote(votes), nil
}

func (f *RandomForest) Classify(rows [][]float64) ([]int, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFrame
	}
	labels := make([]int, len(rows))
	for i, row := range rows {
		label, err := f.PredictRow(row)
		if err != nil {
			return nil, err
		}
		labels[i] = label
	}
	return labels, nil
}

func majorityVote(votes map[int]int) int {
	bestLabel := 0
	bestCount := -1
	for label, count := range votes {
		if count > bestCount || (count == bestCount && label < bestLabel) {
			bestLabel = label
			bestCount = count
		}
	}
	return bestLabel
}
