package ml

import "errors"

var (
	ErrUnsupportedModel = errors.New("unsupported model type")
	ErrNotTrained       = errors.New("model not trained")
	ErrEmptyFrame       = errors.New("feature frame is empty")
)

// Row is one record keyed by column name, in the shape it arrives from the
// request layer. Values are strings for categorical columns and numbers
// otherwise.
type Row map[string]interface{}

// Classifier labels every row of an already assembled numeric frame.
type Classifier interface {
	Classify(rows [][]float64) ([]int, error)
}

// Predictor is what request handlers see: named rows in, one label per row out.
type Predictor interface {
	Predict(rows []Row) ([]int, error)
}

// Model is a loaded artifact. It is immutable once LoadModel returns and is
// safe for concurrent use.
type Model struct {
	Type    string
	Version string
	Schema  FeatureSchema
	Classes []int

	classifier Classifier
}

func NewModel(modelType, version string, schema FeatureSchema, classes []int, classifier Classifier) *Model {
	return &Model{
		Type:       modelType,
		Version:    version,
		Schema:     schema,
		Classes:    append([]int(nil), classes...),
		classifier: classifier,
	}
}

func (m *Model) Predict(rows []Row) ([]int, error) {
	if m == nil || m.classifier == nil {
		return nil, ErrNotTrained
	}
	frame, err := m.Schema.Assemble(rows)
	if err != nil {
		return nil, err
	}
	return m.classifier.Classify(frame)
}
