package diabetes

import (
	"context"
	"errors"
	"fmt"

	"diabetesapi/ml"
)

const (
	PositiveMessage = "This patient HAS Diabetes"
	NegativeMessage = "This patient DOES NOT have Diabetes"
)

var ErrNoLabel = errors.New("predictor returned no labels")

type Prediction struct {
	Label   int    `json:"prediction"`
	Message string `json:"message"`
}

func NewPrediction(label int) Prediction {
	if label == 1 {
		return Prediction{Label: label, Message: PositiveMessage}
	}
	return Prediction{Label: label, Message: NegativeMessage}
}

// Service runs records through a loaded predictor. It holds no mutable state.
type Service struct {
	predictor ml.Predictor
}

func NewService(predictor ml.Predictor) *Service {
	return &Service{predictor: predictor}
}

// Predict classifies a single validated record. Failures in feature assembly
// or inference, panics included, come back as an error carrying the cause.
func (s *Service) Predict(ctx context.Context, record PatientRecord) (prediction Prediction, err error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	if s.predictor == nil {
		return Prediction{}, ml.ErrNotTrained
	}

	defer func() {
		if r := recover(); r != nil {
			prediction = Prediction{}
			err = fmt.Errorf("prediction panicked: %v", r)
		}
	}()

	labels, err := s.predictor.Predict([]ml.Row{record.Fields()})
	if err != nil {
		return Prediction{}, err
	}
	if len(labels) == 0 {
		return Prediction{}, ErrNoLabel
	}
	label := labels[0]
	if label != 0 && label != 1 {
		return Prediction{}, fmt.Errorf("unexpected class label %d", label)
	}
	return NewPrediction(label), nil
}
