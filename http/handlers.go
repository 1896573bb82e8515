package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"diabetesapi/diabetes"
)

const livenessMessage = "Diabetes prediction API is running"

// Predictor 预测服务接口
type Predictor interface {
	Predict(ctx context.Context, record diabetes.PatientRecord) (diabetes.Prediction, error)
}

// RegisterHandlers 注册所有处理器
func RegisterHandlers(mux *http.ServeMux, predictor Predictor, validator *diabetes.Validator) {
	mux.HandleFunc("GET /{$}", handleRoot)
	mux.HandleFunc("POST /diabetes_prediction", handlePredict(predictor, validator))
}

func handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": livenessMessage})
}

func handlePredict(predictor Predictor, validator *diabetes.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"detail": "request body too large"})
				return
			}
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
			return
		}

		record, err := validator.ParseRecord(body)
		if err != nil {
			var verr *diabetes.ValidationError
			if errors.As(err, &verr) {
				respondJSON(w, http.StatusUnprocessableEntity, verr)
				return
			}
			respondError(w, http.StatusInternalServerError, err)
			return
		}

		prediction, err := predictor.Predict(r.Context(), record)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		respondJSON(w, http.StatusOK, prediction)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are already out; nothing useful to do with an encode error
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]string{"error": err.Error()})
}
