package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"diabetesapi/diabetes"
	"diabetesapi/ml"
)

const referenceBody = `{"gender":"Female","age":45,"hypertension":0,"heart_disease":0,"smoking_history_cleaned":"never","bmi":27.3,"HbA1c_level":5.8,"blood_glucose_level":110}`

type fakePredictor struct {
	prediction diabetes.Prediction
	err        error
	panics     bool
	calls      int
}

func (f *fakePredictor) Predict(ctx context.Context, record diabetes.PatientRecord) (diabetes.Prediction, error) {
	f.calls++
	if f.panics {
		panic("predictor exploded")
	}
	return f.prediction, f.err
}

func newTestHandler(t *testing.T, predictor Predictor, config ServerConfig) http.Handler {
	t.Helper()
	server, err := NewServer(config, predictor, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return server.Handler()
}

func loadTestService(t *testing.T) *diabetes.Service {
	t.Helper()
	model, err := ml.LoadModel(ml.RandomForestType, filepath.Join("testdata", "diabetes_prediction_rfc.json"))
	if err != nil {
		t.Fatalf("load model: %v", err)
	}
	return diabetes.NewService(model)
}

func post(handler http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/diabetes_prediction", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
	return payload
}

func TestHandleRoot(t *testing.T) {
	// the liveness route does not touch the predictor
	handler := newTestHandler(t, &fakePredictor{err: errors.New("model unavailable")}, DefaultServerConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	expected := `{"message":"Diabetes prediction API is running"}`
	if strings.TrimSpace(w.Body.String()) != expected {
		t.Fatalf("unexpected body: got %v want %v", w.Body.String(), expected)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected content type: %s", w.Header().Get("Content-Type"))
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestHandlePredictGolden(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "golden.json"))
	if err != nil {
		t.Fatalf("read golden fixture: %v", err)
	}
	var cases []struct {
		Name     string              `json:"name"`
		Request  json.RawMessage     `json:"request"`
		Response diabetes.Prediction `json:"response"`
	}
	if err := json.Unmarshal(raw, &cases); err != nil {
		t.Fatalf("decode golden fixture: %v", err)
	}

	handler := newTestHandler(t, loadTestService(t), DefaultServerConfig())
	for _, c := range cases {
		w := post(handler, string(c.Request))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", c.Name, w.Code, w.Body.String())
		}
		var got diabetes.Prediction
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatalf("%s: invalid json: %v", c.Name, err)
		}
		if got != c.Response {
			t.Fatalf("%s: got %+v, want %+v", c.Name, got, c.Response)
		}
	}
}

func TestHandlePredictIdempotent(t *testing.T) {
	handler := newTestHandler(t, loadTestService(t), DefaultServerConfig())

	first := post(handler, referenceBody)
	second := post(handler, referenceBody)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected 200s, got %d and %d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("responses differ: %s vs %s", first.Body.String(), second.Body.String())
	}
	payload := decode(t, first)
	label := payload["prediction"].(float64)
	if label != 0 && label != 1 {
		t.Fatalf("prediction must be 0 or 1, got %v", label)
	}
}

func TestHandlePredictValidationSkipsPredictor(t *testing.T) {
	predictor := &fakePredictor{prediction: diabetes.NewPrediction(1)}
	handler := newTestHandler(t, predictor, DefaultServerConfig())

	bodies := []string{
		``,
		`not json`,
		`{}`,
		strings.Replace(referenceBody, `"Female"`, `"Unknown"`, 1),
		strings.Replace(referenceBody, `"never"`, `"sometimes"`, 1),
		strings.Replace(referenceBody, `"age":45`, `"age":"45"`, 1),
		strings.Replace(referenceBody, `"hypertension":0,`, ``, 1),
		strings.Replace(referenceBody, `"bmi":27.3`, `"bmi":27.3,"weight":80`, 1),
		strings.Replace(referenceBody, `"gender":"Female"`, `"gender":"Female","Gender":"Male"`, 1),
		`{"GENDER":"Female","AGE":45,"HYPERTENSION":0,"HEART_DISEASE":0,"SMOKING_HISTORY_CLEANED":"never","BMI":27.3,"HBA1C_LEVEL":5.8,"BLOOD_GLUCOSE_LEVEL":110}`,
	}
	for _, body := range bodies {
		w := post(handler, body)
		if w.Code != http.StatusUnprocessableEntity {
			t.Fatalf("body %q: expected 422, got %d", body, w.Code)
		}
		payload := decode(t, w)
		details, ok := payload["detail"].([]interface{})
		if !ok || len(details) == 0 {
			t.Fatalf("body %q: expected detail list, got %v", body, payload)
		}
		first := details[0].(map[string]interface{})
		if first["loc"] == nil || first["msg"] == "" || first["type"] == "" {
			t.Fatalf("body %q: incomplete detail %v", body, first)
		}
	}
	if predictor.calls != 0 {
		t.Fatalf("predictor must not be called for invalid input, got %d calls", predictor.calls)
	}
}

func TestHandlePredictFailureThenRecovers(t *testing.T) {
	failure := errors.New("X has 7 features, but RandomForestClassifier is expecting 8")
	service := diabetes.NewService(mlPredictorFunc(func([]ml.Row) ([]int, error) {
		if failure != nil {
			return nil, failure
		}
		return []int{1}, nil
	}))
	handler := newTestHandler(t, service, DefaultServerConfig())

	w := post(handler, referenceBody)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	payload := decode(t, w)
	if msg, _ := payload["error"].(string); !strings.Contains(msg, "expecting 8") {
		t.Fatalf("unexpected error payload: %v", payload)
	}

	failure = nil
	w = post(handler, referenceBody)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after failure, got %d", w.Code)
	}
	payload = decode(t, w)
	if payload["prediction"].(float64) != 1 || payload["message"] != diabetes.PositiveMessage {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

type mlPredictorFunc func([]ml.Row) ([]int, error)

func (f mlPredictorFunc) Predict(rows []ml.Row) ([]int, error) {
	return f(rows)
}

func TestHandlePredictPanicRecovered(t *testing.T) {
	predictor := &fakePredictor{panics: true}
	handler := newTestHandler(t, predictor, DefaultServerConfig())

	w := post(handler, referenceBody)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	payload := decode(t, w)
	if payload["error"] != "internal server error" {
		t.Fatalf("unexpected payload: %v", payload)
	}

	predictor.panics = false
	predictor.prediction = diabetes.NewPrediction(0)
	if w := post(handler, referenceBody); w.Code != http.StatusOK {
		t.Fatalf("expected 200 after panic, got %d", w.Code)
	}
}

func TestHandlePredictBodyTooLarge(t *testing.T) {
	config := DefaultServerConfig()
	config.MaxBodyBytes = 16
	predictor := &fakePredictor{}
	handler := newTestHandler(t, predictor, config)

	w := post(handler, referenceBody)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
	if predictor.calls != 0 {
		t.Fatal("predictor must not be called for oversized bodies")
	}
}

func TestRoutesMethodAndPath(t *testing.T) {
	handler := newTestHandler(t, &fakePredictor{}, DefaultServerConfig())

	req := httptest.NewRequest(http.MethodGet, "/diabetes_prediction", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/predict", nil)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/diabetes_prediction", bytes.NewReader([]byte(referenceBody)))
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("expected propagated request id, got %q", got)
	}
}
