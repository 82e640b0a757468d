package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"housevalue/train"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(DefaultServerConfig(), testService(t), train.Config{}, zap.NewNop().Sugar())
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	s.RegisterHandlers(mux)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	s := testServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload["model_loaded"] != true {
		t.Fatalf("expected model_loaded true: %v", payload)
	}
}

func TestHandleSchema(t *testing.T) {
	s := testServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/schema", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var payload struct {
		Numeric     []string            `json:"numeric"`
		Categorical map[string][]string `json:"categorical"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(payload.Numeric) != 1 || payload.Numeric[0] != "LotArea" {
		t.Fatalf("unexpected numeric columns: %v", payload.Numeric)
	}
	if len(payload.Categorical["MSZoning"]) != 2 {
		t.Fatalf("unexpected categories: %v", payload.Categorical)
	}
}

func TestHandlePredictAPI(t *testing.T) {
	s := testServer(t)

	body := `{"LotArea": 150, "MSZoning": "RL"}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	w := serve(s, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	price, ok := payload["predicted_price"].(float64)
	if !ok || price < 1200 || price > 1400 {
		t.Fatalf("unexpected price: %v", payload["predicted_price"])
	}
	if payload["model_name"] != "linear" {
		t.Fatalf("unexpected model name: %v", payload["model_name"])
	}
}

func TestHandlePredictAPIUnknownCategory(t *testing.T) {
	s := testServer(t)

	body := `{"LotArea": 150, "MSZoning": "Commercial"}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	w := serve(s, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload["field"] != "MSZoning" {
		t.Fatalf("expected the offending field, got %v", payload)
	}
}

func TestHandlePredictAPIBadBody(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader("not json"))
	if w := serve(s, req); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(`{"LotArea": [1,2]}`))
	if w := serve(s, req); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-scalar value, got %d", w.Code)
	}
}

func TestHandlePredictAPINoModel(t *testing.T) {
	s := NewServer(DefaultServerConfig(), NewService(zap.NewNop().Sugar()), train.Config{}, zap.NewNop().Sugar())

	body := `{"LotArea": 150, "MSZoning": "RL"}`
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	if w := serve(s, req); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestHandleIndexRendersForm(t *testing.T) {
	s := testServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, `name="LotArea"`) {
		t.Fatalf("form is missing the numeric input")
	}
	if !strings.Contains(page, `<option value="RL"`) {
		t.Fatalf("form is missing the category options")
	}
}

func TestHandlePredictForm(t *testing.T) {
	s := testServer(t)

	form := "LotArea=150&MSZoning=RL"
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(s, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, "Estimated value") {
		t.Fatalf("expected a result box in the page")
	}
	// The submitted values survive the round trip.
	if !strings.Contains(page, `value="150"`) {
		t.Fatalf("expected the form to keep the submitted area")
	}
}

func TestHandlePredictFormUnknownCategory(t *testing.T) {
	s := testServer(t)

	form := "LotArea=150&MSZoning=Commercial"
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(s, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not a known value") {
		t.Fatalf("expected a validation message in the page")
	}
}

func TestHandleTrainConflict(t *testing.T) {
	s := testServer(t)

	bundle := testBundle(t)
	release := make(chan struct{})
	started := make(chan struct{})
	s.train = func(cfg train.Config, log *zap.SugaredLogger) (*train.Result, error) {
		close(started)
		<-release
		return &train.Result{Bundle: bundle}, nil
	}

	first := serve(s, httptest.NewRequest(http.MethodPost, "/api/train", nil))
	if first.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", first.Code)
	}

	<-started
	second := serve(s, httptest.NewRequest(http.MethodPost, "/api/train", nil))
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 while training, got %d", second.Code)
	}

	close(release)
	waitForUnlock(t, s)
}

func TestHandleTrainDeploysResult(t *testing.T) {
	s := NewServer(DefaultServerConfig(), NewService(zap.NewNop().Sugar()), train.Config{}, zap.NewNop().Sugar())

	bundle := testBundle(t)
	s.train = func(cfg train.Config, log *zap.SugaredLogger) (*train.Result, error) {
		return &train.Result{Bundle: bundle, Rows: 4}, nil
	}

	if w := serve(s, httptest.NewRequest(http.MethodPost, "/api/train", nil)); w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	waitForUnlock(t, s)

	if s.service.Current() != bundle {
		t.Fatalf("expected the trained bundle to be deployed")
	}
}

// waitForUnlock waits for the background training goroutine to finish.
func waitForUnlock(t *testing.T, s *Server) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if s.trainMu.TryLock() {
			s.trainMu.Unlock()
			return
		}
		select {
		case <-deadline:
			t.Fatalf("training goroutine did not finish")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
