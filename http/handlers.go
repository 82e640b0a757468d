package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"housevalue/db"
)

// RegisterHandlers wires every route onto the mux.
func (s *Server) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /predict", s.handlePredictForm)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/schema", s.handleSchema)
	mux.HandleFunc("POST /api/predict", s.handlePredict)
	mux.HandleFunc("GET /api/predictions", s.handlePredictions)
	mux.HandleFunc("GET /api/model", s.handleModel)
	mux.HandleFunc("POST /api/train", s.handleTrain)
	mux.HandleFunc("GET /api/ws/activity", s.hub.HandleWebSocket)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, nil, 0, false, nil, "")
}

func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, nil, 0, false, nil, "could not read the submitted form")
		return
	}
	fields := make(map[string]string, len(r.PostForm))
	for name := range r.PostForm {
		fields[name] = r.PostForm.Get(name)
	}

	price, err := s.predictAndRecord(fields)
	if err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			s.renderPage(w, fields, 0, false, validation, "")
			return
		}
		if errors.Is(err, ErrNoModel) {
			s.renderPage(w, fields, 0, false, nil, "no model is loaded")
			return
		}
		s.log.Errorw("prediction failed", "error", err)
		s.renderPage(w, fields, 0, false, nil, "prediction failed, see server logs")
		return
	}
	s.renderPage(w, fields, price, true, nil, "")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       "ok",
		"model_loaded": s.service.Current() != nil,
	})
}

// handleSchema describes the input form: numeric field names plus the
// known categories of every categorical field.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	bundle := s.service.Current()
	if bundle == nil {
		http.Error(w, `{"error":"no model loaded"}`, http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"numeric":     bundle.Encoder.NumericCols,
		"categorical": bundle.Encoder.Categories,
		"features":    bundle.Encoder.FeatureNames(),
	})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, `{"error":"invalid json body"}`, http.StatusBadRequest)
		return
	}
	fields := make(map[string]string, len(raw))
	for name, value := range raw {
		switch v := value.(type) {
		case string:
			fields[name] = v
		case float64:
			fields[name] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			http.Error(w, `{"error":"field values must be strings or numbers"}`, http.StatusBadRequest)
			return
		}
	}

	price, err := s.predictAndRecord(fields)
	if err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": validation.Message,
				"field": validation.Field,
			})
			return
		}
		if errors.Is(err, ErrNoModel) {
			http.Error(w, `{"error":"no model loaded"}`, http.StatusServiceUnavailable)
			return
		}
		s.log.Errorw("prediction failed", "error", err)
		http.Error(w, `{"error":"prediction failed"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"predicted_price": price,
		"model_name":      s.service.Current().Metadata.ModelName,
	})
}

// predictAndRecord runs the prediction and, on success, appends it to
// the history and the activity feed. History failures are logged but
// never fail the request.
func (s *Server) predictAndRecord(fields map[string]string) (float64, error) {
	price, err := s.service.Predict(fields)
	if err != nil {
		return 0, err
	}

	modelName := ""
	if bundle := s.service.Current(); bundle != nil {
		modelName = bundle.Metadata.ModelName
	}
	if err := db.SavePrediction(db.Prediction{
		PredictedPrice: price,
		Inputs:         fields,
		ModelName:      modelName,
	}); err != nil {
		s.log.Warnw("failed to record prediction", "error", err)
	}
	s.hub.Publish(EventPrediction, map[string]interface{}{
		"predicted_price": price,
		"model_name":      modelName,
	})
	return price, nil
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	predictions, err := db.RecentPredictions(limit)
	if err != nil {
		s.log.Errorw("prediction history query failed", "error", err)
		http.Error(w, `{"error":"history unavailable"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"predictions": predictions,
		"count":       len(predictions),
	})
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	bundle := s.service.Current()
	if bundle == nil {
		http.Error(w, `{"error":"no model loaded"}`, http.StatusServiceUnavailable)
		return
	}

	runs, err := db.ListTrainingRuns(10)
	if err != nil {
		s.log.Warnw("training run query failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"current": bundle.Metadata,
		"runs":    runs,
	})
}

// handleTrain retrains in the background and deploys the winner. Only
// one run at a time; a second request while busy gets 409.
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	if !s.trainMu.TryLock() {
		http.Error(w, `{"error":"a training run is already in progress"}`, http.StatusConflict)
		return
	}

	go func() {
		defer s.trainMu.Unlock()
		s.runTraining()
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "training started"})
}

func (s *Server) runTraining() {
	started := time.Now()
	result, err := s.train(s.trainCfg, s.log)
	if err != nil {
		s.log.Errorw("training run failed", "error", err)
		return
	}

	s.service.Swap(result.Bundle)

	if err := db.SaveTrainingRun(db.TrainingRun{
		ModelName:    result.Bundle.Metadata.ModelName,
		MAPE:         result.Bundle.Metadata.MAPE,
		Scores:       result.Bundle.Metadata.Scores,
		DataPoints:   result.Rows,
		ArtifactPath: s.trainCfg.ArtifactPath,
		TrainedAt:    result.Bundle.Metadata.CreatedAt,
	}); err != nil {
		s.log.Warnw("failed to record training run", "error", err)
	}

	s.hub.Publish(EventDeployment, map[string]interface{}{
		"model_name": result.Bundle.Metadata.ModelName,
		"mape":       result.Bundle.Metadata.MAPE,
		"duration":   time.Since(started).String(),
	})
}
