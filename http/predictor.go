package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"housevalue/artifact"
	"housevalue/dataset"
	"housevalue/ml"
)

// ErrNoModel means no artifact has been loaded yet.
var ErrNoModel = errors.New("no model loaded")

// ValidationError rejects one user-submitted field. It is shown to the
// user and never reaches the model.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Field, e.Message)
}

// Service holds the live (model, encoder) bundle behind an atomic
// pointer. The bundle is immutable after load; a retrained pair is
// deployed by swapping the whole pointer, so requests always see a
// matching model and encoder.
type Service struct {
	bundle atomic.Pointer[artifact.Bundle]
	cache  *lru.Cache[string, float64]
	log    *zap.SugaredLogger
}

func NewService(log *zap.SugaredLogger) *Service {
	cache, _ := lru.New[string, float64](512)
	return &Service{cache: cache, log: log}
}

// Current returns the live bundle, or nil before the first deploy.
func (s *Service) Current() *artifact.Bundle {
	return s.bundle.Load()
}

// Swap atomically replaces the live bundle and drops cached results
// computed by the previous model.
func (s *Service) Swap(bundle *artifact.Bundle) {
	s.bundle.Store(bundle)
	s.cache.Purge()
	s.log.Infow("model deployed",
		"model", bundle.Metadata.ModelName,
		"mape", bundle.Metadata.MAPE,
		"trained_rows", bundle.Metadata.TrainedRows,
	)
}

// Predict validates the submitted fields against the encoder's known
// domain, encodes the record, and runs the live model. Results for a
// repeated input are served from the cache.
func (s *Service) Predict(fields map[string]string) (float64, error) {
	bundle := s.Current()
	if bundle == nil {
		return 0, ErrNoModel
	}
	encoder := bundle.Encoder

	record := dataset.Record{
		Numeric:     make(map[string]float64, len(encoder.NumericCols)),
		Categorical: make(map[string]string, len(encoder.CategoricalCols)),
	}

	for _, col := range encoder.NumericCols {
		raw, ok := fields[col]
		if !ok || strings.TrimSpace(raw) == "" {
			return 0, &ValidationError{Field: col, Message: "is required"}
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return 0, &ValidationError{Field: col, Message: "must be a number"}
		}
		record.Numeric[col] = value
	}

	for _, col := range encoder.CategoricalCols {
		raw, ok := fields[col]
		if !ok || strings.TrimSpace(raw) == "" {
			return 0, &ValidationError{Field: col, Message: "is required"}
		}
		record.Categorical[col] = strings.TrimSpace(raw)
	}

	key := record.Key()
	if price, ok := s.cache.Get(key); ok {
		return price, nil
	}

	vector, err := encoder.Transform(record)
	if err != nil {
		var unknown *ml.UnknownCategoryError
		if errors.As(err, &unknown) {
			return 0, &ValidationError{
				Field:   unknown.Column,
				Message: fmt.Sprintf("%q is not a known value", unknown.Value),
			}
		}
		return 0, err
	}

	price, err := bundle.Model.Predict(vector)
	if err != nil {
		return 0, err
	}
	s.cache.Add(key, price)
	return price, nil
}
