package ml

import (
	"errors"
	"fmt"
	"sort"

	"housevalue/dataset"
)

// UnknownCategoryError is returned by Transform for a categorical value
// the encoder never saw at fit time. Callers decide how to surface it;
// the HTTP layer turns it into a validation error, never a prediction.
type UnknownCategoryError struct {
	Column string
	Value  string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown category %q for column %s", e.Value, e.Column)
}

// Encoder owns the category-to-column mapping fitted from the training
// set. The feature layout is numeric columns in schema order followed by
// one indicator column per (column, category), categories sorted. The
// layout is frozen at fit time and identical for every Transform call.
//
// Fields are exported for gob; treat a fitted Encoder as immutable.
type Encoder struct {
	NumericCols     []string
	CategoricalCols []string
	Categories      map[string][]string
}

// FitEncoder scans all records and freezes the indicator-column schema.
func FitEncoder(schema dataset.Schema, records []dataset.Record) (*Encoder, error) {
	if len(records) == 0 {
		return nil, errors.New("fit encoder: no records")
	}

	encoder := &Encoder{
		NumericCols:     append([]string(nil), schema.Numeric...),
		CategoricalCols: append([]string(nil), schema.Categorical...),
		Categories:      make(map[string][]string, len(schema.Categorical)),
	}

	for _, col := range schema.Categorical {
		distinct := make(map[string]bool)
		for _, record := range records {
			if value := record.Categorical[col]; value != "" {
				distinct[value] = true
			}
		}
		if len(distinct) == 0 {
			return nil, fmt.Errorf("fit encoder: column %s has no values", col)
		}
		values := make([]string, 0, len(distinct))
		for value := range distinct {
			values = append(values, value)
		}
		sort.Strings(values)
		encoder.Categories[col] = values
	}
	return encoder, nil
}

// Width is the length of every encoded vector.
func (e *Encoder) Width() int {
	width := len(e.NumericCols)
	for _, col := range e.CategoricalCols {
		width += len(e.Categories[col])
	}
	return width
}

// FeatureNames returns the column names of the encoded vector, in
// vector order.
func (e *Encoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	names = append(names, e.NumericCols...)
	for _, col := range e.CategoricalCols {
		for _, value := range e.Categories[col] {
			names = append(names, col+"="+value)
		}
	}
	return names
}

// Transform encodes one record into the fixed-width vector.
func (e *Encoder) Transform(record dataset.Record) ([]float64, error) {
	vector := make([]float64, e.Width())
	for i, col := range e.NumericCols {
		value, ok := record.Numeric[col]
		if !ok {
			return nil, fmt.Errorf("encode: missing numeric field %s", col)
		}
		vector[i] = value
	}

	offset := len(e.NumericCols)
	for _, col := range e.CategoricalCols {
		values := e.Categories[col]
		raw, ok := record.Categorical[col]
		if !ok || raw == "" {
			return nil, fmt.Errorf("encode: missing categorical field %s", col)
		}
		idx := sort.SearchStrings(values, raw)
		if idx >= len(values) || values[idx] != raw {
			return nil, &UnknownCategoryError{Column: col, Value: raw}
		}
		vector[offset+idx] = 1
		offset += len(values)
	}
	return vector, nil
}

// TransformAll encodes a batch of training records and collects their
// targets alongside.
func (e *Encoder) TransformAll(records []dataset.Record) ([][]float64, []float64, error) {
	features := make([][]float64, 0, len(records))
	targets := make([]float64, 0, len(records))
	for i, record := range records {
		vector, err := e.Transform(record)
		if err != nil {
			return nil, nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		features = append(features, vector)
		targets = append(targets, record.Target)
	}
	return features, targets, nil
}
