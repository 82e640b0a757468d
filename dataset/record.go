package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Schema names the columns the loader expects in the input file.
type Schema struct {
	Target      string
	Numeric     []string
	Categorical []string
}

func (s Schema) Validate() error {
	if s.Target == "" {
		return fmt.Errorf("schema: target column is required")
	}
	if len(s.Numeric)+len(s.Categorical) == 0 {
		return fmt.Errorf("schema: at least one feature column is required")
	}
	seen := make(map[string]bool)
	for _, col := range append(append([]string{s.Target}, s.Numeric...), s.Categorical...) {
		if seen[col] {
			return fmt.Errorf("schema: duplicate column %q", col)
		}
		seen[col] = true
	}
	return nil
}

// Record is one house observation. Target is only meaningful when
// HasTarget is set (training data); prediction inputs carry none.
type Record struct {
	Numeric     map[string]float64
	Categorical map[string]string
	Target      float64
	HasTarget   bool
}

// Key returns a canonical string over all attribute values, used for
// duplicate detection and prediction caching.
func (r Record) Key() string {
	parts := make([]string, 0, len(r.Numeric)+len(r.Categorical))
	for name, v := range r.Numeric {
		parts = append(parts, fmt.Sprintf("%s=%g", name, v))
	}
	for name, v := range r.Categorical {
		parts = append(parts, name+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
