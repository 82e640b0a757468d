// Package artifact persists the winning model together with the
// encoder it was trained alongside. The pairing invariant is enforced
// by construction: both live in one file, written atomically.
package artifact

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"housevalue/ml"
)

// FormatVersion identifies the bundle encoding. Load rejects any other
// version.
const FormatVersion = 1

func init() {
	gob.Register(&ml.LinearRegression{})
	gob.Register(&ml.RandomForest{})
	gob.Register(&ml.SVR{})
}

// LoadError reports an artifact that is absent, corrupt, or written by
// an incompatible version.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("artifact %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("artifact %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Metadata describes the training run that produced a bundle.
type Metadata struct {
	ModelName   string             `json:"model_name"`
	MAPE        float64            `json:"mape"`
	Scores      map[string]float64 `json:"scores"`
	TrainedRows int                `json:"trained_rows"`
	DatasetPath string             `json:"dataset_path"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Bundle is the serialized (model, encoder) pair. Treat a loaded
// bundle as immutable; retraining produces a new one that replaces the
// old file atomically.
type Bundle struct {
	Version  int
	Model    ml.Model
	Encoder  *ml.Encoder
	Metadata Metadata
}

// Save writes the bundle to path with both-or-neither semantics: the
// gob stream goes to a temp file in the destination directory, is
// synced, and then renamed over the target.
func Save(bundle *Bundle, path string) error {
	if bundle.Model == nil || bundle.Encoder == nil {
		return fmt.Errorf("save artifact: bundle must carry both model and encoder")
	}
	bundle.Version = FormatVersion

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bundle-*")
	if err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(bundle); err != nil {
		tmp.Close()
		return fmt.Errorf("save artifact: encode: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("save artifact: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save artifact: %w", err)
	}
	return nil
}

// Load reads and validates a bundle.
func Load(path string) (*Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "open failed", Err: err}
	}
	defer file.Close()

	var bundle Bundle
	if err := gob.NewDecoder(file).Decode(&bundle); err != nil {
		return nil, &LoadError{Path: path, Reason: "corrupt artifact", Err: err}
	}
	if bundle.Version != FormatVersion {
		return nil, &LoadError{Path: path, Reason: fmt.Sprintf("format version %d, want %d", bundle.Version, FormatVersion)}
	}
	if bundle.Model == nil || bundle.Encoder == nil {
		return nil, &LoadError{Path: path, Reason: "bundle is missing model or encoder"}
	}
	return &bundle, nil
}
