package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
dataset:
  path: data/housing.csv
  encoding: latin-1
  target: SalePrice
  numeric_columns: [LotArea, GrLivArea]
  categorical_columns: [MSZoning]
database:
  path: data/app.db
artifact:
  path: data/model_bundle.gob
  watch: true
http:
  port: 9090
  timeout: 45s
log:
  level: debug
training:
  test_ratio: 0.3
  seed: 7
  forest:
    trees: 25
    max_depth: 6
    min_leaf: 3
  svr:
    epochs: 300
    learning_rate: 0.005
    c: 2.0
    epsilon: 0.05
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Dataset.Target != "SalePrice" {
		t.Fatalf("unexpected target: %s", cfg.Dataset.Target)
	}
	if len(cfg.Dataset.NumericColumns) != 2 {
		t.Fatalf("unexpected numeric columns: %v", cfg.Dataset.NumericColumns)
	}
	if cfg.Http.Port != 9090 {
		t.Fatalf("unexpected port: %d", cfg.Http.Port)
	}
	if cfg.Http.Timeout.Std() != 45*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Http.Timeout.Std())
	}
	if !cfg.Artifact.Watch {
		t.Fatalf("expected watch to be enabled")
	}
	if cfg.Training.Forest.Trees != 25 {
		t.Fatalf("unexpected tree count: %d", cfg.Training.Forest.Trees)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
dataset:
  target: SalePrice
  numeric_columns: [LotArea]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Http.Port != 8080 {
		t.Fatalf("expected default port, got %d", cfg.Http.Port)
	}
	if cfg.Http.Timeout.Std() != 30*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.Http.Timeout.Std())
	}
	if cfg.Training.TestRatio != 0.2 {
		t.Fatalf("expected default test ratio, got %v", cfg.Training.TestRatio)
	}
}

func TestLoadRequiresTarget(t *testing.T) {
	path := writeConfig(t, `
dataset:
  path: data/housing.csv
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing target")
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
dataset:
  target: SalePrice
http:
  timeout: soon
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
