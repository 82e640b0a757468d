package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Dataset struct {
		Path               string   `yaml:"path"`
		Encoding           string   `yaml:"encoding"`
		Target             string   `yaml:"target"`
		NumericColumns     []string `yaml:"numeric_columns"`
		CategoricalColumns []string `yaml:"categorical_columns"`
	} `yaml:"dataset"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Artifact struct {
		Path  string `yaml:"path"`
		Watch bool   `yaml:"watch"`
	} `yaml:"artifact"`
	Http struct {
		Port    int      `yaml:"port"`
		Timeout Duration `yaml:"timeout"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
	} `yaml:"log"`
	Training struct {
		TestRatio float64 `yaml:"test_ratio"`
		Seed      int64   `yaml:"seed"`
		Forest    struct {
			Trees    int `yaml:"trees"`
			MaxDepth int `yaml:"max_depth"`
			MinLeaf  int `yaml:"min_leaf"`
		} `yaml:"forest"`
		SVR struct {
			Epochs       int     `yaml:"epochs"`
			LearningRate float64 `yaml:"learning_rate"`
			C            float64 `yaml:"c"`
			Epsilon      float64 `yaml:"epsilon"`
		} `yaml:"svr"`
	} `yaml:"training"`
}

// Duration decodes YAML scalars like "30s" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Load reads and decodes a YAML config file.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if config.Dataset.Target == "" {
		return nil, fmt.Errorf("config: dataset.target is required")
	}
	if config.Http.Port == 0 {
		config.Http.Port = 8080
	}
	if config.Http.Timeout == 0 {
		config.Http.Timeout = Duration(30 * time.Second)
	}
	if config.Training.TestRatio <= 0 || config.Training.TestRatio >= 1 {
		config.Training.TestRatio = 0.2
	}
	return &config, nil
}
