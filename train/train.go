// Package train runs the offline pipeline: load, clean, encode, fit
// three estimators, select the best by MAPE, and save the artifact.
package train

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"housevalue/artifact"
	"housevalue/config"
	"housevalue/dataset"
	"housevalue/ml"
)

type Config struct {
	DatasetPath  string
	Encoding     string
	Schema       dataset.Schema
	TestRatio    float64
	Trainer      ml.TrainerConfig
	ArtifactPath string
}

// ConfigFrom maps the application config onto a training config.
func ConfigFrom(c *config.Config) Config {
	return Config{
		DatasetPath: c.Dataset.Path,
		Encoding:    c.Dataset.Encoding,
		Schema: dataset.Schema{
			Target:      c.Dataset.Target,
			Numeric:     c.Dataset.NumericColumns,
			Categorical: c.Dataset.CategoricalColumns,
		},
		TestRatio: c.Training.TestRatio,
		Trainer: ml.TrainerConfig{
			Seed:         c.Training.Seed,
			ForestTrees:  c.Training.Forest.Trees,
			ForestDepth:  c.Training.Forest.MaxDepth,
			ForestLeaf:   c.Training.Forest.MinLeaf,
			SVREpochs:    c.Training.SVR.Epochs,
			SVRLearnRate: c.Training.SVR.LearningRate,
			SVRC:         c.Training.SVR.C,
			SVREpsilon:   c.Training.SVR.Epsilon,
		},
		ArtifactPath: c.Artifact.Path,
	}
}

// Result is one completed training run.
type Result struct {
	Bundle    *artifact.Bundle
	Selection *ml.Selection
	Rows      int
	Rejected  []dataset.Issue
}

// Run executes the full pipeline and writes the artifact. The encoder
// is fitted on the whole cleaned dataset before the split, so the
// held-out rows never carry categories the encoder has not seen.
func Run(cfg Config, log *zap.SugaredLogger) (*Result, error) {
	records, err := dataset.Load(cfg.DatasetPath, cfg.Schema, cfg.Encoding)
	if err != nil {
		return nil, err
	}
	log.Infow("dataset loaded", "path", cfg.DatasetPath, "rows", len(records))

	cleaner := dataset.NewCleaner()
	cleaned, issues := cleaner.Clean(records)
	if len(issues) > 0 {
		log.Warnw("rows rejected by cleaning", "rejected", len(issues), "kept", len(cleaned))
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("training: no usable rows after cleaning")
	}

	encoder, err := ml.FitEncoder(cfg.Schema, cleaned)
	if err != nil {
		return nil, err
	}

	features, targets, err := encoder.TransformAll(cleaned)
	if err != nil {
		return nil, err
	}

	trainX, trainY, testX, testY := ml.TrainTestSplit(features, targets, cfg.TestRatio, cfg.Trainer.Seed)
	log.Infow("dataset split", "train", len(trainX), "eval", len(testX), "features", encoder.Width())

	candidates := ml.TrainAll(ml.Candidates(cfg.Trainer), trainX, trainY)
	for _, candidate := range candidates {
		if candidate.Err != nil {
			log.Warnw("estimator failed to train", "estimator", candidate.Model.Name(), "error", candidate.Err)
		}
	}

	selection, err := ml.Select(candidates, testX, testY)
	if err != nil {
		return nil, err
	}
	for name, score := range selection.Scores {
		log.Infow("candidate evaluated", "estimator", name, "mape", score)
	}
	log.Infow("model selected", "estimator", selection.Model.Name(), "mape", selection.MAPE)

	bundle := &artifact.Bundle{
		Model:   selection.Model,
		Encoder: encoder,
		Metadata: artifact.Metadata{
			ModelName:   selection.Model.Name(),
			MAPE:        selection.MAPE,
			Scores:      selection.Scores,
			TrainedRows: len(trainX),
			DatasetPath: cfg.DatasetPath,
			CreatedAt:   time.Now().UTC(),
		},
	}

	if cfg.ArtifactPath != "" {
		if err := artifact.Save(bundle, cfg.ArtifactPath); err != nil {
			return nil, err
		}
		log.Infow("artifact saved", "path", cfg.ArtifactPath)
	}

	return &Result{
		Bundle:    bundle,
		Selection: selection,
		Rows:      len(cleaned),
		Rejected:  issues,
	}, nil
}
