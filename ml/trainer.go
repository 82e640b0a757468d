package ml

// TrainerConfig carries the hyperparameters of the non-linear
// estimators; the zero value falls back to each model's defaults.
type TrainerConfig struct {
	Seed         int64
	ForestTrees  int
	ForestDepth  int
	ForestLeaf   int
	SVREpochs    int
	SVRLearnRate float64
	SVRC         float64
	SVREpsilon   float64
}

// Candidate is one estimator after a training attempt.
type Candidate struct {
	Model Model
	Err   error
}

// Candidates returns fresh untrained estimators in selection priority
// order: linear first, then forest, then SVR. Ties on equal MAPE are
// broken by this order.
func Candidates(cfg TrainerConfig) []Model {
	return []Model{
		&LinearRegression{},
		&RandomForest{
			NumTrees: cfg.ForestTrees,
			MaxDepth: cfg.ForestDepth,
			MinLeaf:  cfg.ForestLeaf,
			Seed:     cfg.Seed,
		},
		&SVR{
			Epochs:       cfg.SVREpochs,
			LearningRate: cfg.SVRLearnRate,
			C:            cfg.SVRC,
			Epsilon:      cfg.SVREpsilon,
			Seed:         cfg.Seed,
		},
	}
}

// TrainAll fits every model on the same training split. Each fit is
// independent; a failure is recorded against its estimator and the
// remaining models still train.
func TrainAll(models []Model, features [][]float64, targets []float64) []Candidate {
	candidates := make([]Candidate, 0, len(models))
	for _, model := range models {
		candidate := Candidate{Model: model}
		if err := model.Fit(features, targets); err != nil {
			candidate.Err = &TrainingError{Estimator: model.Name(), Err: err}
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}
