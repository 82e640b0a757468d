// Command train runs one offline training job: load the dataset, fit
// the candidate models, select the best by MAPE, and write the
// artifact the server picks up.
package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"housevalue/config"
	"housevalue/db"
	"housevalue/logging"
	"housevalue/train"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	datasetPath := flag.String("dataset", "", "override the dataset path from the config")
	skipDB := flag.Bool("no-db", false, "do not record the run in the database")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		zap.NewExample().Sugar().Fatalw("failed to load config", "path", *configPath, "error", err)
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level})
	defer logger.Sync()
	log := logger.Sugar()

	trainCfg := train.ConfigFrom(cfg)
	if *datasetPath != "" {
		trainCfg.DatasetPath = *datasetPath
	}

	result, err := train.Run(trainCfg, log)
	if err != nil {
		log.Errorw("training failed", "error", err)
		os.Exit(1)
	}

	if !*skipDB {
		if err := db.InitDB(cfg.Database.Path); err != nil {
			log.Warnw("database unavailable, run not recorded", "error", err)
		} else {
			defer db.Close()
			if err := db.SaveTrainingRun(db.TrainingRun{
				ModelName:    result.Bundle.Metadata.ModelName,
				MAPE:         result.Bundle.Metadata.MAPE,
				Scores:       result.Bundle.Metadata.Scores,
				DataPoints:   result.Rows,
				ArtifactPath: trainCfg.ArtifactPath,
				TrainedAt:    result.Bundle.Metadata.CreatedAt,
			}); err != nil {
				log.Warnw("failed to record training run", "error", err)
			}
		}
	}

	log.Infow("training complete",
		"model", result.Bundle.Metadata.ModelName,
		"mape", result.Bundle.Metadata.MAPE,
		"rows", result.Rows,
		"rejected", len(result.Rejected),
		"artifact", trainCfg.ArtifactPath,
	)
}
