package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB opens the SQLite database and creates the tables.
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS training_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50) NOT NULL,
        mape REAL NOT NULL,
        scores TEXT,
        data_points INTEGER NOT NULL,
        artifact_path TEXT,
        trained_at DATETIME NOT NULL
    );
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        predicted_price REAL NOT NULL,
        inputs TEXT NOT NULL,
        model_name VARCHAR(50),
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    `

	_, err = database.Exec(query)
	return err
}

// Close releases the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

type TrainingRun struct {
	ModelName    string             `json:"model_name"`
	MAPE         float64            `json:"mape"`
	Scores       map[string]float64 `json:"scores"`
	DataPoints   int                `json:"data_points"`
	ArtifactPath string             `json:"artifact_path"`
	TrainedAt    time.Time          `json:"trained_at"`
}

// SaveTrainingRun records one completed training run.
func SaveTrainingRun(run TrainingRun) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	scoresJSON, err := json.Marshal(run.Scores)
	if err != nil {
		return err
	}
	_, err = database.Exec(`
        INSERT INTO training_runs (model_name, mape, scores, data_points, artifact_path, trained_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		run.ModelName, run.MAPE, string(scoresJSON), run.DataPoints, run.ArtifactPath, run.TrainedAt)
	return err
}

// ListTrainingRuns returns the most recent runs, newest first.
func ListTrainingRuns(limit int) ([]TrainingRun, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := database.Query(`
        SELECT model_name, mape, scores, data_points, artifact_path, trained_at
        FROM training_runs
        ORDER BY trained_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]TrainingRun, 0)
	for rows.Next() {
		var run TrainingRun
		var scoresJSON sql.NullString
		if err := rows.Scan(&run.ModelName, &run.MAPE, &scoresJSON, &run.DataPoints, &run.ArtifactPath, &run.TrainedAt); err != nil {
			return nil, err
		}
		if scoresJSON.Valid && scoresJSON.String != "" {
			_ = json.Unmarshal([]byte(scoresJSON.String), &run.Scores)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type Prediction struct {
	PredictedPrice float64           `json:"predicted_price"`
	Inputs         map[string]string `json:"inputs"`
	ModelName      string            `json:"model_name"`
	CreatedAt      time.Time         `json:"created_at"`
}

// SavePrediction appends one served prediction to the history.
func SavePrediction(p Prediction) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	inputsJSON, err := json.Marshal(p.Inputs)
	if err != nil {
		return err
	}
	_, err = database.Exec(`
        INSERT INTO predictions (predicted_price, inputs, model_name, created_at)
        VALUES (?, ?, ?, ?)`,
		p.PredictedPrice, string(inputsJSON), p.ModelName, time.Now().UTC())
	return err
}

// RecentPredictions returns the latest served predictions, newest first.
func RecentPredictions(limit int) ([]Prediction, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT predicted_price, inputs, model_name, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]Prediction, 0)
	for rows.Next() {
		var p Prediction
		var inputsJSON string
		if err := rows.Scan(&p.PredictedPrice, &inputsJSON, &p.ModelName, &p.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(inputsJSON), &p.Inputs)
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}
