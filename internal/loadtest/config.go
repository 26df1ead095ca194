package loadtest

import (
	"time"

	"github.com/okian/attrition/internal/domain/model"
)

// Config holds configuration for a load test run.
type Config struct {
	BaseURL      string        // Base URL of the service
	TrainRows    int           // Synthetic rows to train on
	Predictions  int           // Number of prediction requests
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	JobTimeout   time.Duration // How long to wait for the training job
	PollInterval time.Duration // Delay between job status polls
	Seed         uint64        // Synthetic population seed
	OutputFile   string        // Optional JSON file for prediction results
	Verbose      bool          // Log every failed request
}

// Stats holds run statistics.
type Stats struct {
	RowsGenerated         int
	JobID                 string
	ModelID               string
	TrainingDuration      time.Duration
	PredictionsSubmitted  int
	PredictionsSuccessful int
	PredictionsFailed     int
	Tiers                 map[model.RiskLevel]int
	Mismatches            int
	StartTime             time.Time
	EndTime               time.Time
	Duration              time.Duration
}

// Outcome pairs a scored employee with the service's answer.
type Outcome struct {
	Employee model.Employee          `json:"employee"`
	Result   *model.PredictionResult `json:"result,omitempty"`
	Error    string                  `json:"error,omitempty"`
}
