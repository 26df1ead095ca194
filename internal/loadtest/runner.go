// Package loadtest drives a running attrition service end to end: it trains a
// model from a synthetic population, scores a second population concurrently
// and checks every answer for internal consistency.
package loadtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/pkg/logger"
)

const directoryPermission = 0750

// ErrVerification is returned when the service answered inconsistently.
var ErrVerification = errors.New("loadtest: verification failed")

// Run executes the complete load test.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	config.applyDefaults()
	stats := &Stats{
		StartTime: time.Now(),
		Tiers:     make(map[model.RiskLevel]int),
	}
	log := logger.Get()

	log.Info(ctx, "starting attrition load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("trainRows", config.TrainRows),
		logger.Int("predictions", config.Predictions),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate training rows and train
	job, err := trainModel(ctx, client, config, stats)
	if err != nil {
		return stats, fmt.Errorf("training failed: %w", err)
	}

	// Step 3: Score a fresh population concurrently
	outcomes, err := runPredictions(ctx, client, config, stats)
	if err != nil {
		return stats, fmt.Errorf("prediction run failed: %w", err)
	}

	// Step 4: Verify answers
	verifyErr := verifyResults(ctx, job, outcomes, stats)

	// Step 5: Save outcomes
	if config.OutputFile != "" {
		if err := saveOutcomes(ctx, config.OutputFile, outcomes); err != nil {
			log.Warn(ctx, "failed to save outcomes", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verifyErr != nil {
		return stats, verifyErr
	}
	log.Info(ctx, "load test completed successfully")
	return stats, nil
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = DefaultJobTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	logger.Get().Info(ctx, "checking service health")
	// The health endpoint serves Prometheus text, so only the status matters.
	if err := client.getText(ctx, "/healthz"); err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveOutcomes writes outcomes to filename as a JSON array.
func saveOutcomes(ctx context.Context, filename string, outcomes []Outcome) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(outcomes, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal outcomes: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "outcomes saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, predictionsPerSecond float64
	if stats.PredictionsSubmitted > 0 {
		successRate = float64(stats.PredictionsSuccessful) / float64(stats.PredictionsSubmitted) * percentageMultiplier
	}
	if stats.Duration > 0 {
		predictionsPerSecond = float64(stats.PredictionsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("rowsGenerated", stats.RowsGenerated),
		logger.String("jobID", stats.JobID),
		logger.String("modelID", stats.ModelID),
		logger.Duration("trainingDuration", stats.TrainingDuration),
		logger.Int("predictionsSubmitted", stats.PredictionsSubmitted),
		logger.Int("predictionsSuccessful", stats.PredictionsSuccessful),
		logger.Int("predictionsFailed", stats.PredictionsFailed),
		logger.Int("lowRisk", stats.Tiers[model.RiskLow]),
		logger.Int("mediumRisk", stats.Tiers[model.RiskMedium]),
		logger.Int("highRisk", stats.Tiers[model.RiskHigh]),
		logger.Int("mismatches", stats.Mismatches),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("predictionsPerSecond", predictionsPerSecond))
}
