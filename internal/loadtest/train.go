package loadtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/attrition/internal/dataset"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/pkg/logger"
)

type trainRequest struct {
	JobID       string              `json:"job_id"`
	RequestedBy string              `json:"requested_by"`
	Rows        []model.TrainingRow `json:"rows"`
}

// trainModel generates a labelled population, submits it and waits for the job.
func trainModel(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) (model.JobStatus, error) {
	log := logger.Get()

	rows, err := dataset.Generate(ctx, config.TrainRows, dataset.WithSeed(config.Seed))
	if err != nil {
		return model.JobStatus{}, fmt.Errorf("failed to generate rows: %w", err)
	}
	stats.RowsGenerated = len(rows)
	log.Info(ctx, "generated training rows",
		logger.Int("rows", len(rows)),
		logger.Float64("leftRatio", dataset.LeftRatio(rows)))

	start := time.Now()
	var queued model.JobStatus
	req := trainRequest{JobID: "loadtest-" + uuid.NewString(), RequestedBy: requestedBy, Rows: rows}
	if err := client.postJSON(ctx, "/train", req, &queued); err != nil {
		return model.JobStatus{}, fmt.Errorf("failed to submit training job: %w", err)
	}
	stats.JobID = queued.ID
	log.Info(ctx, "training job queued", logger.String("jobID", queued.ID))

	status, err := waitForJob(ctx, client, queued.ID, config)
	stats.TrainingDuration = time.Since(start)
	if err != nil {
		return status, err
	}
	stats.ModelID = status.ModelID

	fields := []logger.Field{
		logger.String("jobID", status.ID),
		logger.String("modelID", status.ModelID),
		logger.Duration("duration", stats.TrainingDuration),
	}
	if status.Report != nil {
		fields = append(fields, logger.String("champion", status.Report.Champion))
	}
	log.Info(ctx, "training job succeeded", fields...)
	return status, nil
}

// waitForJob polls the job until it reaches a terminal state.
func waitForJob(ctx context.Context, client *HTTPClient, id string, config *Config) (model.JobStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, config.JobTimeout)
	defer cancel()

	ticker := time.NewTicker(config.PollInterval)
	defer ticker.Stop()

	for {
		var status model.JobStatus
		if err := client.getJSON(ctx, "/train/"+id, &status); err != nil {
			return status, fmt.Errorf("failed to poll job %s: %w", id, err)
		}
		switch status.State {
		case model.JobSucceeded:
			return status, nil
		case model.JobFailed:
			return status, fmt.Errorf("job %s failed: %s", id, status.Error)
		}

		select {
		case <-ctx.Done():
			return status, fmt.Errorf("job %s still %s: %w", id, status.State, ctx.Err())
		case <-ticker.C:
		}
	}
}
