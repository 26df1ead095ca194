package model

import "time"

// JobState is the lifecycle state of an offline training job.
type JobState string

// Training job states.
const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// TrainingJob is a unit of work for the training worker.
type TrainingJob struct {
	ID          string
	Rows        []TrainingRow
	RequestedBy string
	SubmittedAt time.Time
}

// JobStatus reports the progress of a training job.
type JobStatus struct {
	ID          string          `json:"id"`
	State       JobState        `json:"state"`
	Error       string          `json:"error,omitempty"`
	ModelID     string          `json:"model_id,omitempty"`
	Report      *TrainingReport `json:"report,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
	StartedAt   time.Time       `json:"started_at,omitzero"`
	FinishedAt  time.Time       `json:"finished_at,omitzero"`
}
