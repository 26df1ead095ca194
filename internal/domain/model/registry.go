package model

import "time"

// CandidateReport captures the held-out evaluation of one classifier family
// fitted during a training run.
type CandidateReport struct {
	Family            string             `json:"family"`
	Accuracy          float64            `json:"accuracy"`
	F1Score           float64            `json:"f1_score"`
	AUCScore          float64            `json:"auc_score"`
	Hyperparameters   Hyperparameters    `json:"hyperparameters"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	Chosen            bool               `json:"chosen"`
	Skipped           bool               `json:"skipped,omitempty"`
	SkipReason        string             `json:"skip_reason,omitempty"`
}

// TrainingReport summarizes one training run.
type TrainingReport struct {
	Candidates    []CandidateReport `json:"candidates"`
	Champion      string            `json:"champion"`
	TrainRows     int               `json:"train_rows"`
	HoldoutRows   int               `json:"holdout_rows"`
	HoldoutRatio  float64           `json:"holdout_ratio"`
	Seed          int64             `json:"seed"`
	SchemaVersion string            `json:"schema_version"`
	Duration      time.Duration     `json:"duration_ns"`
}

// ChampionReport returns the chosen candidate.
func (r TrainingReport) ChampionReport() (CandidateReport, bool) {
	for _, c := range r.Candidates {
		if c.Chosen {
			return c, true
		}
	}
	return CandidateReport{}, false
}

// RegisteredModel is the catalogue entry for a persisted model artifact.
type RegisteredModel struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Version           int                `json:"version"`
	ModelType         string             `json:"model_type"`
	ArtifactPath      string             `json:"artifact_path"`
	IsActive          bool               `json:"is_active"`
	Accuracy          float64            `json:"accuracy"`
	F1Score           float64            `json:"f1_score"`
	AUCScore          float64            `json:"auc_score"`
	Hyperparameters   Hyperparameters    `json:"hyperparameters,omitempty"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
	SchemaVersion     string             `json:"schema_version"`
	CreatedBy         string             `json:"created_by"`
	CreatedAt         time.Time          `json:"created_at"`
}
