// Package config defines service configuration structures and loading hooks.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogJSON switches the log handler to JSON output.
	LogJSON bool `koanf:"log_json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// RegistryDriver selects the metadata database: sqlite, mysql or memory.
	RegistryDriver string `koanf:"registry_driver" validate:"oneof=sqlite mysql memory"`

	// RegistryDSN is a file path for sqlite or a go-sql-driver DSN for mysql.
	RegistryDSN string `koanf:"registry_dsn" validate:"required"`

	// RegistryBusyTimeout is how long sqlite waits on a locked database.
	RegistryBusyTimeout time.Duration `koanf:"registry_busy_timeout" validate:"gt=0"`

	// RegistryConnMaxLifetime recycles pooled mysql connections.
	RegistryConnMaxLifetime time.Duration `koanf:"registry_conn_max_lifetime" validate:"gt=0"`

	// ArtifactBackend selects where model artifacts live: file or badger.
	ArtifactBackend string `koanf:"artifact_backend" validate:"oneof=file badger"`

	// ArtifactDir roots the artifact store. An empty badger dir is in-memory.
	ArtifactDir string `koanf:"artifact_dir"`

	// ModelName is the catalogue name new champions are registered under.
	ModelName string `koanf:"model_name" validate:"required"`

	// CreatedBy is recorded on models registered by this process.
	CreatedBy string `koanf:"created_by" validate:"required"`

	// TrainingMinRows is the smallest dataset a training run accepts.
	TrainingMinRows int `koanf:"training_min_rows" validate:"gte=2"`

	// TrainingHoldoutRatio is the share of rows held out for evaluation.
	TrainingHoldoutRatio float64 `koanf:"training_holdout_ratio" validate:"gt=0,lt=1"`

	// TrainingSeed fixes the split and model randomness.
	TrainingSeed int64 `koanf:"training_seed"`

	// TrainingQueueSize bounds pending training jobs.
	TrainingQueueSize int `koanf:"training_queue_size" validate:"gte=1"`

	// TrainingJobTimeout bounds a single queued training run. Zero disables it.
	TrainingJobTimeout time.Duration `koanf:"training_job_timeout" validate:"gte=0"`

	// ActivateOnTrain activates each freshly trained champion.
	ActivateOnTrain bool `koanf:"activate_on_train"`

	// JobHistorySize caps how many training job statuses are remembered.
	JobHistorySize int `koanf:"job_history_size" validate:"gte=1"`

	// AutoActivateOnStart activates the best model at startup if none is active.
	AutoActivateOnStart bool `koanf:"auto_activate_on_start"`

	// MaxBatchSize caps POST /predict/batch.
	MaxBatchSize int `koanf:"max_batch_size" validate:"gte=1"`

	// BatchConcurrency bounds parallel scoring within one batch.
	BatchConcurrency int `koanf:"batch_concurrency" validate:"gte=1"`

	// MaxModelsLimit caps GET /models?limit.
	MaxModelsLimit int `koanf:"max_models_limit" validate:"gte=1"`

	// MaxBodyBytes caps request bodies; training uploads are the large ones.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"gte=1024"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":9080",
		RegistryDriver:          "sqlite",
		RegistryDSN:             "data/registry.db",
		RegistryBusyTimeout:     5 * time.Second,
		RegistryConnMaxLifetime: 5 * time.Minute,
		ArtifactBackend:         "file",
		ArtifactDir:             "data/artifacts",
		ModelName:               "turnover",
		CreatedBy:               "attrition",
		TrainingMinRows:         50,
		TrainingHoldoutRatio:    0.2,
		TrainingSeed:            42,
		TrainingQueueSize:       16,
		TrainingJobTimeout:      30 * time.Minute,
		ActivateOnTrain:         true,
		JobHistorySize:          1024,
		AutoActivateOnStart:     true,
		MaxBatchSize:            1000,
		BatchConcurrency:        8,
		MaxModelsLimit:          100,
		MaxBodyBytes:            32 << 20,
	}
}
