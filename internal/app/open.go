package service

import (
	"context"
	"fmt"

	"github.com/okian/attrition/internal/adapters/blobstore"
	"github.com/okian/attrition/internal/adapters/repository"
	"github.com/okian/attrition/internal/config"
	"github.com/okian/attrition/internal/domain/training"
	"github.com/okian/attrition/internal/registry"
	"github.com/okian/attrition/pkg/logger"
)

// Open builds the registry stores described by cfg and returns a Service
// over them. The caller owns the service and must Stop it.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Service, error) {
	if log == nil {
		log = logger.Nop()
	}

	store, err := repository.OpenStore(ctx, cfg.RegistryDriver, cfg.RegistryDSN,
		repository.WithBusyTimeout(cfg.RegistryBusyTimeout),
		repository.WithConnMaxLifetime(cfg.RegistryConnMaxLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("open registry store: %w", err)
	}
	blobs, err := blobstore.Open(cfg.ArtifactBackend, cfg.ArtifactDir, log.Named("artifacts"))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open artifact store: %w", err)
	}
	reg, err := registry.New(store, blobs,
		registry.WithLogger(log.Named("registry")),
		registry.WithDefaultName(cfg.ModelName),
		registry.WithDefaultCreatedBy(cfg.CreatedBy),
	)
	if err != nil {
		_ = store.Close()
		_ = blobs.Close()
		return nil, err
	}

	log.Info(ctx, "registry opened",
		logger.String("driver", cfg.RegistryDriver),
		logger.String("artifact_backend", cfg.ArtifactBackend))

	base := []Option{
		WithLogger(log),
		WithMinRows(cfg.TrainingMinRows),
		WithTrainerOptions(
			training.WithHoldoutRatio(cfg.TrainingHoldoutRatio),
			training.WithSeed(cfg.TrainingSeed),
		),
		WithQueueSize(cfg.TrainingQueueSize),
		WithJobTimeout(cfg.TrainingJobTimeout),
		WithJobHistorySize(cfg.JobHistorySize),
		WithActivateOnTrain(cfg.ActivateOnTrain),
		WithAutoActivateOnStart(cfg.AutoActivateOnStart),
		WithBatchConcurrency(cfg.BatchConcurrency),
		WithModelName(cfg.ModelName),
	}
	return New(reg, append(base, opts...)...), nil
}
