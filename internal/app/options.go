package service

import (
	"time"

	"github.com/okian/attrition/internal/domain/training"
	"github.com/okian/attrition/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTrainerOptions forwards options to the model trainer.
func WithTrainerOptions(opts ...training.Option) Option {
	return func(s *Service) {
		s.trainerOpts = append(s.trainerOpts, opts...)
	}
}

// WithMinRows sets the smallest dataset accepted for training.
func WithMinRows(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minRows = n
		}
	}
}

// WithQueueSize sets the maximum number of pending training jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithJobHistorySize sets how many job statuses are remembered.
func WithJobHistorySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.jobHistorySize = size
		}
	}
}

// WithJobTimeout bounds a single queued training run.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.jobTimeout = d
		}
	}
}

// WithActivateOnTrain controls whether fresh champions are activated.
func WithActivateOnTrain(activate bool) Option {
	return func(s *Service) {
		s.activateOnTrain = activate
	}
}

// WithAutoActivateOnStart controls the startup auto-activation.
func WithAutoActivateOnStart(enabled bool) Option {
	return func(s *Service) {
		s.autoActivate = enabled
	}
}

// WithBatchConcurrency bounds parallel scoring within one batch.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithModelName sets the catalogue name used for new champions.
func WithModelName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.modelName = name
		}
	}
}

// WithClock overrides the time source for job timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
