package api

import "github.com/okian/attrition/pkg/logger"

// Default request limits.
const (
	DefaultMaxBatchSize   = 1000
	DefaultMaxModelsLimit = 100
	DefaultMaxBodyBytes   = 32 << 20
)

type settings struct {
	maxBatchSize   int
	maxModelsLimit int
	maxBodyBytes   int64
	logger         logger.Logger
}

func defaultSettings() settings {
	return settings{
		maxBatchSize:   DefaultMaxBatchSize,
		maxModelsLimit: DefaultMaxModelsLimit,
		maxBodyBytes:   DefaultMaxBodyBytes,
		logger:         logger.Nop(),
	}
}

// Option applies a configuration option to the Server.
type Option func(*settings)

// WithMaxBatchSize caps the number of records in POST /predict/batch.
func WithMaxBatchSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithMaxModelsLimit caps the limit query parameter of GET /models.
func WithMaxModelsLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxModelsLimit = n
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
