package registry

import (
	"time"

	"github.com/okian/attrition/pkg/logger"
)

// Default catalogue values.
const (
	DefaultModelName = "turnover"
	DefaultCreatedBy = "system"
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock overrides the time source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides model id generation.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// WithDefaultName sets the catalogue name used when RegisterOptions omits one.
func WithDefaultName(name string) Option {
	return func(r *Registry) {
		if name != "" {
			r.defaultName = name
		}
	}
}

// WithDefaultCreatedBy sets the author recorded when RegisterOptions omits one.
func WithDefaultCreatedBy(who string) Option {
	return func(r *Registry) {
		if who != "" {
			r.defaultCreatedBy = who
		}
	}
}
