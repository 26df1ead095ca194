package training

import (
	"time"

	"github.com/okian/attrition/pkg/logger"
)

// Default training configuration.
const (
	DefaultMinRows      = 50
	DefaultHoldoutRatio = 0.2
	DefaultSeed         = 42
)

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithMinRows sets the minimum number of labelled rows a run needs.
func WithMinRows(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.minRows = n
		}
	}
}

// WithHoldoutRatio sets the held-out fraction, in (0,1).
func WithHoldoutRatio(r float64) Option {
	return func(t *Trainer) {
		if r > 0 && r < 1 {
			t.holdoutRatio = r
		}
	}
}

// WithSeed sets the seed for the split and for randomized families.
func WithSeed(seed int64) Option {
	return func(t *Trainer) {
		t.seed = seed
	}
}

// WithRoster replaces the candidate roster. Order is the tie-break order.
func WithRoster(roster ...Candidate) Option {
	return func(t *Trainer) {
		if len(roster) > 0 {
			t.roster = roster
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithClock overrides the time source stamped into artifacts.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		if now != nil {
			t.now = now
		}
	}
}
