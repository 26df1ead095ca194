package jobs

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithMaxSize sets how many jobs are remembered. If maxSize <= 0 the tracker
// is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(t *Tracker) {
		t.maxSize = maxSize
	}
}
