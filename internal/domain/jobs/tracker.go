// Package jobs tracks the status of training jobs and rejects duplicate ids.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/okian/attrition/internal/domain/model"
)

const defaultMaxSize = 1024

// Tracker records job statuses. It is safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*model.JobStatus
	order   []string // submission order, oldest first
	maxSize int
}

// NewTracker creates a tracker with configuration options.
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(t)
	}
	t.entries = make(map[string]*model.JobStatus)
	return t
}

// Submit atomically records id as queued. It returns true if id was already
// tracked, in which case nothing changes.
func (t *Tracker) Submit(_ context.Context, id string, at time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[id]; exists {
		return true
	}
	if t.maxSize > 0 && len(t.entries) >= t.maxSize {
		t.evict()
	}
	t.entries[id] = &model.JobStatus{ID: id, State: model.JobQueued, SubmittedAt: at}
	t.order = append(t.order, id)
	return false
}

// Forget removes id so it can be submitted again. It is used when a recorded
// job could not be enqueued.
func (t *Tracker) Forget(_ context.Context, id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[id]; !exists {
		return
	}
	delete(t.entries, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Start marks id as running.
func (t *Tracker) Start(id string, at time.Time) {
	t.update(id, func(s *model.JobStatus) {
		s.State = model.JobRunning
		s.StartedAt = at
	})
}

// Succeed marks id as finished with the registered model.
func (t *Tracker) Succeed(id, modelID string, report *model.TrainingReport, at time.Time) {
	t.update(id, func(s *model.JobStatus) {
		s.State = model.JobSucceeded
		s.ModelID = modelID
		s.Report = report
		s.FinishedAt = at
	})
}

// Fail marks id as failed.
func (t *Tracker) Fail(id string, err error, at time.Time) {
	t.update(id, func(s *model.JobStatus) {
		s.State = model.JobFailed
		if err != nil {
			s.Error = err.Error()
		}
		s.FinishedAt = at
	})
}

// Get returns a copy of the status of id.
func (t *Tracker) Get(id string) (model.JobStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.entries[id]
	if !ok {
		return model.JobStatus{}, false
	}
	return *s, true
}

// Size returns the number of tracked jobs.
func (t *Tracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Tracker) update(id string, fn func(*model.JobStatus)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.entries[id]; ok {
		fn(s)
	}
}

// evict drops the oldest finished job, or the oldest job if none finished.
// Must be called with t.mu held.
func (t *Tracker) evict() {
	if len(t.order) == 0 {
		return
	}
	victim := 0
	for i, id := range t.order {
		if s := t.entries[id]; s.State == model.JobSucceeded || s.State == model.JobFailed {
			victim = i
			break
		}
	}
	delete(t.entries, t.order[victim])
	t.order = append(t.order[:victim], t.order[victim+1:]...)
}
