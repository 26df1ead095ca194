package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/attrition/internal/adapters/mq/queue"
	worker "github.com/okian/attrition/internal/adapters/mq/worker"
	model "github.com/okian/attrition/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

type recordingHandler struct {
	mu      sync.Mutex
	handled []string
	errs    map[string]error
	panics  map[string]bool
	calls   chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		errs:   make(map[string]error),
		panics: make(map[string]bool),
		calls:  make(chan string, 10),
	}
}

func (h *recordingHandler) HandleJob(_ context.Context, job queue.Job) error {
	defer func() { h.calls <- job.ID }()
	h.mu.Lock()
	err, shouldPanic := h.errs[job.ID], h.panics[job.ID]
	if err == nil && !shouldPanic {
		h.handled = append(h.handled, job.ID)
	}
	h.mu.Unlock()
	if shouldPanic {
		panic("boom")
	}
	return err
}

func (h *recordingHandler) wait(t *testing.T) string {
	t.Helper()
	select {
	case id := <-h.calls:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
		return ""
	}
}

func (h *recordingHandler) snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running worker", t, func() {
		q := newMockQueue()
		h := newRecordingHandler()
		w := worker.NewInMemoryWorker(q, h, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs are queued", func() {
			q.jobs <- model.TrainingJob{ID: "job-1", SubmittedAt: time.Now()}
			q.jobs <- model.TrainingJob{ID: "job-2", SubmittedAt: time.Now()}
			h.wait(t)
			h.wait(t)

			convey.Convey("Then they are handled in order", func() {
				convey.So(h.snapshot(), convey.ShouldResemble, []string{"job-1", "job-2"})
			})
		})

		convey.Convey("When a job fails", func() {
			h.errs["job-bad"] = errors.New("training failed")
			q.jobs <- model.TrainingJob{ID: "job-bad"}
			q.jobs <- model.TrainingJob{ID: "job-ok"}
			h.wait(t)
			h.wait(t)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(h.snapshot(), convey.ShouldResemble, []string{"job-ok"})
			})
		})

		convey.Convey("When a job panics", func() {
			h.panics["job-panic"] = true
			q.jobs <- model.TrainingJob{ID: "job-panic"}
			q.jobs <- model.TrainingJob{ID: "job-after"}
			h.wait(t)
			h.wait(t)

			convey.Convey("Then the panic is contained", func() {
				convey.So(h.snapshot(), convey.ShouldResemble, []string{"job-after"})
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a worker whose context is cancelled", t, func() {
		w := worker.NewInMemoryWorker(newMockQueue(), newRecordingHandler())
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		cancel()

		convey.Convey("Then Run returns", func() {
			select {
			case <-w.Done():
			case <-time.After(time.Second):
				t.Fatal("worker did not stop")
			}
		})
	})

	convey.Convey("Given a worker with a job timeout", t, func() {
		q := newMockQueue()
		deadlines := make(chan bool, 1)
		w := worker.NewInMemoryWorker(q, worker.HandlerFunc(func(ctx context.Context, _ queue.Job) error {
			_, ok := ctx.Deadline()
			deadlines <- ok
			return nil
		}), worker.WithJobTimeout(time.Minute))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		q.jobs <- model.TrainingJob{ID: "job-1"}

		convey.Convey("Then the handler sees a deadline", func() {
			convey.So(<-deadlines, convey.ShouldBeTrue)
		})
	})
}
