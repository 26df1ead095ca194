// Package service wires training, the model registry and prediction serving
// into the operations exposed by the HTTP API and the admin CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/attrition/internal/adapters/mq/queue"
	"github.com/okian/attrition/internal/adapters/mq/worker"
	"github.com/okian/attrition/internal/domain/jobs"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/domain/training"
	"github.com/okian/attrition/internal/registry"
	"github.com/okian/attrition/internal/serving"
	"github.com/okian/attrition/pkg/logger"
	"github.com/okian/attrition/pkg/metrics"
)

const shutdownTimeout = 10 * time.Second

// TrainOutcome is the result of a synchronous training run.
type TrainOutcome struct {
	Report model.TrainingReport   `json:"report"`
	Model  *model.RegisteredModel `json:"model"`
}

// Service implements the API dependencies for the turnover service.
type Service struct {
	mu sync.RWMutex

	registry *registry.Registry
	server   *serving.Server
	trainer  *training.Trainer
	jobs     *jobs.Tracker
	queue    *queue.InMemoryQueue
	worker   *worker.InMemoryWorker

	trainerOpts      []training.Option
	minRows          int
	queueSize        int
	jobHistorySize   int
	jobTimeout       time.Duration
	activateOnTrain  bool
	autoActivate     bool
	batchConcurrency int
	modelName        string
	now              func() time.Time

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service over an explicit registry instance.
func New(reg *registry.Registry, opts ...Option) *Service {
	s := &Service{
		registry:         reg,
		minRows:          training.DefaultMinRows,
		queueSize:        16,
		jobHistorySize:   1024,
		jobTimeout:       30 * time.Minute,
		activateOnTrain:  true,
		autoActivate:     true,
		batchConcurrency: 8,
		now:              time.Now,
		logger:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	trainerOpts := append([]training.Option{
		training.WithMinRows(s.minRows),
		training.WithLogger(s.logger.Named("trainer")),
	}, s.trainerOpts...)
	s.trainer = training.NewTrainer(trainerOpts...)
	s.server = serving.New(reg,
		serving.WithLogger(s.logger.Named("serving")),
		serving.WithBatchConcurrency(s.batchConcurrency),
	)
	reg.OnActivate(s.server.Invalidate)
	s.jobs = jobs.NewTracker(jobs.WithMaxSize(s.jobHistorySize))
	return s
}

// Start launches the training worker and, if enabled, activates the best
// registered model when none is active.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting attrition service...")

	if s.autoActivate {
		m, err := s.registry.AutoActivateBestAvailable(ctx)
		switch {
		case errors.Is(err, model.ErrNoModelAvailable):
			s.logger.Warn(ctx, "no model available, run training before predicting")
		case err != nil:
			return fmt.Errorf("auto-activate: %w", err)
		default:
			s.logger.Info(ctx, "serving model",
				logger.String("id", m.ID),
				logger.Int("version", m.Version),
				logger.String("family", m.ModelType))
		}
	}

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.worker = worker.NewInMemoryWorker(s.queue, s,
		worker.WithLogger(s.logger),
		worker.WithJobTimeout(s.jobTimeout),
	)
	// The worker outlives the start request.
	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.worker.Run(workerCtx)

	s.started = true
	s.logger.Info(ctx, "attrition service started",
		logger.Int("queue_size", s.queueSize),
		logger.Int("min_rows", s.minRows),
		logger.Bool("activate_on_train", s.activateOnTrain))
	return nil
}

// Stop stops accepting training jobs, lets the running job finish and
// releases the registry.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return s.registry.Close()
	}
	s.logger.Info(ctx, "stopping attrition service...")

	_ = s.queue.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	werr := s.worker.Shutdown(shutdownCtx)
	s.cancel()
	if werr != nil {
		// Cancelling aborts the trainer between candidates; wait for it.
		<-s.worker.Done()
	}

	s.started = false
	err := errors.Join(werr, s.registry.Close())
	s.logger.Info(ctx, "attrition service stopped")
	return err
}

// Predict scores one employee against the active model.
func (s *Service) Predict(ctx context.Context, emp model.Employee) (*model.PredictionResult, error) {
	return s.server.Predict(ctx, emp)
}

// PredictBatch scores several employees; errors are reported per record.
func (s *Service) PredictBatch(ctx context.Context, items []serving.BatchItem) []serving.BatchResult {
	return s.server.PredictBatch(ctx, items)
}

// SubmitTraining queues an offline training run and returns its status.
// job.ID is optional; a resubmitted id is rejected with model.ErrDuplicateJob.
func (s *Service) SubmitTraining(ctx context.Context, job model.TrainingJob) (model.JobStatus, error) {
	s.mu.RLock()
	started, q := s.started, s.queue
	s.mu.RUnlock()
	if !started {
		return model.JobStatus{}, ErrNotStarted
	}
	if len(job.Rows) == 0 {
		return model.JobStatus{}, ErrEmptyDataset
	}
	if len(job.Rows) < s.minRows {
		return model.JobStatus{}, fmt.Errorf("%w: got %d rows, need at least %d",
			model.ErrInsufficientData, len(job.Rows), s.minRows)
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.SubmittedAt = s.now()
	if s.jobs.Submit(ctx, job.ID, job.SubmittedAt) {
		return model.JobStatus{}, fmt.Errorf("%w: %s", model.ErrDuplicateJob, job.ID)
	}

	if err := q.Enqueue(ctx, job); err != nil {
		s.jobs.Forget(ctx, job.ID)
		return model.JobStatus{}, fmt.Errorf("enqueue training job: %w", err)
	}
	s.logger.Info(ctx, "training job queued",
		logger.String("job_id", job.ID),
		logger.Int("rows", len(job.Rows)),
		logger.String("requested_by", job.RequestedBy))

	status, _ := s.jobs.Get(job.ID)
	return status, nil
}

// HandleJob runs a queued training job. It is called by the training worker.
// A panic fails the job before the worker recovers it.
func (s *Service) HandleJob(ctx context.Context, job queue.Job) error {
	defer func() {
		if r := recover(); r != nil {
			s.jobs.Fail(job.ID, fmt.Errorf("training panicked: %v", r), s.now())
			panic(r)
		}
	}()
	s.jobs.Start(job.ID, s.now())
	out, err := s.train(ctx, job.Rows, job.RequestedBy)
	if err != nil {
		s.jobs.Fail(job.ID, err, s.now())
		return err
	}
	s.jobs.Succeed(job.ID, out.Model.ID, &out.Report, s.now())
	return nil
}

// TrainNow trains and registers synchronously. It is meant for the admin CLI.
func (s *Service) TrainNow(ctx context.Context, rows []model.TrainingRow, requestedBy string) (*TrainOutcome, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	return s.train(ctx, rows, requestedBy)
}

func (s *Service) train(ctx context.Context, rows []model.TrainingRow, requestedBy string) (*TrainOutcome, error) {
	started := time.Now()
	res, err := s.trainer.Train(ctx, rows)
	if err != nil {
		metrics.RecordTrainingRun(trainingOutcome(err), time.Since(started).Seconds(), len(rows))
		return nil, err
	}
	for _, c := range res.Report.Candidates {
		if c.Skipped {
			metrics.RecordCandidateSkipped(c.Family)
			continue
		}
		metrics.RecordCandidate(c.Family, c.Accuracy, c.AUCScore)
	}

	m, err := s.registry.Register(ctx, res.Artifact, res.Report, registry.RegisterOptions{
		Name:      s.modelName,
		CreatedBy: requestedBy,
		Activate:  s.activateOnTrain,
	})
	if err != nil {
		metrics.RecordTrainingRun("register_failed", time.Since(started).Seconds(), len(rows))
		return nil, fmt.Errorf("register champion: %w", err)
	}
	metrics.RecordTrainingRun("succeeded", time.Since(started).Seconds(), len(rows))
	return &TrainOutcome{Report: res.Report, Model: m}, nil
}

// Job returns the status of a submitted training job.
func (s *Service) Job(_ context.Context, id string) (model.JobStatus, error) {
	status, ok := s.jobs.Get(id)
	if !ok {
		return model.JobStatus{}, fmt.Errorf("%w: %s", model.ErrJobNotFound, id)
	}
	return status, nil
}

// Activate makes id the served model.
func (s *Service) Activate(ctx context.Context, id string) (*model.RegisteredModel, error) {
	return s.registry.Activate(ctx, id)
}

// ActiveModel returns the active model, auto-activating the best one if
// nothing is active.
func (s *Service) ActiveModel(ctx context.Context) (*model.RegisteredModel, error) {
	return s.registry.Resolve(ctx)
}

// Models lists registered models newest first.
func (s *Service) Models(ctx context.Context, limit int) ([]model.RegisteredModel, error) {
	return s.registry.List(ctx, limit)
}

// Model returns one registered model.
func (s *Service) Model(ctx context.Context, id string) (*model.RegisteredModel, error) {
	return s.registry.Get(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":          s.started,
		"queueSize":        s.queueSize,
		"trackedJobs":      s.jobs.Size(),
		"activateOnTrain":  s.activateOnTrain,
		"trainingMinRows":  s.minRows,
		"batchConcurrency": s.batchConcurrency,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(context.Background())
	}
	return stats
}

func trainingOutcome(err error) string {
	switch {
	case errors.Is(err, model.ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, training.ErrAllCandidatesFailed):
		return "all_candidates_failed"
	case errors.Is(err, training.ErrTrainingInProgress):
		return "in_progress"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "failed"
	}
}
