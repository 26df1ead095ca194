// Package serving scores employees against the active model.
package serving

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/attrition/internal/domain/artifact"
	"github.com/okian/attrition/internal/domain/classifier"
	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/domain/recommend"
	"github.com/okian/attrition/pkg/logger"
	"github.com/okian/attrition/pkg/metrics"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ModelSource resolves the active model and loads its artifact.
type ModelSource interface {
	Resolve(ctx context.Context) (*model.RegisteredModel, error)
	LoadArtifact(ctx context.Context, m *model.RegisteredModel) (*artifact.Artifact, error)
}

// BatchItem is one record of a batch request.
type BatchItem struct {
	EmployeeID string         `json:"employee_id"`
	Employee   model.Employee `json:"employee"`
}

// BatchResult carries either a result or an error for one batch record.
type BatchResult struct {
	EmployeeID string                  `json:"employee_id"`
	Result     *model.PredictionResult `json:"result,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Err        error                   `json:"-"`
}

// loaded is an immutable, ready-to-score model.
type loaded struct {
	meta    model.RegisteredModel
	encoder *features.Encoder
	clf     classifier.Classifier
}

// Server is safe for concurrent use.
type Server struct {
	source           ModelSource
	logger           logger.Logger
	batchConcurrency int

	mu      sync.RWMutex
	current *loaded
	byID    map[string]*loaded
	gen     uint64

	loads singleflight.Group
}

// New creates a server over source. Wire Invalidate as an activation hook.
func New(source ModelSource, opts ...Option) *Server {
	s := &Server{
		source:           source,
		logger:           logger.Nop(),
		batchConcurrency: defaultBatchConcurrency(),
		byID:             make(map[string]*loaded),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops every cached model. Its signature matches
// registry.ActivationHook.
func (s *Server) Invalidate(ctx context.Context, activated model.RegisteredModel) {
	s.mu.Lock()
	s.current = nil
	s.byID = make(map[string]*loaded)
	s.gen++
	s.mu.Unlock()
	s.logger.Debug(ctx, "model cache invalidated", logger.String("activated", activated.ID))
}

// Predict scores one employee. It returns a complete result or an error.
func (s *Server) Predict(ctx context.Context, emp model.Employee) (*model.PredictionResult, error) {
	started := time.Now()
	if err := features.Validate(emp); err != nil {
		metrics.RecordPredictionError("validation")
		return nil, err
	}

	m, err := s.active(ctx)
	if err != nil {
		metrics.RecordPredictionError(errorReason(err))
		return nil, err
	}

	vec, warnings, err := m.encoder.Encode(emp)
	if err != nil {
		metrics.RecordPredictionError("validation")
		return nil, err
	}
	if err := m.encoder.Check(vec); err != nil {
		metrics.RecordPredictionError("schema")
		return nil, err
	}

	p := m.clf.PredictProba(vec.Values)
	if math.IsNaN(p) {
		metrics.RecordPredictionError("inference")
		return nil, fmt.Errorf("%w: model %s", ErrUnscorable, m.meta.ID)
	}
	p = min(max(p, 0), 1)
	tier := model.RiskLevelFor(p)

	result := &model.PredictionResult{
		Probability: p,
		Prediction:  model.Classify(p),
		RiskLevel:   tier,
		Recommendations: recommend.Recommend(recommend.Input{
			Features:    vec.Base(),
			Probability: p,
			Risk:        tier,
		}),
		ModelID:      m.meta.ID,
		ModelVersion: m.meta.Version,
	}
	for _, w := range warnings {
		result.Warnings = append(result.Warnings, w.String())
		metrics.RecordPredictionWarning(w.Field)
		s.logger.Debug(ctx, "input recovered during encoding",
			logger.String("field", w.Field),
			logger.String("value", w.Value),
			logger.String("reason", w.Reason))
	}

	metrics.RecordPrediction(string(tier), p, float64(time.Since(started).Microseconds())/1000)
	return result, nil
}

// PredictBatch scores items independently; one bad record does not fail the
// others. Results keep the input order.
func (s *Server) PredictBatch(ctx context.Context, items []BatchItem) []BatchResult {
	results := make([]BatchResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchConcurrency)
	for i, item := range items {
		results[i].EmployeeID = item.EmployeeID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				results[i].Error = err.Error()
				return nil
			}
			res, err := s.Predict(gctx, item.Employee)
			if err != nil {
				results[i].Err = err
				results[i].Error = err.Error()
				return nil
			}
			results[i].Result = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ActiveModel returns the metadata of the model currently served.
func (s *Server) ActiveModel(ctx context.Context) (*model.RegisteredModel, error) {
	m, err := s.active(ctx)
	if err != nil {
		return nil, err
	}
	meta := m.meta
	return &meta, nil
}

func (s *Server) active(ctx context.Context) (*loaded, error) {
	s.mu.RLock()
	cur, gen := s.current, s.gen
	s.mu.RUnlock()
	if cur != nil {
		metrics.RecordCacheHit()
		return cur, nil
	}
	metrics.RecordCacheMiss()

	// The shared load must not inherit one caller's cancellation; each
	// caller still stops waiting when its own context ends.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.loads.DoChan("active", func() (any, error) {
		meta, err := s.source.Resolve(loadCtx)
		if err != nil {
			return nil, err
		}
		l, err := s.load(loadCtx, meta)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.gen == gen {
			s.current = l
		}
		s.mu.Unlock()
		return l, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*loaded), nil
	}
}

func (s *Server) load(ctx context.Context, meta *model.RegisteredModel) (*loaded, error) {
	s.mu.RLock()
	l, ok := s.byID[meta.ID]
	s.mu.RUnlock()
	if ok {
		return l, nil
	}

	art, err := s.source.LoadArtifact(ctx, meta)
	if err != nil {
		return nil, err
	}
	clf, err := art.Classifier()
	if err != nil {
		return nil, fmt.Errorf("restore model %s: %w", meta.ID, err)
	}
	l = &loaded{meta: *meta, encoder: art.Encoder(), clf: clf}

	s.mu.Lock()
	s.byID[meta.ID] = l
	s.mu.Unlock()
	s.logger.Info(ctx, "model loaded",
		logger.String("id", meta.ID),
		logger.Int("version", meta.Version),
		logger.String("family", meta.ModelType),
		logger.String("schema", meta.SchemaVersion))
	return l, nil
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, model.ErrNoModelAvailable):
		return "no_model"
	case errors.Is(err, model.ErrArtifactMissing):
		return "artifact_missing"
	case errors.Is(err, model.ErrSchemaMismatch):
		return "schema"
	default:
		return "internal"
	}
}
