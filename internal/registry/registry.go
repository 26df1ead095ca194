// Package registry is the model catalogue: it persists champion artifacts,
// records their metadata and keeps at most one model active.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/attrition/internal/adapters/blobstore"
	"github.com/okian/attrition/internal/adapters/repository"
	"github.com/okian/attrition/internal/domain/artifact"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/pkg/logger"
	"github.com/okian/attrition/pkg/metrics"
)

// ActivationHook is called after every successful activation.
type ActivationHook func(ctx context.Context, active model.RegisteredModel)

// RegisterOptions controls how a champion is catalogued.
type RegisterOptions struct {
	Name      string
	CreatedBy string
	Activate  bool
}

// Registry is safe for concurrent use.
type Registry struct {
	store repository.Store
	blobs blobstore.Store

	logger           logger.Logger
	now              func() time.Time
	newID            func() string
	defaultName      string
	defaultCreatedBy string

	// mu serialises catalogue writes with the auto-activation check.
	mu sync.Mutex

	hooksMu sync.RWMutex
	hooks   []ActivationHook
}

// New creates a registry over a metadata store and an artifact store.
func New(store repository.Store, blobs blobstore.Store, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, ErrStoreNotSet
	}
	if blobs == nil {
		return nil, ErrBlobStoreNotSet
	}
	r := &Registry{
		store:            store,
		blobs:            blobs,
		logger:           logger.Nop(),
		now:              time.Now,
		newID:            uuid.NewString,
		defaultName:      DefaultModelName,
		defaultCreatedBy: DefaultCreatedBy,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// OnActivate registers a hook fired after each activation.
func (r *Registry) OnActivate(hook ActivationHook) {
	if hook == nil {
		return
	}
	r.hooksMu.Lock()
	r.hooks = append(r.hooks, hook)
	r.hooksMu.Unlock()
}

// Register persists art and catalogues it using the chosen candidate of report.
// The new model is inactive unless opts.Activate is set.
func (r *Registry) Register(ctx context.Context, art *artifact.Artifact, report model.TrainingReport, opts RegisterOptions) (*model.RegisteredModel, error) {
	if art == nil {
		return nil, ErrNilArtifact
	}
	if err := art.Validate(); err != nil {
		return nil, err
	}
	champ, ok := report.ChampionReport()
	if !ok {
		return nil, ErrNoChampion
	}
	if champ.Family != art.Family {
		return nil, fmt.Errorf("%w: report %q, artifact %q", ErrFamilyMismatch, champ.Family, art.Family)
	}

	id := r.newID()
	handle, err := r.blobs.Put(ctx, id, art)
	if err != nil {
		return nil, fmt.Errorf("store artifact: %w", err)
	}

	m := &model.RegisteredModel{
		ID:                id,
		Name:              firstNonEmpty(opts.Name, r.defaultName),
		ModelType:         art.Family,
		ArtifactPath:      handle,
		Accuracy:          champ.Accuracy,
		F1Score:           champ.F1Score,
		AUCScore:          champ.AUCScore,
		Hyperparameters:   champ.Hyperparameters,
		FeatureImportance: champ.FeatureImportance,
		SchemaVersion:     art.Schema,
		CreatedBy:         firstNonEmpty(opts.CreatedBy, r.defaultCreatedBy),
		CreatedAt:         r.now().UTC(),
	}

	r.mu.Lock()
	err = r.store.Insert(ctx, m, opts.Activate)
	r.mu.Unlock()
	if err != nil {
		if derr := r.blobs.Delete(ctx, handle); derr != nil {
			r.logger.Warn(ctx, "failed to remove orphaned artifact", logger.String("handle", handle), logger.Error(derr))
		}
		return nil, fmt.Errorf("insert model: %w", err)
	}

	r.logger.Info(ctx, "model registered",
		logger.String("id", m.ID),
		logger.String("name", m.Name),
		logger.Int("version", m.Version),
		logger.String("family", m.ModelType),
		logger.Float64("accuracy", m.Accuracy),
		logger.Bool("active", m.IsActive))
	r.refreshCount(ctx)

	if m.IsActive {
		metrics.RecordActivation(m.Version)
		r.fire(ctx, *m)
	}
	return m, nil
}

// Activate makes id the only active model and returns it.
func (r *Registry) Activate(ctx context.Context, id string) (*model.RegisteredModel, error) {
	r.mu.Lock()
	m, err := r.activateLocked(ctx, id)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	r.fire(ctx, *m)
	return m, nil
}

func (r *Registry) activateLocked(ctx context.Context, id string) (*model.RegisteredModel, error) {
	if err := r.store.Activate(ctx, id); err != nil {
		return nil, err
	}
	m, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.logger.Info(ctx, "model activated",
		logger.String("id", m.ID),
		logger.Int("version", m.Version),
		logger.String("family", m.ModelType))
	metrics.RecordActivation(m.Version)
	return m, nil
}

// GetActive returns the active model, or nil when none is active.
func (r *Registry) GetActive(ctx context.Context) (*model.RegisteredModel, error) {
	return r.store.Active(ctx)
}

// AutoActivateBestAvailable activates the highest-accuracy model when nothing
// is active. If a model is already active it is returned unchanged. An empty
// catalogue yields model.ErrNoModelAvailable.
func (r *Registry) AutoActivateBestAvailable(ctx context.Context) (*model.RegisteredModel, error) {
	r.mu.Lock()
	active, err := r.store.Active(ctx)
	if err != nil {
		r.mu.Unlock()
		metrics.RecordAutoActivation("error")
		return nil, err
	}
	if active != nil {
		r.mu.Unlock()
		metrics.RecordAutoActivation("already_active")
		return active, nil
	}

	best, err := r.store.Best(ctx)
	if err != nil {
		r.mu.Unlock()
		metrics.RecordAutoActivation("error")
		return nil, err
	}
	if best == nil {
		r.mu.Unlock()
		metrics.RecordAutoActivation("empty")
		r.logger.Warn(ctx, "no registered models to activate")
		return nil, model.ErrNoModelAvailable
	}

	m, err := r.activateLocked(ctx, best.ID)
	r.mu.Unlock()
	if err != nil {
		metrics.RecordAutoActivation("error")
		return nil, err
	}
	metrics.RecordAutoActivation("activated")
	r.logger.Info(ctx, "auto-activated best model",
		logger.String("id", m.ID),
		logger.Float64("accuracy", m.Accuracy))
	r.fire(ctx, *m)
	return m, nil
}

// Resolve returns the active model, auto-activating the best one if needed.
func (r *Registry) Resolve(ctx context.Context) (*model.RegisteredModel, error) {
	m, err := r.store.Active(ctx)
	if err != nil {
		return nil, err
	}
	if m != nil {
		return m, nil
	}
	return r.AutoActivateBestAvailable(ctx)
}

// Get returns the model with id.
func (r *Registry) Get(ctx context.Context, id string) (*model.RegisteredModel, error) {
	return r.store.Get(ctx, id)
}

// List returns models newest first.
func (r *Registry) List(ctx context.Context, limit int) ([]model.RegisteredModel, error) {
	return r.store.List(ctx, limit)
}

// LoadArtifact reads and checks the artifact behind m. A missing blob is
// reported as model.ErrArtifactMissing.
func (r *Registry) LoadArtifact(ctx context.Context, m *model.RegisteredModel) (*artifact.Artifact, error) {
	started := time.Now()
	art, err := r.blobs.Get(ctx, m.ArtifactPath)
	if err != nil {
		outcome := "error"
		if errors.Is(err, model.ErrArtifactMissing) {
			outcome = "missing"
		} else if errors.Is(err, blobstore.ErrArtifactCorrupt) {
			outcome = "corrupt"
		}
		metrics.RecordArtifactLoad(outcome, msSince(started))
		r.logger.Error(ctx, "artifact load failed",
			logger.String("id", m.ID),
			logger.String("handle", m.ArtifactPath),
			logger.Error(err))
		return nil, fmt.Errorf("model %s: %w", m.ID, err)
	}
	if err := art.Validate(); err != nil {
		metrics.RecordArtifactLoad("invalid", msSince(started))
		return nil, fmt.Errorf("model %s: %w", m.ID, err)
	}
	if art.Schema != m.SchemaVersion {
		metrics.RecordArtifactLoad("invalid", msSince(started))
		return nil, fmt.Errorf("model %s: %w: catalogue %s, artifact %s",
			m.ID, model.ErrSchemaMismatch, m.SchemaVersion, art.Schema)
	}
	metrics.RecordArtifactLoad("ok", msSince(started))
	return art, nil
}

// Close releases both stores.
func (r *Registry) Close() error {
	return errors.Join(r.store.Close(), r.blobs.Close())
}

func (r *Registry) fire(ctx context.Context, m model.RegisteredModel) {
	r.hooksMu.RLock()
	hooks := append([]ActivationHook(nil), r.hooks...)
	r.hooksMu.RUnlock()
	for _, h := range hooks {
		h(ctx, m)
	}
}

func (r *Registry) refreshCount(ctx context.Context) {
	n, err := r.store.Count(ctx)
	if err != nil {
		r.logger.Debug(ctx, "count models failed", logger.Error(err))
		return
	}
	metrics.UpdateRegisteredModels(n)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
