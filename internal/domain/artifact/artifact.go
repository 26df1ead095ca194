// Package artifact defines the persisted form of a trained model: the fitted
// classifier together with the encoder layout it was trained against.
package artifact

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/attrition/internal/domain/classifier"
	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/domain/model"
)

// ErrInvalid reports an artifact whose contents disagree with each other.
var ErrInvalid = errors.New("invalid model artifact")

// Artifact is immutable once written.
type Artifact struct {
	Family       string
	Schema       string
	Vocabulary   []string
	FeatureNames []string
	Model        classifier.Snapshot
	TrainedAt    time.Time
}

// New captures a fitted classifier and its encoder.
func New(enc *features.Encoder, c classifier.Classifier, trainedAt time.Time) (*Artifact, error) {
	snap, err := classifier.SnapshotOf(c)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Family:       c.Family(),
		Schema:       enc.Schema(),
		Vocabulary:   enc.Vocabulary(),
		FeatureNames: enc.FeatureNames(),
		Model:        snap,
		TrainedAt:    trainedAt.UTC(),
	}, nil
}

// Encoder rebuilds the training-time encoder.
func (a *Artifact) Encoder() *features.Encoder {
	return features.NewEncoder(a.Vocabulary)
}

// Classifier restores the fitted model.
func (a *Artifact) Classifier() (classifier.Classifier, error) {
	return a.Model.Classifier()
}

// Validate checks that the stored vocabulary reproduces the stored schema and
// that the snapshot matches the declared family.
func (a *Artifact) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil", ErrInvalid)
	}
	if a.Model.Family != a.Family {
		return fmt.Errorf("%w: family %q, snapshot %q", ErrInvalid, a.Family, a.Model.Family)
	}
	enc := a.Encoder()
	if enc.Schema() != a.Schema {
		return fmt.Errorf("%w: %w: stored %s, rebuilt %s", ErrInvalid, model.ErrSchemaMismatch, a.Schema, enc.Schema())
	}
	if _, err := a.Classifier(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
