// Package classifier implements the binary classifier families fitted by the
// trainer: a regularized logistic regression, a bagged random forest and a
// logloss gradient-boosted tree ensemble. All fitting is deterministic for a
// given seed and every fitted model is a plain struct that gob can encode.
package classifier

import (
	"fmt"
	"math"

	"github.com/okian/attrition/internal/domain/model"
)

// Classifier family names, in roster order.
const (
	FamilyLogistic = "logistic_regression"
	FamilyForest   = "random_forest"
	FamilyBoosting = "gradient_boosting"
)

// Families lists every supported family in the order candidates are fitted.
func Families() []string {
	return []string{FamilyLogistic, FamilyForest, FamilyBoosting}
}

// Classifier is a fitted (or fittable) binary model over dense vectors.
type Classifier interface {
	Family() string
	Fit(X [][]float64, y []bool) error
	// PredictProba returns P(left). NaN means the vector cannot be scored.
	PredictProba(x []float64) float64
	Hyperparameters() model.Hyperparameters
	// FeatureImportance returns one non-negative weight per feature summing
	// to 1, or nil when the family has no native importance.
	FeatureImportance() []float64
}

// New returns an unfitted classifier of the given family with default
// hyperparameters.
func New(family string, seed int64) (Classifier, error) {
	switch family {
	case FamilyLogistic:
		return NewLogisticRegression(), nil
	case FamilyForest:
		return NewRandomForest(seed), nil
	case FamilyBoosting:
		return NewGradientBoosting(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
}

// Snapshot is the serializable form of a fitted classifier. Exactly one of
// the family fields is set.
type Snapshot struct {
	Family   string
	Logistic *LogisticRegression
	Forest   *RandomForest
	Boosting *GradientBoosting
}

// SnapshotOf captures a fitted classifier.
func SnapshotOf(c Classifier) (Snapshot, error) {
	switch m := c.(type) {
	case *LogisticRegression:
		return Snapshot{Family: FamilyLogistic, Logistic: m}, nil
	case *RandomForest:
		return Snapshot{Family: FamilyForest, Forest: m}, nil
	case *GradientBoosting:
		return Snapshot{Family: FamilyBoosting, Boosting: m}, nil
	default:
		return Snapshot{}, fmt.Errorf("%w: %T", ErrUnknownFamily, c)
	}
}

// Classifier restores the captured model.
func (s Snapshot) Classifier() (Classifier, error) {
	var c Classifier
	switch s.Family {
	case FamilyLogistic:
		if s.Logistic != nil {
			c = s.Logistic
		}
	case FamilyForest:
		if s.Forest != nil {
			c = s.Forest
		}
	case FamilyBoosting:
		if s.Boosting != nil {
			c = s.Boosting
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, s.Family)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptySnapshot, s.Family)
	}
	return c, nil
}

func checkShape(X [][]float64, y []bool) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmptyTraining
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows, %d labels", ErrShape, len(X), len(y))
	}
	d := len(X[0])
	if d == 0 {
		return 0, fmt.Errorf("%w: zero-width rows", ErrShape)
	}
	for i, row := range X {
		if len(row) != d {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), d)
		}
	}
	return d, nil
}

func allFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func labelValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// normalize scales weights to sum to 1. All-zero weights yield nil.
func normalize(weights []float64) []float64 {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 || !allFinite(sum) {
		return nil
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / sum
	}
	return out
}
