package classifier

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/okian/attrition/internal/domain/model"
)

// RandomForest bags depth-limited regression trees on the 0/1 label; the
// forest probability is the mean leaf frequency.
type RandomForest struct {
	Estimators int
	MaxDepth   int
	MinLeaf    int
	Seed       int64

	Trees      []Tree
	Importance []float64
	Width      int
}

// NewRandomForest returns a forest with default hyperparameters.
func NewRandomForest(seed int64) *RandomForest {
	return &RandomForest{Estimators: 50, MaxDepth: 8, MinLeaf: 2, Seed: seed}
}

func (m *RandomForest) Family() string { return FamilyForest }

func (m *RandomForest) Fit(X [][]float64, y []bool) error {
	d, err := checkShape(X, y)
	if err != nil {
		return err
	}
	m.Width = d
	target := make([]float64, len(y))
	for i, v := range y {
		target[i] = labelValue(v)
	}

	rng := rand.New(rand.NewSource(m.Seed))
	maxFeatures := int(math.Sqrt(float64(d)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	importance := make([]float64, d)
	m.Trees = make([]Tree, 0, m.Estimators)
	for t := 0; t < m.Estimators; t++ {
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.Intn(len(X))
		}
		m.Trees = append(m.Trees, growTree(X, target, sample, treeConfig{
			maxDepth:    m.MaxDepth,
			minLeaf:     m.MinLeaf,
			maxFeatures: maxFeatures,
			rng:         rng,
		}, importance))
	}
	if !allFinite(importance...) {
		return fmt.Errorf("%s: %w", FamilyForest, ErrNonFinite)
	}
	m.Importance = normalize(importance)
	return nil
}

func (m *RandomForest) PredictProba(x []float64) float64 {
	if len(m.Trees) == 0 || len(x) != m.Width {
		return math.NaN()
	}
	var sum float64
	for i := range m.Trees {
		sum += m.Trees[i].Predict(x)
	}
	return sum / float64(len(m.Trees))
}

func (m *RandomForest) Hyperparameters() model.Hyperparameters {
	return model.Hyperparameters{
		"n_estimators":     model.IntParam(m.Estimators),
		"max_depth":        model.IntParam(m.MaxDepth),
		"min_samples_leaf": model.IntParam(m.MinLeaf),
		"max_features":     model.StringParam("sqrt"),
		"bootstrap":        model.BoolParam(true),
		"random_state":     model.IntParam(int(m.Seed)),
	}
}

// FeatureImportance is the normalized total variance reduction per feature.
func (m *RandomForest) FeatureImportance() []float64 {
	return append([]float64(nil), m.Importance...)
}
