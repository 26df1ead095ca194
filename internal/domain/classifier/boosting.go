package classifier

import (
	"fmt"
	"math"

	"github.com/okian/attrition/internal/domain/model"
)

// GradientBoosting fits shallow regression trees to logloss gradients with
// Newton-step leaf values.
type GradientBoosting struct {
	Estimators   int
	LearningRate float64
	MaxDepth     int
	MinLeaf      int

	Init       float64
	Stages     []Tree
	Importance []float64
	Width      int
}

// NewGradientBoosting returns an ensemble with default hyperparameters.
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{Estimators: 100, LearningRate: 0.1, MaxDepth: 3, MinLeaf: 5}
}

func (m *GradientBoosting) Family() string { return FamilyBoosting }

func (m *GradientBoosting) Fit(X [][]float64, y []bool) error {
	d, err := checkShape(X, y)
	if err != nil {
		return err
	}
	n := len(X)
	m.Width = d

	var positives float64
	for _, v := range y {
		positives += labelValue(v)
	}
	p0 := math.Min(math.Max(positives/float64(n), 1e-6), 1-1e-6)
	m.Init = math.Log(p0 / (1 - p0))

	raw := make([]float64, n)
	for i := range raw {
		raw[i] = m.Init
	}
	residual := make([]float64, n)
	hessian := make([]float64, n)
	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	importance := make([]float64, d)

	newton := func(idx []int) float64 {
		var num, den float64
		for _, i := range idx {
			num += residual[i]
			den += hessian[i]
		}
		if den < 1e-12 {
			return 0
		}
		return num / den
	}

	m.Stages = make([]Tree, 0, m.Estimators)
	for s := 0; s < m.Estimators; s++ {
		for i := range raw {
			p := sigmoid(raw[i])
			residual[i] = labelValue(y[i]) - p
			hessian[i] = p * (1 - p)
		}
		tree := growTree(X, residual, all, treeConfig{
			maxDepth:  m.MaxDepth,
			minLeaf:   m.MinLeaf,
			leafValue: newton,
		}, importance)
		for i := range raw {
			raw[i] += m.LearningRate * tree.Predict(X[i])
		}
		m.Stages = append(m.Stages, tree)
	}

	if !allFinite(m.Init) || !allFinite(raw...) {
		return fmt.Errorf("%s: %w", FamilyBoosting, ErrNonFinite)
	}
	m.Importance = normalize(importance)
	return nil
}

func (m *GradientBoosting) PredictProba(x []float64) float64 {
	if m.Width == 0 || len(x) != m.Width {
		return math.NaN()
	}
	s := m.Init
	for i := range m.Stages {
		s += m.LearningRate * m.Stages[i].Predict(x)
	}
	return sigmoid(s)
}

func (m *GradientBoosting) Hyperparameters() model.Hyperparameters {
	return model.Hyperparameters{
		"n_estimators":     model.IntParam(m.Estimators),
		"learning_rate":    model.FloatParam(m.LearningRate),
		"max_depth":        model.IntParam(m.MaxDepth),
		"min_samples_leaf": model.IntParam(m.MinLeaf),
		"loss":             model.StringParam("log_loss"),
	}
}

// FeatureImportance is the normalized total gradient variance reduction.
func (m *GradientBoosting) FeatureImportance() []float64 {
	return append([]float64(nil), m.Importance...)
}
