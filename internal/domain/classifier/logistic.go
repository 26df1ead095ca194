package classifier

import (
	"fmt"
	"math"

	"github.com/okian/attrition/internal/domain/model"
)

// LogisticRegression is an L2-regularized linear model fitted by batch
// gradient descent on standardized inputs.
type LogisticRegression struct {
	Iterations   int
	LearningRate float64
	L2           float64

	Mean    []float64
	Scale   []float64
	Weights []float64
	Bias    float64
}

// NewLogisticRegression returns a model with default hyperparameters.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{Iterations: 400, LearningRate: 0.5, L2: 1e-3}
}

func (m *LogisticRegression) Family() string { return FamilyLogistic }

func (m *LogisticRegression) Fit(X [][]float64, y []bool) error {
	d, err := checkShape(X, y)
	if err != nil {
		return err
	}
	n := float64(len(X))

	m.Mean = make([]float64, d)
	m.Scale = make([]float64, d)
	for _, row := range X {
		for j, v := range row {
			m.Mean[j] += v
		}
	}
	for j := range m.Mean {
		m.Mean[j] /= n
	}
	for _, row := range X {
		for j, v := range row {
			diff := v - m.Mean[j]
			m.Scale[j] += diff * diff
		}
	}
	for j := range m.Scale {
		m.Scale[j] = math.Sqrt(m.Scale[j] / n)
		if m.Scale[j] < 1e-12 {
			m.Scale[j] = 1
		}
	}

	Z := make([][]float64, len(X))
	for i, row := range X {
		z := make([]float64, d)
		for j, v := range row {
			z[j] = (v - m.Mean[j]) / m.Scale[j]
		}
		Z[i] = z
	}

	m.Weights = make([]float64, d)
	m.Bias = 0
	grad := make([]float64, d)
	for it := 0; it < m.Iterations; it++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradBias float64
		for i, z := range Z {
			residual := m.proba(z) - labelValue(y[i])
			for j, v := range z {
				grad[j] += residual * v
			}
			gradBias += residual
		}
		for j := range m.Weights {
			m.Weights[j] -= m.LearningRate * (grad[j]/n + m.L2*m.Weights[j])
		}
		m.Bias -= m.LearningRate * gradBias / n
	}

	if !allFinite(m.Bias) || !allFinite(m.Weights...) {
		return fmt.Errorf("%s: %w", FamilyLogistic, ErrNonFinite)
	}
	return nil
}

// proba is the positive-class probability of an already standardized vector.
func (m *LogisticRegression) proba(z []float64) float64 {
	s := m.Bias
	for j, w := range m.Weights {
		s += w * z[j]
	}
	return sigmoid(s)
}

func (m *LogisticRegression) PredictProba(x []float64) float64 {
	if len(x) != len(m.Weights) {
		return math.NaN()
	}
	z := make([]float64, len(x))
	for j := range x {
		z[j] = (x[j] - m.Mean[j]) / m.Scale[j]
	}
	return m.proba(z)
}

func (m *LogisticRegression) Hyperparameters() model.Hyperparameters {
	return model.Hyperparameters{
		"iterations":    model.IntParam(m.Iterations),
		"learning_rate": model.FloatParam(m.LearningRate),
		"l2":            model.FloatParam(m.L2),
		"standardize":   model.BoolParam(true),
	}
}

// FeatureImportance uses the magnitude of the standardized coefficients.
func (m *LogisticRegression) FeatureImportance() []float64 {
	abs := make([]float64, len(m.Weights))
	for j, w := range m.Weights {
		abs[j] = math.Abs(w)
	}
	return normalize(abs)
}
