package model

// ClassificationThreshold is the probability at or above which an employee is
// predicted to leave. It is deliberately independent of the risk tier
// breakpoints so a recalibrated model does not shift recommendation tone.
const ClassificationThreshold = 0.5

// Risk tier breakpoints. Dashboards and recommendation rules key off these
// values; they must stay stable across model versions.
const (
	MediumRiskFloor = 0.4
	HighRiskFloor   = 0.7
)

// RiskLevel is a discretized turnover-probability bucket.
type RiskLevel string

// Risk tiers.
const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// RiskLevelFor maps a probability to its tier: [0,0.4) Low, [0.4,0.7) Medium, [0.7,1] High.
func RiskLevelFor(probability float64) RiskLevel {
	switch {
	case probability >= HighRiskFloor:
		return RiskHigh
	case probability >= MediumRiskFloor:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Classify applies the classification threshold.
func Classify(probability float64) bool {
	return probability >= ClassificationThreshold
}

// PredictionResult is the outcome of scoring a single employee.
type PredictionResult struct {
	Probability     float64   `json:"probability"`
	Prediction      bool      `json:"prediction"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Recommendations []string  `json:"recommendations"`

	ModelID      string   `json:"model_id,omitempty"`
	ModelVersion int      `json:"model_version,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}
