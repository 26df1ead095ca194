package loadtest

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/pkg/logger"
)

// verifyResults checks each answer against the tier table and the trained model.
func verifyResults(ctx context.Context, job model.JobStatus, outcomes []Outcome, stats *Stats) error {
	log := logger.Get()
	log.Info(ctx, "verifying prediction results", logger.Int("outcomes", len(outcomes)))

	for i, o := range outcomes {
		if o.Result == nil {
			continue
		}
		stats.Tiers[o.Result.RiskLevel]++
		if problem := checkResult(job, *o.Result); problem != "" {
			stats.Mismatches++
			log.Warn(ctx, "inconsistent prediction",
				logger.Int("index", i),
				logger.String("problem", problem),
				logger.Float64("probability", o.Result.Probability))
		}
	}

	if stats.PredictionsFailed > 0 || stats.Mismatches > 0 {
		return fmt.Errorf("%w: %d failed, %d inconsistent", ErrVerification, stats.PredictionsFailed, stats.Mismatches)
	}
	log.Info(ctx, "all predictions verified")
	return nil
}

// checkResult returns a description of the first inconsistency, or "".
func checkResult(job model.JobStatus, res model.PredictionResult) string {
	switch {
	case math.IsNaN(res.Probability) || res.Probability < 0 || res.Probability > 1:
		return "probability out of range"
	case res.RiskLevel != model.RiskLevelFor(res.Probability):
		return fmt.Sprintf("tier %s does not match probability", res.RiskLevel)
	case res.Prediction != model.Classify(res.Probability):
		return "prediction does not match threshold"
	case len(res.Recommendations) == 0:
		return "no recommendations"
	case job.ModelID != "" && res.ModelID != job.ModelID:
		return fmt.Sprintf("served by %s, expected %s", res.ModelID, job.ModelID)
	}
	return ""
}
