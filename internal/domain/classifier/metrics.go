package classifier

import (
	"math"
	"sort"

	"github.com/okian/attrition/internal/domain/model"
)

// Scores are held-out evaluation metrics.
type Scores struct {
	Accuracy float64
	F1       float64
	AUC      float64
}

// Evaluate scores c on a labelled partition. Unscorable rows count as a
// probability of 0.5.
func Evaluate(c Classifier, X [][]float64, y []bool) Scores {
	probs := make([]float64, len(X))
	for i, x := range X {
		p := c.PredictProba(x)
		if math.IsNaN(p) {
			p = 0.5
		}
		probs[i] = p
	}
	return Score(probs, y)
}

// Score computes accuracy and F1 at the classification threshold and the
// rank-based ROC AUC. AUC is 0.5 when only one class is present.
func Score(probs []float64, y []bool) Scores {
	if len(probs) == 0 || len(probs) != len(y) {
		return Scores{}
	}
	var tp, fp, fn, correct float64
	for i, p := range probs {
		pred := model.Classify(p)
		switch {
		case pred && y[i]:
			tp++
			correct++
		case pred && !y[i]:
			fp++
		case !pred && y[i]:
			fn++
		default:
			correct++
		}
	}
	s := Scores{Accuracy: correct / float64(len(probs)), AUC: auc(probs, y)}
	if tp > 0 {
		s.F1 = 2 * tp / (2*tp + fp + fn)
	}
	return s
}

// auc is the Mann-Whitney statistic with tied scores sharing their average rank.
func auc(probs []float64, y []bool) float64 {
	n := len(probs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] < probs[order[b]] })

	var positives, rankSum float64
	for i := 0; i < n; {
		j := i
		for j+1 < n && probs[order[j+1]] == probs[order[i]] {
			j++
		}
		rank := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			if y[order[k]] {
				positives++
				rankSum += rank
			}
		}
		i = j + 1
	}
	negatives := float64(n) - positives
	if positives == 0 || negatives == 0 {
		return 0.5
	}
	return (rankSum - positives*(positives+1)/2) / (positives * negatives)
}
