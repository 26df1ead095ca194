// Package training fits the candidate roster on labelled employee records,
// scores each candidate on a held-out partition and picks a champion.
package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/attrition/internal/domain/artifact"
	"github.com/okian/attrition/internal/domain/classifier"
	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/pkg/logger"
)

// Candidate is one classifier family in the roster.
type Candidate struct {
	Family string
	New    func(seed int64) classifier.Classifier
}

// DefaultRoster returns the built-in families in registration order.
func DefaultRoster() []Candidate {
	roster := make([]Candidate, 0, len(classifier.Families()))
	for _, family := range classifier.Families() {
		roster = append(roster, Candidate{
			Family: family,
			New: func(seed int64) classifier.Classifier {
				c, _ := classifier.New(family, seed)
				return c
			},
		})
	}
	return roster
}

// Result is the outcome of a successful run.
type Result struct {
	Report   model.TrainingReport
	Artifact *artifact.Artifact
}

// Trainer runs at most one training run at a time.
type Trainer struct {
	minRows      int
	holdoutRatio float64
	seed         int64
	roster       []Candidate
	logger       logger.Logger
	now          func() time.Time

	running sync.Mutex
}

// NewTrainer creates a trainer with the given options.
func NewTrainer(opts ...Option) *Trainer {
	t := &Trainer{
		minRows:      DefaultMinRows,
		holdoutRatio: DefaultHoldoutRatio,
		seed:         DefaultSeed,
		roster:       DefaultRoster(),
		logger:       logger.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train fits every candidate and returns the champion's artifact. Nothing is
// persisted here; a cancelled or failed run simply returns an error.
func (t *Trainer) Train(ctx context.Context, rows []model.TrainingRow) (*Result, error) {
	if !t.running.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer t.running.Unlock()

	started := time.Now()
	minRows := max(t.minRows, 2)
	if len(rows) < minRows {
		return nil, fmt.Errorf("%w: got %d rows, need at least %d", model.ErrInsufficientData, len(rows), minRows)
	}

	employees := make([]model.Employee, len(rows))
	for i := range rows {
		employees[i] = rows[i].Employee
	}
	enc := features.LearnEncoder(employees)
	X, y, err := enc.EncodeRows(rows)
	if err != nil {
		return nil, fmt.Errorf("encode training rows: %w", err)
	}

	trainIdx, holdIdx := Split(len(rows), t.holdoutRatio, t.seed)
	Xtr, ytr := gather(X, y, trainIdx)
	Xho, yho := gather(X, y, holdIdx)

	t.logger.Info(ctx, "training started",
		logger.Int("rows", len(rows)),
		logger.Int("train_rows", len(trainIdx)),
		logger.Int("holdout_rows", len(holdIdx)),
		logger.Int64("seed", t.seed),
		logger.String("schema", enc.Schema()))

	names := enc.FeatureNames()
	reports := make([]model.CandidateReport, 0, len(t.roster))
	fitted := make([]classifier.Classifier, 0, len(t.roster))
	var failures []error
	for _, cand := range t.roster {
		if err := ctx.Err(); err != nil {
			t.logger.Warn(ctx, "training cancelled", logger.String("before", cand.Family))
			return nil, err
		}

		c, err := fitSafely(cand, t.seed, Xtr, ytr)
		if err != nil {
			failures = append(failures, err)
			t.logger.Warn(ctx, "candidate skipped", logger.String("family", cand.Family), logger.Error(err))
			reports = append(reports, model.CandidateReport{
				Family:            cand.Family,
				FeatureImportance: map[string]float64{},
				Skipped:           true,
				SkipReason:        err.Error(),
			})
			fitted = append(fitted, nil)
			continue
		}

		scores := classifier.Evaluate(c, Xho, yho)
		reports = append(reports, model.CandidateReport{
			Family:            cand.Family,
			Accuracy:          scores.Accuracy,
			F1Score:           scores.F1,
			AUCScore:          scores.AUC,
			Hyperparameters:   c.Hyperparameters(),
			FeatureImportance: importanceMap(names, c.FeatureImportance()),
		})
		fitted = append(fitted, c)
		t.logger.Info(ctx, "candidate fitted",
			logger.String("family", cand.Family),
			logger.Float64("accuracy", scores.Accuracy),
			logger.Float64("f1", scores.F1),
			logger.Float64("auc", scores.AUC))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	champ := SelectChampion(reports)
	if champ < 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllCandidatesFailed, errors.Join(failures...))
	}
	reports[champ].Chosen = true

	art, err := artifact.New(enc, fitted[champ], t.now())
	if err != nil {
		return nil, fmt.Errorf("capture champion: %w", err)
	}

	report := model.TrainingReport{
		Candidates:    reports,
		Champion:      reports[champ].Family,
		TrainRows:     len(trainIdx),
		HoldoutRows:   len(holdIdx),
		HoldoutRatio:  t.holdoutRatio,
		Seed:          t.seed,
		SchemaVersion: enc.Schema(),
		Duration:      time.Since(started),
	}
	t.logger.Info(ctx, "champion selected",
		logger.String("family", report.Champion),
		logger.Float64("accuracy", reports[champ].Accuracy),
		logger.Duration("took", report.Duration))

	return &Result{Report: report, Artifact: art}, nil
}

// fitSafely turns fit errors and panics into a CandidateFitError.
func fitSafely(cand Candidate, seed int64, X [][]float64, y []bool) (c classifier.Classifier, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, &CandidateFitError{Family: cand.Family, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	c = cand.New(seed)
	if c == nil {
		return nil, &CandidateFitError{Family: cand.Family, Err: classifier.ErrUnknownFamily}
	}
	if err := c.Fit(X, y); err != nil {
		return nil, &CandidateFitError{Family: cand.Family, Err: err}
	}
	return c, nil
}

// SelectChampion returns the index of the best non-skipped candidate, or -1.
// Ranking: accuracy, then AUC, then F1; remaining ties go to the earliest
// candidate.
func SelectChampion(reports []model.CandidateReport) int {
	best := -1
	for i := range reports {
		if reports[i].Skipped {
			continue
		}
		if best < 0 || outranks(reports[i], reports[best]) {
			best = i
		}
	}
	return best
}

func outranks(a, b model.CandidateReport) bool {
	if a.Accuracy != b.Accuracy {
		return a.Accuracy > b.Accuracy
	}
	if a.AUCScore != b.AUCScore {
		return a.AUCScore > b.AUCScore
	}
	return a.F1Score > b.F1Score
}

// Split shuffles row indices with a fixed seed and cuts off the held-out
// partition. Both partitions get at least one row when n >= 2.
func Split(n int, holdoutRatio float64, seed int64) (train, holdout []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	h := int(math.Round(float64(n) * holdoutRatio))
	h = min(max(h, 1), n-1)
	if n < 2 {
		h = 0
	}
	return perm[h:], perm[:h]
}

func gather(X [][]float64, y []bool, idx []int) ([][]float64, []bool) {
	xs := make([][]float64, len(idx))
	ys := make([]bool, len(idx))
	for k, i := range idx {
		xs[k] = X[i]
		ys[k] = y[i]
	}
	return xs, ys
}

func importanceMap(names []string, weights []float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	if len(weights) != len(names) {
		return out
	}
	for i, w := range weights {
		out[names[i]] = w
	}
	return out
}
