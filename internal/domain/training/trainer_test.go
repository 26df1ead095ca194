package training_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/attrition/internal/dataset"
	"github.com/okian/attrition/internal/domain/classifier"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/domain/training"
	"github.com/smartystreets/goconvey/convey"
)

func rows(t *testing.T, n int) []model.TrainingRow {
	t.Helper()
	out, err := dataset.Generate(context.Background(), n, dataset.WithSeed(11))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return out
}

// brokenFamily panics during fit.
type brokenFamily struct{ classifier.Classifier }

func (brokenFamily) Family() string { return "broken" }
func (brokenFamily) Fit([][]float64, []bool) error { panic("singular matrix") }

func TestTrainMinimumRows(t *testing.T) {
	convey.Convey("Given the default minimum of 50 rows", t, func() {
		ctx := context.Background()
		data := rows(t, 50)

		convey.Convey("When 49 rows are supplied", func() {
			_, err := training.NewTrainer().Train(ctx, data[:49])
			convey.So(errors.Is(err, model.ErrInsufficientData), convey.ShouldBeTrue)
		})

		convey.Convey("When exactly 50 rows are supplied", func() {
			res, err := training.NewTrainer().Train(ctx, data)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Report.TrainRows+res.Report.HoldoutRows, convey.ShouldEqual, 50)
			convey.So(res.Report.HoldoutRows, convey.ShouldEqual, 10)
		})
	})
}

func TestTrain(t *testing.T) {
	convey.Convey("Given a realistic synthetic population", t, func() {
		ctx := context.Background()
		data := rows(t, 600)
		trainer := training.NewTrainer()

		res, err := trainer.Train(ctx, data)
		convey.So(err, convey.ShouldBeNil)
		report := res.Report

		convey.Convey("Then every roster family is reported in order", func() {
			convey.So(report.Candidates, convey.ShouldHaveLength, 3)
			for i, family := range classifier.Families() {
				convey.So(report.Candidates[i].Family, convey.ShouldEqual, family)
			}
		})

		convey.Convey("Then exactly one candidate is chosen", func() {
			chosen := 0
			for _, c := range report.Candidates {
				if c.Chosen {
					chosen++
				}
			}
			convey.So(chosen, convey.ShouldEqual, 1)
			champ, ok := report.ChampionReport()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(champ.Family, convey.ShouldEqual, report.Champion)
			convey.So(res.Artifact.Family, convey.ShouldEqual, report.Champion)
		})

		convey.Convey("Then the champion beats chance", func() {
			champ, _ := report.ChampionReport()
			convey.So(champ.Accuracy, convey.ShouldBeGreaterThan, 0.75)
			convey.So(champ.AUCScore, convey.ShouldBeGreaterThan, 0.75)
		})

		convey.Convey("Then feature importance sums to one", func() {
			champ, _ := report.ChampionReport()
			var sum float64
			for _, w := range champ.FeatureImportance {
				sum += w
			}
			convey.So(sum, convey.ShouldAlmostEqual, 1, 1e-9)
			convey.So(champ.FeatureImportance, convey.ShouldContainKey, "satisfaction_level")
		})

		convey.Convey("Then the artifact is self-consistent", func() {
			convey.So(res.Artifact.Validate(), convey.ShouldBeNil)
			convey.So(res.Artifact.Schema, convey.ShouldEqual, report.SchemaVersion)
		})

		convey.Convey("Then a second run with the same seed is identical", func() {
			again, err := training.NewTrainer().Train(ctx, data)
			convey.So(err, convey.ShouldBeNil)
			for i := range report.Candidates {
				convey.So(again.Report.Candidates[i].Accuracy, convey.ShouldEqual, report.Candidates[i].Accuracy)
				convey.So(again.Report.Candidates[i].AUCScore, convey.ShouldEqual, report.Candidates[i].AUCScore)
			}
			convey.So(again.Report.Champion, convey.ShouldEqual, report.Champion)
		})
	})
}

func TestCandidateFailure(t *testing.T) {
	convey.Convey("Given a roster with a family that panics", t, func() {
		ctx := context.Background()
		data := rows(t, 120)
		broken := training.Candidate{Family: "broken", New: func(int64) classifier.Classifier { return brokenFamily{} }}
		logistic := training.DefaultRoster()[0]

		convey.Convey("When another family succeeds", func() {
			res, err := training.NewTrainer(training.WithRoster(broken, logistic)).Train(ctx, data)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the broken family is skipped, not chosen", func() {
				convey.So(res.Report.Candidates[0].Skipped, convey.ShouldBeTrue)
				convey.So(res.Report.Candidates[0].SkipReason, convey.ShouldContainSubstring, "singular matrix")
				convey.So(res.Report.Candidates[0].Chosen, convey.ShouldBeFalse)
				convey.So(res.Report.Champion, convey.ShouldEqual, classifier.FamilyLogistic)
			})
		})

		convey.Convey("When every family fails", func() {
			_, err := training.NewTrainer(training.WithRoster(broken)).Train(ctx, data)

			convey.Convey("Then the run fails with the fit errors attached", func() {
				convey.So(errors.Is(err, training.ErrAllCandidatesFailed), convey.ShouldBeTrue)
				var fitErr *training.CandidateFitError
				convey.So(errors.As(err, &fitErr), convey.ShouldBeTrue)
				convey.So(fitErr.Family, convey.ShouldEqual, "broken")
			})
		})
	})
}

func TestCancellation(t *testing.T) {
	convey.Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := training.NewTrainer().Train(ctx, rows(t, 80))
		convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
	})
}

func TestSelectChampion(t *testing.T) {
	convey.Convey("Given accuracies {0.90,0.93,0.93} and AUCs {0.88,0.91,0.89}", t, func() {
		reports := []model.CandidateReport{
			{Family: "a", Accuracy: 0.90, AUCScore: 0.88},
			{Family: "b", Accuracy: 0.93, AUCScore: 0.91},
			{Family: "c", Accuracy: 0.93, AUCScore: 0.89},
		}
		convey.So(training.SelectChampion(reports), convey.ShouldEqual, 1)
	})

	convey.Convey("Given ties on accuracy and AUC", t, func() {
		reports := []model.CandidateReport{
			{Family: "a", Accuracy: 0.9, AUCScore: 0.9, F1Score: 0.7},
			{Family: "b", Accuracy: 0.9, AUCScore: 0.9, F1Score: 0.8},
		}
		convey.So(training.SelectChampion(reports), convey.ShouldEqual, 1)
	})

	convey.Convey("Given a complete tie", t, func() {
		reports := []model.CandidateReport{
			{Family: "a", Accuracy: 0.9, AUCScore: 0.9, F1Score: 0.8},
			{Family: "b", Accuracy: 0.9, AUCScore: 0.9, F1Score: 0.8},
		}
		convey.So(training.SelectChampion(reports), convey.ShouldEqual, 0)
	})

	convey.Convey("Given a skipped best candidate", t, func() {
		reports := []model.CandidateReport{
			{Family: "a", Accuracy: 0.99, Skipped: true},
			{Family: "b", Accuracy: 0.7},
		}
		convey.So(training.SelectChampion(reports), convey.ShouldEqual, 1)
		convey.So(training.SelectChampion(reports[:1]), convey.ShouldEqual, -1)
	})
}

func TestSplit(t *testing.T) {
	convey.Convey("Given the deterministic split", t, func() {
		train, hold := training.Split(100, 0.2, 42)
		convey.So(train, convey.ShouldHaveLength, 80)
		convey.So(hold, convey.ShouldHaveLength, 20)

		again, _ := training.Split(100, 0.2, 42)
		convey.So(again, convey.ShouldResemble, train)

		seen := map[int]bool{}
		for _, i := range append(append([]int{}, train...), hold...) {
			seen[i] = true
		}
		convey.So(seen, convey.ShouldHaveLength, 100)

		convey.Convey("Then tiny sets keep a row on each side", func() {
			train, hold := training.Split(2, 0.01, 1)
			convey.So(train, convey.ShouldHaveLength, 1)
			convey.So(hold, convey.ShouldHaveLength, 1)
		})
	})
}

func TestConcurrentRuns(t *testing.T) {
	convey.Convey("Given a trainer already running", t, func() {
		started := make(chan struct{})
		release := make(chan struct{})
		blocking := training.Candidate{Family: "blocking", New: func(int64) classifier.Classifier {
			close(started)
			<-release
			return classifier.NewLogisticRegression()
		}}
		trainer := training.NewTrainer(training.WithRoster(blocking))
		data := rows(t, 60)

		done := make(chan error, 1)
		go func() {
			_, err := trainer.Train(context.Background(), data)
			done <- err
		}()
		<-started

		_, err := trainer.Train(context.Background(), data)
		close(release)
		convey.So(errors.Is(err, training.ErrTrainingInProgress), convey.ShouldBeTrue)
		convey.So(<-done, convey.ShouldBeNil)
	})
}
