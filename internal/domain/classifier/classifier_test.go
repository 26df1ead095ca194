package classifier_test

import (
	"bytes"
	"encoding/gob"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/attrition/internal/domain/classifier"
	"github.com/smartystreets/goconvey/convey"
)

// separable returns rows where the label is driven by the first two
// features and the third is noise.
func separable(n int, seed int64) ([][]float64, []bool) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]bool, n)
	for i := range X {
		sat := rng.Float64()
		hours := 100 + rng.Float64()*200
		X[i] = []float64{sat, hours, rng.Float64()}
		y[i] = sat < 0.35 || hours > 270
	}
	return X, y
}

func TestFamilies(t *testing.T) {
	convey.Convey("Given the classifier roster", t, func() {
		X, y := separable(400, 1)
		testX, testY := separable(200, 2)

		for _, family := range classifier.Families() {
			convey.Convey("When fitting "+family, func() {
				c, err := classifier.New(family, 42)
				convey.So(err, convey.ShouldBeNil)
				convey.So(c.Family(), convey.ShouldEqual, family)
				convey.So(c.Fit(X, y), convey.ShouldBeNil)

				convey.Convey("Then probabilities are in [0,1]", func() {
					for _, x := range testX {
						p := c.PredictProba(x)
						convey.So(p, convey.ShouldBeBetweenOrEqual, 0, 1)
					}
				})

				convey.Convey("Then held-out accuracy beats the base rate", func() {
					s := classifier.Evaluate(c, testX, testY)
					convey.So(s.Accuracy, convey.ShouldBeGreaterThan, 0.75)
					convey.So(s.AUC, convey.ShouldBeGreaterThan, 0.75)
				})

				convey.Convey("Then importance sums to one", func() {
					imp := c.FeatureImportance()
					convey.So(imp, convey.ShouldHaveLength, 3)
					var sum float64
					for _, v := range imp {
						convey.So(v, convey.ShouldBeGreaterThanOrEqualTo, 0)
						sum += v
					}
					convey.So(sum, convey.ShouldAlmostEqual, 1, 1e-9)
					// the noise column must not dominate
					convey.So(imp[2], convey.ShouldBeLessThan, imp[0])
				})

				convey.Convey("Then hyperparameters are reported", func() {
					convey.So(c.Hyperparameters(), convey.ShouldNotBeEmpty)
				})

				convey.Convey("Then a wrong-width vector is unscorable", func() {
					convey.So(math.IsNaN(c.PredictProba([]float64{1})), convey.ShouldBeTrue)
				})

				convey.Convey("Then the snapshot survives gob", func() {
					snap, err := classifier.SnapshotOf(c)
					convey.So(err, convey.ShouldBeNil)

					var buf bytes.Buffer
					convey.So(gob.NewEncoder(&buf).Encode(snap), convey.ShouldBeNil)
					var back classifier.Snapshot
					convey.So(gob.NewDecoder(&buf).Decode(&back), convey.ShouldBeNil)

					restored, err := back.Classifier()
					convey.So(err, convey.ShouldBeNil)
					for _, x := range testX[:20] {
						convey.So(restored.PredictProba(x), convey.ShouldAlmostEqual, c.PredictProba(x), 1e-12)
					}
				})
			})
		}
	})
}

func TestDeterminism(t *testing.T) {
	convey.Convey("Given the same seed and data", t, func() {
		X, y := separable(300, 7)
		a := classifier.NewRandomForest(9)
		b := classifier.NewRandomForest(9)
		convey.So(a.Fit(X, y), convey.ShouldBeNil)
		convey.So(b.Fit(X, y), convey.ShouldBeNil)

		convey.Convey("Then the fitted forests agree exactly", func() {
			convey.So(a.Trees, convey.ShouldResemble, b.Trees)
		})
	})
}

func TestLogisticProbability(t *testing.T) {
	convey.Convey("Given a fitted logistic regression", t, func() {
		c := classifier.NewLogisticRegression()
		X, y := separable(200, 11)
		convey.So(c.Fit(X, y), convey.ShouldBeNil)

		convey.Convey("Then the feature means score as the logistic of the bias", func() {
			mean := append([]float64(nil), c.Mean...)
			convey.So(c.PredictProba(mean), convey.ShouldAlmostEqual, 1/(1+math.Exp(-c.Bias)), 1e-12)
		})

		convey.Convey("Then a standardized unit step scales the logit by its weight", func() {
			x := append([]float64(nil), c.Mean...)
			x[0] += c.Scale[0]
			want := 1 / (1 + math.Exp(-(c.Bias + c.Weights[0])))
			convey.So(c.PredictProba(x), convey.ShouldAlmostEqual, want, 1e-12)
		})
	})
}

func TestFitErrors(t *testing.T) {
	convey.Convey("Given malformed training input", t, func() {
		c := classifier.NewLogisticRegression()

		convey.So(errors.Is(c.Fit(nil, nil), classifier.ErrEmptyTraining), convey.ShouldBeTrue)
		convey.So(errors.Is(c.Fit([][]float64{{1, 2}, {1}}, []bool{true, false}), classifier.ErrShape), convey.ShouldBeTrue)
		convey.So(errors.Is(c.Fit([][]float64{{1}}, []bool{true, false}), classifier.ErrShape), convey.ShouldBeTrue)

		convey.Convey("When the learning rate diverges", func() {
			c.LearningRate = math.Inf(1)
			X, y := separable(50, 3)
			convey.So(errors.Is(c.Fit(X, y), classifier.ErrNonFinite), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an unknown family", t, func() {
		_, err := classifier.New("svm", 1)
		convey.So(errors.Is(err, classifier.ErrUnknownFamily), convey.ShouldBeTrue)

		_, err = classifier.Snapshot{Family: classifier.FamilyForest}.Classifier()
		convey.So(errors.Is(err, classifier.ErrEmptySnapshot), convey.ShouldBeTrue)
	})
}

func TestScore(t *testing.T) {
	convey.Convey("Given perfectly ranked probabilities", t, func() {
		s := classifier.Score([]float64{0.1, 0.2, 0.8, 0.9}, []bool{false, false, true, true})
		convey.So(s.Accuracy, convey.ShouldEqual, 1)
		convey.So(s.F1, convey.ShouldEqual, 1)
		convey.So(s.AUC, convey.ShouldEqual, 1)
	})

	convey.Convey("Given tied probabilities", t, func() {
		s := classifier.Score([]float64{0.5, 0.5, 0.5, 0.5}, []bool{false, true, false, true})
		convey.So(s.AUC, convey.ShouldEqual, 0.5)
		convey.So(s.Accuracy, convey.ShouldEqual, 0.5)
	})

	convey.Convey("Given a single class", t, func() {
		s := classifier.Score([]float64{0.1, 0.7}, []bool{false, false})
		convey.So(s.AUC, convey.ShouldEqual, 0.5)
		convey.So(s.F1, convey.ShouldEqual, 0)
	})
}
