package blobstore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/attrition/internal/adapters/blobstore"
	"github.com/okian/attrition/internal/domain/artifact"
	"github.com/okian/attrition/internal/domain/classifier"
	"github.com/okian/attrition/internal/domain/features"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func fittedArtifact(t *testing.T) *artifact.Artifact {
	t.Helper()
	enc := features.NewEncoder([]string{"sales", "technical"})
	var (
		X [][]float64
		y []bool
	)
	for i := 0; i < 40; i++ {
		v, _, err := enc.Encode(model.Employee{
			SatisfactionLevel:   float64(i%10) / 10,
			AverageMonthlyHours: 150 + i,
			Salary:              "medium",
			Department:          "technical",
		})
		if err != nil {
			t.Fatal(err)
		}
		X = append(X, v.Values)
		y = append(y, i%10 < 3)
	}
	c := classifier.NewGradientBoosting()
	c.Estimators = 10
	if err := c.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	art, err := artifact.New(enc, c, time.Unix(1700000000, 0))
	if err != nil {
		t.Fatal(err)
	}
	return art
}

func exerciseStore(t *testing.T, store blobstore.Store) {
	ctx := context.Background()
	art := fittedArtifact(t)

	convey.Convey("When an artifact is stored", func() {
		handle, err := store.Put(ctx, "model-1", art)
		convey.So(err, convey.ShouldBeNil)
		convey.So(handle, convey.ShouldNotBeBlank)

		convey.Convey("Then it reads back identically", func() {
			back, err := store.Get(ctx, handle)
			convey.So(err, convey.ShouldBeNil)
			convey.So(back.Validate(), convey.ShouldBeNil)
			convey.So(back.Schema, convey.ShouldEqual, art.Schema)
			convey.So(back.TrainedAt.Equal(art.TrainedAt), convey.ShouldBeTrue)

			orig, _ := art.Classifier()
			restored, _ := back.Classifier()
			x := make([]float64, len(art.FeatureNames))
			x[0] = 0.2
			convey.So(restored.PredictProba(x), convey.ShouldEqual, orig.PredictProba(x))
		})

		convey.Convey("Then deleting it makes it missing", func() {
			convey.So(store.Delete(ctx, handle), convey.ShouldBeNil)
			_, err := store.Get(ctx, handle)
			convey.So(errors.Is(err, model.ErrArtifactMissing), convey.ShouldBeTrue)
			convey.So(store.Delete(ctx, handle), convey.ShouldBeNil)
		})
	})

	convey.Convey("When the key escapes the store", func() {
		_, err := store.Put(ctx, "../evil", art)
		convey.So(errors.Is(err, blobstore.ErrInvalidKey), convey.ShouldBeTrue)
	})
}

func TestFileStore(t *testing.T) {
	convey.Convey("Given a file-backed artifact store", t, func() {
		dir := t.TempDir()
		store, err := blobstore.NewFileStore(filepath.Join(dir, "artifacts"))
		convey.So(err, convey.ShouldBeNil)
		defer store.Close()

		exerciseStore(t, store)

		convey.Convey("When the file is corrupted on disk", func() {
			handle, err := store.Put(context.Background(), "model-2", fittedArtifact(t))
			convey.So(err, convey.ShouldBeNil)
			data, err := os.ReadFile(handle)
			convey.So(err, convey.ShouldBeNil)
			data[len(data)-5] ^= 0xff
			convey.So(os.WriteFile(handle, data, 0o600), convey.ShouldBeNil)

			_, err = store.Get(context.Background(), handle)
			convey.So(errors.Is(err, blobstore.ErrArtifactCorrupt), convey.ShouldBeTrue)
			convey.So(errors.Is(err, model.ErrArtifactMissing), convey.ShouldBeFalse)
		})

		convey.Convey("When the handle never existed", func() {
			_, err := store.Get(context.Background(), filepath.Join(dir, "nope.gob.gz"))
			convey.So(errors.Is(err, model.ErrArtifactMissing), convey.ShouldBeTrue)
		})

		convey.Convey("Then no temp files are left behind", func() {
			_, err := store.Put(context.Background(), "model-3", fittedArtifact(t))
			convey.So(err, convey.ShouldBeNil)
			matches, _ := filepath.Glob(filepath.Join(dir, "artifacts", ".*.tmp"))
			convey.So(matches, convey.ShouldBeEmpty)
		})
	})
}

func TestBadgerStore(t *testing.T) {
	convey.Convey("Given an in-memory badger artifact store", t, func() {
		store, err := blobstore.OpenBadger("", logger.Nop())
		convey.So(err, convey.ShouldBeNil)
		defer store.Close()

		exerciseStore(t, store)

		convey.Convey("When given a file handle", func() {
			_, err := store.Get(context.Background(), "/tmp/model.gob.gz")
			convey.So(errors.Is(err, blobstore.ErrForeignHandle), convey.ShouldBeTrue)
		})
	})
}

func TestOpen(t *testing.T) {
	convey.Convey("Given backend names", t, func() {
		s, err := blobstore.Open("FILE", t.TempDir(), nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(s.Close(), convey.ShouldBeNil)

		_, err = blobstore.Open("s3", t.TempDir(), nil)
		convey.So(errors.Is(err, blobstore.ErrUnknownBackend), convey.ShouldBeTrue)
	})
}
