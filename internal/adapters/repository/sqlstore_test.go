package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/attrition/internal/adapters/repository"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

// tickingClock returns strictly increasing timestamps.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func tempStore(t *testing.T, driver string) repository.Store {
	t.Helper()
	if driver == repository.DriverMemory {
		return repository.NewMemoryStore(repository.WithMemoryClock(tickingClock()))
	}
	s, err := repository.Open(context.Background(), repository.DriverSQLite,
		filepath.Join(t.TempDir(), "registry.db"), repository.WithClock(tickingClock()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var drivers = []string{repository.DriverSQLite, repository.DriverMemory}

func entry(id string, accuracy float64) *model.RegisteredModel {
	return &model.RegisteredModel{
		ID:                id,
		Name:              "turnover",
		ModelType:         "random_forest",
		ArtifactPath:      "/var/lib/attrition/" + id + ".gob.gz",
		Accuracy:          accuracy,
		F1Score:           accuracy - 0.1,
		AUCScore:          accuracy - 0.05,
		Hyperparameters:   model.Hyperparameters{"n_estimators": model.IntParam(50), "max_features": model.StringParam("sqrt")},
		FeatureImportance: map[string]float64{"satisfaction_level": 0.7, "salary": 0.3},
		SchemaVersion:     "v1:abc",
		CreatedBy:         "tests",
	}
}

func activeCount(t *testing.T, s repository.Store) int {
	models, err := s.List(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, m := range models {
		if m.IsActive {
			n++
		}
	}
	return n
}

func TestInsertAndGet(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) { testInsertAndGet(t, driver) })
	}
}

func testInsertAndGet(t *testing.T, driver string) {
	convey.Convey("Given an empty "+driver+" catalogue", t, func() {
		ctx := context.Background()
		s := tempStore(t, driver)

		convey.Convey("Then there is no active or best model", func() {
			m, err := s.Active(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(m, convey.ShouldBeNil)
			m, err = s.Best(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(m, convey.ShouldBeNil)
		})

		convey.Convey("Then an empty list encodes as a JSON array", func() {
			list, err := s.List(ctx, 0)
			convey.So(err, convey.ShouldBeNil)
			data, err := json.Marshal(list)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(data), convey.ShouldEqual, "[]")
		})

		convey.Convey("When models are inserted", func() {
			a, b := entry("a", 0.81), entry("b", 0.94)
			convey.So(s.Insert(ctx, a, false), convey.ShouldBeNil)
			convey.So(s.Insert(ctx, b, false), convey.ShouldBeNil)

			convey.Convey("Then versions increase per name", func() {
				convey.So(a.Version, convey.ShouldEqual, 1)
				convey.So(b.Version, convey.ShouldEqual, 2)
			})

			convey.Convey("Then new models are inactive", func() {
				convey.So(activeCount(t, s), convey.ShouldEqual, 0)
			})

			convey.Convey("Then a row round-trips", func() {
				got, err := s.Get(ctx, "b")
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.Hyperparameters["n_estimators"].Int, convey.ShouldEqual, 50)
				convey.So(got.Hyperparameters["max_features"].Str, convey.ShouldEqual, "sqrt")
				convey.So(got.FeatureImportance["satisfaction_level"], convey.ShouldEqual, 0.7)
				convey.So(got.CreatedAt.Equal(b.CreatedAt), convey.ShouldBeTrue)
			})

			convey.Convey("Then List is newest first", func() {
				list, err := s.List(ctx, 0)
				convey.So(err, convey.ShouldBeNil)
				convey.So(list, convey.ShouldHaveLength, 2)
				convey.So(list[0].ID, convey.ShouldEqual, "b")

				limited, err := s.List(ctx, 1)
				convey.So(err, convey.ShouldBeNil)
				convey.So(limited, convey.ShouldHaveLength, 1)
			})

			convey.Convey("Then Count matches", func() {
				n, err := s.Count(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(n, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When an unknown id is requested", func() {
			_, err := s.Get(ctx, "missing")
			convey.So(errors.Is(err, model.ErrModelNotFound), convey.ShouldBeTrue)
			convey.So(errors.Is(s.Activate(ctx, "missing"), model.ErrModelNotFound), convey.ShouldBeTrue)
		})
	})
}

func TestActivate(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) { testActivate(t, driver) })
	}
}

func testActivate(t *testing.T, driver string) {
	convey.Convey("Given three models in a "+driver+" catalogue", t, func() {
		ctx := context.Background()
		s := tempStore(t, driver)
		for i, acc := range []float64{0.81, 0.94, 0.88} {
			convey.So(s.Insert(ctx, entry(fmt.Sprintf("m%d", i), acc), false), convey.ShouldBeNil)
		}

		convey.Convey("When the same model is activated twice", func() {
			convey.So(s.Activate(ctx, "m0"), convey.ShouldBeNil)
			convey.So(s.Activate(ctx, "m0"), convey.ShouldBeNil)

			convey.Convey("Then exactly one model is active", func() {
				convey.So(activeCount(t, s), convey.ShouldEqual, 1)
				active, err := s.Active(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(active.ID, convey.ShouldEqual, "m0")
			})
		})

		convey.Convey("When another model is activated", func() {
			convey.So(s.Activate(ctx, "m0"), convey.ShouldBeNil)
			convey.So(s.Activate(ctx, "m2"), convey.ShouldBeNil)
			active, _ := s.Active(ctx)
			convey.So(active.ID, convey.ShouldEqual, "m2")
			convey.So(activeCount(t, s), convey.ShouldEqual, 1)
		})

		convey.Convey("When activations race", func() {
			var wg sync.WaitGroup
			for i := 0; i < 12; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_ = s.Activate(ctx, fmt.Sprintf("m%d", i%3))
				}(i)
			}
			wg.Wait()
			convey.So(activeCount(t, s), convey.ShouldEqual, 1)
		})

		convey.Convey("When a new model is inserted with activation", func() {
			convey.So(s.Activate(ctx, "m1"), convey.ShouldBeNil)
			fresh := entry("m3", 0.5)
			convey.So(s.Insert(ctx, fresh, true), convey.ShouldBeNil)
			convey.So(fresh.IsActive, convey.ShouldBeTrue)
			active, _ := s.Active(ctx)
			convey.So(active.ID, convey.ShouldEqual, "m3")
			convey.So(activeCount(t, s), convey.ShouldEqual, 1)
		})

		convey.Convey("Then Best picks the highest accuracy", func() {
			best, err := s.Best(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(best.ID, convey.ShouldEqual, "m1")
		})

		convey.Convey("Then Best prefers the newest on an accuracy tie", func() {
			convey.So(s.Insert(ctx, entry("m4", 0.94), false), convey.ShouldBeNil)
			best, _ := s.Best(ctx)
			convey.So(best.ID, convey.ShouldEqual, "m4")
		})
	})
}

func TestOpen(t *testing.T) {
	convey.Convey("Given driver names", t, func() {
		ctx := context.Background()

		_, err := repository.Open(ctx, "postgres", "x")
		convey.So(errors.Is(err, repository.ErrUnknownDriver), convey.ShouldBeTrue)

		_, err = repository.Open(ctx, repository.DriverSQLite, "")
		convey.So(errors.Is(err, repository.ErrEmptyDSN), convey.ShouldBeTrue)

		_, err = repository.Open(ctx, repository.DriverMySQL, "not a dsn")
		convey.So(err, convey.ShouldNotBeNil)

		mem, err := repository.Open(ctx, repository.DriverSQLite, ":memory:")
		convey.So(err, convey.ShouldBeNil)
		convey.So(mem.Driver(), convey.ShouldEqual, repository.DriverSQLite)
		convey.So(mem.Close(), convey.ShouldBeNil)
	})

	convey.Convey("Given the memory driver", t, func() {
		s, err := repository.OpenStore(context.Background(), repository.DriverMemory, "")
		convey.So(err, convey.ShouldBeNil)
		_, ok := s.(*repository.MemoryStore)
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(s.Close(), convey.ShouldBeNil)

		_, err = repository.OpenStore(context.Background(), "postgres", "x")
		convey.So(errors.Is(err, repository.ErrUnknownDriver), convey.ShouldBeTrue)
	})
}
