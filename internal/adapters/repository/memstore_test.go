package repository_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/okian/attrition/internal/adapters/repository"
	"github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	convey.Convey("Given a memory catalogue with many models", t, func() {
		ctx := context.Background()
		s := repository.NewMemoryStore(repository.WithMemoryClock(tickingClock()))
		rng := rand.New(rand.NewPCG(1, 2))

		bestAcc, bestID := -1.0, ""
		for i := range 500 {
			acc := float64(rng.IntN(1000)) / 1000
			id := fmt.Sprintf("m%03d", i)
			convey.So(s.Insert(ctx, entry(id, acc), false), convey.ShouldBeNil)
			// Later inserts are newer, so they win accuracy ties.
			if acc >= bestAcc {
				bestAcc, bestID = acc, id
			}
		}

		convey.Convey("Then Best tracks the highest accuracy, newest on ties", func() {
			best, err := s.Best(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(best.ID, convey.ShouldEqual, bestID)
			convey.So(best.Accuracy, convey.ShouldEqual, bestAcc)
		})

		convey.Convey("Then versions are dense per name", func() {
			list, err := s.List(ctx, 0)
			convey.So(err, convey.ShouldBeNil)
			convey.So(list, convey.ShouldHaveLength, 500)
			convey.So(list[0].Version, convey.ShouldEqual, 500)
			convey.So(list[499].Version, convey.ShouldEqual, 1)
		})

		convey.Convey("Then returned models are copies", func() {
			got, err := s.Get(ctx, "m000")
			convey.So(err, convey.ShouldBeNil)
			got.FeatureImportance["salary"] = 99
			got.Accuracy = 2

			again, _ := s.Get(ctx, "m000")
			convey.So(again.FeatureImportance["salary"], convey.ShouldEqual, 0.3)
			convey.So(again.Accuracy, convey.ShouldBeLessThanOrEqualTo, 1)
		})

		convey.Convey("Then a duplicate id is rejected", func() {
			convey.So(s.Insert(ctx, entry("m000", 0.5), false), convey.ShouldNotBeNil)
			n, _ := s.Count(ctx)
			convey.So(n, convey.ShouldEqual, 500)
		})

		convey.Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			convey.So(s.Insert(cctx, entry("late", 0.5), false), convey.ShouldNotBeNil)
			convey.So(s.Activate(cctx, "m000"), convey.ShouldNotBeNil)
		})

		convey.Convey("Then the driver name is reported", func() {
			convey.So(s.Driver(), convey.ShouldEqual, repository.DriverMemory)
		})
	})
}

func BenchmarkMemoryStore_Insert(b *testing.B) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	rng := rand.New(rand.NewPCG(3, 4))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Insert(ctx, entry(fmt.Sprintf("b%d", i), rng.Float64()), false); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMemoryStore_Best(b *testing.B) {
	ctx := context.Background()
	s := repository.NewMemoryStore()
	rng := rand.New(rand.NewPCG(5, 6))
	for i := range 10_000 {
		if err := s.Insert(ctx, entry(fmt.Sprintf("b%d", i), rng.Float64()), false); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := s.Best(ctx); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
