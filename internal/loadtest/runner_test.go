package loadtest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/attrition/internal/adapters/blobstore"
	"github.com/okian/attrition/internal/adapters/http/api"
	service "github.com/okian/attrition/internal/app"
	"github.com/okian/attrition/internal/config"
	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/loadtest"
	"github.com/okian/attrition/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()

	cfg := config.New()
	cfg.RegistryDSN = filepath.Join(t.TempDir(), "models.db")
	cfg.ArtifactBackend = blobstore.BackendBadger
	cfg.ArtifactDir = ""

	svc, err := service.Open(ctx, cfg, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running attrition service", t, func() {
		srv := newTestServer(t)
		out := filepath.Join(t.TempDir(), "outcomes", "run.json")

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		convey.Convey("When a load test trains and scores against it", func() {
			stats, err := loadtest.Run(ctx, &loadtest.Config{
				BaseURL:      srv.URL,
				TrainRows:    600,
				Predictions:  40,
				Workers:      4,
				PollInterval: 20 * time.Millisecond,
				Seed:         7,
				OutputFile:   out,
			})

			convey.Convey("Then every prediction is served by the trained model and verified", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.RowsGenerated, convey.ShouldEqual, 600)
				convey.So(stats.ModelID, convey.ShouldNotBeEmpty)
				convey.So(stats.PredictionsSubmitted, convey.ShouldEqual, 40)
				convey.So(stats.PredictionsSuccessful, convey.ShouldEqual, 40)
				convey.So(stats.Mismatches, convey.ShouldEqual, 0)

				tiers := stats.Tiers[model.RiskLow] + stats.Tiers[model.RiskMedium] + stats.Tiers[model.RiskHigh]
				convey.So(tiers, convey.ShouldEqual, 40)
			})

			convey.Convey("Then the outcomes are written to the output file", func() {
				info, statErr := os.Stat(out)
				convey.So(statErr, convey.ShouldBeNil)
				convey.So(info.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When the training set is too small", func() {
			_, err := loadtest.Run(ctx, &loadtest.Config{
				BaseURL:     srv.URL,
				TrainRows:   5,
				Predictions: 1,
			})

			convey.Convey("Then the submission is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "insufficient_data")
			})
		})
	})

	convey.Convey("Given no service at the target URL", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		_, err := loadtest.Run(context.Background(), &loadtest.Config{
			BaseURL: srv.URL,
			Timeout: time.Second,
		})
		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "health check")
	})
}
