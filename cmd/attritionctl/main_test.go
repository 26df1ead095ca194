package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/attrition/internal/domain/model"
	"github.com/okian/attrition/internal/serving"
	"github.com/okian/attrition/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestUsage(t *testing.T) {
	convey.Convey("Given bad invocations", t, func() {
		ctx := context.Background()
		var out bytes.Buffer

		convey.So(errors.Is(run(ctx, nil, &out), ErrUsage), convey.ShouldBeTrue)
		convey.So(errors.Is(run(ctx, []string{"deploy"}, &out), ErrUsage), convey.ShouldBeTrue)
		convey.So(errors.Is(run(ctx, []string{"generate"}, &out), ErrUsage), convey.ShouldBeTrue)
		convey.So(errors.Is(run(ctx, []string{"generate", "-bogus"}, &out), ErrUsage), convey.ShouldBeTrue)
	})
}

func TestLifecycle(t *testing.T) {
	convey.Convey("Given an empty registry configured from the environment", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		t.Setenv("ATTRITION_REGISTRY_DSN", filepath.Join(dir, "registry.db"))
		t.Setenv("ATTRITION_ARTIFACT_DIR", filepath.Join(dir, "artifacts"))
		dataPath := filepath.Join(dir, "data", "hr.json")

		convey.Convey("When a dataset is generated and trained on", func() {
			var out bytes.Buffer
			convey.So(run(ctx, []string{"generate", "-rows", "400", "-seed", "9", "-out", dataPath}, &out), convey.ShouldBeNil)
			_, err := os.Stat(dataPath)
			convey.So(err, convey.ShouldBeNil)

			out.Reset()
			convey.So(run(ctx, []string{"train", "-json", dataPath, "-by", "ops"}, &out), convey.ShouldBeNil)
			var first struct {
				Model model.RegisteredModel `json:"model"`
			}
			convey.So(json.Unmarshal(out.Bytes(), &first), convey.ShouldBeNil)
			convey.So(first.Model.CreatedBy, convey.ShouldEqual, "ops")
			convey.So(first.Model.IsActive, convey.ShouldBeTrue)

			out.Reset()
			convey.So(run(ctx, []string{"train", "-synthetic", "300"}, &out), convey.ShouldBeNil)

			convey.Convey("Then both models are listed newest first", func() {
				out.Reset()
				convey.So(run(ctx, []string{"models", "-limit", "5"}, &out), convey.ShouldBeNil)
				var models []model.RegisteredModel
				convey.So(json.Unmarshal(out.Bytes(), &models), convey.ShouldBeNil)
				convey.So(models, convey.ShouldHaveLength, 2)
				convey.So(models[0].Version, convey.ShouldEqual, 2)
				convey.So(models[0].IsActive, convey.ShouldBeTrue)
			})

			convey.Convey("Then the first model can be reactivated and scores records", func() {
				out.Reset()
				convey.So(run(ctx, []string{"activate", "-id", first.Model.ID}, &out), convey.ShouldBeNil)

				recPath := filepath.Join(dir, "employee.json")
				rec := `{"Satisfaction Level": 0.2, "last_evaluation": 0.4, "number_project": 7,
					"average_montly_hours": 300, "time_spend_company": 6, "salary": "low", "sales": "sales"}`
				convey.So(os.WriteFile(recPath, []byte(rec), 0o600), convey.ShouldBeNil)

				out.Reset()
				convey.So(run(ctx, []string{"predict", "-json", recPath}, &out), convey.ShouldBeNil)
				var results []serving.BatchResult
				convey.So(json.Unmarshal(out.Bytes(), &results), convey.ShouldBeNil)
				convey.So(results, convey.ShouldHaveLength, 1)
				convey.So(results[0].Result, convey.ShouldNotBeNil)
				convey.So(results[0].Result.ModelID, convey.ShouldEqual, first.Model.ID)
				convey.So(results[0].Result.ModelVersion, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When train gets both sources", func() {
			err := run(ctx, []string{"train", "-synthetic", "10", "-json", dataPath}, &bytes.Buffer{})
			convey.So(errors.Is(err, ErrUsage), convey.ShouldBeTrue)
		})

		convey.Convey("When an unknown model is activated", func() {
			err := run(ctx, []string{"activate", "-id", "missing"}, &bytes.Buffer{})
			convey.So(errors.Is(err, model.ErrModelNotFound), convey.ShouldBeTrue)
		})
	})
}
