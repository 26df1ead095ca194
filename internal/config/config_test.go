package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/attrition/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.RegistryDriver, convey.ShouldEqual, "sqlite")
			convey.So(cfg.ArtifactBackend, convey.ShouldEqual, "file")
			convey.So(cfg.TrainingMinRows, convey.ShouldEqual, 50)
			convey.So(cfg.TrainingHoldoutRatio, convey.ShouldEqual, 0.2)
			convey.So(cfg.TrainingSeed, convey.ShouldEqual, 42)
			convey.So(cfg.TrainingJobTimeout, convey.ShouldEqual, 30*time.Minute)
			convey.So(cfg.AutoActivateOnStart, convey.ShouldBeTrue)
			convey.So(cfg.MaxBodyBytes, convey.ShouldEqual, int64(32<<20))
			convey.So(cfg.RegistryBusyTimeout, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.RegistryConnMaxLifetime, convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the memory registry driver is chosen", func() {
			cfg.RegistryDriver = "memory"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When a field breaks its constraint", func() {
			cfg.TrainingHoldoutRatio = 1

			convey.Convey("Then validation wraps ErrInvalidConfig", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "training_holdout_ratio")
			})
		})
	})
}
