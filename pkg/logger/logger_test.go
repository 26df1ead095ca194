package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	convey.Convey("Given a freshly initialized logger", t, func() {
		convey.So(Init(), convey.ShouldBeNil)
		defer func() { _ = Sync() }()

		convey.So(Get(), convey.ShouldNotBeNil)
		convey.So(Named("test"), convey.ShouldNotBeNil)
	})
}

func TestLoggerJSON(t *testing.T) {
	convey.Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		convey.So(Init(WithWriter(&buf), WithJSON()), convey.ShouldBeNil)
		ctx := context.Background()

		convey.Convey("When a named logger writes fields", func() {
			Named("trainer").Info(ctx, "candidate fitted",
				String("family", "random_forest"), Float64("accuracy", 0.93), Bool("chosen", true))

			var line map[string]any
			convey.So(json.Unmarshal(buf.Bytes(), &line), convey.ShouldBeNil)
			convey.So(line["msg"], convey.ShouldEqual, "candidate fitted")
			convey.So(line["component"], convey.ShouldEqual, "trainer")
			convey.So(line["family"], convey.ShouldEqual, "random_forest")
			convey.So(line["source"], convey.ShouldContainSubstring, "logger_test.go")
		})

		convey.Convey("When the level filters debug output", func() {
			Get().Debug(ctx, "hidden", Error(errors.New("x")))
			convey.So(buf.Len(), convey.ShouldEqual, 0)

			convey.So(SetLevelString("debug"), convey.ShouldBeNil)
			Get().Debug(ctx, "shown")
			convey.So(buf.String(), convey.ShouldContainSubstring, "shown")
		})

		convey.Convey("When the level string is unknown", func() {
			convey.So(SetLevelString("loud"), convey.ShouldNotBeNil)
		})
	})
}

func TestNop(t *testing.T) {
	convey.Convey("Given the no-op logger", t, func() {
		l := Nop().Named("x")
		convey.So(func() { l.Info(context.Background(), "dropped") }, convey.ShouldNotPanic)
	})
}
