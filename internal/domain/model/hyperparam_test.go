package model_test

import (
	"encoding/json"
	"math"
	"testing"

	model "github.com/okian/attrition/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

type unserializable struct{ ch chan int }

func TestHyperParam(t *testing.T) {
	convey.Convey("Given a set of hyperparameters of every kind", t, func() {
		params := model.Hyperparameters{
			"n_trees":    model.IntParam(50),
			"lr":         model.FloatParam(0.1),
			"bootstrap":  model.BoolParam(true),
			"criterion":  model.StringParam("variance"),
			"callback":   model.OpaqueParam(unserializable{}),
			"divergence": model.FloatParam(math.Inf(1)),
		}

		convey.Convey("When marshalled to JSON", func() {
			b, err := json.Marshal(params)
			convey.So(err, convey.ShouldBeNil)

			var generic map[string]any
			convey.So(json.Unmarshal(b, &generic), convey.ShouldBeNil)

			convey.Convey("Then primitives are emitted as plain values", func() {
				convey.So(generic["n_trees"], convey.ShouldEqual, 50.0)
				convey.So(generic["lr"], convey.ShouldEqual, 0.1)
				convey.So(generic["bootstrap"], convey.ShouldEqual, true)
				convey.So(generic["criterion"], convey.ShouldEqual, "variance")
			})

			convey.Convey("Then non-serializable values are stringified", func() {
				convey.So(generic["callback"], convey.ShouldHaveSameTypeAs, "")
				convey.So(generic["divergence"], convey.ShouldEqual, "+Inf")
			})
		})

		convey.Convey("When decoded back", func() {
			b, _ := json.Marshal(params)
			var decoded model.Hyperparameters
			convey.So(json.Unmarshal(b, &decoded), convey.ShouldBeNil)

			convey.So(decoded["n_trees"].Kind, convey.ShouldEqual, model.ParamInt)
			convey.So(decoded["n_trees"].Int, convey.ShouldEqual, 50)
			convey.So(decoded["lr"].Kind, convey.ShouldEqual, model.ParamFloat)
			convey.So(decoded["bootstrap"].Kind, convey.ShouldEqual, model.ParamBool)
			convey.So(decoded["callback"].Kind, convey.ShouldEqual, model.ParamString)
		})
	})
}
