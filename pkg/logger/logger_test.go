package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Get returns it", func() {
			So(Get(), ShouldNotBeNil)
		})

		Convey("Named loggers can be derived", func() {
			named := Named("test")
			So(named, ShouldNotBeNil)
			named.Info(context.Background(), "test message")
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf), WithJSON()), ShouldBeNil)
		ctx := context.Background()

		Convey("Fields are written as JSON attributes", func() {
			Get().Info(ctx, "report stored", String("team", "frc1421"), Int64("reporter", 7), Bool("created", true))

			var line map[string]any
			So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
			So(line["msg"], ShouldEqual, "report stored")
			So(line["team"], ShouldEqual, "frc1421")
			So(line["reporter"], ShouldEqual, float64(7))
			So(line["created"], ShouldEqual, true)
			So(line["source"], ShouldContainSubstring, "logger_test.go")
		})

		Convey("Debug lines are dropped until the level is lowered", func() {
			Get().Debug(ctx, "hidden")
			So(buf.Len(), ShouldEqual, 0)

			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(ctx, "shown")
			So(buf.String(), ShouldContainSubstring, "shown")
		})

		Convey("Unknown levels are rejected", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})
	})

	Convey("Discard never panics", t, func() {
		So(func() { Discard().Warn(context.Background(), "x") }, ShouldNotPanic)
	})
}

func TestContextFields(t *testing.T) {
	Convey("Given a context carrying fields", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf), WithJSON()), ShouldBeNil)
		ctx := WithFields(context.Background(), String("request_id", "abc"))

		Convey("Every line logged with it includes them", func() {
			Get().Warn(ctx, "slow store", Int("ms", 250))

			var line map[string]any
			So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
			So(line["request_id"], ShouldEqual, "abc")
			So(line["ms"], ShouldEqual, float64(250))
		})

		Convey("Derived contexts append to the parent fields", func() {
			child := WithFields(ctx, String("event", "2018flor"))
			So(FieldsFrom(child), ShouldHaveLength, 2)
			So(FieldsFrom(ctx), ShouldHaveLength, 1)
			So(FieldsFrom(context.Background()), ShouldBeEmpty)
		})
	})
}
