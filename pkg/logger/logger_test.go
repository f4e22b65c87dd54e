package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInitWith(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, "json"), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "workout created", String("user_id", "7"), Int64("calories", 200))

			Convey("Then the record carries the fields and the caller", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "workout created")
				So(rec["user_id"], ShouldEqual, "7")
				So(rec["calories"], ShouldEqual, 200.0)
				So(rec["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When using a named logger", func() {
			Named("leaderboard").Warn(ctx, "stale", Error(errors.New("boom")))

			Convey("Then the component is recorded", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["component"], ShouldEqual, "leaderboard")
				So(rec["error"], ShouldEqual, "boom")
			})
		})

		Convey("When the level is raised to error", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Info(ctx, "hidden")

			Convey("Then info records are dropped", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given an unknown format", t, func() {
		So(InitWith(&bytes.Buffer{}, "xml"), ShouldNotBeNil)
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		So(Init(), ShouldBeNil)
		for name, want := range map[string]slog.Level{
			"debug":   slog.LevelDebug,
			"":        slog.LevelInfo,
			"INFO":    slog.LevelInfo,
			"warning": slog.LevelWarn,
			"error":   slog.LevelError,
		} {
			So(SetLevelString(name), ShouldBeNil)
			So(levelVar.Level(), ShouldEqual, want)
		}
		So(SetLevelString("loud"), ShouldNotBeNil)
		So(Sync(), ShouldBeNil)
	})
}
