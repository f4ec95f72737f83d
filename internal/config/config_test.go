package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/fsingest/internal/config"
	"github.com/okian/fsingest/internal/domain/record"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.TimeAxisColumn, convey.ShouldEqual, "timestamp")
			convey.So(cfg.EventTimeFormat, convey.ShouldEqual, "unix")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 1)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.FailFast, convey.ShouldBeFalse)
			convey.So(cfg.EmptyAsNil, convey.ShouldBeTrue)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.MetricsJob, convey.ShouldEqual, "fsingest")
		})

		convey.Convey("Then it should not validate without a table and feature group", func() {
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with the required settings", t, func() {
		cfg := config.New(context.Background())
		cfg.Table = "data.csv"
		cfg.FeatureGroup = "ratings"

		convey.Convey("Then it validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			f, err := cfg.TimeFormat()
			convey.So(err, convey.ShouldBeNil)
			convey.So(f, convey.ShouldEqual, record.TimeFormatUnix)
		})

		convey.Convey("When the feature group is empty", func() {
			cfg.FeatureGroup = ""

			convey.Convey("Then it is a fatal configuration error", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "feature_group must not be empty")
			})
		})

		convey.Convey("When the event time format is unknown", func() {
			cfg.EventTimeFormat = "julian"

			convey.Convey("Then validation fails", func() {
				err := cfg.Validate()
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(err, record.ErrUnknownTimeFormat), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the time-axis column is empty", func() {
			cfg.TimeAxisColumn = ""
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the request timeout is negative", func() {
			cfg.RequestTimeoutMS = -1
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}
