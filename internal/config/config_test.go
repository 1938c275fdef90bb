package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/pillowbout/internal/config"
	"github.com/okian/pillowbout/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.RoundSeconds, convey.ShouldEqual, 90)
			convey.So(cfg.TiebreakerSeconds, convey.ShouldEqual, 30)
			convey.So(cfg.TickInterval(), convey.ShouldEqual, time.Second)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 256)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 4096)
			convey.So(cfg.ScoresDir, convey.ShouldEqual, "scores")
			convey.So(cfg.PointTable(), convey.ShouldResemble, model.DefaultPointTable())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }},
			{"zero round", func(c *config.Config) { c.RoundSeconds = 0 }},
			{"negative tiebreaker", func(c *config.Config) { c.TiebreakerSeconds = -1 }},
			{"zero tick", func(c *config.Config) { c.TickIntervalMS = 0 }},
			{"zero queue", func(c *config.Config) { c.QueueSize = 0 }},
			{"empty scores dir", func(c *config.Config) { c.ScoresDir = "" }},
			{"unknown kind", func(c *config.Config) { c.Points["Elbow"] = 2 }},
			{"free kind", func(c *config.Config) { c.Points["Head"] = 0 }},
			{"bad zone", func(c *config.Config) { c.TimeZone = "Mars/Olympus" }},
		}
		for _, tc := range cases {
			convey.Convey("When it has "+tc.name, func() {
				tc.mutate(cfg)

				convey.Convey("Then validation fails", func() {
					convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the zone is UTC", func() {
			cfg.TimeZone = "UTC"
			loc, err := cfg.Location()

			convey.Convey("Then it resolves", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(loc, convey.ShouldEqual, time.UTC)
			})
		})
	})
}
