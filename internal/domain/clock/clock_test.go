package clock_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/pillowbout/internal/domain/clock"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClock_StartPauseTick(t *testing.T) {
	Convey("Given a 90 second clock", t, func() {
		c := clock.New(90)

		Convey("Then it starts stopped and full", func() {
			So(c.Running(), ShouldBeFalse)
			So(c.Remaining(), ShouldEqual, 90)
			So(c.Display(), ShouldEqual, "01:30")
		})

		Convey("When ticking a stopped clock", func() {
			c.Tick()

			Convey("Then nothing changes", func() {
				So(c.Remaining(), ShouldEqual, 90)
			})
		})

		Convey("When started and ticked three times", func() {
			So(c.Start(), ShouldBeTrue)
			c.Tick()
			c.Tick()
			c.Tick()

			Convey("Then three seconds are consumed", func() {
				So(c.Remaining(), ShouldEqual, 87)
				So(c.Display(), ShouldEqual, "01:27")
				So(c.Running(), ShouldBeTrue)
			})

			Convey("And starting again is a no-op", func() {
				So(c.Start(), ShouldBeFalse)
				So(c.Remaining(), ShouldEqual, 87)
			})

			Convey("And pausing is idempotent", func() {
				c.Pause()
				c.Pause()
				c.Tick()
				So(c.Running(), ShouldBeFalse)
				So(c.Remaining(), ShouldEqual, 87)
			})
		})
	})
}

func TestClock_Expiry(t *testing.T) {
	Convey("Given a 2 second clock that is running", t, func() {
		c := clock.New(2)
		c.Start()

		Convey("When it runs out", func() {
			first := c.Tick()
			second := c.Tick()

			Convey("Then only the last tick reports expiry and the clock stops", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(c.Remaining(), ShouldEqual, 0)
				So(c.Running(), ShouldBeFalse)
			})

			Convey("And further ticks keep it at zero", func() {
				So(c.Tick(), ShouldBeFalse)
				So(c.Remaining(), ShouldEqual, 0)
			})

			Convey("And Start reloads the configured duration", func() {
				So(c.Start(), ShouldBeTrue)
				So(c.Remaining(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a clock configured to zero", t, func() {
		c := clock.New(0)

		Convey("Then Start does nothing", func() {
			So(c.Start(), ShouldBeFalse)
			So(c.Running(), ShouldBeFalse)
		})
	})
}

func TestClock_Reset(t *testing.T) {
	Convey("Given a running 90 second clock with time consumed", t, func() {
		c := clock.New(90)
		c.Start()
		c.Tick()

		Convey("When reset without a duration", func() {
			c.Reset()

			Convey("Then it stops at the configured default", func() {
				So(c.Running(), ShouldBeFalse)
				So(c.Remaining(), ShouldEqual, 90)
			})
		})

		Convey("When reset to 30 seconds", func() {
			c.ResetTo(30)

			Convey("Then 30 becomes the new default", func() {
				So(c.Remaining(), ShouldEqual, 30)
				So(c.Configured(), ShouldEqual, 30)
				c.Start()
				c.Tick()
				c.Reset()
				So(c.Remaining(), ShouldEqual, 30)
			})
		})

		Convey("When reconfigured without reset", func() {
			c.Configure(45)

			Convey("Then remaining time is kept until the next reset", func() {
				So(c.Remaining(), ShouldEqual, 89)
				c.Reset()
				So(c.Remaining(), ShouldEqual, 45)
			})
		})

		Convey("When reset to a negative duration", func() {
			c.ResetTo(-5)

			Convey("Then it clamps to zero", func() {
				So(c.Remaining(), ShouldEqual, 0)
				So(c.Display(), ShouldEqual, "00:00")
			})
		})
	})
}

func TestFormat(t *testing.T) {
	Convey("Given second counts", t, func() {
		So(clock.Format(0), ShouldEqual, "00:00")
		So(clock.Format(9), ShouldEqual, "00:09")
		So(clock.Format(60), ShouldEqual, "01:00")
		So(clock.Format(90), ShouldEqual, "01:30")
		So(clock.Format(3599), ShouldEqual, "59:59")
		So(clock.Format(-1), ShouldEqual, "00:00")
	})
}

type manualSource struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func (m *manualSource) C() <-chan time.Time { return m.ch }
func (m *manualSource) Stop()               { m.stopped.Store(true) }

func TestDriver(t *testing.T) {
	Convey("Given a driver on a manual tick source", t, func() {
		src := &manualSource{ch: make(chan time.Time)}
		var ticks atomic.Int32
		d := clock.NewDriver(func(context.Context) { ticks.Add(1) },
			clock.WithTickerFactory(func(time.Duration) clock.TickSource { return src }),
		)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			d.Run(ctx)
			close(done)
		}()

		Convey("When the source fires three times and the context ends", func() {
			for i := 0; i < 3; i++ {
				src.ch <- time.Now()
			}
			cancel()
			<-done

			Convey("Then the callback ran three times and the source was stopped", func() {
				So(ticks.Load(), ShouldEqual, 3)
				So(src.stopped.Load(), ShouldBeTrue)
			})
		})
	})
}
