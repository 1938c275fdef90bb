package clock

import (
	"context"
	"time"
)

// TickSource is a periodic signal, usually a time.Ticker.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory builds a TickSource firing every interval.
type TickerFactory func(interval time.Duration) TickSource

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewTicker is the wall-clock TickerFactory.
func NewTicker(interval time.Duration) TickSource {
	return realTicker{t: time.NewTicker(interval)}
}

// Driver invokes a callback on every tick of its source until the context is
// done. It never touches a Clock itself; the callback decides how a tick is
// applied, which lets hosts serialise ticks with other mutations.
type Driver struct {
	interval time.Duration
	factory  TickerFactory
	onTick   func(ctx context.Context)
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithInterval overrides the one-second default.
func WithInterval(interval time.Duration) DriverOption {
	return func(d *Driver) {
		if interval > 0 {
			d.interval = interval
		}
	}
}

// WithTickerFactory replaces the wall-clock ticker, e.g. with a manual source.
func WithTickerFactory(factory TickerFactory) DriverOption {
	return func(d *Driver) {
		if factory != nil {
			d.factory = factory
		}
	}
}

// NewDriver creates a Driver calling onTick once per interval.
func NewDriver(onTick func(ctx context.Context), opts ...DriverOption) *Driver {
	d := &Driver{
		interval: time.Second,
		factory:  NewTicker,
		onTick:   onTick,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run blocks, forwarding ticks until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) {
	src := d.factory(d.interval)
	defer src.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-src.C():
			if !ok {
				return
			}
			d.onTick(ctx)
		}
	}
}
