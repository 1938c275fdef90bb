package service

import (
	"time"

	"github.com/okian/pillowbout/internal/adapters/repository"
	"github.com/okian/pillowbout/internal/domain/clock"
	"github.com/okian/pillowbout/internal/domain/model"
	"github.com/okian/pillowbout/internal/domain/rounds"
	"github.com/okian/pillowbout/pkg/logger"
	"github.com/okian/pillowbout/pkg/metrics"
)

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithDurations sets round and tiebreaker lengths in seconds.
func WithDurations(d rounds.Durations) Option {
	return func(s *Session) {
		if d.Round > 0 {
			s.durations.Round = d.Round
		}
		if d.Tiebreaker > 0 {
			s.durations.Tiebreaker = d.Tiebreaker
		}
	}
}

// WithPointTable sets the kind to points table.
func WithPointTable(table model.PointTable) Option {
	return func(s *Session) {
		if len(table) > 0 {
			s.table = table.Clone()
		}
	}
}

// WithLocation sets the time zone for event rows and save names.
func WithLocation(loc *time.Location) Option {
	return func(s *Session) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithQueueSize sets the maximum number of pending actions.
func WithQueueSize(size int) Option {
	return func(s *Session) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Session) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithTickInterval sets the wall time between clock ticks.
func WithTickInterval(interval time.Duration) Option {
	return func(s *Session) {
		if interval > 0 {
			s.tickInterval = interval
		}
	}
}

// WithTickerFactory replaces the wall-clock ticker, e.g. with a manual one
// in tests.
func WithTickerFactory(f clock.TickerFactory) Option {
	return func(s *Session) {
		if f != nil {
			s.tickerFactory = f
		}
	}
}

// WithStore sets where saved bouts go.
func WithStore(store repository.Store) Option {
	return func(s *Session) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the session.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics reports to m instead of the default manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithNow overrides the wall clock used for event and save times.
func WithNow(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}
