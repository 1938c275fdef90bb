// Package service owns the live bout. Every read and write of the bout is
// an action applied by a single loop goroutine, so the domain state needs
// no locks and clock ticks interleave with judge input in arrival order.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pillowbout/internal/adapters/mq/queue"
	"github.com/okian/pillowbout/internal/adapters/mq/worker"
	"github.com/okian/pillowbout/internal/adapters/repository"
	"github.com/okian/pillowbout/internal/domain/bout"
	"github.com/okian/pillowbout/internal/domain/clock"
	"github.com/okian/pillowbout/internal/domain/dedupe"
	"github.com/okian/pillowbout/internal/domain/model"
	"github.com/okian/pillowbout/internal/domain/rounds"
	"github.com/okian/pillowbout/pkg/logger"
	"github.com/okian/pillowbout/pkg/metrics"
)

const (
	defaultQueueSize  = 256
	defaultDedupeSize = 4096
)

// action is one unit of work for the loop.
type action struct {
	name     string
	enqueued time.Time
	apply    func(ctx context.Context, st *bout.State) error
	err      error
	done     chan struct{}

	// tick actions carry the generation of the ticker that produced them.
	tick bool
	gen  uint64
}

// Summary is a lock-free copy of the headline state, refreshed after every
// action. It is what GetStats reports.
type Summary struct {
	Round          string `json:"round"`
	Remaining      int    `json:"remaining"`
	ClockRunning   bool   `json:"clock_running"`
	TotalA         int    `json:"total_a"`
	TotalB         int    `json:"total_b"`
	Events         int    `json:"events"`
	TiebreakerUsed bool   `json:"tiebreaker_used"`
}

// Session is the handle to the one active bout.
type Session struct {
	id string

	durations     rounds.Durations
	table         model.PointTable
	location      *time.Location
	queueSize     int
	dedupeSize    int
	tickInterval  time.Duration
	tickerFactory clock.TickerFactory
	store         repository.Store
	logger        logger.Logger
	metrics       *metrics.Manager
	now           func() time.Time

	deduper dedupe.Deduper

	mu      sync.Mutex
	started bool
	stopped bool
	queue   *queue.InMemoryQueue[*action]
	worker  *worker.InMemoryWorker[*action]
	runCtx  context.Context
	cancel  context.CancelFunc

	// Owned by the loop goroutine.
	state      *bout.State
	tickGen    uint64
	tickCancel context.CancelFunc
	tickWG     sync.WaitGroup

	applied atomic.Int64
	ticks   atomic.Int64
	summary atomic.Pointer[Summary]
}

// New constructs a Session with default configuration. Call Start before use.
func New(opts ...Option) *Session {
	s := &Session{
		id:            uuid.NewString(),
		durations:     rounds.DefaultDurations(),
		table:         model.DefaultPointTable(),
		location:      time.Local,
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		tickInterval:  time.Second,
		tickerFactory: clock.NewTicker,
		metrics:       metrics.Default(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.logger = s.logger.Named("session").With(logger.String("session_id", s.id))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.state = bout.New(
		bout.WithDurations(s.durations),
		bout.WithPointTable(s.table),
		bout.WithLocation(s.location),
		bout.WithNow(s.now),
	)
	s.publish()
	return s
}

// ID identifies this session in logs.
func (s *Session) ID() string { return s.id }

// Start launches the action loop. Calling it twice is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}

	s.runCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.queue = queue.NewInMemoryQueue[*action](
		queue.WithCapacity(s.queueSize),
		queue.WithMetrics(s.metrics),
	)
	s.worker = worker.NewInMemoryWorker[*action](
		s.queue,
		worker.HandlerFunc[*action](s.handle),
		worker.WithName("loop"),
		worker.WithLogger(s.logger),
		worker.WithMetrics(s.metrics),
	)
	go s.worker.Run(s.runCtx)

	s.started = true
	s.logger.Info(ctx, "bout session started",
		logger.Int("round_seconds", s.durations.Round),
		logger.Int("tiebreaker_seconds", s.durations.Tiebreaker),
		logger.Int("queue_size", s.queueSize),
		logger.Duration("tick_interval", s.tickInterval),
	)
	return nil
}

// Stop drains queued actions, stops the clock driver and ends the loop.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.stopped = true
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	w := s.worker
	s.mu.Unlock()

	err := w.Shutdown(ctx)
	s.cancel()
	s.tickWG.Wait()
	s.metrics.UpdateClockRunning(false)
	s.logger.Info(ctx, "bout session stopped", logger.Int("actions", int(s.applied.Load())))
	return err
}

// handle runs on the loop goroutine.
func (s *Session) handle(ctx context.Context, a *action) error {
	defer func() {
		if r := recover(); r != nil {
			a.err = fmt.Errorf("%s: panic: %v", a.name, r)
			s.metrics.RecordErrorByComponent("session", "panic")
			s.logger.Error(ctx, "action panicked", logger.String("action", a.name), logger.Any("panic", r))
		}
		s.applied.Add(1)
		s.syncTicker(ctx)
		s.publish()
		if a.done != nil {
			close(a.done)
		}
	}()

	if a.tick {
		s.applyTick(ctx, a.gen)
		return nil
	}

	a.err = a.apply(ctx, s.state)
	s.metrics.RecordActionLatency(a.name, float64(time.Since(a.enqueued).Microseconds())/1000)
	return a.err
}

// do enqueues fn and waits for the loop to apply it.
func (s *Session) do(ctx context.Context, name string, fn func(ctx context.Context, st *bout.State) error) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	q := s.queue
	s.mu.Unlock()

	a := &action{name: name, enqueued: time.Now(), apply: fn, done: make(chan struct{})}
	if err := q.Enqueue(ctx, a); err != nil {
		switch {
		case errors.Is(err, queue.ErrFull):
			return fmt.Errorf("%s: %w", name, ErrBusy)
		case errors.Is(err, queue.ErrClosed):
			return fmt.Errorf("%s: %w", name, ErrStopped)
		default:
			return err
		}
	}

	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		// The action still runs; only the wait is abandoned.
		return ctx.Err()
	}
}

// syncTicker starts the clock driver when the clock runs without one and
// stops it when the clock stopped. Loop goroutine only.
func (s *Session) syncTicker(ctx context.Context) {
	running := s.state.ClockRunning()
	switch {
	case running && s.tickCancel == nil:
		s.tickGen++
		gen := s.tickGen
		tctx, cancel := context.WithCancel(s.runCtx)
		s.tickCancel = cancel
		// The source is created here, not in the driver goroutine, so it
		// exists by the time the starting action returns.
		src := s.tickerFactory(s.tickInterval)
		driver := clock.NewDriver(func(context.Context) { s.enqueueTick(tctx, gen) },
			clock.WithInterval(s.tickInterval),
			clock.WithTickerFactory(func(time.Duration) clock.TickSource { return src }),
		)
		s.tickWG.Add(1)
		go func() {
			defer s.tickWG.Done()
			driver.Run(tctx)
		}()
		s.logger.Debug(ctx, "clock driver started", logger.Int("generation", int(gen)))
	case !running && s.tickCancel != nil:
		s.tickCancel()
		s.tickCancel = nil
		s.logger.Debug(ctx, "clock driver stopped", logger.Int("generation", int(s.tickGen)))
	}
	s.metrics.UpdateClockRunning(running)
}

func (s *Session) enqueueTick(ctx context.Context, gen uint64) {
	s.mu.Lock()
	q := s.queue
	s.mu.Unlock()

	err := q.Enqueue(ctx, &action{name: "tick", enqueued: time.Now(), tick: true, gen: gen})
	switch {
	case err == nil, errors.Is(err, queue.ErrClosed), errors.Is(err, context.Canceled):
	default:
		s.logger.Warn(ctx, "clock tick dropped", logger.Error(err))
	}
}

// applyTick ignores ticks from a driver that has since been replaced, so a
// pause followed by a start never double counts.
func (s *Session) applyTick(ctx context.Context, gen uint64) {
	if gen != s.tickGen || s.tickCancel == nil {
		return
	}
	expired := s.state.Tick()
	s.ticks.Add(1)
	s.metrics.RecordClockTick(expired)
	if expired {
		s.logger.Info(ctx, "round clock expired", logger.String("round", s.state.CurrentRound().Short()))
	}
}

func (s *Session) publish() {
	st := s.state
	s.summary.Store(&Summary{
		Round:          st.CurrentRound().Short(),
		Remaining:      st.Remaining(),
		ClockRunning:   st.ClockRunning(),
		TotalA:         st.TotalFor(model.CompetitorA),
		TotalB:         st.TotalFor(model.CompetitorB),
		Events:         len(st.Events()),
		TiebreakerUsed: st.TiebreakerUsed(),
	})
}

// Summary returns the headline state as of the last applied action.
func (s *Session) Summary() Summary { return *s.summary.Load() }

// GetStats returns session statistics for monitoring.
func (s *Session) GetStats() map[string]any {
	s.mu.Lock()
	started, stopped, q := s.started, s.stopped, s.queue
	s.mu.Unlock()

	stats := map[string]any{
		"session_id":     s.id,
		"started":        started && !stopped,
		"queue_capacity": s.queueSize,
		"dedupe_size":    s.deduper.Size(),
		"actions":        s.applied.Load(),
		"ticks":          s.ticks.Load(),
		"bout":           s.Summary(),
	}
	if q != nil {
		stats["queue_length"] = q.Len()
	}
	return stats
}
