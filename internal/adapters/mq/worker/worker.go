package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/pillowbout/pkg/logger"
	"github.com/okian/pillowbout/pkg/metrics"
)

// Source is where the worker reads items from.
type Source[T any] interface {
	Dequeue() <-chan T
}

// Handler applies one item.
type Handler[T any] interface {
	Handle(ctx context.Context, item T) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[T any] func(ctx context.Context, item T) error

// Handle calls f.
func (f HandlerFunc[T]) Handle(ctx context.Context, item T) error { return f(ctx, item) }

// Worker consumes items until its source is exhausted.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the source closes.
	Run(ctx context.Context)

	// Shutdown closes the source when it can be closed and waits for the
	// loop to drain what was already queued.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker applies items one at a time, in arrival order, on the
// goroutine that called Run. Handlers never run concurrently.
type InMemoryWorker[T any] struct {
	source  Source[T]
	handler Handler[T]
	name    string
	logger  logger.Logger
	metrics *metrics.Manager

	done     chan struct{}
	doneOnce sync.Once
}

// NewInMemoryWorker creates a worker reading from source.
func NewInMemoryWorker[T any](source Source[T], handler Handler[T], opts ...Option) *InMemoryWorker[T] {
	s := settings{name: "worker", metrics: metrics.Default()}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	return &InMemoryWorker[T]{
		source:  source,
		handler: handler,
		name:    s.name,
		logger:  s.logger.Named(s.name),
		metrics: s.metrics,
		done:    make(chan struct{}),
	}
}

// Run starts the worker loop.
func (w *InMemoryWorker[T]) Run(ctx context.Context) {
	defer w.doneOnce.Do(func() { close(w.done) })

	items := w.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-items:
			if !ok {
				return
			}
			w.process(ctx, item)
		}
	}
}

func (w *InMemoryWorker[T]) process(ctx context.Context, item T) {
	defer func() {
		if r := recover(); r != nil {
			w.metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "handler panicked", logger.Any("panic", r))
		}
	}()
	if err := w.handler.Handle(ctx, item); err != nil {
		w.metrics.RecordErrorByComponent("worker", "handler_error")
		w.logger.Debug(ctx, "handler returned error", logger.Error(err))
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker[T]) Done() <-chan struct{} { return w.done }

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker[T]) Shutdown(ctx context.Context) error {
	if closer, ok := w.source.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			w.logger.Error(ctx, "error closing source", logger.Error(err))
		}
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
