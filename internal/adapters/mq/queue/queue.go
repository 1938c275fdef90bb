// Package queue is the bounded hand-off between request handlers and the
// single goroutine that owns a bout.
package queue

import (
	"context"
	"sync"

	"github.com/okian/pillowbout/pkg/metrics"
)

const defaultQueueCapacity = 256

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item without blocking. It fails with ErrFull when the
	// queue is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, item T) error

	// Dequeue returns the receive side. It is closed once the queue is
	// closed and drained.
	Dequeue() <-chan T

	// Len returns the number of pending items.
	Len() int

	// Close stops accepting items. Pending items stay readable.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	items    chan T
	capacity int
	metrics  *metrics.Manager

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a queue with configuration options.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	s := settings{capacity: defaultQueueCapacity, metrics: metrics.Default()}
	for _, opt := range opts {
		opt(&s)
	}

	q := &InMemoryQueue[T]{
		items:    make(chan T, s.capacity),
		capacity: s.capacity,
		metrics:  s.metrics,
	}
	q.metrics.UpdateQueue(0, q.capacity)
	return q
}

// Enqueue adds an item to the queue.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.metrics.RecordQueueEnqueueError()
		q.metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		q.metrics.RecordQueueEnqueueError()
		q.metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.items <- item:
		q.metrics.UpdateQueue(len(q.items), q.capacity)
		return nil
	default:
		q.metrics.RecordQueueEnqueueError()
		q.metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns the receive side of the queue.
func (q *InMemoryQueue[T]) Dequeue() <-chan T {
	return q.items
}

// Len returns the current number of queued items.
func (q *InMemoryQueue[T]) Len() int {
	size := len(q.items)
	q.metrics.UpdateQueue(size, q.capacity)
	return size
}

// Cap returns the queue capacity.
func (q *InMemoryQueue[T]) Cap() int { return q.capacity }

// Close stops accepting new items.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
