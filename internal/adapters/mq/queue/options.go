package queue

import "github.com/okian/pillowbout/pkg/metrics"

// Option applies a configuration option to the InMemoryQueue.
type Option func(*settings)

type settings struct {
	capacity int
	metrics  *metrics.Manager
}

// WithCapacity sets the maximum number of pending items.
func WithCapacity(capacity int) Option {
	return func(s *settings) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithMetrics reports queue gauges to m instead of the default manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}
