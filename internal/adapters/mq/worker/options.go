// Package worker runs the single consumer that applies queued items in
// order.
package worker

import (
	"github.com/okian/pillowbout/pkg/logger"
	"github.com/okian/pillowbout/pkg/metrics"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*settings)

type settings struct {
	name    string
	logger  logger.Logger
	metrics *metrics.Manager
}

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics reports errors to m instead of the default manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *settings) {
		if m != nil {
			s.metrics = m
		}
	}
}
