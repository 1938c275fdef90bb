// Package metrics provides Prometheus metrics for the bout scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Bout
	scoringEvents     *prometheus.CounterVec
	undos             prometheus.Counter
	emptyUndos        prometheus.Counter
	roundTransitions  *prometheus.CounterVec
	tiebreakers       prometheus.Counter
	tiebreakerRefused prometheus.Counter
	boutsStarted      prometheus.Counter
	duplicateRequests prometheus.Counter

	// Clock
	clockTicks       prometheus.Counter
	clockExpirations prometheus.Counter
	clockRunning     prometheus.Gauge

	// Persistence
	persistenceOps      *prometheus.CounterVec
	eventsDropped       prometheus.Counter
	persistenceDuration *prometheus.HistogramVec

	// Action queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueErrors prometheus.Counter
	actionLatency      *prometheus.HistogramVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
}

var (
	//nolint:gochecknoglobals // singleton metrics manager
	globalManager *Manager
	//nolint:gochecknoglobals // custom registry keeps default Go collectors out
	customRegistry = prometheus.NewRegistry()
)

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pillow",
		subsystem:        "bout",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.scoringEvents = auto.NewCounterVec(
		m.counterOpts("scoring_events_total", "Scoring events recorded by fighter and kind"),
		[]string{"fighter", "kind"},
	)
	m.undos = auto.NewCounter(m.counterOpts("undos_total", "Scoring events removed by undo"))
	m.emptyUndos = auto.NewCounter(m.counterOpts("empty_undos_total", "Undo requests against an empty log"))
	m.roundTransitions = auto.NewCounterVec(
		m.counterOpts("round_transitions_total", "Round changes by target round"),
		[]string{"round"},
	)
	m.tiebreakers = auto.NewCounter(m.counterOpts("tiebreakers_total", "Tiebreakers entered"))
	m.tiebreakerRefused = auto.NewCounter(m.counterOpts("tiebreaker_refused_total", "Tiebreaker requests refused because the bout was not tied"))
	m.boutsStarted = auto.NewCounter(m.counterOpts("started_total", "New bouts started"))
	m.duplicateRequests = auto.NewCounter(m.counterOpts("duplicate_requests_total", "Scoring requests suppressed by idempotency key"))

	m.clockTicks = auto.NewCounter(m.counterOpts("clock_ticks_total", "Clock ticks applied"))
	m.clockExpirations = auto.NewCounter(m.counterOpts("clock_expirations_total", "Rounds whose clock ran out"))
	m.clockRunning = auto.NewGauge(m.gaugeOpts("clock_running", "1 while the round clock is running"))

	m.persistenceOps = auto.NewCounterVec(
		m.counterOpts("persistence_operations_total", "Save and load operations by outcome"),
		[]string{"operation", "outcome"},
	)
	m.eventsDropped = auto.NewCounter(m.counterOpts("events_dropped_total", "Malformed event records skipped while loading"))
	m.persistenceDuration = auto.NewHistogramVec(
		m.histogramOpts("persistence_duration_milliseconds", "Save and load duration in milliseconds"),
		[]string{"operation"},
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("action_queue_size", "Actions waiting for the session loop"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("action_queue_capacity", "Capacity of the action queue"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("action_queue_utilization_ratio", "Action queue fill ratio (0-1)"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("action_queue_enqueue_errors_total", "Actions rejected because the queue was full or closed"))
	m.actionLatency = auto.NewHistogramVec(
		m.histogramOpts("action_latency_milliseconds", "Time from enqueue to completion of a session action"),
		[]string{"action"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)
}

// RecordScoringEvent counts one appended scoring event.
func (m *Manager) RecordScoringEvent(fighter, kind string) {
	if m.enabled {
		m.scoringEvents.WithLabelValues(fighter, kind).Inc()
	}
}

// RecordUndo counts an undo; empty is true when there was nothing to remove.
func (m *Manager) RecordUndo(empty bool) {
	if !m.enabled {
		return
	}
	if empty {
		m.emptyUndos.Inc()
		return
	}
	m.undos.Inc()
}

// RecordRoundTransition counts a move into round.
func (m *Manager) RecordRoundTransition(round string) {
	if m.enabled {
		m.roundTransitions.WithLabelValues(round).Inc()
	}
}

// RecordTiebreaker counts a tiebreaker request by whether it was allowed.
func (m *Manager) RecordTiebreaker(allowed bool) {
	if !m.enabled {
		return
	}
	if allowed {
		m.tiebreakers.Inc()
		return
	}
	m.tiebreakerRefused.Inc()
}

// RecordBoutStarted counts a new bout.
func (m *Manager) RecordBoutStarted() {
	if m.enabled {
		m.boutsStarted.Inc()
	}
}

// RecordDuplicateRequest counts a suppressed repeat request.
func (m *Manager) RecordDuplicateRequest() {
	if m.enabled {
		m.duplicateRequests.Inc()
	}
}

// RecordClockTick counts a tick; expired marks the tick that ended a round.
func (m *Manager) RecordClockTick(expired bool) {
	if !m.enabled {
		return
	}
	m.clockTicks.Inc()
	if expired {
		m.clockExpirations.Inc()
	}
}

// UpdateClockRunning sets the running gauge.
func (m *Manager) UpdateClockRunning(running bool) {
	if !m.enabled {
		return
	}
	if running {
		m.clockRunning.Set(1)
		return
	}
	m.clockRunning.Set(0)
}

// RecordPersistence counts a save or load and its duration.
func (m *Manager) RecordPersistence(operation string, durationMs float64, err error) {
	if !m.enabled {
		return
	}
	m.persistenceOps.WithLabelValues(operation, outcome(err)).Inc()
	m.persistenceDuration.WithLabelValues(operation).Observe(durationMs)
}

// RecordEventsDropped counts skipped event records.
func (m *Manager) RecordEventsDropped(n int) {
	if m.enabled && n > 0 {
		m.eventsDropped.Add(float64(n))
	}
}

// UpdateQueue sets the queue gauges.
func (m *Manager) UpdateQueue(size, capacity int) {
	if !m.enabled {
		return
	}
	m.queueSize.Set(float64(size))
	m.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		m.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueEnqueueError counts a rejected action.
func (m *Manager) RecordQueueEnqueueError() {
	if m.enabled {
		m.queueEnqueueErrors.Inc()
	}
}

// RecordActionLatency observes how long an action took end to end.
func (m *Manager) RecordActionLatency(action string, latencyMs float64) {
	if m.enabled {
		m.actionLatency.WithLabelValues(action).Observe(latencyMs)
	}
}

// RecordHTTPRequest counts a request and observes its duration.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordErrorByComponent counts an error raised by component.
func (m *Manager) RecordErrorByComponent(component, errorType string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint counts an error returned by an HTTP endpoint.
func (m *Manager) RecordErrorByEndpoint(endpoint, method, errorType string) {
	if m.enabled {
		m.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

func outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return OutcomeError
}

// Default returns the process-wide manager.
func Default() *Manager {
	return globalManager
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level shortcuts onto the default manager.

// RecordScoringEvent counts one appended scoring event.
func RecordScoringEvent(fighter, kind string) { Default().RecordScoringEvent(fighter, kind) }

// RecordUndo counts an undo.
func RecordUndo(empty bool) { Default().RecordUndo(empty) }

// RecordRoundTransition counts a move into round.
func RecordRoundTransition(round string) { Default().RecordRoundTransition(round) }

// RecordTiebreaker counts a tiebreaker request.
func RecordTiebreaker(allowed bool) { Default().RecordTiebreaker(allowed) }

// RecordClockTick counts a tick.
func RecordClockTick(expired bool) { Default().RecordClockTick(expired) }

// RecordPersistence counts a save or load.
func RecordPersistence(operation string, durationMs float64, err error) {
	Default().RecordPersistence(operation, durationMs, err)
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	Default().RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// RecordErrorByEndpoint counts an endpoint error.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	Default().RecordErrorByEndpoint(endpoint, method, errorType)
}

// RecordErrorByComponent counts a component error.
func RecordErrorByComponent(component, errorType string) {
	Default().RecordErrorByComponent(component, errorType)
}
