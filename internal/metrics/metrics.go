// Package metrics exposes Prometheus collectors for the analytics engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "analytics"

// Outcome labels for completed requests
const (
	OutcomeResult  = "result"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
	OutcomeFailure = "context_failure"
	OutcomeCancel  = "canceled"
	OutcomeClosed  = "closed"
)

// Metrics holds every collector of the engine
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	computeDuration *prometheus.HistogramVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	pending         prometheus.Gauge
	timeouts        *prometheus.CounterVec
	orphans         prometheus.Counter
	contextFailures prometheus.Counter
	contextStarts   prometheus.Counter
	fallbacks       *prometheus.CounterVec
}

// New registers the engine collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "The total number of correlated requests by operation and outcome",
		}, []string{"operation", "outcome"}),
		computeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Time spent computing a result inside the worker",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"operation"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Requests answered from the result cache",
		}, []string{"operation"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cacheable requests that had to be computed",
		}, []string{"operation"}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_requests",
			Help:      "Requests awaiting a response",
		}),
		timeouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeouts_total",
			Help:      "Requests rejected because no response arrived in time",
		}, []string{"operation"}),
		orphans: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphaned_responses_total",
			Help:      "Responses discarded because no request was waiting for them",
		}),
		contextFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_failures_total",
			Help:      "Fatal failures of the worker context",
		}),
		contextStarts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_starts_total",
			Help:      "Worker contexts created",
		}),
		fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_fallbacks_total",
			Help:      "HTTP requests served by the synchronous fallback path",
		}, []string{"operation"}),
	}
}

// Registry returns the registry holding the engine collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RequestCompleted counts a settled request
func (m *Metrics) RequestCompleted(op, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, outcome).Inc()
	if outcome == OutcomeTimeout {
		m.timeouts.WithLabelValues(op).Inc()
	}
}

// ObserveCompute records the duration of one computation
func (m *Metrics) ObserveCompute(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.computeDuration.WithLabelValues(op).Observe(d.Seconds())
}

// CacheHit counts a request served from the cache
func (m *Metrics) CacheHit(op string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(op).Inc()
}

// CacheMiss counts a cacheable request that was computed
func (m *Metrics) CacheMiss(op string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(op).Inc()
}

// SetPending sets the number of pending requests
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}

// OrphanedResponse counts a discarded late response
func (m *Metrics) OrphanedResponse() {
	if m == nil {
		return
	}
	m.orphans.Inc()
}

// ContextStarted counts a newly created worker context
func (m *Metrics) ContextStarted() {
	if m == nil {
		return
	}
	m.contextStarts.Inc()
}

// ContextFailed counts a fatal worker context failure
func (m *Metrics) ContextFailed() {
	if m == nil {
		return
	}
	m.contextFailures.Inc()
}

// Fallback counts an HTTP request served synchronously
func (m *Metrics) Fallback(op string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(op).Inc()
}
