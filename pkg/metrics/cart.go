package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart session activity and backing-store health.
type CartMetrics struct {
	operations      *prometheus.CounterVec
	persistFailures *prometheus.CounterVec
	loadFailures    *prometheus.CounterVec
	loadDuration    *prometheus.HistogramVec
	breakerState    *prometheus.GaugeVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations applied to a session.",
	}, []string{"op", "owner"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Cart writes that failed and were swallowed.",
	}, []string{"store"})
	loadFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_load_failures_total",
		Help: "Cart reads that failed and fell back to an empty cart.",
	}, []string{"store"})
	loadDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_load_duration_seconds",
		Help:    "Latency of cart reads from a backing store.",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"})
	breakerState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cart_breaker_state",
		Help: "Circuit breaker state of a cart store (0 closed, 1 half-open, 2 open).",
	}, []string{"store"})
	reg.MustRegister(operations, persistFailures, loadFailures, loadDuration, breakerState)
	return &CartMetrics{
		operations:      operations,
		persistFailures: persistFailures,
		loadFailures:    loadFailures,
		loadDuration:    loadDuration,
		breakerState:    breakerState,
	}
}

// IncOperation counts a mutation for the given owner kind ("user" or "anonymous").
func (c *CartMetrics) IncOperation(op, owner string) {
	if c == nil || c.operations == nil {
		return
	}
	c.operations.WithLabelValues(normalizeLabel(op), normalizeLabel(owner)).Inc()
}

// IncPersistFailure counts a swallowed write failure.
func (c *CartMetrics) IncPersistFailure(store string) {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.WithLabelValues(normalizeLabel(store)).Inc()
}

// IncLoadFailure counts a swallowed read failure.
func (c *CartMetrics) IncLoadFailure(store string) {
	if c == nil || c.loadFailures == nil {
		return
	}
	c.loadFailures.WithLabelValues(normalizeLabel(store)).Inc()
}

// ObserveLoad records how long a store read took.
func (c *CartMetrics) ObserveLoad(store string, duration time.Duration) {
	if c == nil || c.loadDuration == nil {
		return
	}
	c.loadDuration.WithLabelValues(normalizeLabel(store)).Observe(duration.Seconds())
}

// SetBreakerState publishes the numeric breaker state for store.
func (c *CartMetrics) SetBreakerState(store string, state int) {
	if c == nil || c.breakerState == nil {
		return
	}
	c.breakerState.WithLabelValues(normalizeLabel(store)).Set(float64(state))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
