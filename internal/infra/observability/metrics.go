package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the ledger service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	transactionsOps  *prometheus.CounterVec
	balanceRecalcs   prometheus.Counter
	rollbackFailures prometheus.Counter
	rateResolutions  *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contable_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contable_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contable_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contable_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		transactionsOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contable_transaction_ops_total",
				Help: "Total transaction mutations by action.",
			},
			[]string{"action"},
		),
		balanceRecalcs: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "contable_balance_recalcs_total",
				Help: "Total full account balance recalculations.",
			},
		),
		rollbackFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "contable_rollback_failures_total",
				Help: "Total failed compensating rollbacks during transfer creation.",
			},
		),
		rateResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contable_rate_resolutions_total",
				Help: "Total exchange rate resolutions by source.",
			},
			[]string{"source"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrTransactionOp counts a transaction mutation (created, updated, deleted).
func (m *Metrics) IncrTransactionOp(action string) {
	m.transactionsOps.WithLabelValues(action).Inc()
}

// IncrBalanceRecalc counts a full balance recalculation.
func (m *Metrics) IncrBalanceRecalc() {
	m.balanceRecalcs.Inc()
}

// IncrRollbackFailure counts a compensating rollback that itself failed.
func (m *Metrics) IncrRollbackFailure() {
	m.rollbackFailures.Inc()
}

// IncrRateResolution counts a rate resolution by source (historical, current, default).
func (m *Metrics) IncrRateResolution(source string) {
	m.rateResolutions.WithLabelValues(source).Inc()
}

// RateResolutionCount returns the cumulative resolutions for a source label.
// Used by the rates status endpoint to report fallback frequency.
func (m *Metrics) RateResolutionCount(source string) float64 {
	return getCounterValue(m.rateResolutions, source)
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
