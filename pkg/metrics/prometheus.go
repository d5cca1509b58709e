// Package metrics provides Prometheus metrics for the standings library.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the standings library.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Write path
	snapshotSaves   prometheus.Counter
	snapshotSkips   prometheus.Counter
	snapshotDeletes prometheus.Counter

	// Derived caches
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	cacheTimeouts     *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec

	// Read path
	topQueries  prometheus.Counter
	droppedRows prometheus.Counter

	// Rating distribution observations (the monitoring sink) plus the
	// health of its fire-and-forget emission path.
	ratingRatio   *prometheus.GaugeVec
	monitorErrors prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "standings",
		subsystem:        "ranking",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.snapshotSaves = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_saves_total",
		Help:      "Total number of ranking snapshots upserted",
	})

	m.snapshotSkips = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_saves_skipped_total",
		Help:      "Total number of ineligible snapshot writes silently skipped",
	})

	m.snapshotDeletes = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshot_deletes_total",
		Help:      "Total number of snapshot rows deleted on user removal",
	})

	m.cacheHits = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_hits_total",
		Help:      "Cache hits per derived cache",
	}, []string{"cache"})

	m.cacheMisses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_misses_total",
		Help:      "Cache misses per derived cache",
	}, []string{"cache"})

	m.cacheTimeouts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "cache_result_timeouts_total",
		Help:      "Callers that gave up waiting on an in-flight computation",
	}, []string{"cache"})

	m.recomputeDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recompute_duration_seconds",
		Help:      "Duration of derived-value recomputations per cache",
		Buckets:   m.histogramBuckets,
	}, []string{"cache"})

	m.topQueries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "top_queries_total",
		Help:      "Total number of top-K leaderboard queries",
	})

	m.droppedRows = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dropped_rows_total",
		Help:      "Snapshot rows dropped because the owner could not be resolved",
	})

	m.ratingRatio = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rating_ratio",
		Help:      "Cumulative share of the population at or below a rating boundary",
	}, []string{"perf", "rating"})

	m.monitorErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "monitor_errors_total",
		Help:      "Failures in the fire-and-forget distribution emission path",
	})
}

// RecordSnapshotSave increments the snapshot upsert counter.
func (m *Manager) RecordSnapshotSave() {
	if m.enabled {
		m.snapshotSaves.Inc()
	}
}

// RecordSnapshotSkip increments the skipped-write counter.
func (m *Manager) RecordSnapshotSkip() {
	if m.enabled {
		m.snapshotSkips.Inc()
	}
}

// RecordSnapshotDeletes adds to the deleted-rows counter.
func (m *Manager) RecordSnapshotDeletes(n int) {
	if m.enabled && n > 0 {
		m.snapshotDeletes.Add(float64(n))
	}
}

// RecordCacheHit increments the hit counter for the named cache.
func (m *Manager) RecordCacheHit(cache string) {
	if m.enabled {
		m.cacheHits.WithLabelValues(cache).Inc()
	}
}

// RecordCacheMiss increments the miss counter for the named cache.
func (m *Manager) RecordCacheMiss(cache string) {
	if m.enabled {
		m.cacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordCacheTimeout increments the result-timeout counter for the named cache.
func (m *Manager) RecordCacheTimeout(cache string) {
	if m.enabled {
		m.cacheTimeouts.WithLabelValues(cache).Inc()
	}
}

// RecordRecompute observes one recomputation duration in seconds.
func (m *Manager) RecordRecompute(cache string, seconds float64) {
	if m.enabled {
		m.recomputeDuration.WithLabelValues(cache).Observe(seconds)
	}
}

// RecordTopQuery increments the top-K query counter.
func (m *Manager) RecordTopQuery() {
	if m.enabled {
		m.topQueries.Inc()
	}
}

// RecordDroppedRow increments the unresolved-owner counter.
func (m *Manager) RecordDroppedRow() {
	if m.enabled {
		m.droppedRows.Inc()
	}
}

// ObserveRatingRatio sets the cumulative population ratio for one boundary.
func (m *Manager) ObserveRatingRatio(perfKey string, boundary int, ratio float64) {
	if m.enabled {
		m.ratingRatio.WithLabelValues(perfKey, strconv.Itoa(boundary)).Set(ratio)
	}
}

// RecordMonitorError increments the emission-failure counter.
func (m *Manager) RecordMonitorError() {
	if m.enabled {
		m.monitorErrors.Inc()
	}
}

// Package-level helpers operating on the global manager.

// RecordSnapshotSave increments the snapshot upsert counter.
func RecordSnapshotSave() { globalManager.RecordSnapshotSave() }

// RecordSnapshotSkip increments the skipped-write counter.
func RecordSnapshotSkip() { globalManager.RecordSnapshotSkip() }

// RecordSnapshotDeletes adds to the deleted-rows counter.
func RecordSnapshotDeletes(n int) { globalManager.RecordSnapshotDeletes(n) }

// RecordCacheHit increments the hit counter for the named cache.
func RecordCacheHit(cache string) { globalManager.RecordCacheHit(cache) }

// RecordCacheMiss increments the miss counter for the named cache.
func RecordCacheMiss(cache string) { globalManager.RecordCacheMiss(cache) }

// RecordCacheTimeout increments the result-timeout counter for the named cache.
func RecordCacheTimeout(cache string) { globalManager.RecordCacheTimeout(cache) }

// RecordRecompute observes one recomputation duration in seconds.
func RecordRecompute(cache string, seconds float64) { globalManager.RecordRecompute(cache, seconds) }

// RecordTopQuery increments the top-K query counter.
func RecordTopQuery() { globalManager.RecordTopQuery() }

// RecordDroppedRow increments the unresolved-owner counter.
func RecordDroppedRow() { globalManager.RecordDroppedRow() }

// ObserveRatingRatio sets the cumulative population ratio for one boundary.
func ObserveRatingRatio(perfKey string, boundary int, ratio float64) {
	globalManager.ObserveRatingRatio(perfKey, boundary, ratio)
}

// RecordMonitorError increments the emission-failure counter.
func RecordMonitorError() { globalManager.RecordMonitorError() }

// GetRegistry returns the registry backing the global manager, for scraping.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
