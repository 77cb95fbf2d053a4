package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	cacheLatency        prometheus.Observer
	cacheWrite          prometheus.Observer
	cacheHitRatio       prometheus.Gauge
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	dbQueryDuration     *prometheus.HistogramVec
	bookings            *prometheus.CounterVec
	bookingDuration     prometheus.Observer
	scheduleEntries     prometheus.Gauge
	persistFailures     prometheus.Counter
	integrityViolations prometheus.Counter
	realtimeClients     prometheus.Gauge

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
	persistFailureCount  uint64
	violationCount       uint64

	bookingMu     sync.Mutex
	bookingCounts map[string]uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_bookings_total",
		Help: "Schedule requests by final state and rejection stage",
	}, []string{"state", "stage"})

	bookingDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_booking_duration_seconds",
		Help:    "Time spent deciding a schedule request",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})

	scheduleEntries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_schedule_entries",
		Help: "Committed entries held by the schedule index",
	})

	persistFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_persist_failures_total",
		Help: "Entry persistence jobs that exhausted their retries",
	})

	integrityViolations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_integrity_violations_total",
		Help: "Integrity audits that found a broken index invariant",
	})

	realtimeClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_realtime_clients",
		Help: "Connected websocket subscribers",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, dbQueryDuration,
		bookings, bookingDuration, scheduleEntries, persistFailures, integrityViolations, realtimeClients, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:            registry,
		handler:             handler,
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		cacheLatency:        cacheLatency,
		cacheWrite:          cacheWrite,
		cacheHitRatio:       cacheHitRatio,
		cacheHits:           cacheHits,
		cacheMisses:         cacheMisses,
		dbQueryDuration:     dbQueryDuration,
		bookings:            bookings,
		bookingDuration:     bookingDuration,
		scheduleEntries:     scheduleEntries,
		persistFailures:     persistFailures,
		integrityViolations: integrityViolations,
		realtimeClients:     realtimeClients,
		bookingCounts:       make(map[string]uint64),
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// timedQuery runs a store call and records its duration under label.
func timedQuery[T any](m *MetricsService, label string, fn func() (T, error)) (T, error) {
	start := time.Now()
	value, err := fn()
	m.ObserveDBQuery(label, time.Since(start))
	return value, err
}

// RecordBooking counts a schedule request outcome. stage is the state a rejection happened in.
func (m *MetricsService) RecordBooking(state, stage dto.BookingState, duration time.Duration) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(string(state), string(stage)).Inc()
	m.bookingDuration.Observe(duration.Seconds())
	m.bookingMu.Lock()
	m.bookingCounts[string(state)]++
	m.bookingMu.Unlock()
}

// SetScheduleEntries publishes the current index size.
func (m *MetricsService) SetScheduleEntries(n int) {
	if m == nil {
		return
	}
	m.scheduleEntries.Set(float64(n))
}

// RecordPersistFailure counts a dropped write-behind job.
func (m *MetricsService) RecordPersistFailure() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
	atomic.AddUint64(&m.persistFailureCount, 1)
}

// RecordIntegrityViolation counts a failed index audit.
func (m *MetricsService) RecordIntegrityViolation() {
	if m == nil {
		return
	}
	m.integrityViolations.Inc()
	atomic.AddUint64(&m.violationCount, 1)
}

// SetRealtimeClients publishes the websocket subscriber count.
func (m *MetricsService) SetRealtimeClients(n int) {
	if m == nil {
		return
	}
	m.realtimeClients.Set(float64(n))
}

// Snapshot returns aggregated metrics suitable for the stats endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)

	var cacheRatio float64
	totalLookups := hits + misses
	if totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var avgDBMs float64
	if dbCount > 0 {
		avgDBMs = float64(dbDuration) / float64(dbCount) / float64(time.Millisecond)
	}

	m.bookingMu.Lock()
	bookings := make(map[string]uint64, len(m.bookingCounts))
	for state, count := range m.bookingCounts {
		bookings[state] = count
	}
	m.bookingMu.Unlock()

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: avgDBMs,
		Bookings:                 bookings,
		PersistFailures:          atomic.LoadUint64(&m.persistFailureCount),
		IntegrityViolations:      atomic.LoadUint64(&m.violationCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
