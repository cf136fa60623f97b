package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	statQueryFailures *prometheus.CounterVec
	syncFailures      *prometheus.CounterVec
	degradedDashboard prometheus.Counter
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
}

// NewMetricsService registers the core Prometheus collectors.
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

	statQueryFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_stat_query_failures_total",
		Help: "Statistic queries that fell back to their default value",
	}, []string{"query"})

	syncFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "simak_sync_failures_total",
		Help: "SIMAK reconciliation calls that failed and were skipped",
	}, []string{"operation"})

	degradedDashboard := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_degraded_responses_total",
		Help: "Dashboard responses served fully defaulted after a pipeline failure",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, statQueryFailures, syncFailures, degradedDashboard, cacheHits, cacheMisses, goroutines)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		statQueryFailures: statQueryFailures,
		syncFailures:      syncFailures,
		degradedDashboard: degradedDashboard,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records a completed HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// RecordStatQueryFailure counts a statistic query that degraded to its default.
func (s *MetricsService) RecordStatQueryFailure(query string) {
	s.statQueryFailures.WithLabelValues(query).Inc()
}

// RecordSyncFailure counts a swallowed SIMAK reconciliation failure.
func (s *MetricsService) RecordSyncFailure(operation string) {
	s.syncFailures.WithLabelValues(operation).Inc()
}

// RecordDegradedDashboard counts a fully degraded dashboard response.
func (s *MetricsService) RecordDegradedDashboard() {
	s.degradedDashboard.Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (s *MetricsService) RecordCacheLookup(hit bool) {
	if hit {
		s.cacheHits.Inc()
		return
	}
	s.cacheMisses.Inc()
}
