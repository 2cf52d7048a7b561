package telemetry

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics owns a dedicated registry scraped on the metrics path.
// It carries runtime, process, connection pool and HTTP request series.
type PrometheusMetrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
}

// NewPrometheusMetrics creates the registry and registers the default
// collectors. sqlDB may be nil when no database pool should be reported.
func NewPrometheusMetrics(namespace string, sqlDB *sql.DB) (*PrometheusMetrics, error) {
	reg := prometheus.NewRegistry()

	pm := &PrometheusMetrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route",
			Buckets:   LatencyBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
	}

	toRegister := []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		pm.requestsTotal,
		pm.requestDuration,
		pm.inFlight,
	}
	if sqlDB != nil {
		toRegister = append(toRegister, collectors.NewDBStatsCollector(sqlDB, namespace))
	}
	for _, c := range toRegister {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return pm, nil
}

// Registry exposes the underlying registry, mainly for tests.
func (pm *PrometheusMetrics) Registry() *prometheus.Registry {
	return pm.registry
}

// Handler serves the registry in the Prometheus text format.
func (pm *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{Registry: pm.registry})
}

// RequestStarted marks a request as in flight and returns the function
// that records its completion.
func (pm *PrometheusMetrics) RequestStarted() func(method, route string, status int) {
	start := time.Now()
	pm.inFlight.Inc()
	return func(method, route string, status int) {
		pm.inFlight.Dec()
		if route == "" {
			route = "unmatched"
		}
		pm.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		pm.requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
