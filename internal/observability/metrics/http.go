// Package metrics provides HTTP handler metrics for observability
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains Prometheus metrics for dashboard HTTP handlers
type HTTPMetrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	chartRenderDuration *prometheus.HistogramVec
	chartRenderErrors   *prometheus.CounterVec
	refreshTotal        *prometheus.CounterVec
}

// NewHTTPMetrics creates and registers new HTTP handler metrics
func NewHTTPMetrics(registry *prometheus.Registry) (*HTTPMetrics, error) {
	m := &HTTPMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *HTTPMetrics) initMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exodash_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"}, // path is the route pattern, e.g. /api/v1/planets/:name
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exodash_http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.chartRenderDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "exodash_chart_render_duration_seconds",
			Help:    "Time taken to render charts",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
		[]string{"chart", "format"}, // chart: pie, scatter; format: html, png
	)

	m.chartRenderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exodash_chart_render_errors_total",
			Help: "Total number of chart render failures",
		},
		[]string{"chart", "format"},
	)

	m.refreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exodash_refresh_requests_total",
			Help: "On-demand refresh requests by result",
		},
		[]string{"result"}, // result: success, error, rate_limited
	)
}

// Describe implements the Collector interface
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
	m.chartRenderDuration.Describe(ch)
	m.chartRenderErrors.Describe(ch)
	m.refreshTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
	m.chartRenderDuration.Collect(ch)
	m.chartRenderErrors.Collect(ch)
	m.refreshTotal.Collect(ch)
}

// RecordRequest records a completed HTTP request
func (m *HTTPMetrics) RecordRequest(method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, statusLabel(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordChartRender records a chart render and whether it failed
func (m *HTTPMetrics) RecordChartRender(chart, format string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.chartRenderDuration.WithLabelValues(chart, format).Observe(duration.Seconds())
	if err != nil {
		m.chartRenderErrors.WithLabelValues(chart, format).Inc()
	}
}

// RecordRefresh records an on-demand refresh request
func (m *HTTPMetrics) RecordRefresh(result string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(result).Inc()
}

func statusLabel(code int) string {
	return strconv.Itoa(code)
}
