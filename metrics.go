package epwcharts

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector provides Prometheus metrics for chart builds and the
// websocket stream. It is safe for concurrent use.
type MetricsCollector struct {
	chartsBuilt        *prometheus.CounterVec
	chartBuildDuration *prometheus.HistogramVec
	chartBuildErrors   *prometheus.CounterVec

	websocketConnections prometheus.Gauge
	rowsStreamed         prometheus.Counter

	registry *prometheus.Registry
}

// NewMetricsCollector creates a collector backed by its own registry, so the
// /metrics endpoint only exposes this process's metrics.
func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	return &MetricsCollector{
		chartsBuilt: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "epwcharts_charts_built_total",
				Help: "Total number of chart figures built, by chart type",
			},
			[]string{"chart"},
		),
		chartBuildDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "epwcharts_chart_build_duration_seconds",
				Help:    "Duration of chart figure builds in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"chart"},
		),
		chartBuildErrors: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "epwcharts_chart_build_errors_total",
				Help: "Total number of failed chart figure builds, by chart type",
			},
			[]string{"chart"},
		),
		websocketConnections: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "epwcharts_websocket_connections",
				Help: "Number of websocket clients currently connected",
			},
		),
		rowsStreamed: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "epwcharts_rows_streamed_total",
				Help: "Total number of data rows written to websocket clients",
			},
		),
		registry: registry,
	}
}

// ObserveChartBuild records one chart build attempt.
func (m *MetricsCollector) ObserveChartBuild(chart string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.chartBuildErrors.WithLabelValues(chart).Inc()
		return
	}
	m.chartsBuilt.WithLabelValues(chart).Inc()
	m.chartBuildDuration.WithLabelValues(chart).Observe(duration.Seconds())
}

// WebsocketConnected and WebsocketDisconnected track the connection gauge.
func (m *MetricsCollector) WebsocketConnected() {
	if m == nil {
		return
	}
	m.websocketConnections.Inc()
}

func (m *MetricsCollector) WebsocketDisconnected() {
	if m == nil {
		return
	}
	m.websocketConnections.Dec()
}

// RowsStreamed adds to the streamed row counter.
func (m *MetricsCollector) RowsStreamed(n int) {
	if m == nil {
		return
	}
	m.rowsStreamed.Add(float64(n))
}

// Handler returns the HTTP handler serving this collector's registry.
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
