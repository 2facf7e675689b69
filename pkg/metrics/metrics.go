package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

func NewServerMetrics(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promotion_service",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "promotion_service",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	prometheus.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// EngineMetrics counts pricing-engine operations by outcome.
type EngineMetrics struct {
	Operations *prometheus.CounterVec
	DurationMS *prometheus.HistogramVec
}

func NewEngineMetrics() *EngineMetrics {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "promotion_service",
		Subsystem: "engine",
		Name:      "operations_total",
		Help:      "Total number of pricing engine operations.",
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "promotion_service",
		Subsystem: "engine",
		Name:      "operation_duration_ms",
		Help:      "Pricing engine operation duration in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"operation"})

	prometheus.MustRegister(operations, duration)
	return &EngineMetrics{Operations: operations, DurationMS: duration}
}

func (m *EngineMetrics) Observe(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.DurationMS.WithLabelValues(operation).Observe(float64(time.Since(start).Milliseconds()))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
