package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "patql"

// Outcome labels for parse requests
const (
	outcomeOK            = "ok"
	outcomeStructural    = "structural"
	outcomeResourceLimit = "resource_limit"
	outcomeBadRequest    = "bad_request"
)

// Metrics holds the server's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	// Parses counts parse attempts by endpoint and outcome.
	Parses *prometheus.CounterVec
	// ParseDuration observes time spent tokenizing and parsing.
	ParseDuration *prometheus.HistogramVec
	// QueryBytes observes the size of submitted queries.
	QueryBytes prometheus.Histogram
	// RateLimited counts requests rejected by the per-client limiter.
	RateLimited prometheus.Counter
	// WebSocketClients is the number of open /ws and /lsp connections.
	WebSocketClients *prometheus.GaugeVec
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Parses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "parses_total",
			Help:      "Parse attempts by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		ParseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "parse_duration_seconds",
			Help:      "Time spent tokenizing and parsing one query.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"endpoint"}),
		QueryBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "query_bytes",
			Help:      "Size of submitted queries in bytes.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the per-client rate limiter.",
		}),
		WebSocketClients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "websocket_clients",
			Help:      "Open WebSocket connections by route.",
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		m.Parses,
		m.ParseDuration,
		m.QueryBytes,
		m.RateLimited,
		m.WebSocketClients,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// observeParse records one parse attempt
func (m *Metrics) observeParse(endpoint, outcome string, queryBytes int, elapsed time.Duration) {
	m.Parses.WithLabelValues(endpoint, outcome).Inc()
	m.ParseDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
	m.QueryBytes.Observe(float64(queryBytes))
}
