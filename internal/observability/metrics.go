package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the service.
type Metrics struct {
	HTTPRequests *prometheus.CounterVec   // labels: route, method, status
	HTTPDuration *prometheus.HistogramVec // labels: route

	// Location resolution.
	ResolveOutcomes  *prometheus.CounterVec   // labels: stage={cache,extract,extract_fallback,geocode,geocode_fallback,failed}
	UpstreamDuration *prometheus.HistogramVec // labels: provider
	UpstreamErrors   *prometheus.CounterVec   // labels: provider

	CacheLookups   *prometheus.CounterVec // labels: namespace, result={hit,miss,stale,error}
	FixtureServed  *prometheus.CounterVec // labels: feed
	Broadcasts     *prometheus.CounterVec // labels: event, scope={global,group}
	WSSubscribers  prometheus.Gauge
	IntakeConsumed prometheus.Counter
	IntakeFailed   prometheus.Counter
	IntakeRunning  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := NewMetricsForTesting()
	prometheus.MustRegister(
		m.HTTPRequests,
		m.HTTPDuration,
		m.ResolveOutcomes,
		m.UpstreamDuration,
		m.UpstreamErrors,
		m.CacheLookups,
		m.FixtureServed,
		m.Broadcasts,
		m.WSSubscribers,
		m.IntakeConsumed,
		m.IntakeFailed,
		m.IntakeRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as
// many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_api",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "disaster_api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"route"}),
		ResolveOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_api",
			Name:      "resolve_outcomes_total",
			Help:      "Location resolution steps taken, by stage.",
		}, []string{"stage"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "disaster_api",
			Name:      "upstream_duration_seconds",
			Help:      "Third-party API call duration by provider.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_api",
			Name:      "upstream_errors_total",
			Help:      "Third-party API failures by provider.",
		}, []string{"provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_api",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by namespace and result.",
		}, []string{"namespace", "result"}),
		FixtureServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_api",
			Name:      "fixture_served_total",
			Help:      "Responses that fell back to static fixture data, by feed.",
		}, []string{"feed"}),
		Broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "disaster_api",
			Name:      "broadcasts_total",
			Help:      "Push events emitted, by event name and scope.",
		}, []string{"event", "scope"}),
		WSSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "disaster_api",
			Name:      "ws_subscribers",
			Help:      "Currently connected WebSocket subscribers.",
		}),
		IntakeConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_api",
			Name:      "intake_messages_consumed_total",
			Help:      "Disaster reports read from the intake topic.",
		}),
		IntakeFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "disaster_api",
			Name:      "intake_messages_failed_total",
			Help:      "Disaster reports that could not be parsed or created.",
		}),
		IntakeRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "disaster_api",
			Name:      "intake_running",
			Help:      "1 when the intake pipeline is active, 0 when shut down.",
		}),
	}
}
