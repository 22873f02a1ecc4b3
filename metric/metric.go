package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the pipeline's collectors on a private Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP client core
	RequestsTotal    *prometheus.CounterVec // labels: method, outcome
	RetriesTotal     prometheus.Counter
	AdmissionRejects prometheus.Counter
	RequestDuration  *prometheus.HistogramVec // label: method

	// Fault collector
	FaultsCollected prometheus.Counter
	FaultsDeduped   prometheus.Counter
	FaultQueueDepth prometheus.Gauge
	FlushesTotal    *prometheus.CounterVec // label: outcome

	// Realtime channel
	ChannelReconnects prometheus.Counter
	ChannelConnected  prometheus.Gauge
	EventsDispatched  *prometheus.CounterVec // label: type
}

// Request outcome label values
const (
	OutcomeSuccess  = "success"
	OutcomeBusiness = "business_error"
	OutcomeHTTP     = "http_error"
	OutcomeNetwork  = "network_error"
)

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consoleclient_requests_total",
			Help: "Requests completed, by method and outcome",
		}, []string{"method", "outcome"}),
		RetriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consoleclient_retries_total",
			Help: "Retry attempts issued",
		}),
		AdmissionRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consoleclient_admission_rejects_total",
			Help: "Requests blocked by the admission guard before transmission",
		}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "consoleclient_request_duration_seconds",
			Help:    "Request duration including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		FaultsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consoleclient_faults_collected_total",
			Help: "Faults accepted by the collector",
		}),
		FaultsDeduped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consoleclient_faults_deduped_total",
			Help: "Faults dropped inside the dedupe window",
		}),
		FaultQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "consoleclient_fault_queue_depth",
			Help: "Faults waiting for the next batch flush",
		}),
		FlushesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consoleclient_fault_flushes_total",
			Help: "Batch flushes, by outcome",
		}, []string{"outcome"}),
		ChannelReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "consoleclient_channel_reconnects_total",
			Help: "Realtime channel reconnect attempts",
		}),
		ChannelConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "consoleclient_channel_connected",
			Help: "Whether the realtime channel is connected (0 or 1)",
		}),
		EventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "consoleclient_events_dispatched_total",
			Help: "Realtime events dispatched to subscribers, by type",
		}, []string{"type"}),
	}

	registry.MustRegister(
		m.RequestsTotal, m.RetriesTotal, m.AdmissionRejects, m.RequestDuration,
		m.FaultsCollected, m.FaultsDeduped, m.FaultQueueDepth, m.FlushesTotal,
		m.ChannelReconnects, m.ChannelConnected, m.EventsDispatched,
	)

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
