package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process collectors. Each instance owns its registry so
// tests can build as many as they need.
type Metrics struct {
	Registry *prometheus.Registry

	// Claim arbitration
	ClaimOutcomes *prometheus.CounterVec

	// Persistence
	BackendFallbacks *prometheus.CounterVec
	BackendActive    *prometheus.GaugeVec

	// Event fan-out
	EventsPublished   *prometheus.CounterVec
	EventsDropped     *prometheus.CounterVec
	ActiveSubscribers prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,

		ClaimOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moveserver_claim_attempts_total",
				Help: "Claim attempts by outcome",
			},
			[]string{"outcome"},
		),

		BackendFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moveserver_backend_fallbacks_total",
				Help: "Writes diverted from the durable store to the volatile store",
			},
			[]string{"operation"},
		),

		BackendActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "moveserver_backend_active",
				Help: "1 for the persistence backend selected at startup",
			},
			[]string{"backend"},
		),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moveserver_events_published_total",
				Help: "Events handed to the fan-out",
			},
			[]string{"event_type"},
		),

		EventsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moveserver_events_dropped_total",
				Help: "Per-subscriber deliveries dropped because the subscriber buffer was full",
			},
			[]string{"event_type"},
		),

		ActiveSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "moveserver_event_subscribers",
				Help: "Currently connected event subscribers",
			},
		),
	}
}

func (m *Metrics) ObserveClaimOutcome(outcome string) {
	m.ClaimOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveBackendFallback(operation string) {
	m.BackendFallbacks.WithLabelValues(operation).Inc()
}

func (m *Metrics) SetActiveBackend(name string) {
	m.BackendActive.Reset()
	m.BackendActive.WithLabelValues(name).Set(1)
}

func (m *Metrics) ObserveEventPublished(eventType string) {
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) ObserveEventDropped(eventType string) {
	m.EventsDropped.WithLabelValues(eventType).Inc()
}

func (m *Metrics) SetSubscribers(count int) {
	m.ActiveSubscribers.Set(float64(count))
}

// Handler serves this instance's registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
