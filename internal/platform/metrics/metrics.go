package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the collectors exported by the service.
type Metrics struct {
	registry *prometheus.Registry

	WebhooksProcessed *prometheus.CounterVec
	OrdersExpired     prometheus.Counter
	SweepCycles       prometheus.Counter
	OrdersCreated     prometheus.Counter
}

// New registers the service collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		WebhooksProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_webhooks_processed_total",
			Help: "Gateway payment notifications processed, by outcome.",
		}, []string{"outcome"}),
		OrdersExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_expired_total",
			Help: "Orders cancelled by the expiration sweeper.",
		}),
		SweepCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sweep_cycles_total",
			Help: "Completed expiration sweep cycles.",
		}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders assembled from carts.",
		}),
	}

	registry.MustRegister(
		m.WebhooksProcessed,
		m.OrdersExpired,
		m.SweepCycles,
		m.OrdersCreated,
	)

	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
