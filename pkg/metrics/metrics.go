// Package metrics exposes session activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "menuscript"

// Recorder implements session.Recorder on a private registry. A nil Recorder
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	operations  *prometheus.CounterVec
	failures    *prometheus.CounterVec
	activations *prometheus.CounterVec
	publishes   prometheus.Counter
	unpublishes prometheus.Counter
	pending     prometheus.Gauge
	published   prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_applied_total",
			Help:      "Menu operations applied, by kind.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_failed_total",
			Help:      "Menu operations that failed to apply, by kind and error category.",
		}, []string{"kind", "category"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_activations_total",
			Help:      "Action activations received, by action name.",
		}, []string{"action"}),
		publishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publishes_total",
			Help:      "Times the menu was published.",
		}),
		unpublishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unpublishes_total",
			Help:      "Times the menu was unpublished.",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_operations",
			Help:      "Operations left to walk.",
		}),
		published: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published",
			Help:      "1 while the menu is published.",
		}),
	}

	r.registry.MustRegister(
		r.operations,
		r.failures,
		r.activations,
		r.publishes,
		r.unpublishes,
		r.pending,
		r.published,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) OperationApplied(kind string) {
	if r == nil {
		return
	}
	r.operations.WithLabelValues(kind).Inc()
}

func (r *Recorder) OperationFailed(kind, category string) {
	if r == nil {
		return
	}
	if category == "" {
		category = "internal"
	}
	r.failures.WithLabelValues(kind, category).Inc()
}

func (r *Recorder) ActionActivated(name string) {
	if r == nil {
		return
	}
	r.activations.WithLabelValues(name).Inc()
}

func (r *Recorder) Published() {
	if r == nil {
		return
	}
	r.publishes.Inc()
	r.published.Set(1)
}

func (r *Recorder) Unpublished() {
	if r == nil {
		return
	}
	r.unpublishes.Inc()
	r.published.Set(0)
}

func (r *Recorder) PendingOperations(n int) {
	if r == nil {
		return
	}
	r.pending.Set(float64(n))
}
