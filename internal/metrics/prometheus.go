// Package metrics exposes the gateway counters in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives gate outcomes. Implementations must not block.
type Recorder interface {
	Allowed(userEmail string)
	Decision(outcome string)
}

type PrometheusRecorder struct {
	registry  *prometheus.Registry
	allowed   *prometheus.CounterVec
	decisions *prometheus.CounterVec
}

func NewPrometheusRecorder() *PrometheusRecorder {
	r := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		allowed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pesto",
			Subsystem: "gate",
			Name:      "allowed_total",
			Help:      "Requests admitted by the access gate, per user.",
		}, []string{"user_email"}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pesto",
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Access gate decisions by outcome.",
		}, []string{"outcome"}),
	}
	r.registry.MustRegister(r.allowed, r.decisions)
	return r
}

func (r *PrometheusRecorder) Allowed(userEmail string) {
	r.allowed.WithLabelValues(userEmail).Inc()
}

func (r *PrometheusRecorder) Decision(outcome string) {
	r.decisions.WithLabelValues(outcome).Inc()
}

// AllowedCounter returns the admitted-calls counter of one user.
func (r *PrometheusRecorder) AllowedCounter(userEmail string) prometheus.Counter {
	return r.allowed.WithLabelValues(userEmail)
}

func (r *PrometheusRecorder) DecisionCounter(outcome string) prometheus.Counter {
	return r.decisions.WithLabelValues(outcome)
}

// Handler serves the /metrics endpoint.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (r *PrometheusRecorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

type Noop struct{}

func (Noop) Allowed(string)  {}
func (Noop) Decision(string) {}
