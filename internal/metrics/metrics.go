// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors used across the service. Construct one per
// process and inject it; registering twice on the same registry panics.
type Metrics struct {
	IngestTotal    *prometheus.CounterVec
	IngestFailures prometheus.Counter
	HTTPDuration   *prometheus.HistogramVec
}

// New registers the collectors on the given registerer (nil means the
// default registry).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		IngestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "deskhive_inbound_emails_total",
			Help: "Inbound emails processed, by resulting action.",
		}, []string{"action"}),
		IngestFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "deskhive_inbound_email_failures_total",
			Help: "Inbound emails that failed internally (still acknowledged).",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deskhive_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
