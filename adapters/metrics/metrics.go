// Package metrics provides Prometheus metrics for REST connections.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collector holds the connection metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	CallsTotal   *prometheus.CounterVec
	CallRetries  *prometheus.CounterVec
	CallDuration *prometheus.HistogramVec
}

// New creates a collector registered with reg.
// A nil reg creates unregistered metrics.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "basemodel",
				Subsystem: "rest",
				Name:      "calls_total",
				Help:      "Total number of REST calls by final outcome",
			},
			[]string{"connection", "method", "outcome"},
		),
		CallRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "basemodel",
				Subsystem: "rest",
				Name:      "call_retries_total",
				Help:      "Total number of REST call attempts beyond the first",
			},
			[]string{"connection", "method"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "basemodel",
				Subsystem: "rest",
				Name:      "call_duration_seconds",
				Help:      "REST call duration in seconds, retries included",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"connection", "method"},
		),
	}
}

// ObserveCall records one finished call.
func (c *Collector) ObserveCall(conn, method, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.CallsTotal.WithLabelValues(conn, method, outcome).Inc()
	c.CallDuration.WithLabelValues(conn, method).Observe(d.Seconds())
}

// IncRetry records one retried attempt.
func (c *Collector) IncRetry(conn, method string) {
	if c == nil {
		return
	}
	c.CallRetries.WithLabelValues(conn, method).Inc()
}
