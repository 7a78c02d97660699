// Package metrics exposes Prometheus counters for the booking pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"techbook/internal/events"
)

const namespace = "techbook"

// Metrics holds the collectors for one registry.
type Metrics struct {
	// CommandsTotal counts processed commands by intent and outcome code.
	CommandsTotal *prometheus.CounterVec

	// OracleRequests counts oracle calls by oracle and status.
	OracleRequests *prometheus.CounterVec

	// OracleDuration is the latency of oracle calls.
	OracleDuration *prometheus.HistogramVec

	BookingConflicts  prometheus.Counter
	BookingsCreated   prometheus.Counter
	BookingsCancelled prometheus.Counter

	// HTTPRequests counts API requests by handler.
	HTTPRequests *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates and registers the collectors on reg. A nil reg uses a fresh
// private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		CommandsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Count of processed commands by intent and outcome.",
			},
			[]string{"intent", "outcome"},
		),
		OracleRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "oracle_requests_total",
				Help:      "Count of oracle requests by oracle and status.",
			},
			[]string{"oracle", "status"},
		),
		OracleDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "oracle_request_duration_seconds",
				Help:      "Oracle request latency.",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10},
			},
			[]string{"oracle"},
		),
		BookingConflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Count of rejected overlapping bookings.",
		}),
		BookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Count of bookings created.",
		}),
		BookingsCancelled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_cancelled_total",
			Help:      "Count of bookings cancelled.",
		}),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Count of API requests by handler.",
			},
			[]string{"handler"},
		),
		gatherer: reg,
	}
}

func (m *Metrics) IncCommand(intent, outcome string) {
	m.CommandsTotal.WithLabelValues(intent, outcome).Inc()
}

// ObserveOracle records one oracle call.
func (m *Metrics) ObserveOracle(oracle string, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.OracleRequests.WithLabelValues(oracle, status).Inc()
	m.OracleDuration.WithLabelValues(oracle).Observe(took.Seconds())
}

func (m *Metrics) IncHTTP(handler string) {
	m.HTTPRequests.WithLabelValues(handler).Inc()
}

// Subscribe counts booking lifecycle events from bus.
func (m *Metrics) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.BookingCreated, func(events.Event) error {
		m.BookingsCreated.Inc()
		return nil
	})
	bus.Subscribe(events.BookingCancelled, func(events.Event) error {
		m.BookingsCancelled.Inc()
		return nil
	})
	bus.Subscribe(events.BookingConflict, func(events.Event) error {
		m.BookingConflicts.Inc()
		return nil
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
