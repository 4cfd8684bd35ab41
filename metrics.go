package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-users-auth/middleware/authn"
)

// Metrics holds the service counters. Each instance registers with its
// own registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	ActivityEventsTotal *prometheus.CounterVec
	AuthOutcomesTotal   *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActivityEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "users_auth",
			Name:      "activity_events_total",
			Help:      "Audit events by type (logins, registrations, user changes).",
		}, []string{"event"}),
		AuthOutcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "users_auth",
			Name:      "request_auth_outcomes_total",
			Help:      "Authentication pipeline outcomes per request.",
		}, []string{"outcome"}),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ActivitySink counts every recorded event
func (m *Metrics) ActivitySink() ActivitySink {
	return ActivitySinkFunc(func(_ context.Context, event ActivityEvent) error {
		m.ActivityEventsTotal.WithLabelValues(string(event.EventType)).Inc()
		return nil
	})
}

// PipelineListener counts authentication outcomes
func (m *Metrics) PipelineListener() authn.Listener {
	return func(_ router.Context, outcome authn.Outcome) {
		m.AuthOutcomesTotal.WithLabelValues(string(outcome)).Inc()
	}
}

// Handler serves the prometheus exposition format
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
