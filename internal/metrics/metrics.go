// Package metrics provides Prometheus instrumentation for the growth engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsTotal counts tracked A/B events by type.
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "growth_engine",
			Name:      "events_total",
			Help:      "Total A/B events recorded by type.",
		},
		[]string{"type"},
	)

	// AssignmentsTotal counts variant resolutions by outcome.
	AssignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "growth_engine",
			Name:      "assignments_total",
			Help:      "Total variant resolutions by outcome (assigned, excluded, none).",
		},
		[]string{"outcome"},
	)

	// TriggerFiresTotal counts behavior trigger firings by trigger id.
	TriggerFiresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "growth_engine",
			Name:      "trigger_fires_total",
			Help:      "Total behavior trigger firings by trigger id.",
		},
		[]string{"trigger"},
	)

	// ScoreRequestsTotal counts engagement scoring requests.
	ScoreRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "growth_engine",
			Name:      "score_requests_total",
			Help:      "Total engagement scoring requests served.",
		},
	)

	// ActiveSessions tracks the number of live journey sessions.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "growth_engine",
			Name:      "active_sessions",
			Help:      "Number of currently live journey sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		EventsTotal,
		AssignmentsTotal,
		TriggerFiresTotal,
		ScoreRequestsTotal,
		ActiveSessions,
	)
}

// Handler returns the Prometheus metrics HTTP handler for the /metrics
// endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
