package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Command outcomes recorded in metrics.
const (
	resultApplied    = "applied"
	resultRejected   = "rejected"
	resultInvalid    = "invalid"
	resultSaveFailed = "save_failed"
)

type metrics struct {
	registry        *prometheus.Registry
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	reloadsTotal    prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mininab",
				Name:      "commands_total",
				Help:      "Commands received through the API, by op and result.",
			},
			[]string{"op", "result"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mininab",
				Name:      "command_duration_seconds",
				Help:      "Time spent applying and saving a command.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		reloadsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mininab",
				Name:      "reloads_total",
				Help:      "Ledger reloads triggered by file changes.",
			},
		),
	}
	m.registry.MustRegister(m.commandsTotal, m.commandDuration, m.reloadsTotal)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
