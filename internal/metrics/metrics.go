// Package metrics holds the Prometheus collectors exported by the gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the gateway collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	commands *prometheus.CounterVec
	duration *prometheus.HistogramVec
	switches *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kgate",
			Name:      "commands_total",
			Help:      "Commands submitted to the gateway, by tool, mode and outcome.",
		}, []string{"tool", "mode", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kgate",
			Name:      "command_duration_seconds",
			Help:      "Wall time of forwarded commands.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"tool", "mode"}),
		switches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kgate",
			Name:      "session_switches_total",
			Help:      "Context and namespace switches, by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	reg.MustRegister(m.commands, m.duration, m.switches)

	return m
}

// ObserveCommand records one command decision. elapsed is ignored for commands that never ran.
func (m *Metrics) ObserveCommand(tool, mode, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.commands.WithLabelValues(tool, mode, outcome).Inc()

	if elapsed > 0 {
		m.duration.WithLabelValues(tool, mode).Observe(elapsed.Seconds())
	}
}

// ObserveSwitch records one context or namespace switch.
func (m *Metrics) ObserveSwitch(kind, outcome string) {
	if m == nil {
		return
	}

	m.switches.WithLabelValues(kind, outcome).Inc()
}
