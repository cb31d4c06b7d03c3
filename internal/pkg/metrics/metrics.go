// Package metrics holds the prometheus collectors of the bridge.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smarthome"

type Metrics struct {
	StateUpdates   *prometheus.CounterVec
	ToolCalls      *prometheus.CounterVec
	SnapshotWrites *prometheus.CounterVec
	ConnectionUp   *prometheus.GaugeVec

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		StateUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "state",
				Name:      "updates_total",
				Help:      "Device state changes applied to the registry",
			},
			[]string{"source"},
		),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "tool",
				Name:      "calls_total",
				Help:      "Tool invocations by outcome",
			},
			[]string{"tool", "status"},
		),
		SnapshotWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "snapshot",
				Name:      "writes_total",
				Help:      "State snapshot file writes by outcome",
			},
			[]string{"status"},
		),
		ConnectionUp: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "connection",
				Name:      "up",
				Help:      "Backend connection status (0=down, 1=up)",
			},
			[]string{"backend"},
		),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.StateUpdates, m.ToolCalls, m.SnapshotWrites, m.ConnectionUp)
	return m
}

// The helpers below accept a nil receiver so components can run without metrics.

func (m *Metrics) StateUpdated(source string) {
	if m == nil {
		return
	}
	m.StateUpdates.WithLabelValues(source).Inc()
}

func (m *Metrics) ToolCalled(tool string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
}

func (m *Metrics) SnapshotWritten(err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.SnapshotWrites.WithLabelValues(status).Inc()
}

func (m *Metrics) SetConnected(backend string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.ConnectionUp.WithLabelValues(backend).Set(v)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
