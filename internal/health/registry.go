// Package health exposes the control core's runtime metrics over
// Prometheus, fed by the Observer callbacks in observer.go and by the
// engine tick's safety-state, plugin-quarantine and pipeline-generation
// gauge updates. Grounded on
// 99souls-ariadne/engine's MetricsEnabled/PrometheusListenAddr wiring,
// adapted from an optional facade toggle into a fixed always-on registry
// (the control core has no HTTP surface of its own to gate behind a
// flag; the caller decides whether to serve Handler()).
package health

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps a dedicated prometheus.Registry (not the global default,
// so multiple Engine instances in one process don't collide) plus the
// gauge/counter set the engine updates every tick or on each fault.
type Registry struct {
	reg *prometheus.Registry

	TickJitterP50Us   prometheus.Gauge
	TickJitterP99Us   prometheus.Gauge
	TickProcessingUs  prometheus.Gauge
	TorqueWriteTotal  prometheus.Counter
	TorqueWriteErrors prometheus.Counter
	TelemetryReadTotal prometheus.Counter
	FaultsByKind      *prometheus.CounterVec
	SafetyState       prometheus.Gauge
	PluginQuarantined prometheus.Gauge
	PipelineGeneration prometheus.Gauge
}

// NewRegistry constructs and registers the control core's metric set
// under the given namespace (typically "ffbcore").
func NewRegistry(namespace string) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		TickJitterP50Us: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "tick_jitter_p50_microseconds",
			Help: "Median absolute scheduler wakeup jitter over the sliding window.",
		}),
		TickJitterP99Us: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "tick_jitter_p99_microseconds",
			Help: "99th percentile absolute scheduler wakeup jitter over the sliding window.",
		}),
		TickProcessingUs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "tick_processing_microseconds",
			Help: "Most recent tick's pipeline-plus-IO processing time.",
		}),
		TorqueWriteTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "torque_writes_total",
			Help: "Total HID torque report writes attempted.",
		}),
		TorqueWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "torque_write_errors_total",
			Help: "Total HID torque report writes that failed.",
		}),
		TelemetryReadTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "telemetry_reads_total",
			Help: "Total HID telemetry report reads attempted.",
		}),
		FaultsByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "faults_total",
			Help: "Total safety faults detected, labeled by kind.",
		}, []string{"kind"}),
		SafetyState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "safety_state",
			Help: "Current safety FSM state as an integer (see safety.State).",
		}),
		PluginQuarantined: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "plugin_quarantined",
			Help: "1 if the active FFB plugin is currently quarantined, else 0.",
		}),
		PipelineGeneration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pipeline_generation",
			Help: "Monotonic count of committed pipeline swaps.",
		}),
	}

	reg.MustRegister(
		r.TickJitterP50Us, r.TickJitterP99Us, r.TickProcessingUs,
		r.TorqueWriteTotal, r.TorqueWriteErrors, r.TelemetryReadTotal,
		r.FaultsByKind, r.SafetyState, r.PluginQuarantined, r.PipelineGeneration,
	)
	return r
}

// Handler returns an http.Handler serving this registry's metrics in the
// Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveFault increments the fault counter for kind.
func (r *Registry) ObserveFault(kind string) {
	r.FaultsByKind.WithLabelValues(kind).Inc()
}

// SetSafetyState publishes the safety FSM's current state, for dashboards
// that alert on time spent outside SafeTorque/HighTorqueActive.
func (r *Registry) SetSafetyState(state int) {
	r.SafetyState.Set(float64(state))
}

// SetPluginQuarantined publishes whether the active FFB plugin is
// currently withheld by the watchdog.
func (r *Registry) SetPluginQuarantined(quarantined bool) {
	if quarantined {
		r.PluginQuarantined.Set(1)
		return
	}
	r.PluginQuarantined.Set(0)
}

// SetPipelineGeneration publishes the pipeline slot's commit count, so a
// dashboard can tell a profile reload happened without scraping logs.
func (r *Registry) SetPipelineGeneration(generation uint64) {
	r.PipelineGeneration.Set(float64(generation))
}
