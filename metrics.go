package ffbcore

import (
	"sort"
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the torque-write latency histogram buckets in
// nanoseconds, covering the 1 kHz tick budget with headroom for USB
// stalls (1us to 10ms, logarithmic spacing).
var LatencyBuckets = []uint64{
	1_000,      // 1us
	10_000,     // 10us
	100_000,    // 100us
	500_000,    // 500us
	1_000_000,  // 1ms
	2_000_000,  // 2ms
	5_000_000,  // 5ms
	10_000_000, // 10ms
}

const numLatencyBuckets = 8

// Metrics tracks performance and safety statistics for one Engine. All
// fields are updated from the RT tick thread without locking; readers
// use Snapshot to get a consistent-enough view for export (§4.1, §4.6).
type Metrics struct {
	TorqueWrites      atomic.Uint64
	TorqueWriteErrors atomic.Uint64
	TelemetryReads    atomic.Uint64
	TelemetryErrors   atomic.Uint64

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	TickCount      atomic.Uint64
	TickOverruns   atomic.Uint64 // ticks where processing exceeded the tick period
	FaultCount     atomic.Uint64
	PluginTimeouts atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a new, zeroed Metrics instance with StartTime set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordTorqueWrite records the outcome of one HID torque report write.
func (m *Metrics) RecordTorqueWrite(latencyNs uint64, success bool) {
	m.TorqueWrites.Add(1)
	if !success {
		m.TorqueWriteErrors.Add(1)
		return
	}
	m.recordLatency(latencyNs)
}

// RecordTelemetryRead records the outcome of one HID telemetry read.
func (m *Metrics) RecordTelemetryRead(success bool) {
	m.TelemetryReads.Add(1)
	if !success {
		m.TelemetryErrors.Add(1)
	}
}

// RecordTick records one scheduler tick's processing time, flagging an
// overrun if it exceeded the nominal period.
func (m *Metrics) RecordTick(processing time.Duration, period time.Duration) {
	m.TickCount.Add(1)
	if processing > period {
		m.TickOverruns.Add(1)
	}
}

// RecordFault increments the fault counter.
func (m *Metrics) RecordFault() { m.FaultCount.Add(1) }

// RecordPluginTimeout increments the plugin timeout counter.
func (m *Metrics) RecordPluginTimeout() { m.PluginTimeouts.Add(1) }

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop records the device's stop timestamp.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time, non-atomic copy of Metrics for
// export (JSON, Prometheus, or the demo CLI's status line).
type MetricsSnapshot struct {
	TorqueWrites      uint64
	TorqueWriteErrors uint64
	TelemetryReads    uint64
	TelemetryErrors   uint64
	TickCount         uint64
	TickOverruns      uint64
	FaultCount        uint64
	PluginTimeouts    uint64
	AvgLatencyNs      uint64
	ErrorRate         float64
	UptimeSeconds     float64
	LatencyP50Ns      uint64
	LatencyP99Ns      uint64
}

// Snapshot computes a consistent-enough point-in-time view of m.
func (m *Metrics) Snapshot() MetricsSnapshot {
	ops := m.OpCount.Load()
	totalLatency := m.TotalLatencyNs.Load()
	writes := m.TorqueWrites.Load()
	writeErrors := m.TorqueWriteErrors.Load()

	var avgLatency uint64
	if ops > 0 {
		avgLatency = totalLatency / ops
	}
	var errRate float64
	if writes > 0 {
		errRate = float64(writeErrors) / float64(writes)
	}

	start := m.StartTime.Load()
	stop := m.StopTime.Load()
	end := time.Now().UnixNano()
	if stop > 0 {
		end = stop
	}
	uptime := float64(end-start) / float64(time.Second)

	return MetricsSnapshot{
		TorqueWrites:      writes,
		TorqueWriteErrors: writeErrors,
		TelemetryReads:    m.TelemetryReads.Load(),
		TelemetryErrors:   m.TelemetryErrors.Load(),
		TickCount:         m.TickCount.Load(),
		TickOverruns:      m.TickOverruns.Load(),
		FaultCount:        m.FaultCount.Load(),
		PluginTimeouts:    m.PluginTimeouts.Load(),
		AvgLatencyNs:      avgLatency,
		ErrorRate:         errRate,
		UptimeSeconds:     uptime,
		LatencyP50Ns:      m.calculatePercentile(0.5),
		LatencyP99Ns:      m.calculatePercentile(0.99),
	}
}

// calculatePercentile estimates a latency percentile from the cumulative
// histogram buckets. This is an approximation bounded by bucket
// granularity, matching the teacher's bucketed-histogram approach rather
// than an exact order statistic.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	total := m.OpCount.Load()
	if total == 0 {
		return 0
	}
	target := uint64(float64(total) * percentile)
	var cumulative uint64
	idx := sort.Search(len(LatencyBuckets), func(i int) bool {
		cumulative = m.LatencyBuckets[i].Load()
		return cumulative >= target
	})
	if idx >= len(LatencyBuckets) {
		return LatencyBuckets[len(LatencyBuckets)-1]
	}
	return LatencyBuckets[idx]
}

// Reset zeroes every counter except StartTime.
func (m *Metrics) Reset() {
	m.TorqueWrites.Store(0)
	m.TorqueWriteErrors.Store(0)
	m.TelemetryReads.Store(0)
	m.TelemetryErrors.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := range m.LatencyBuckets {
		m.LatencyBuckets[i].Store(0)
	}
	m.TickCount.Store(0)
	m.TickOverruns.Store(0)
	m.FaultCount.Store(0)
	m.PluginTimeouts.Store(0)
}

// Observer receives real-time events for external metrics backends
// (§4.6); the health package's Prometheus Observer and the event-discarding
// NoOpObserver both implement this.
type Observer interface {
	ObserveTick(processingNs uint64, jitterNs int64)
	ObserveTorqueWrite(bytes uint64, latencyNs uint64, success bool)
	ObserveTelemetryRead(latencyNs uint64, success bool)
	ObserveFault(kind string, severity int)
	ObserveQueueDepth(depth uint32)
}

// NoOpObserver discards every event; the default when no Observer is configured.
type NoOpObserver struct{}

func (NoOpObserver) ObserveTick(uint64, int64)                {}
func (NoOpObserver) ObserveTorqueWrite(uint64, uint64, bool)   {}
func (NoOpObserver) ObserveTelemetryRead(uint64, bool)         {}
func (NoOpObserver) ObserveFault(string, int)                  {}
func (NoOpObserver) ObserveQueueDepth(uint32)                  {}

// MetricsObserver drives a *Metrics from Observer callbacks, used when
// the caller wants in-process metrics without wiring up Prometheus.
type MetricsObserver struct {
	m *Metrics
}

// NewMetricsObserver wraps m as an Observer.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{m: m}
}

func (o *MetricsObserver) ObserveTick(processingNs uint64, jitterNs int64) {
	o.m.RecordTick(time.Duration(processingNs), time.Millisecond)
}

func (o *MetricsObserver) ObserveTorqueWrite(bytes uint64, latencyNs uint64, success bool) {
	o.m.RecordTorqueWrite(latencyNs, success)
}

func (o *MetricsObserver) ObserveTelemetryRead(latencyNs uint64, success bool) {
	o.m.RecordTelemetryRead(success)
}

func (o *MetricsObserver) ObserveFault(kind string, severity int) {
	o.m.RecordFault()
}

func (o *MetricsObserver) ObserveQueueDepth(depth uint32) {}
