package health

// Observer adapts a *Registry to internal/interfaces.Observer, so the
// engine can drive Prometheus metrics exactly the way it would drive any
// other Observer implementation (e.g. the root package's in-process
// MetricsObserver), without a type-specific fast path.
type Observer struct {
	reg *Registry
}

// NewObserver wraps reg as an interfaces.Observer.
func NewObserver(reg *Registry) *Observer { return &Observer{reg: reg} }

func (o *Observer) ObserveTick(processingNs uint64, jitterNs int64) {
	o.reg.TickProcessingUs.Set(float64(processingNs) / 1000)
	j := jitterNs
	if j < 0 {
		j = -j
	}
	o.reg.TickJitterP99Us.Set(float64(j) / 1000)
}

func (o *Observer) ObserveTorqueWrite(bytes uint64, latencyNs uint64, success bool) {
	o.reg.TorqueWriteTotal.Inc()
	if !success {
		o.reg.TorqueWriteErrors.Inc()
	}
}

func (o *Observer) ObserveTelemetryRead(latencyNs uint64, success bool) {
	o.reg.TelemetryReadTotal.Inc()
}

func (o *Observer) ObserveFault(kind string, severity int) {
	o.reg.ObserveFault(kind)
}

func (o *Observer) ObserveQueueDepth(depth uint32) {
	// No dedicated gauge yet; queue depth is dominated by the RT pipeline
	// which never queues more than one sample, so this is a no-op today.
}
