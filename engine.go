package ffbcore

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openwheel/ffbcore/internal/blackbox"
	"github.com/openwheel/ffbcore/internal/constants"
	"github.com/openwheel/ffbcore/internal/health"
	"github.com/openwheel/ffbcore/internal/interfaces"
	"github.com/openwheel/ffbcore/internal/owp1"
	"github.com/openwheel/ffbcore/internal/pipeline"
	"github.com/openwheel/ffbcore/internal/plugin"
	"github.com/openwheel/ffbcore/internal/ring"
	"github.com/openwheel/ffbcore/internal/rtsched"
	"github.com/openwheel/ffbcore/internal/safety"
)

// TelemetryInput is the normalized game-telemetry frame delivered over
// the game-to-engine SPSC ring (§6 Inbound).
type TelemetryInput struct {
	FFBScalar float32
	RPM       float32
	SpeedMS   float32
	SlipRatio float32
	Gear      int8
	Flags     uint8
}

// EngineParams configures a new Engine. Grounded on the teacher's
// DeviceParams (backend.go): a Backend-shaped bundle of required
// collaborators plus tunables, generalized from a block backend to a
// HID transport + vendor protocol + compiled pipeline.
type EngineParams struct {
	Device   *Device
	Pipeline *pipeline.Slot

	SchedulerConfig rtsched.Config

	// BlackboxWriter, when non-nil, receives a .wbb recording of the
	// session. Nil disables recording entirely.
	BlackboxWriter io.Writer

	// BlackboxMaxBytes and BlackboxMaxDuration, when non-zero, bound the
	// recording so a runaway session can't grow without limit; the
	// recorder rejects further writes rather than truncate mid-record
	// (§4.6). Zero means unlimited.
	BlackboxMaxBytes    uint64
	BlackboxMaxDuration time.Duration

	// HealthRegistry, when non-nil, receives the safety state, plugin
	// quarantine flag, and pipeline generation gauges every tick, in
	// addition to whatever Options.Observer is wired for the per-event
	// counters. Nil disables Prometheus export.
	HealthRegistry *health.Registry

	// SafeTorqueCeiling bounds |torque| while in SafeTorque state,
	// overriding constants.DefaultSafeTorqueCeiling when non-zero.
	SafeTorqueCeiling float32

	InputRingSize    int
	BlackboxRingSize int
}

// Options mirrors the teacher's Options: cross-cutting collaborators
// that don't belong on EngineParams because they configure the Engine's
// behavior rather than describe the device.
type Options struct {
	Context  context.Context
	Logger   interfaces.Logger
	Observer Observer
}

// Engine owns one device's RT tick thread plus its non-RT support
// threads (HID telemetry RX, blackbox writer), per §4.5/§5. Grounded on
// the teacher's Device/queue.Runner split: Engine plays the role of
// Device+Runner combined, since a single device has exactly one RT
// thread here (versus the teacher's per-queue runners).
type Engine struct {
	device   *Device
	pipeline *pipeline.Slot
	sched    *rtsched.Scheduler

	inputRing        *ring.SPSC[TelemetryInput]
	blackboxRing     *ring.SPSC[Frame]
	recorder         *blackbox.Recorder
	blackboxLimitHit atomic.Bool

	watchdog  *plugin.Watchdog
	interlock *safety.Interlock

	encoderDet  *safety.EncoderNaNDetector
	thermalDet  *safety.ThermalDetector
	usbDet      *safety.USBStallDetector
	handsOffDet *safety.HandsOffDetector

	softStop   safety.SoftStop
	lastTorque float32
	lastInput  TelemetryInput
	seq        uint16

	latestTelemetry atomic.Pointer[interfaces.InputState]

	safeCeiling float32

	metrics  *Metrics
	observer Observer
	health   *health.Registry
	logger   interfaces.Logger

	dropCount atomic.Uint64
	running   atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	rxStopCh  chan struct{}
	wg        sync.WaitGroup
}

// NewEngine constructs an Engine ready to Run. device must already be
// Armed (capctrl.Controller.Arm) before the engine starts writing torque.
func NewEngine(params EngineParams, opts *Options) (*Engine, error) {
	if params.Device == nil {
		return nil, NewError("NewEngine", ErrCodeInvalidParameters, "device is required")
	}
	if params.Pipeline == nil {
		return nil, NewError("NewEngine", ErrCodeInvalidParameters, "pipeline slot is required")
	}
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	var observer Observer = NoOpObserver{}
	metrics := NewMetrics()
	if opts.Observer != nil {
		observer = opts.Observer
	} else {
		observer = NewMetricsObserver(metrics)
	}

	ceiling := params.SafeTorqueCeiling
	if ceiling <= 0 {
		ceiling = constants.DefaultSafeTorqueCeiling
	}

	inputSize := params.InputRingSize
	if inputSize <= 0 {
		inputSize = 4
	}
	bbSize := params.BlackboxRingSize
	if bbSize <= 0 {
		bbSize = 2048
	}

	e := &Engine{
		device:      params.Device,
		pipeline:    params.Pipeline,
		sched:       rtsched.New(params.SchedulerConfig),
		inputRing:   ring.New[TelemetryInput](inputSize),
		watchdog:    plugin.New(),
		interlock:   safety.NewInterlock(params.Device.ID),
		encoderDet:  safety.NewEncoderNaNDetector(),
		thermalDet:  &safety.ThermalDetector{},
		usbDet:      &safety.USBStallDetector{},
		handsOffDet: safety.NewHandsOffDetector(time.Now()),
		safeCeiling: ceiling,
		metrics:     metrics,
		observer:    observer,
		health:      params.HealthRegistry,
		logger:      logger,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		rxStopCh:    make(chan struct{}),
	}

	if params.BlackboxWriter != nil {
		var bbOpts []blackbox.Option
		if params.BlackboxMaxBytes > 0 {
			bbOpts = append(bbOpts, blackbox.WithMaxBytes(params.BlackboxMaxBytes))
		}
		if params.BlackboxMaxDuration > 0 {
			bbOpts = append(bbOpts, blackbox.WithMaxDuration(params.BlackboxMaxDuration))
		}
		rec, err := blackbox.NewRecorder(params.BlackboxWriter, 0, time.Now(), bbOpts...)
		if err != nil {
			return nil, WrapError("NewEngine", err)
		}
		e.recorder = rec
		e.blackboxRing = ring.New[Frame](bbSize)
	}

	return e, nil
}

// PushTelemetry enqueues one game-telemetry frame for the next tick to
// consume. Non-blocking; returns false if the ring is full (the RT
// thread is the priority side and never waits, per §5).
func (e *Engine) PushTelemetry(in TelemetryInput) bool {
	return e.inputRing.Push(in)
}

// Run starts the RT tick thread and, if blackbox recording is enabled,
// the non-RT blackbox consumer. It returns immediately; call Shutdown to
// stop. Mirrors the teacher's CreateAndServe/StopAndDelete split.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return NewDeviceError("Run", e.device.ID, ErrCodeLifecycleViolation, "engine already running")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if e.recorder != nil {
		e.wg.Add(1)
		go e.blackboxLoop()
	}

	e.wg.Add(1)
	go e.rxLoop()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(e.doneCh)
		e.sched.Run(e.tick)
	}()

	go func() {
		select {
		case <-ctx.Done():
			e.Shutdown()
		case <-e.stopCh:
		}
	}()

	return nil
}

// Shutdown signals the RT thread and its support goroutines to stop and
// blocks until they have drained, per §4.5 "shutdown signal drained at
// the next tick boundary."
func (e *Engine) Shutdown() {
	if !e.running.CompareAndSwap(true, false) {
		return
	}
	close(e.stopCh)
	<-e.doneCh
	close(e.rxStopCh)
	e.wg.Wait()
	if e.recorder != nil {
		e.recorder.Close()
	}
	e.metrics.Stop()
}

// tick implements the §4.5 nine-step per-tick algorithm. Runs on the
// pinned RT OS thread; must not allocate, lock, or call into anything
// that can block beyond the HID write.
func (e *Engine) tick(tickNum uint64, period time.Duration) bool {
	select {
	case <-e.stopCh:
		return false
	default:
	}
	start := time.Now()

	// Step 2: pending pipeline swap.
	if e.pipeline.HasPending() {
		e.pipeline.Commit()
	}

	// Step 3: non-blocking read of the latest input frame.
	in, ok := e.inputRing.Pop()
	if !ok {
		in = e.lastInput
	} else {
		e.lastInput = in
	}

	// Step 4: fill Frame. ffb_in from the game ring; wheel speed/angle
	// from the last device telemetry report.
	telemetry := e.latestTelemetry.Load()
	frame := Frame{
		FFBIn:    clampUnit(in.FFBScalar),
		TSMonoNs: uint64(start.UnixNano()),
		Seq:      e.seq,
	}
	handsOn := true
	if telemetry != nil {
		frame.WheelAngleDeg = clampDeg(float32(telemetry.WheelAngleMilliDeg)/1000, constants.KidModeMaxRotationDeg)
		frame.WheelSpeedRadS = float32(telemetry.WheelSpeedMilliRad) / 1000
		handsOn = telemetry.HandsOn
	}
	frame.HandsOff = e.handsOffDet.Observe(start, handsOn)
	e.seq++

	// Step 5: execute pipeline.
	p := e.pipeline.Load()
	dt := float32(period) / float32(time.Second)
	torque := p.Process(frame.FFBIn, dt)
	frame.TorqueOut = torque

	// Step 6: safety check + soft-stop.
	if fault := e.detectFault(frame, telemetry); fault != nil {
		e.handleFault(fault)
	}
	torque = e.applySafetyState(torque, period)

	// Step 7: clamp, encode, nonblocking write.
	torque = clampUnit(torque)
	frame.TorqueOut = torque
	e.lastTorque = torque

	var buf [64]byte
	e.device.VendorProtocol.EncodeFFB(torque, &buf)
	writeErr := e.device.controllerTransport().WriteReport(buf[:])
	writeOK := writeErr == nil
	e.usbDet.Observe(writeOK)
	latency := time.Since(start)
	e.observer.ObserveTorqueWrite(uint64(len(buf)), uint64(latency), writeOK)

	// Step 8: publish to blackbox, drop on overflow.
	if e.blackboxRing != nil {
		if !e.blackboxRing.Push(frame) {
			e.dropCount.Add(1)
		}
	}

	// Step 9: record processing time, feed scheduler (scheduler reads
	// jitter/processing on its own after this returns).
	processing := time.Since(start)
	e.observer.ObserveTick(uint64(processing), int64(processing-period))
	if e.health != nil {
		e.health.SetSafetyState(int(e.device.SessionState.State()))
		e.health.SetPluginQuarantined(e.watchdog.IsQuarantined(start))
		e.health.SetPipelineGeneration(e.pipeline.Generation())
	}

	return true
}

func clampUnit(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// clampDeg enforces the kid/demo absolute rotation ceiling at the point
// wheel angle enters the system, independent of whatever range the
// device itself reports (§4.4 "kid/demo caps").
func clampDeg(deg, limit float32) float32 {
	if deg > limit {
		return limit
	}
	if deg < -limit {
		return -limit
	}
	return deg
}

// detectFault runs the RT-safe FMEA detectors against this tick's
// observations and returns the single most severe active fault, or nil.
func (e *Engine) detectFault(frame Frame, telemetry *interfaces.InputState) *safety.Fault {
	var worst *safety.Fault
	consider := func(kind safety.FaultKind, tripped bool, detail string) {
		if !tripped {
			return
		}
		f := safety.NewFault(kind, detail, time.Now())
		if worst == nil || f.Severity > worst.Severity {
			worst = f
		}
	}

	consider(safety.FaultEncoderNaN, e.encoderDet.Observe(frame.WheelAngleDeg), "wheel angle NaN")
	if telemetry != nil {
		consider(safety.FaultThermalLimit, e.thermalDet.Observe(float32(telemetry.TempC)), "temperature over threshold")
		consider(safety.FaultOvercurrent, telemetry.FaultsBitfield&owp1.TelemetryFaultOvercurrent != 0, "device-reported overcurrent")
	}
	consider(safety.FaultUSBStall, e.usbDet.Tripped(), "no HID write acknowledged")
	consider(safety.FaultHandsOffTimeout, frame.HandsOff, "hands off timeout")
	if torque := frame.TorqueOut; torque != torque || torque > 1 || torque < -1 {
		consider(safety.FaultPipelineFault, true, "pipeline produced NaN or out-of-range output")
	}
	return worst
}

// isLogOnly reports whether a fault kind is handled by logging alone,
// per §4.4's LogAndContinue action — it never drives the safety FSM.
func isLogOnly(kind safety.FaultKind) bool {
	return kind == safety.FaultTimingViolation
}

func (e *Engine) handleFault(fault *safety.Fault) {
	e.observer.ObserveFault(fault.Kind.String(), int(fault.Severity))
	if isLogOnly(fault.Kind) || fault.Kind == safety.FaultPluginOverrun {
		return
	}
	if e.device.SessionState.State() == safety.Faulted {
		return
	}
	e.device.SessionState.Apply(safety.EventFaultDetected, fault)
	if fault.Kind == safety.FaultOvercurrent || fault.Kind == safety.FaultPipelineFault {
		e.softStop.StartForce(e.lastTorque)
	} else {
		e.softStop.Start(e.lastTorque)
	}
	if fault.Kind == safety.FaultPipelineFault {
		e.engageSafeModePipeline()
	}
}

// engageSafeModePipeline stages and commits a minimal single-node
// pipeline (identity input, zero-output cap) so a broken compiled
// pipeline is never handed back control once the fault clears (§4.2
// "swaps to a safe-mode single-node pipeline"). ConfirmRecovery does not
// restore the previous pipeline; a caller must push a newly compiled one.
func (e *Engine) engageSafeModePipeline() {
	e.pipeline.Stage(pipeline.SafeMode())
	e.pipeline.Commit()
}

// ReconfigurePipeline compiles cfg and two-phase swaps it into the RT
// thread's active slot. A validation failure surfaces as an *Error with
// ErrCodePipelineInvalid, wrapping the originating *pipeline.CompileError
// (its Kind distinguishes InvalidConfig/InvalidParameters/NonMonotonicCurve).
func (e *Engine) ReconfigurePipeline(cfg pipeline.FilterConfig) error {
	p, err := pipeline.Compile(cfg)
	if err != nil {
		return WrapError("ReconfigurePipeline", err)
	}
	e.pipeline.Stage(p)
	e.pipeline.Commit()
	return nil
}

// applySafetyState enforces the FSM's current state on torque: ramping
// during Faulted, holding zero during Recovering, and clamping to the
// safe ceiling outside HighTorqueActive (§4.4).
func (e *Engine) applySafetyState(torque float32, period time.Duration) float32 {
	switch e.device.SessionState.State() {
	case safety.Faulted:
		out := e.softStop.Step(period)
		if e.softStop.Done() {
			e.device.SessionState.Apply(safety.EventSoftStopComplete, nil)
		}
		return out
	case safety.Recovering:
		return 0
	case safety.HighTorqueActive:
		return torque
	default:
		if torque > e.safeCeiling {
			return e.safeCeiling
		}
		if torque < -e.safeCeiling {
			return -e.safeCeiling
		}
		return torque
	}
}

// rxLoop is the HID RX thread (§5 thread b): it polls the transport for
// IN telemetry reports and publishes the parsed state for the RT thread
// to read without blocking. Runs independently of tick cadence.
func (e *Engine) rxLoop() {
	defer e.wg.Done()
	var buf [64]byte
	for {
		select {
		case <-e.rxStopCh:
			return
		default:
		}
		n, err := e.device.controllerTransport().ReadReport(buf[:])
		if err == nil && n > 0 {
			if st, ok := e.device.VendorProtocol.ParseInput(buf[:n]); ok {
				stCopy := st
				e.latestTelemetry.Store(&stCopy)
			}
		}
		time.Sleep(constants.DevicePollInterval)
	}
}

// blackboxLoop is the non-RT blackbox consumer thread (§5 thread d): it
// drains frames the RT thread published and writes them through the
// recorder, indexing periodically.
func (e *Engine) blackboxLoop() {
	defer e.wg.Done()
	for {
		select {
		case <-e.stopCh:
			e.drainBlackbox()
			return
		default:
		}
		if e.blackboxLimitHit.Load() {
			time.Sleep(time.Millisecond)
			continue
		}
		frame, ok := e.blackboxRing.Pop()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}
		e.writeBlackboxFrame(frame)
	}
}

func (e *Engine) drainBlackbox() {
	for {
		if e.blackboxLimitHit.Load() {
			return
		}
		frame, ok := e.blackboxRing.Pop()
		if !ok {
			return
		}
		e.writeBlackboxFrame(frame)
	}
}

// writeBlackboxFrame writes one frame record. Once the recorder reports
// ErrLimitExceeded, blackboxLimitHit latches so the consumer loops stop
// draining into it instead of logging the same rejection every tick.
func (e *Engine) writeBlackboxFrame(frame Frame) {
	payload := blackbox.EncodeFrame(blackbox.Frame{
		Tick:        uint64(frame.Seq),
		InputSample: frame.FFBIn,
		Torque:      frame.TorqueOut,
	})
	if err := e.recorder.WriteFrame(uint64(frame.Seq), payload); err != nil {
		if errors.Is(err, blackbox.ErrLimitExceeded) {
			e.blackboxLimitHit.Store(true)
			if e.logger != nil {
				e.logger.Printf("blackbox recording limit reached, dropping further frames: %v", err)
			}
			return
		}
		if e.logger != nil {
			e.logger.Printf("blackbox write failed: %v", err)
		}
	}
	e.recorder.MaybeIndex(uint64(frame.Seq), time.Now())
}

// RequestHighTorque begins the §4.4 high-torque interlock handshake:
// transitions SafeTorque -> HighTorqueChallenge and issues a nonce for
// the device to sign. Fails if the FSM is not currently in SafeTorque.
func (e *Engine) RequestHighTorque(now time.Time) (nonce uint32, err error) {
	if err := e.device.SessionState.Apply(safety.EventChallengeRequested, nil); err != nil {
		return 0, WrapError("RequestHighTorque", err)
	}
	nonce, err = e.interlock.Issue(now)
	if err != nil {
		e.device.SessionState.Apply(safety.EventChallengeRejected, nil)
		return 0, WrapError("RequestHighTorque", err)
	}
	return nonce, nil
}

// ConfirmHighTorque validates a device-returned token against the
// outstanding challenge and completes the handshake (§4.4 steps 2-3).
func (e *Engine) ConfirmHighTorque(token uint64, now time.Time) error {
	if e.interlock.Expired(now) {
		e.device.SessionState.Apply(safety.EventChallengeExpired, nil)
		return NewDeviceError("ConfirmHighTorque", e.device.ID, ErrCodeSafetyInterlock, "challenge expired")
	}
	if !e.interlock.Verify(token, now) {
		e.device.SessionState.Apply(safety.EventChallengeRejected, nil)
		fault := safety.NewFault(safety.FaultSafetyInterlockViolation, "invalid high-torque token", now)
		e.device.SessionState.Apply(safety.EventFaultDetected, fault)
		return NewDeviceError("ConfirmHighTorque", e.device.ID, ErrCodeSafetyInterlock, "invalid token")
	}
	return e.device.SessionState.Apply(safety.EventChallengeAccepted, nil)
}

// ReleaseHighTorque drops back to SafeTorque from HighTorqueActive,
// persisting until power-cycle or fault per §4.4 step 4 otherwise.
func (e *Engine) ReleaseHighTorque() error {
	return e.device.SessionState.Apply(safety.EventHighTorqueReleased, nil)
}

// ConfirmRecovery clears a completed fault and returns the device to
// SafeTorque. A fault never clears on its own once its soft-stop ramp
// finishes (§4.4 "no auto-recovery"): this must be called explicitly by
// the caller, after whatever operator or game-side acknowledgement the
// deployment requires.
func (e *Engine) ConfirmRecovery() error {
	if err := e.device.SessionState.Apply(safety.EventRecoveryConfirmed, nil); err != nil {
		return WrapError("ConfirmRecovery", err)
	}
	e.encoderDet = safety.NewEncoderNaNDetector()
	e.usbDet = &safety.USBStallDetector{}
	return nil
}

// RecordPluginInvocation stamps one plugin call's budget outcome against
// the engine's watchdog (§4.7). N consecutive misses quarantines the
// plugin; the engine continues running the rest of the pipeline either
// way, so no FSM transition happens here.
func (e *Engine) RecordPluginInvocation(withinBudget bool, now time.Time) {
	e.watchdog.Record(withinBudget, now)
	if !withinBudget {
		e.metrics.RecordPluginTimeout()
	}
}

// PluginQuarantined reports whether the engine's plugin watchdog is
// currently withholding plugin execution.
func (e *Engine) PluginQuarantined(now time.Time) bool {
	return e.watchdog.IsQuarantined(now)
}

// DroppedFrames returns the number of frames dropped because the
// blackbox ring was full, for health reporting.
func (e *Engine) DroppedFrames() uint64 { return e.dropCount.Load() }

// Metrics returns the engine's metrics collector.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// JitterPercentiles exposes the scheduler's p50/p99 jitter for health
// export (§4.1).
func (e *Engine) JitterPercentiles() (p50, p99 time.Duration) {
	return e.sched.JitterPercentiles()
}

// Device returns the engine's device.
func (e *Engine) Device() *Device { return e.device }

func (d *Device) controllerTransport() interfaces.HIDTransport {
	if d.controller == nil {
		return nil
	}
	return d.controller.Transport()
}
