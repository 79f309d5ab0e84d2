// Package constants holds tunables shared across the control core.
package constants

import "time"

// Tick cadence and scheduler defaults (§4.1).
const (
	// NominalTickPeriod is the target control-loop period (1 kHz).
	NominalTickPeriod = time.Millisecond

	// DefaultSpinTail is how far ahead of the deadline the scheduler stops
	// sleeping and switches to a busy-spin wait.
	DefaultSpinTail = 60 * time.Microsecond

	// MinAdaptivePeriod and MaxAdaptivePeriod bound the adaptive scheduler's
	// period adjustment (§4.1 "bounded to [0.9, 1.1] ms").
	MinAdaptivePeriod = 900 * time.Microsecond
	MaxAdaptivePeriod = 1100 * time.Microsecond

	// Adaptive thresholds.
	JitterRelaxThreshold = 200 * time.Microsecond
	JitterTightThreshold = 50 * time.Microsecond
	ProcRelaxThreshold   = 180 * time.Microsecond
	ProcTightThreshold   = 80 * time.Microsecond
	AdaptiveRelaxStep    = 5 * time.Microsecond
	AdaptiveTightenStep  = 2 * time.Microsecond
	PeriodDriftClamp     = 100 * time.Microsecond
	TestModeJitterFault  = 5 * time.Millisecond

	// PLL gains used to steer current_period toward the USB frame cadence.
	PLLProportionalGain = 0.1
	PLLIntegralGain     = 0.01

	// JitterWindowSize is the sliding-window sample count for p50/p99 metrics.
	JitterWindowSize = 1024
)

// Safety timing (§4.4).
const (
	SoftStopMaxDuration              = 50 * time.Millisecond
	OvercurrentMaxDetectToAction     = 10 * time.Millisecond
	PipelineFaultMaxDetectToAction   = 10 * time.Millisecond
	PluginOverrunMaxDetectToAction   = time.Millisecond
	TimingViolationMaxDetectToAction = time.Millisecond

	ThermalTripC  = 80.0
	ThermalClearC = 74.0

	DefaultUSBTimeout    = 10 * time.Millisecond
	EncoderNaNWindow     = 50
	EncoderNaNThreshold  = 5
	USBStallFailureCount = 3

	DefaultPluginTimeoutStreak = 5
	DefaultQuarantineDuration  = 5 * time.Minute

	DefaultHandsOffTimeout = 10 * time.Second

	HighTorqueChallengeValidity = 10 * time.Second
)

// HID / OWP-1 (§4.3, §3).
const (
	ReportSize          = 64
	ReportIDCaps        = 0x01
	ReportIDConfig      = 0x02
	ReportIDChallenge   = 0x03
	ReportIDTorqueOut   = 0x20
	ReportIDTelemetryIn = 0x21
	ReportIDConfigAck   = 0x22

	CRC8Poly = 0x07

	// DeviceConnectDelay accounts for enumeration latency when a vendor
	// transport attaches a new hidraw node.
	DeviceConnectDelay = 50 * time.Millisecond
	DevicePollInterval = 5 * time.Millisecond
)

// Blackbox (§4.6).
const (
	WBBMagicHeader = "WBB1"
	WBBMagicFooter = "1BBW"
	WBBVersion     = 1

	BlackboxIndexInterval = 100 * time.Millisecond
	BlackboxTelemetryRate = 60   // Hz, stream B
	BlackboxFrameRate     = 1000 // Hz, stream A (subject to tick-drop rate limiting)
)

// Filter pipeline.
const (
	MaxReconstructionLevel = 8
	MaxCurvePoints         = 256
	ReplayTolerance        = 1e-6
)

// Safety ceilings (§4.4 "kid/demo caps").
const (
	// DefaultSafeTorqueCeiling bounds torque magnitude in SafeTorque state,
	// expressed as a fraction of the device's declared full scale. Raised
	// by config (EngineParams.SafeTorqueCeiling) or by the high-torque
	// interlock, unlike the absolute ceiling below.
	DefaultSafeTorqueCeiling = 0.3

	// KidModeAbsoluteTorqueCeiling is the hard fraction-of-full-scale
	// torque ceiling no profile, pipeline config, or high-torque interlock
	// can raise. Enforced both in the pipeline's torque_cap node
	// (internal/filter.TorqueCap) and as a last-line guard in the HID
	// encoder (internal/vendor's EncodeFFB implementations).
	KidModeAbsoluteTorqueCeiling = 0.5

	// KidModeMaxRotationDeg is the hard ceiling on wheel rotation, in
	// degrees off center, no profile can raise. Enforced where wheel angle
	// enters the system: the vendor protocol's telemetry parse and the
	// engine's per-tick Frame fill.
	KidModeMaxRotationDeg = 450.0
)
