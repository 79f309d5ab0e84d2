package safety

import "time"

// FaultKind enumerates the FMEA-derived fault categories (§4.4).
type FaultKind int

const (
	FaultOvercurrent FaultKind = iota
	FaultPipelineFault
	FaultPluginOverrun
	FaultTimingViolation
	FaultUSBStall
	FaultEncoderNaN
	FaultThermalLimit
	FaultSafetyInterlockViolation
	FaultHandsOffTimeout
)

func (k FaultKind) String() string {
	switch k {
	case FaultOvercurrent:
		return "overcurrent"
	case FaultPipelineFault:
		return "pipeline_fault"
	case FaultPluginOverrun:
		return "plugin_overrun"
	case FaultTimingViolation:
		return "timing_violation"
	case FaultUSBStall:
		return "usb_stall"
	case FaultEncoderNaN:
		return "encoder_nan"
	case FaultThermalLimit:
		return "thermal_limit"
	case FaultSafetyInterlockViolation:
		return "safety_interlock_violation"
	case FaultHandsOffTimeout:
		return "hands_off_timeout"
	default:
		return "unknown_fault"
	}
}

// Severity ranks a fault (§4.4): when several detectors trip in one tick
// the engine keeps the fault with the highest tier, and the tier is
// reported to the Observer. The torque response itself (ramp, immediate
// zero, or log only) is chosen per fault kind by the engine.
type Severity int

const (
	// SeverityWarning is the lowest tier: faults that are logged and
	// surfaced to telemetry but do not interrupt torque output.
	SeverityWarning Severity = iota
	// SeverityDegrade is the middle tier.
	SeverityDegrade
	// SeverityCritical is the highest tier.
	SeverityCritical
)

// Fault describes a detected fault condition, carried through the FSM and
// into blackbox stream C (§4.6).
type Fault struct {
	Kind      FaultKind
	Severity  Severity
	Detail    string
	DetectedAt time.Time
}

func (f *Fault) Error() string {
	return "safety: " + f.Kind.String() + ": " + f.Detail
}

// kindSeverity is the static FMEA table mapping each fault kind to its
// severity tier.
var kindSeverity = map[FaultKind]Severity{
	FaultOvercurrent:              SeverityCritical,
	FaultPipelineFault:            SeverityCritical,
	FaultPluginOverrun:            SeverityDegrade,
	FaultTimingViolation:          SeverityWarning,
	FaultUSBStall:                 SeverityCritical,
	FaultEncoderNaN:               SeverityCritical,
	FaultThermalLimit:             SeverityDegrade,
	FaultSafetyInterlockViolation: SeverityCritical,
	FaultHandsOffTimeout:          SeverityDegrade,
}

// NewFault constructs a Fault with the kind's tabled severity.
func NewFault(kind FaultKind, detail string, at time.Time) *Fault {
	return &Fault{Kind: kind, Severity: kindSeverity[kind], Detail: detail, DetectedAt: at}
}
