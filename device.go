package ffbcore

import (
	"github.com/openwheel/ffbcore/internal/capctrl"
	"github.com/openwheel/ffbcore/internal/interfaces"
	"github.com/openwheel/ffbcore/internal/owp1"
	"github.com/openwheel/ffbcore/internal/safety"
)

// Frame is the per-tick value the engine threads through the filter
// pipeline (§3). It is a plain value type, never heap-allocated on the
// hot path: the engine owns one Frame per tick on its stack.
type Frame struct {
	FFBIn          float32
	TorqueOut      float32
	WheelSpeedRadS float32
	WheelAngleDeg  float32
	HandsOff       bool
	TSMonoNs       uint64
	Seq            uint16
}

// FFBMode names one entry of the negotiated FFB mode matrix (§4.3).
type FFBMode = capctrl.Mode

const (
	ModeRawTorque      = capctrl.ModeRawTorque
	ModePidPassthrough = capctrl.ModePidPassthrough
	ModeTelemetrySynth = capctrl.ModeTelemetrySynth
)

// DeviceCaps mirrors the OWP-1 capability report (§3).
type DeviceCaps = owp1.DeviceCaps

// Device is one connected wheel, owned by an Engine for the duration of
// its session (§3). Device itself holds no RT state; the Engine's tick
// loop reads VendorProtocol/Mode and drives SessionState through the
// safety FSM.
type Device struct {
	ID              uint32
	VendorProtocol  interfaces.VendorProtocol
	Caps            DeviceCaps
	Mode            FFBMode
	SessionState    *safety.FSM
	controller      *capctrl.Controller
}

// NewDevice wraps a capctrl.Controller that has already completed
// Connect/Negotiate into a Device ready for an Engine. id is the
// engine-assigned device identifier used in logs, metrics, and the
// interlock token derivation.
func NewDevice(id uint32, controller *capctrl.Controller) *Device {
	return &Device{
		ID:             id,
		VendorProtocol: controller.Vendor(),
		Caps:           controller.Caps(),
		Mode:           controller.Mode(),
		SessionState:   safety.NewFSM(),
		controller:     controller,
	}
}

// State returns the device's current safety FSM state.
func (d *Device) State() safety.State {
	return d.SessionState.State()
}

// LifecycleState returns the device's connect/negotiate/arm state.
func (d *Device) LifecycleState() capctrl.LifecycleState {
	return d.controller.State()
}
