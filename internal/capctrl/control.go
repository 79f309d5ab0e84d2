// Package capctrl drives one device's connection lifecycle: Connect (open
// transport, resolve the vendor protocol; the capability report is not
// read here and is installed with SetCaps), Negotiate (derive the permitted FFB
// mode set from DeviceCaps), Arm/Disarm (gate torque output), and Release
// (close transport and vendor state). Grounded on the teacher's
// Controller (internal/ctrl/control.go): same
// AddDevice/SetParams/StartDevice/StopDevice/DeleteDevice sequencing
// shape, generalized from a kernel block-device lifecycle to a HID
// device lifecycle.
package capctrl

import (
	"fmt"

	"github.com/openwheel/ffbcore/internal/hid"
	"github.com/openwheel/ffbcore/internal/interfaces"
	"github.com/openwheel/ffbcore/internal/owp1"
	"github.com/openwheel/ffbcore/internal/vendor"
)

// LifecycleState tracks where a device sits in the Connect/Negotiate/
// Arm/Disarm/Release sequence (§4.3).
type LifecycleState int

const (
	Disconnected LifecycleState = iota
	Connected
	Negotiated
	Armed
)

func (s LifecycleState) String() string {
	switch s {
	case Connected:
		return "connected"
	case Negotiated:
		return "negotiated"
	case Armed:
		return "armed"
	default:
		return "disconnected"
	}
}

// Mode names one entry of the FFB mode matrix (§4.3).
type Mode string

const (
	// ModeRawTorque is the preferred mode: the game supplies a torque
	// stream directly and the device accepts 1kHz raw torque reports.
	ModeRawTorque Mode = "raw_torque"
	// ModePidPassthrough: the device runs PID effects itself; the host
	// still owns safety and LED bus output.
	ModePidPassthrough Mode = "pid_passthrough"
	// ModeTelemetrySynth: the host computes torque from normalized
	// telemetry. Always permitted — the universal fallback.
	ModeTelemetrySynth Mode = "telemetry_synth"
)

// GameHints describes what the upstream game/telemetry source offers,
// which together with DeviceCaps drives mode selection (§4.3).
type GameHints struct {
	ProvidesRawTorque bool
	EmitsPIDEffects   bool
}

// Controller owns one device's transport, resolved vendor protocol, and
// lifecycle state. Not safe for concurrent use beyond what the engine's
// single-threaded per-device ownership already guarantees.
type Controller struct {
	transport hid.Transport
	vendorP   interfaces.VendorProtocol
	caps      owp1.DeviceCaps
	hints     GameHints
	mode      Mode
	state     LifecycleState
	logger    interfaces.Logger
}

// New returns a Controller in the Disconnected state.
func New(logger interfaces.Logger) *Controller {
	return &Controller{logger: logger}
}

// State returns the current lifecycle state.
func (c *Controller) State() LifecycleState { return c.state }

// Connect opens the hidraw transport at path and resolves the vendor
// protocol for (vid, pid). It does not read the device capability report;
// caps are installed with SetCaps.
func (c *Controller) Connect(path string, vid, pid uint16) error {
	if c.state != Disconnected {
		return fmt.Errorf("capctrl: Connect called in state %v", c.state)
	}
	t, err := hid.Open(path)
	if err != nil {
		return fmt.Errorf("capctrl: connect: %w", err)
	}
	vp, err := vendor.Resolve(vid, pid)
	if err != nil {
		t.Close()
		return fmt.Errorf("capctrl: connect: %w", err)
	}
	c.transport = t
	c.vendorP = vp
	c.state = Connected
	return nil
}

// ConnectWithTransport is Connect's test/demo entry point: it accepts an
// already-open transport (e.g. *hid.MockTransport) instead of opening a
// hidraw path, so callers that don't have real hardware can still drive
// the full lifecycle.
func (c *Controller) ConnectWithTransport(t hid.Transport, vid, pid uint16) error {
	if c.state != Disconnected {
		return fmt.Errorf("capctrl: Connect called in state %v", c.state)
	}
	vp, err := vendor.Resolve(vid, pid)
	if err != nil {
		return fmt.Errorf("capctrl: connect: %w", err)
	}
	c.transport = t
	c.vendorP = vp
	c.state = Connected
	return nil
}

// SetCaps installs a capability report read out-of-band (the real
// transport reads it via a feature-report ioctl outside this package's
// scope; tests and the demo CLI inject it directly here).
func (c *Controller) SetCaps(caps owp1.DeviceCaps) {
	c.caps = caps
}

// SetGameHints installs what the upstream telemetry source offers, used
// by Negotiate's mode-selection policy.
func (c *Controller) SetGameHints(hints GameHints) {
	c.hints = hints
}

// Negotiate derives the permitted FFB mode set from the capability
// report, selects one per the §4.3 priority policy, and transitions to
// Negotiated.
func (c *Controller) Negotiate() ([]Mode, error) {
	if c.state != Connected {
		return nil, fmt.Errorf("capctrl: Negotiate called in state %v", c.state)
	}
	modes := PermittedModes(c.caps)
	c.mode = SelectMode(c.caps, c.hints)
	c.state = Negotiated
	return modes, nil
}

// PermittedModes derives the FFB mode matrix entries a device may use
// from its capability flags (§4.3). TelemetrySynth is always permitted:
// the host can always compute torque from normalized telemetry.
func PermittedModes(caps owp1.DeviceCaps) []Mode {
	modes := []Mode{ModeTelemetrySynth}
	if caps.SupportsRawTorque1kHz {
		modes = append(modes, ModeRawTorque)
	}
	if caps.SupportsPID {
		modes = append(modes, ModePidPassthrough)
	}
	return modes
}

// SelectMode applies the §4.3 priority policy: raw torque preferred when
// both the game and device support it, PID passthrough next, telemetry
// synthesis as the universal fallback.
func SelectMode(caps owp1.DeviceCaps, hints GameHints) Mode {
	switch {
	case hints.ProvidesRawTorque && caps.SupportsRawTorque1kHz:
		return ModeRawTorque
	case hints.EmitsPIDEffects && caps.SupportsPID:
		return ModePidPassthrough
	default:
		return ModeTelemetrySynth
	}
}

// Mode returns the negotiated mode, valid once State() is Negotiated or later.
func (c *Controller) Mode() Mode { return c.mode }

// Arm transitions Negotiated -> Armed, after which the engine is allowed
// to begin writing torque commands.
func (c *Controller) Arm() error {
	if c.state != Negotiated {
		return fmt.Errorf("capctrl: Arm called in state %v", c.state)
	}
	c.state = Armed
	return nil
}

// Disarm transitions Armed back to Negotiated, stopping torque output
// without tearing down the transport or vendor resolution.
func (c *Controller) Disarm() error {
	if c.state != Armed {
		return fmt.Errorf("capctrl: Disarm called in state %v", c.state)
	}
	c.state = Negotiated
	return nil
}

// Release closes the transport and returns the Controller to
// Disconnected, regardless of the state it was in (§4.3 "release is
// always safe").
func (c *Controller) Release() error {
	if c.transport == nil {
		c.state = Disconnected
		return nil
	}
	err := c.transport.Close()
	c.transport = nil
	c.vendorP = nil
	c.state = Disconnected
	return err
}

// Vendor returns the resolved vendor protocol, or nil before Connect.
func (c *Controller) Vendor() interfaces.VendorProtocol { return c.vendorP }

// Transport returns the underlying HID transport, or nil before Connect.
func (c *Controller) Transport() hid.Transport { return c.transport }

// Caps returns the last-installed capability report.
func (c *Controller) Caps() owp1.DeviceCaps { return c.caps }
