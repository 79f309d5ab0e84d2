package capctrl

import (
	"testing"

	"github.com/openwheel/ffbcore/internal/hid"
	"github.com/openwheel/ffbcore/internal/owp1"
	_ "github.com/openwheel/ffbcore/internal/vendor" // registers the generic fallback vendor
)

func TestLifecycleHappyPath(t *testing.T) {
	c := New(nil)
	tr := hid.NewMockTransport()

	if err := c.ConnectWithTransport(tr, 0xFFFF, 0x0001); err != nil {
		t.Fatalf("ConnectWithTransport: %v", err)
	}
	if c.State() != Connected {
		t.Fatalf("State() = %v, want Connected", c.State())
	}

	c.SetCaps(owp1.DeviceCaps{SupportsPID: true})
	c.SetGameHints(GameHints{EmitsPIDEffects: true})
	modes, err := c.Negotiate()
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if len(modes) != 2 {
		t.Errorf("Negotiate() returned %d modes, want 2 (telemetry_synth + pid_passthrough)", len(modes))
	}
	if c.Mode() != ModePidPassthrough {
		t.Errorf("Mode() = %v, want pid_passthrough", c.Mode())
	}

	if err := c.Arm(); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if c.State() != Armed {
		t.Fatalf("State() = %v, want Armed", c.State())
	}

	if err := c.Disarm(); err != nil {
		t.Fatalf("Disarm: %v", err)
	}
	if err := c.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if c.State() != Disconnected {
		t.Errorf("State() = %v, want Disconnected", c.State())
	}
}

func TestArmBeforeNegotiateFails(t *testing.T) {
	c := New(nil)
	tr := hid.NewMockTransport()
	if err := c.ConnectWithTransport(tr, 0xFFFF, 0x0001); err != nil {
		t.Fatalf("ConnectWithTransport: %v", err)
	}
	if err := c.Arm(); err == nil {
		t.Error("Arm() before Negotiate should fail")
	}
}

func TestPermittedModesBaseline(t *testing.T) {
	modes := PermittedModes(owp1.DeviceCaps{})
	if len(modes) != 1 || modes[0] != ModeTelemetrySynth {
		t.Errorf("PermittedModes(empty caps) = %v, want only telemetry_synth", modes)
	}
}

func TestSelectModePrefersRawTorque(t *testing.T) {
	caps := owp1.DeviceCaps{SupportsRawTorque1kHz: true, SupportsPID: true}
	hints := GameHints{ProvidesRawTorque: true, EmitsPIDEffects: true}
	if got := SelectMode(caps, hints); got != ModeRawTorque {
		t.Errorf("SelectMode() = %v, want raw_torque", got)
	}
}

func TestSelectModeFallsBackToTelemetrySynth(t *testing.T) {
	if got := SelectMode(owp1.DeviceCaps{}, GameHints{}); got != ModeTelemetrySynth {
		t.Errorf("SelectMode() = %v, want telemetry_synth", got)
	}
}

func TestReleaseIsAlwaysSafe(t *testing.T) {
	c := New(nil)
	if err := c.Release(); err != nil {
		t.Errorf("Release() on a never-connected controller should be a no-op, got %v", err)
	}
}
