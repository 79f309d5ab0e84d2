package ffbcore

import "github.com/openwheel/ffbcore/internal/capctrl"

// GameHints describes what the telemetry source offers for mode
// selection (§4.3).
type GameHints = capctrl.GameHints

// PermittedModes returns the FFB mode matrix entries a device may use
// given its capability report. TelemetrySynth is always included.
func PermittedModes(caps DeviceCaps) []FFBMode {
	return capctrl.PermittedModes(caps)
}

// SelectMode applies the §4.3 priority policy (raw torque, then PID
// passthrough, then telemetry synthesis) to pick one mode from the
// permitted set.
func SelectMode(caps DeviceCaps, hints GameHints) FFBMode {
	return capctrl.SelectMode(caps, hints)
}

// Features holds the capability flags that extend a device's behavior
// independent of its negotiated torque mode (§3 DeviceCaps).
type Features struct {
	HealthStream bool
	LEDBus       bool
}

// DeriveFeatures reads the orthogonal capability flags from caps. Unlike
// FFBMode, a device can have any combination of these active alongside
// whichever mode SelectMode picked.
func DeriveFeatures(caps DeviceCaps) Features {
	return Features{
		HealthStream: caps.SupportsHealthStream,
		LEDBus:       caps.SupportsLEDBus,
	}
}
