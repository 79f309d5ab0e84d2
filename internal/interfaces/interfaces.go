// Package interfaces provides internal capability-set definitions shared
// across the control core. Kept separate from the public package to avoid
// import cycles between the root engine package and internal subpackages.
package interfaces

// VendorProtocol is the polymorphic capability set every vendor module must
// implement (§4.3). All methods must be pure and allocation-free: the
// engine calls EncodeFFB/ParseInput from the RT tick thread.
type VendorProtocol interface {
	VendorID() uint16
	MatchesPID(pid uint16) bool
	ParseInput(report []byte) (InputState, bool)
	EncodeFFB(torqueNormalized float32, out *[64]byte)
	FFBConfig() FFBConfig
}

// LEDCapableProtocol is an optional extension for vendors exposing an LED
// bus (DeviceCaps.SupportsLEDBus), mirroring the teacher's optional
// DiscardBackend pattern: type-asserted at connect time, never required.
type LEDCapableProtocol interface {
	VendorProtocol
	EncodeLED(pattern uint32, out *[64]byte)
}

// InputState is the normalized result of parsing a vendor telemetry/caps
// report: wheel angle/speed and any hands-on/button state needed by the
// safety layer.
type InputState struct {
	WheelAngleMilliDeg int32
	WheelSpeedMilliRad int16
	TempC              uint8
	FaultsBitfield     uint8
	HandsOn            bool
	Seq                uint16
}

// FFBConfig describes static per-vendor wire characteristics.
type FFBConfig struct {
	MaxTorqueCNcm uint16
	ReportPeriod  uint8 // microseconds, min supported report period
}

// HIDTransport is the capability set for the physical I/O layer (§4.3
// Platform I/O). Implementations are per-device, non-blocking, and
// allocation-free on WriteReport/ReadReport.
type HIDTransport interface {
	WriteReport(report []byte) error
	ReadReport(buf []byte) (int, error)
	Close() error
}

// Logger is the narrow logging capability threaded through non-RT
// components. The RT tick thread never logs.
type Logger interface {
	Printf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Observer receives per-tick and per-fault telemetry for metrics export.
// Implementations must be thread-safe and allocation-free: methods are
// invoked from the RT tick thread.
type Observer interface {
	ObserveTick(processingNs uint64, jitterNs int64)
	ObserveTorqueWrite(bytes uint64, latencyNs uint64, success bool)
	ObserveTelemetryRead(latencyNs uint64, success bool)
	ObserveFault(kind string, severity int)
	ObserveQueueDepth(depth uint32)
}
