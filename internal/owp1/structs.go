// Package owp1 implements the Open Wheel Protocol version 1 HID report
// set: wire-layout structs, little-endian marshal/unmarshal, and CRC-8
// framing (§3, §4.3, §6).
package owp1

import "unsafe"

// TorqueCommand is HID OUT report 0x20: {report_id, torque_mN_m Q8.8,
// flags, seq, crc8}, little-endian, padded to a 64-byte report.
type TorqueCommand struct {
	ReportID  uint8
	TorqueMNm int16 // Q8.8 fixed point
	Flags     uint8
	Seq       uint16
	CRC8      uint8
}

// Compile-time size check for the logical (unpadded) payload.
var _ [7]byte = [unsafe.Sizeof(TorqueCommand{})]byte{}

// Torque flag bits.
const (
	TorqueFlagHighTorqueActive uint8 = 1 << 0
	TorqueFlagSafeMode         uint8 = 1 << 1
)

// DeviceTelemetry is HID IN report 0x21.
type DeviceTelemetry struct {
	ReportID        uint8
	WheelAngleMdeg  int32
	WheelSpeedMradS int16
	TempC           uint8
	Faults          uint8 // bitfield
	HandsOn         uint8
	Seq             uint16
	CRC8            uint8
}

var _ [13]byte = [unsafe.Sizeof(DeviceTelemetry{})]byte{}

// Telemetry fault bitfield (device-reported, distinct from host FaultKind).
const (
	TelemetryFaultOvercurrent uint8 = 1 << 0
	TelemetryFaultThermal     uint8 = 1 << 1
)

// DeviceCaps is HID feature report 0x01, read once at connect (§3).
type DeviceCaps struct {
	SupportsPID           bool
	SupportsRawTorque1kHz bool
	SupportsHealthStream  bool
	SupportsLEDBus        bool
	MaxTorqueCNcm         uint16
	EncoderCPR            uint16
	MinReportPeriodUs     uint8
	ProtocolVersion       uint8
}

// ConfigReport is HID feature report 0x02 (outbound filter/profile config
// push for vendors that accept device-side shaping; most processing stays
// host-side per §4.2, this is vendor-optional).
type ConfigReport struct {
	ReportID   uint8
	ConfigHash uint64
	Flags      uint8
}

// ChallengeReport is HID feature report 0x03: the high-torque interlock
// nonce (§4.4 step 1).
type ChallengeReport struct {
	ReportID uint8
	Nonce    uint32
}

// ConfigAck is HID report 0x22, device acknowledgement of a config push.
type ConfigAck struct {
	ReportID   uint8
	ConfigHash uint64
	Accepted   uint8
}
