package owp1

import "encoding/binary"

// MarshalError reports a wire-encoding failure, following the teacher's
// string-constant error style rather than a richer struct: these errors
// are always programmer errors (undersized buffers) and need no wrapped
// context.
type MarshalError string

func (e MarshalError) Error() string { return string(e) }

const (
	ErrInsufficientData MarshalError = "owp1: insufficient data"
	ErrBadCRC           MarshalError = "owp1: crc check failed"
	ErrWrongReportID    MarshalError = "owp1: unexpected report id"
)

// crc8 computes the OWP-1 CRC-8 checksum (poly 0x07, init 0x00, no
// reflect, no final xor) over data.
func crc8(data []byte) uint8 {
	var crc uint8
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ CRC8Poly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// MarshalTorqueCommand writes t into out, a 64-byte HID OUT report buffer,
// computing and appending the CRC-8 over the preceding bytes. Allocation
// free; called from the RT tick thread.
func MarshalTorqueCommand(t *TorqueCommand, out *[ReportSize]byte) {
	out[0] = ReportIDTorqueOut
	binary.LittleEndian.PutUint16(out[1:3], uint16(t.TorqueMNm))
	out[3] = t.Flags
	binary.LittleEndian.PutUint16(out[4:6], t.Seq)
	out[6] = crc8(out[:6])
	for i := 7; i < ReportSize; i++ {
		out[i] = 0
	}
}

// UnmarshalDeviceTelemetry parses a 64-byte HID IN report into t. Returns
// ErrInsufficientData if buf is short, ErrWrongReportID if the leading
// byte does not match ReportIDTelemetryIn, ErrBadCRC on checksum mismatch.
func UnmarshalDeviceTelemetry(buf []byte, t *DeviceTelemetry) error {
	if len(buf) < 13 {
		return ErrInsufficientData
	}
	if buf[0] != ReportIDTelemetryIn {
		return ErrWrongReportID
	}
	if crc8(buf[:12]) != buf[12] {
		return ErrBadCRC
	}
	t.ReportID = buf[0]
	t.WheelAngleMdeg = int32(binary.LittleEndian.Uint32(buf[1:5]))
	t.WheelSpeedMradS = int16(binary.LittleEndian.Uint16(buf[5:7]))
	t.TempC = buf[7]
	t.Faults = buf[8]
	t.HandsOn = buf[9]
	t.Seq = binary.LittleEndian.Uint16(buf[10:12])
	t.CRC8 = buf[12]
	return nil
}

// MarshalDeviceTelemetry is the inverse of UnmarshalDeviceTelemetry, used
// by the demo CLI and tests to synthesize device reports.
func MarshalDeviceTelemetry(t *DeviceTelemetry, out *[ReportSize]byte) {
	out[0] = ReportIDTelemetryIn
	binary.LittleEndian.PutUint32(out[1:5], uint32(t.WheelAngleMdeg))
	binary.LittleEndian.PutUint16(out[5:7], uint16(t.WheelSpeedMradS))
	out[7] = t.TempC
	out[8] = t.Faults
	out[9] = t.HandsOn
	binary.LittleEndian.PutUint16(out[10:12], t.Seq)
	out[12] = crc8(out[:12])
	for i := 13; i < ReportSize; i++ {
		out[i] = 0
	}
}

// UnmarshalDeviceCaps parses HID feature report 0x01.
func UnmarshalDeviceCaps(buf []byte, c *DeviceCaps) error {
	if len(buf) < 10 {
		return ErrInsufficientData
	}
	if buf[0] != ReportIDCaps {
		return ErrWrongReportID
	}
	flags := buf[1]
	c.SupportsPID = flags&0x01 != 0
	c.SupportsRawTorque1kHz = flags&0x02 != 0
	c.SupportsHealthStream = flags&0x04 != 0
	c.SupportsLEDBus = flags&0x08 != 0
	c.MaxTorqueCNcm = binary.LittleEndian.Uint16(buf[2:4])
	c.EncoderCPR = binary.LittleEndian.Uint16(buf[4:6])
	c.MinReportPeriodUs = buf[6]
	c.ProtocolVersion = buf[7]
	return nil
}

// MarshalChallenge writes a high-torque interlock challenge report (§4.4).
func MarshalChallenge(c *ChallengeReport, out *[ReportSize]byte) {
	out[0] = ReportIDChallenge
	binary.LittleEndian.PutUint32(out[1:5], c.Nonce)
	for i := 5; i < ReportSize; i++ {
		out[i] = 0
	}
}

// UnmarshalConfigAck parses HID report 0x22.
func UnmarshalConfigAck(buf []byte, a *ConfigAck) error {
	if len(buf) < 10 {
		return ErrInsufficientData
	}
	if buf[0] != ReportIDConfigAck {
		return ErrWrongReportID
	}
	a.ReportID = buf[0]
	a.ConfigHash = binary.LittleEndian.Uint64(buf[1:9])
	a.Accepted = buf[9]
	return nil
}

// MarshalConfig writes a config push report (feature report 0x02).
func MarshalConfig(c *ConfigReport, out *[ReportSize]byte) {
	out[0] = ReportIDConfig
	binary.LittleEndian.PutUint64(out[1:9], c.ConfigHash)
	out[9] = c.Flags
	for i := 10; i < ReportSize; i++ {
		out[i] = 0
	}
}
