package owp1

import (
	"testing"
	"unsafe"
)

func TestStructSizes(t *testing.T) {
	tests := []struct {
		name     string
		size     uintptr
		expected int
	}{
		{"TorqueCommand", unsafe.Sizeof(TorqueCommand{}), 7},
		{"DeviceTelemetry", unsafe.Sizeof(DeviceTelemetry{}), 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if int(tt.size) != tt.expected {
				t.Errorf("%s size = %d, want %d", tt.name, tt.size, tt.expected)
			}
		})
	}
}

func TestCRC8RoundTrip(t *testing.T) {
	cmd := &TorqueCommand{TorqueMNm: 256, Flags: TorqueFlagSafeMode, Seq: 7}
	var buf [ReportSize]byte
	MarshalTorqueCommand(cmd, &buf)

	if buf[0] != ReportIDTorqueOut {
		t.Fatalf("report id = %#x, want %#x", buf[0], ReportIDTorqueOut)
	}
	if got := crc8(buf[:6]); got != buf[6] {
		t.Fatalf("crc8 mismatch: computed %#x, stored %#x", got, buf[6])
	}
}

func TestTelemetryRoundTrip(t *testing.T) {
	want := &DeviceTelemetry{
		WheelAngleMdeg:  -4500,
		WheelSpeedMradS: 120,
		TempC:           42,
		Faults:          TelemetryFaultThermal,
		HandsOn:         1,
		Seq:             9001,
	}
	var buf [ReportSize]byte
	MarshalDeviceTelemetry(want, &buf)

	got := &DeviceTelemetry{}
	if err := UnmarshalDeviceTelemetry(buf[:], got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.WheelAngleMdeg != want.WheelAngleMdeg ||
		got.WheelSpeedMradS != want.WheelSpeedMradS ||
		got.TempC != want.TempC ||
		got.Faults != want.Faults ||
		got.HandsOn != want.HandsOn ||
		got.Seq != want.Seq {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestTelemetryBadCRC(t *testing.T) {
	want := &DeviceTelemetry{Seq: 1}
	var buf [ReportSize]byte
	MarshalDeviceTelemetry(want, &buf)
	buf[12] ^= 0xFF

	var got DeviceTelemetry
	if err := UnmarshalDeviceTelemetry(buf[:], &got); err != ErrBadCRC {
		t.Fatalf("err = %v, want ErrBadCRC", err)
	}
}

func TestTelemetryWrongReportID(t *testing.T) {
	buf := make([]byte, ReportSize)
	buf[0] = ReportIDCaps
	var got DeviceTelemetry
	if err := UnmarshalDeviceTelemetry(buf, &got); err != ErrWrongReportID {
		t.Fatalf("err = %v, want ErrWrongReportID", err)
	}
}

func TestTelemetryInsufficientData(t *testing.T) {
	var got DeviceTelemetry
	if err := UnmarshalDeviceTelemetry([]byte{1, 2, 3}, &got); err != ErrInsufficientData {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestDeviceCapsFlags(t *testing.T) {
	buf := make([]byte, ReportSize)
	buf[0] = ReportIDCaps
	buf[1] = 0x0F // all four capability bits set
	buf[2], buf[3] = 0x00, 0x10 // MaxTorqueCNcm = 4096
	buf[6] = 1                  // MinReportPeriodUs
	buf[7] = 1                  // ProtocolVersion

	var caps DeviceCaps
	if err := UnmarshalDeviceCaps(buf, &caps); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !caps.SupportsPID || !caps.SupportsRawTorque1kHz || !caps.SupportsHealthStream || !caps.SupportsLEDBus {
		t.Errorf("caps = %+v, want all capability flags set", caps)
	}
	if caps.MaxTorqueCNcm != 4096 {
		t.Errorf("MaxTorqueCNcm = %d, want 4096", caps.MaxTorqueCNcm)
	}
}
