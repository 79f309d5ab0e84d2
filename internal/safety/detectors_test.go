package safety

import (
	"math"
	"testing"
	"time"
)

func TestEncoderNaNDetectorTrips(t *testing.T) {
	d := NewEncoderNaNDetector()
	var tripped bool
	for i := 0; i < 10; i++ {
		if d.Observe(float32(math.NaN())) {
			tripped = true
			break
		}
	}
	if !tripped {
		t.Error("EncoderNaNDetector never tripped after 10 consecutive NaN samples")
	}
}

func TestEncoderNaNDetectorIgnoresGoodSamples(t *testing.T) {
	d := NewEncoderNaNDetector()
	for i := 0; i < 1000; i++ {
		if d.Observe(1.23) {
			t.Fatal("EncoderNaNDetector tripped on valid samples")
		}
	}
}

func TestThermalDetectorHysteresis(t *testing.T) {
	d := &ThermalDetector{}
	if d.Observe(70) {
		t.Error("tripped below trip point")
	}
	if !d.Observe(81) {
		t.Error("did not trip at/above trip point")
	}
	if !d.Observe(76) {
		t.Error("cleared before reaching clear point (hysteresis band)")
	}
	if d.Observe(73) {
		t.Error("did not clear below clear point")
	}
}

func TestUSBStallDetectorStreak(t *testing.T) {
	d := &USBStallDetector{}
	if d.Observe(false) || d.Observe(false) {
		t.Error("tripped before reaching failure streak threshold")
	}
	if !d.Observe(false) {
		t.Error("did not trip at threshold")
	}
}

func TestUSBStallDetectorResetsOnSuccess(t *testing.T) {
	d := &USBStallDetector{}
	d.Observe(false)
	d.Observe(true)
	if d.Observe(false) {
		t.Error("streak should reset after a successful I/O")
	}
}

func TestHandsOffDetectorTimeout(t *testing.T) {
	start := time.Now()
	d := NewHandsOffDetector(start)
	if d.Observe(start.Add(time.Second), false) {
		t.Error("tripped before timeout elapsed")
	}
	if !d.Observe(start.Add(11*time.Second), false) {
		t.Error("did not trip after timeout elapsed")
	}
}
