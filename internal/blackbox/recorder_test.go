package blackbox

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestRecorderWritesValidHeader(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRecorder(&buf, 0, time.Now())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if buf.Len() < 16 {
		t.Fatalf("output too short: %d bytes", buf.Len())
	}
	if string(buf.Bytes()[0:4]) != "WBB1" {
		t.Errorf("header magic = %q, want WBB1", buf.Bytes()[0:4])
	}
	tail := buf.Bytes()[buf.Len()-4:]
	if string(tail) != "1BBW" {
		t.Errorf("footer magic = %q, want 1BBW", tail)
	}
}

func TestRecorderRoundTripsFrames(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRecorder(&buf, 0, time.Now())
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	want := []Frame{
		{Tick: 0, InputSample: 0.1, Torque: 0.05},
		{Tick: 1, InputSample: 0.2, Torque: 0.1},
		{Tick: 2, InputSample: -0.5, Torque: -0.25},
	}
	for _, f := range want {
		if err := r.WriteFrame(f.Tick, EncodeFrame(f)); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadFrames(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadFrames: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("ReadFrames returned %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Tick != want[i].Tick || got[i].InputSample != want[i].InputSample || got[i].Torque != want[i].Torque {
			t.Errorf("frame %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRecorderRejectsPastMaxBytes(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRecorder(&buf, 0, time.Now(), WithMaxBytes(64))
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	payload := EncodeFrame(Frame{Tick: 0, InputSample: 0.1, Torque: 0.05})

	var rejected bool
	for i := uint64(0); i < 20; i++ {
		err := r.WriteFrame(i, payload)
		if err != nil {
			if !errors.Is(err, ErrLimitExceeded) {
				t.Fatalf("WriteFrame: unexpected error %v", err)
			}
			rejected = true
			break
		}
	}
	if !rejected {
		t.Fatal("WriteFrame never rejected a record past the byte ceiling")
	}
	if err := r.WriteFrame(999, payload); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("WriteFrame after limit hit = %v, want ErrLimitExceeded", err)
	}
}

func TestRecorderRejectsPastMaxDuration(t *testing.T) {
	var buf bytes.Buffer
	r, err := NewRecorder(&buf, 0, time.Now(), WithMaxDuration(5*time.Millisecond))
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	payload := EncodeFrame(Frame{Tick: 0, InputSample: 0.1, Torque: 0.05})
	if err := r.WriteFrame(0, payload); err != nil {
		t.Fatalf("WriteFrame at tick 0: %v", err)
	}
	if err := r.WriteFrame(100, payload); !errors.Is(err, ErrLimitExceeded) {
		t.Errorf("WriteFrame at tick 100 (100ms elapsed) = %v, want ErrLimitExceeded", err)
	}
}

func TestDiffDetectsMismatch(t *testing.T) {
	frames := []Frame{
		{Tick: 0, InputSample: 1.0, Torque: 2.0},
		{Tick: 1, InputSample: 2.0, Torque: 4.0},
	}
	mismatch, _ := Diff(frames, func(in float32) float32 { return in * 2 })
	if mismatch != -1 {
		t.Errorf("Diff() mismatch = %d, want -1 (no mismatch)", mismatch)
	}

	mismatch, maxDelta := Diff(frames, func(in float32) float32 { return in * 3 })
	if mismatch != 0 {
		t.Errorf("Diff() mismatch = %d, want 0", mismatch)
	}
	if maxDelta <= 0 {
		t.Error("Diff() maxDelta should be positive when mismatched")
	}
}
