package blackbox

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/openwheel/ffbcore/internal/constants"
)

// Frame is a decoded stream A record: the per-tick input sample and the
// torque output the engine actually commanded, used by Replay to
// recompute and diff.
type Frame struct {
	Tick        uint64
	InputSample float32
	Torque      float32
}

// EncodeFrame packs a Frame into the wire layout stored in stream A.
func EncodeFrame(f Frame) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(f.InputSample))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(f.Torque))
	return buf
}

// DecodeFrame is the inverse of EncodeFrame.
func DecodeFrame(tick uint64, payload []byte) (Frame, error) {
	if len(payload) < 8 {
		return Frame{}, fmt.Errorf("blackbox: short frame payload (%d bytes)", len(payload))
	}
	return Frame{
		Tick:        tick,
		InputSample: math.Float32frombits(binary.LittleEndian.Uint32(payload[0:4])),
		Torque:      math.Float32frombits(binary.LittleEndian.Uint32(payload[4:8])),
	}, nil
}

// ReadFrames scans a recorded .wbb byte stream and returns every stream A
// frame in order. Used by the replay harness (§4.6 "replay-diff") rather
// than a general-purpose reader, since replay only ever needs stream A.
func ReadFrames(data []byte) ([]Frame, error) {
	if _, err := readFileHeader(data); err != nil {
		return nil, err
	}
	pos := 16
	var frames []Frame
	for pos+recordHeaderSize <= len(data)-4 {
		if bytes.Equal(data[pos:pos+4], []byte(constants.WBBMagicFooter)) {
			break
		}
		stream, tick, length, err := decodeRecordHeader(data[pos:])
		if err != nil {
			return nil, err
		}
		start := pos + recordHeaderSize
		end := start + int(length)
		if end > len(data) {
			return nil, fmt.Errorf("blackbox: truncated record at offset %d", pos)
		}
		if stream == StreamFrame {
			f, err := DecodeFrame(tick, data[start:end])
			if err != nil {
				return nil, err
			}
			frames = append(frames, f)
		}
		pos = end
	}
	return frames, nil
}

// Diff runs recompute against every recorded frame's input and reports
// the first tick where the recomputed torque deviates from the recorded
// torque by more than constants.ReplayTolerance (§4.6, §8 property
// "replay determinism"). Returns -1 if no deviation is found.
func Diff(frames []Frame, recompute func(input float32) float32) (mismatchTick int64, maxDelta float32) {
	mismatchTick = -1
	for _, f := range frames {
		got := recompute(f.InputSample)
		delta := got - f.Torque
		if delta < 0 {
			delta = -delta
		}
		if delta > maxDelta {
			maxDelta = delta
		}
		if delta > constants.ReplayTolerance && mismatchTick == -1 {
			mismatchTick = int64(f.Tick)
		}
	}
	return mismatchTick, maxDelta
}
