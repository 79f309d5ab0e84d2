// Package blackbox implements the .wbb flight-recorder format (§4.6): a
// magic-framed container with three independent streams (A: per-tick
// frames, B: telemetry snapshots, C: safety events) plus a periodic index
// for fast seeking, and a replay harness that re-runs a compiled pipeline
// against recorded input to diff against the recorded output. Grounded on
// the teacher's manual binary-marshal style (internal/uapi/marshal.go)
// and its pooled-buffer batching (internal/queue/pool.go) for the non-RT
// writer path.
package blackbox

import (
	"encoding/binary"
	"fmt"

	"github.com/openwheel/ffbcore/internal/constants"
)

// StreamID tags each record so a reader can demux without inspecting
// length.
type StreamID uint8

const (
	StreamFrame     StreamID = 'A'
	StreamTelemetry StreamID = 'B'
	StreamEvent     StreamID = 'C'
)

// recordHeaderSize is stream ID (1) + tick (8) + payload length (4).
const recordHeaderSize = 13

// encodeRecord writes a length-prefixed record into dst, returning the
// number of bytes written. dst must have capacity for
// recordHeaderSize+len(payload).
func encodeRecord(dst []byte, stream StreamID, tick uint64, payload []byte) int {
	dst[0] = byte(stream)
	binary.LittleEndian.PutUint64(dst[1:9], tick)
	binary.LittleEndian.PutUint32(dst[9:13], uint32(len(payload)))
	copy(dst[recordHeaderSize:], payload)
	return recordHeaderSize + len(payload)
}

// decodeRecordHeader parses the fixed header from buf, returning the
// stream, tick, and payload length.
func decodeRecordHeader(buf []byte) (StreamID, uint64, uint32, error) {
	if len(buf) < recordHeaderSize {
		return 0, 0, 0, fmt.Errorf("blackbox: short record header (%d bytes)", len(buf))
	}
	stream := StreamID(buf[0])
	tick := binary.LittleEndian.Uint64(buf[1:9])
	length := binary.LittleEndian.Uint32(buf[9:13])
	return stream, tick, length, nil
}

// FileHeader is the fixed 16-byte preamble of a .wbb file.
type FileHeader struct {
	Version   uint32
	StartTick uint64
}

func writeFileHeader(h FileHeader) []byte {
	buf := make([]byte, 4+4+8)
	copy(buf[0:4], constants.WBBMagicHeader)
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint64(buf[8:16], h.StartTick)
	return buf
}

func readFileHeader(buf []byte) (FileHeader, error) {
	if len(buf) < 16 || string(buf[0:4]) != constants.WBBMagicHeader {
		return FileHeader{}, fmt.Errorf("blackbox: bad or missing header magic")
	}
	return FileHeader{
		Version:   binary.LittleEndian.Uint32(buf[4:8]),
		StartTick: binary.LittleEndian.Uint64(buf[8:16]),
	}, nil
}

// IndexEntry maps a tick to a byte offset in the file, emitted roughly
// every BlackboxIndexInterval so a reader can seek near an arbitrary tick
// without scanning from the start.
type IndexEntry struct {
	Tick   uint64
	Offset uint64
}

// FileFooter closes a .wbb file: the index table plus a CRC32C over the
// entire preceding file content, followed by the footer magic.
type FileFooter struct {
	Index []IndexEntry
	CRC32 uint32
}

func writeFileFooter(f FileFooter) []byte {
	buf := make([]byte, 4+4+len(f.Index)*16+4)
	off := 0
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(f.Index)))
	off += 4
	for _, e := range f.Index {
		binary.LittleEndian.PutUint64(buf[off:off+8], e.Tick)
		binary.LittleEndian.PutUint64(buf[off+8:off+16], e.Offset)
		off += 16
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], f.CRC32)
	off += 4
	copy(buf[off:off+4], constants.WBBMagicFooter)
	return buf
}
