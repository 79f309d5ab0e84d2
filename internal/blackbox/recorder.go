package blackbox

import (
	"bufio"
	"errors"
	"hash"
	"hash/crc32"
	"io"
	"time"

	"github.com/openwheel/ffbcore/internal/constants"
)

// ErrLimitExceeded is returned by WriteFrame/WriteTelemetry/WriteEvent
// once a configured size or duration ceiling has been reached. The
// triggering record is rejected outright rather than partially written
// (§4.6 "reject additional records rather than corrupt").
var ErrLimitExceeded = errors.New("blackbox: recording limit exceeded")

// Recorder writes a single .wbb session to an io.Writer, batching records
// through a buffered writer so the non-RT writer goroutine issues few
// syscalls regardless of the 1kHz frame rate (§4.6). Not safe for
// concurrent use by multiple goroutines; callers own a per-session
// single-writer goroutine and feed it over a channel (see
// internal/ring for the queue that bridges the RT thread to it).
type Recorder struct {
	w           *bufio.Writer
	underlying  io.Writer
	crc         hash.Hash32
	offset      uint64
	nextIndexAt time.Time
	indexEvery  time.Duration
	index       []IndexEntry
	startTick   uint64

	maxBytes    uint64
	maxDuration time.Duration
	limitHit    bool
}

// Option configures a Recorder at construction.
type Option func(*Recorder)

// WithMaxBytes caps the total bytes a Recorder will write (the file header
// NewRecorder writes counts toward the cap; the footer Close writes is
// unconditional and not counted). Zero means unlimited, the default.
func WithMaxBytes(n uint64) Option {
	return func(r *Recorder) { r.maxBytes = n }
}

// WithMaxDuration caps how far past startTick, in ticks converted via
// constants.NominalTickPeriod, a Recorder will accept records for. Zero
// means unlimited, the default.
func WithMaxDuration(d time.Duration) Option {
	return func(r *Recorder) { r.maxDuration = d }
}

// NewRecorder opens a new recording session against w, writing the file
// header immediately.
func NewRecorder(w io.Writer, startTick uint64, now time.Time, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		w:           bufio.NewWriterSize(w, 64*1024),
		underlying:  w,
		crc:         crc32.New(crc32.MakeTable(crc32.Castagnoli)),
		indexEvery:  constants.BlackboxIndexInterval,
		nextIndexAt: now,
		startTick:   startTick,
	}
	for _, opt := range opts {
		opt(r)
	}
	hdr := writeFileHeader(FileHeader{Version: constants.WBBVersion, StartTick: startTick})
	return r, r.write(hdr)
}

func (r *Recorder) write(b []byte) error {
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	r.crc.Write(b)
	r.offset += uint64(len(b))
	return nil
}

// WriteFrame appends a stream A record: per-tick torque/position samples.
// Subject to rate-limited whole-tick dropping when the writer falls
// behind (§4.6 "never partially write a frame"); the caller decides
// whether to drop by simply not calling WriteFrame for that tick.
func (r *Recorder) WriteFrame(tick uint64, payload []byte) error {
	return r.writeRecord(StreamFrame, tick, payload)
}

// WriteTelemetry appends a stream B record, expected at BlackboxTelemetryRate.
func (r *Recorder) WriteTelemetry(tick uint64, payload []byte) error {
	return r.writeRecord(StreamTelemetry, tick, payload)
}

// WriteEvent appends a stream C record: safety transitions and faults,
// never dropped.
func (r *Recorder) WriteEvent(tick uint64, payload []byte) error {
	return r.writeRecord(StreamEvent, tick, payload)
}

func (r *Recorder) writeRecord(stream StreamID, tick uint64, payload []byte) error {
	if r.limitHit {
		return ErrLimitExceeded
	}
	if r.maxDuration > 0 && tick >= r.startTick {
		elapsed := time.Duration(tick-r.startTick) * constants.NominalTickPeriod
		if elapsed >= r.maxDuration {
			r.limitHit = true
			return ErrLimitExceeded
		}
	}
	size := uint64(recordHeaderSize + len(payload))
	if r.maxBytes > 0 && r.offset+size > r.maxBytes {
		r.limitHit = true
		return ErrLimitExceeded
	}
	buf := make([]byte, size)
	encodeRecord(buf, stream, tick, payload)
	return r.write(buf)
}

// MaybeIndex records an index entry if indexEvery has elapsed since the
// last one, called once per tick by the caller with the current wall
// time.
func (r *Recorder) MaybeIndex(tick uint64, now time.Time) {
	if now.Before(r.nextIndexAt) {
		return
	}
	r.index = append(r.index, IndexEntry{Tick: tick, Offset: r.offset})
	r.nextIndexAt = now.Add(r.indexEvery)
}

// Close flushes buffered data, writes the index and CRC32C footer, and
// flushes the underlying writer.
func (r *Recorder) Close() error {
	footer := writeFileFooter(FileFooter{Index: r.index, CRC32: r.crc.Sum32()})
	if _, err := r.w.Write(footer); err != nil {
		return err
	}
	return r.w.Flush()
}
