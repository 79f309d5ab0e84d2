package ffbcore

import (
	"sync"

	"github.com/openwheel/ffbcore/internal/hid"
	"github.com/openwheel/ffbcore/internal/interfaces"
)

// MockHIDTransport is a re-export of the internal in-memory HID
// transport, for tests and demos that drive an Engine without real
// hardware.
type MockHIDTransport = hid.MockTransport

// NewMockHIDTransport returns a MockHIDTransport with no queued reads.
func NewMockHIDTransport() *MockHIDTransport { return hid.NewMockTransport() }

// MockVendorProtocol provides a configurable VendorProtocol for testing,
// mirroring the teacher's MockBackend: it implements the full capability
// set and tracks method calls for verification.
type MockVendorProtocol struct {
	VID          uint16
	MatchPID     func(pid uint16) bool
	OnParseInput func(report []byte) (interfaces.InputState, bool)
	OnEncodeFFB  func(torque float32, out *[64]byte)
	Config       interfaces.FFBConfig

	mu          sync.Mutex
	encodeCalls int
	parseCalls  int
	lastTorque  float32
}

// NewMockVendorProtocol returns a MockVendorProtocol claiming vid and
// matching every PID, with an identity EncodeFFB that writes the
// normalized torque as Q8.8 into bytes [1:3] of the report.
func NewMockVendorProtocol(vid uint16) *MockVendorProtocol {
	return &MockVendorProtocol{VID: vid}
}

func (m *MockVendorProtocol) VendorID() uint16 { return m.VID }

func (m *MockVendorProtocol) MatchesPID(pid uint16) bool {
	if m.MatchPID != nil {
		return m.MatchPID(pid)
	}
	return true
}

func (m *MockVendorProtocol) ParseInput(report []byte) (interfaces.InputState, bool) {
	m.mu.Lock()
	m.parseCalls++
	m.mu.Unlock()
	if m.OnParseInput != nil {
		return m.OnParseInput(report)
	}
	return interfaces.InputState{}, false
}

func (m *MockVendorProtocol) EncodeFFB(torqueNormalized float32, out *[64]byte) {
	m.mu.Lock()
	m.encodeCalls++
	m.lastTorque = torqueNormalized
	m.mu.Unlock()
	if m.OnEncodeFFB != nil {
		m.OnEncodeFFB(torqueNormalized, out)
		return
	}
	q88 := int16(torqueNormalized * 256)
	out[0] = 0x20
	out[1] = byte(q88)
	out[2] = byte(q88 >> 8)
}

func (m *MockVendorProtocol) FFBConfig() interfaces.FFBConfig { return m.Config }

// EncodeCalls returns how many times EncodeFFB has been invoked.
func (m *MockVendorProtocol) EncodeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.encodeCalls
}

// LastTorque returns the last value passed to EncodeFFB.
func (m *MockVendorProtocol) LastTorque() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastTorque
}

// MockTelemetrySource replays a fixed sequence of TelemetryInput values
// into an Engine's input ring, one per call to Feed, looping once
// exhausted. Used by the demo CLI in place of a real
// game-telemetry adapter (§6 "game telemetry adapters are a
// collaborator, only the normalized frame matters here").
type MockTelemetrySource struct {
	frames []TelemetryInput
	next   int
}

// NewMockTelemetrySource returns a source cycling through frames.
func NewMockTelemetrySource(frames []TelemetryInput) *MockTelemetrySource {
	return &MockTelemetrySource{frames: frames}
}

// Feed pushes the next frame in the cycle into engine's input ring.
// Returns false if frames is empty or the ring was full.
func (s *MockTelemetrySource) Feed(engine *Engine) bool {
	if len(s.frames) == 0 {
		return false
	}
	f := s.frames[s.next]
	s.next = (s.next + 1) % len(s.frames)
	return engine.PushTelemetry(f)
}
