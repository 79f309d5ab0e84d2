package hid

import (
	"fmt"
	"sync"
)

// MockTransport is an in-memory HID endpoint for tests and the demo CLI,
// adapted from the teacher's in-memory Memory backend (backend/mem.go):
// same sharded-nothing simple-lock approach, repurposed from a byte-range
// RAM disk into a queue of discrete HID reports.
type MockTransport struct {
	mu      sync.Mutex
	writes  [][]byte
	toRead  [][]byte
	closed  bool
}

// NewMockTransport returns an empty mock transport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// WriteReport records a copy of report for later inspection by tests.
func (m *MockTransport) WriteReport(report []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("hid: mock transport closed")
	}
	cp := append([]byte(nil), report...)
	m.writes = append(m.writes, cp)
	return nil
}

// ReadReport pops the next queued device report into buf, or returns
// (0, nil) if nothing is queued, matching the non-blocking hidraw
// semantics of the real transport.
func (m *MockTransport) ReadReport(buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, fmt.Errorf("hid: mock transport closed")
	}
	if len(m.toRead) == 0 {
		return 0, nil
	}
	next := m.toRead[0]
	m.toRead = m.toRead[1:]
	n := copy(buf, next)
	return n, nil
}

// Close marks the transport closed; subsequent reads/writes fail.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// QueueRead enqueues a report to be returned by a future ReadReport call,
// simulating an inbound telemetry/caps/ack report from the device.
func (m *MockTransport) QueueRead(report []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := append([]byte(nil), report...)
	m.toRead = append(m.toRead, cp)
}

// Writes returns a snapshot of every report written so far, for test
// assertions on the host's torque command stream.
func (m *MockTransport) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}
