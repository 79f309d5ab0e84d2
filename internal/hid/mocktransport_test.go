package hid

import "testing"

func TestMockTransportWriteReadRoundTrip(t *testing.T) {
	tr := NewMockTransport()
	if err := tr.WriteReport([]byte{0x20, 1, 2, 3}); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if len(tr.Writes()) != 1 {
		t.Fatalf("Writes() len = %d, want 1", len(tr.Writes()))
	}

	tr.QueueRead([]byte{0x21, 9, 9, 9})
	buf := make([]byte, 64)
	n, err := tr.ReadReport(buf)
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if n != 4 || buf[0] != 0x21 {
		t.Errorf("ReadReport returned n=%d buf[0]=%#x, want n=4 buf[0]=0x21", n, buf[0])
	}
}

func TestMockTransportEmptyReadReturnsZero(t *testing.T) {
	tr := NewMockTransport()
	buf := make([]byte, 64)
	n, err := tr.ReadReport(buf)
	if err != nil || n != 0 {
		t.Errorf("ReadReport on empty queue = (%d, %v), want (0, nil)", n, err)
	}
}

func TestMockTransportClosedRejectsIO(t *testing.T) {
	tr := NewMockTransport()
	tr.Close()
	if err := tr.WriteReport([]byte{1}); err == nil {
		t.Error("WriteReport after Close should error")
	}
}
