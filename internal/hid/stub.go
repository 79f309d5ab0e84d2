//go:build !linux

package hid

import "fmt"

// openPlatform on non-Linux platforms returns an error: the OWP-1
// transport layer depends on hidraw semantics (§4.3). Mirrors the
// teacher's !giouring stub (internal/uring/iouring_stub.go), which
// reports unavailability rather than attempting a degraded emulation.
func openPlatform(path string) (Transport, error) {
	return nil, fmt.Errorf("hid: hidraw transport not available on this platform, use the mock transport for development")
}
