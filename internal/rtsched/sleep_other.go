//go:build !linux

package rtsched

import "time"

// platformSleep falls back to time.Sleep on non-Linux platforms; the RT
// timing guarantees of §4.1 are Linux-specific (ublk-style dedicated
// kernel scheduling is assumed), mirroring the teacher's !giouring stub
// fallback pattern (internal/uring/iouring_stub.go).
func platformSleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}
