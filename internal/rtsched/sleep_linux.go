//go:build linux

package rtsched

import (
	"time"

	"golang.org/x/sys/unix"
)

// platformSleep blocks for approximately d using clock_nanosleep against
// CLOCK_MONOTONIC, the most accurate relative sleep available without
// resorting to an absolute-timer syscall variant not exposed by
// golang.org/x/sys/unix on all kernels.
func platformSleep(d time.Duration) {
	if d <= 0 {
		return
	}
	ts := unix.NsecToTimespec(d.Nanoseconds())
	for {
		rem := &unix.Timespec{}
		err := unix.ClockNanosleep(unix.CLOCK_MONOTONIC, 0, &ts, rem)
		if err == unix.EINTR {
			ts = *rem
			continue
		}
		return
	}
}
