//go:build linux

package hid

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// linuxTransport wraps a non-blocking hidraw file descriptor.
type linuxTransport struct {
	fd int
}

func openPlatform(path string) (Transport, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("hid: open %s: %w", path, err)
	}
	return &linuxTransport{fd: fd}, nil
}

// WriteReport writes report to the device. hidraw write() calls are
// atomic per report; a short write here indicates a disconnect.
func (t *linuxTransport) WriteReport(report []byte) error {
	n, err := unix.Write(t.fd, report)
	if err != nil {
		return fmt.Errorf("hid: write: %w", err)
	}
	if n != len(report) {
		return fmt.Errorf("hid: short write: %d of %d bytes", n, len(report))
	}
	return nil
}

// ReadReport reads into buf, returning (0, nil) on EAGAIN since the fd is
// non-blocking and the caller polls at DevicePollInterval.
func (t *linuxTransport) ReadReport(buf []byte) (int, error) {
	n, err := unix.Read(t.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == syscall.EWOULDBLOCK {
			return 0, nil
		}
		return 0, fmt.Errorf("hid: read: %w", err)
	}
	return n, nil
}

func (t *linuxTransport) Close() error {
	return unix.Close(t.fd)
}
