// Package hid implements the platform HID transport layer (§4.3 Platform
// I/O): a Linux hidraw backend, a stub for other platforms, and an
// in-memory mock used by tests and the demo CLI. Grounded on the
// teacher's raw-syscall style (internal/uring/minimal.go) and its
// build-tag fallback pattern (internal/uring/iouring_stub.go).
package hid

import "github.com/openwheel/ffbcore/internal/interfaces"

// DeviceInfo identifies a candidate HID device for vendor resolution.
type DeviceInfo struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
}

// Transport is the capability set every platform backend implements; it
// is the same shape as interfaces.HIDTransport, re-declared here so
// callers constructing a concrete transport don't need to import
// internal/interfaces directly.
type Transport = interfaces.HIDTransport

// Open opens the hidraw-equivalent device at path. On Linux this opens a
// /dev/hidraw* node non-blocking; on other platforms it returns an error,
// matching the teacher's "feature requires platform support" stance
// rather than silently degrading.
func Open(path string) (Transport, error) {
	return openPlatform(path)
}
