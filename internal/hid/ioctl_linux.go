//go:build linux

package hid

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Linux ioctl _IOC encoding (include/uapi/asm-generic/ioctl.h), used to
// compute HIDIOCGFEATURE(len)/HIDIOCSFEATURE(len) at runtime since they
// are parameterized by report length. Hand-derived rather than pulled in
// via cgo: the teacher's cgo kernel-constant lookups
// (internal/uring/kernelopcode_linux.go) exist because io_uring opcodes
// vary by kernel version and aren't safely hand-computable, but the
// ioctl _IOC macros are a stable, documented bit layout with no kernel
// version dependence, so hand-rolling here avoids an unnecessary cgo
// dependency for a fixed formula.
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1
	iocRead  = 2

	hidIOCType = 'H'
)

func ioc(dir, ioctlType, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (ioctlType << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

func hidiocGFeature(length int) uintptr {
	return ioc(iocRead|iocWrite, hidIOCType, 0x07, uintptr(length))
}

func hidiocSFeature(length int) uintptr {
	return ioc(iocRead|iocWrite, hidIOCType, 0x06, uintptr(length))
}

// GetFeatureReport issues HIDIOCGFEATURE, used to read the capability
// report (§3 report 0x01) once at connect time.
func (t *linuxTransport) GetFeatureReport(buf []byte) (int, error) {
	req := hidiocGFeature(len(buf))
	n, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(t.fd), req, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return 0, fmt.Errorf("hid: HIDIOCGFEATURE: %w", errno)
	}
	return int(n), nil
}

// SetFeatureReport issues HIDIOCSFEATURE, used to push config reports
// (§3 report 0x02) and send the challenge nonce via report 0x03.
func (t *linuxTransport) SetFeatureReport(buf []byte) error {
	req := hidiocSFeature(len(buf))
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(t.fd), req, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return fmt.Errorf("hid: HIDIOCSFEATURE: %w", errno)
	}
	return nil
}
