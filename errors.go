package ffbcore

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/openwheel/ffbcore/internal/pipeline"
)

// Error is a structured control-core error carrying enough context to
// diagnose a failure without parsing the message string (§5). Grounded
// on the teacher's *Error/UblkErrorCode taxonomy (errors.go), generalized
// from a device/queue pair to a device/kind pair.
type Error struct {
	Op       string    // operation that failed, e.g. "Connect", "Arm", "CompilePipeline"
	DeviceID uint32    // 0 if not applicable
	Code     ErrorCode // high-level error category
	Errno    syscall.Errno
	Msg      string
	Inner    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	switch {
	case e.Op != "" && e.DeviceID != 0:
		return fmt.Sprintf("ffbcore: %s (op=%s dev=%d)", msg, e.Op, e.DeviceID)
	case e.Op != "":
		return fmt.Sprintf("ffbcore: %s (op=%s)", msg, e.Op)
	default:
		return fmt.Sprintf("ffbcore: %s", msg)
	}
}

func (e *Error) Unwrap() error { return e.Inner }

func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// ErrorCode categorizes a failure for programmatic handling (§5).
type ErrorCode string

const (
	ErrCodeDeviceNotFound       ErrorCode = "device not found"
	ErrCodeDeviceBusy           ErrorCode = "device busy"
	ErrCodeInvalidParameters    ErrorCode = "invalid parameters"
	ErrCodeVendorUnresolved     ErrorCode = "no vendor protocol matches device"
	ErrCodePermissionDenied     ErrorCode = "permission denied"
	ErrCodeTransportError       ErrorCode = "HID transport error"
	ErrCodeTimeout              ErrorCode = "timeout"
	ErrCodeSafetyInterlock      ErrorCode = "safety interlock violation"
	ErrCodePipelineInvalid      ErrorCode = "invalid filter pipeline configuration"
	ErrCodeLifecycleViolation   ErrorCode = "invalid device lifecycle transition"
)

// NewError creates a structured error with no device or wrapped cause.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Code: code, Msg: msg}
}

// NewDeviceError creates a structured error scoped to a specific device.
func NewDeviceError(op string, deviceID uint32, code ErrorCode, msg string) *Error {
	return &Error{Op: op, DeviceID: deviceID, Code: code, Msg: msg}
}

// WrapError wraps inner with ffbcore context, mapping syscall errnos to a
// domain ErrorCode and preserving an already-structured *Error's fields
// while updating Op to the new call site.
func WrapError(op string, inner error) *Error {
	if inner == nil {
		return nil
	}
	if fe, ok := inner.(*Error); ok {
		return &Error{
			Op: op, DeviceID: fe.DeviceID, Code: fe.Code,
			Errno: fe.Errno, Msg: fe.Msg, Inner: fe.Inner,
		}
	}
	if errno, ok := inner.(syscall.Errno); ok {
		return &Error{Op: op, Code: mapErrnoToCode(errno), Errno: errno, Msg: errno.Error(), Inner: inner}
	}
	if ce, ok := inner.(*pipeline.CompileError); ok {
		return &Error{Op: op, Code: ErrCodePipelineInvalid, Msg: ce.Error(), Inner: ce}
	}
	return &Error{Op: op, Code: ErrCodeTransportError, Msg: inner.Error(), Inner: inner}
}

func mapErrnoToCode(errno syscall.Errno) ErrorCode {
	switch errno {
	case syscall.ENOENT:
		return ErrCodeDeviceNotFound
	case syscall.EBUSY:
		return ErrCodeDeviceBusy
	case syscall.EINVAL:
		return ErrCodeInvalidParameters
	case syscall.EPERM, syscall.EACCES:
		return ErrCodePermissionDenied
	case syscall.ETIMEDOUT, syscall.EAGAIN:
		return ErrCodeTimeout
	default:
		return ErrCodeTransportError
	}
}

// IsCode reports whether err is (or wraps) an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code == code
	}
	return false
}
