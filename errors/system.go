package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Reason classifies a SystemError.
type Reason string

// The closed set of system failure reasons.
const (
	ReasonNotFound         Reason = "NotFound"
	ReasonInvalidData      Reason = "InvalidData"
	ReasonTimedOut         Reason = "TimedOut"
	ReasonUnexpectedEOF    Reason = "UnexpectedEof"
	ReasonPermissionDenied Reason = "PermissionDenied"
	ReasonAlreadyExists    Reason = "AlreadyExists"
	ReasonBadResource      Reason = "BadResource"
	ReasonBusy             Reason = "Busy"
	ReasonWriteZero        Reason = "WriteZero"
	ReasonUnknown          Reason = "Unknown"
)

// SystemError is a classified failure of an operating system call.
type SystemError struct {
	Reason           Reason
	Module           string
	Method           string
	PathOrDescriptor string
	Syscall          string // failing call such as "open", when known
	Message          string
	Cause            error
}

func (e *SystemError) Error() string {
	msg := fmt.Sprintf("%s: %s.%s", e.Reason, e.Module, e.Method)
	if e.PathOrDescriptor != "" {
		msg += " (" + e.PathOrDescriptor + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *SystemError) Unwrap() error { return e.Cause }

// Is reports a match against another *SystemError by reason, so callers can
// write errors.Is(err, errors.ErrNotFound).
func (e *SystemError) Is(target error) bool {
	t, ok := target.(*SystemError)
	if !ok {
		return false
	}
	return t.Module == "" && t.Method == "" && t.Reason == e.Reason
}

// Reason sentinels for errors.Is.
var (
	ErrNotFound         = &SystemError{Reason: ReasonNotFound}
	ErrInvalidData      = &SystemError{Reason: ReasonInvalidData}
	ErrTimedOut         = &SystemError{Reason: ReasonTimedOut}
	ErrUnexpectedEOF    = &SystemError{Reason: ReasonUnexpectedEOF}
	ErrPermissionDenied = &SystemError{Reason: ReasonPermissionDenied}
	ErrAlreadyExists    = &SystemError{Reason: ReasonAlreadyExists}
	ErrBadResource      = &SystemError{Reason: ReasonBadResource}
	ErrBusy             = &SystemError{Reason: ReasonBusy}
	ErrUnknown          = &SystemError{Reason: ReasonUnknown}
)

// NewSystemError creates a SystemError without an underlying cause.
func NewSystemError(reason Reason, module, method, pathOrDescriptor, message string) *SystemError {
	return &SystemError{
		Reason:           reason,
		Module:           module,
		Method:           method,
		PathOrDescriptor: pathOrDescriptor,
		Message:          message,
	}
}

// AsSystemError extracts a *SystemError from err.
func AsSystemError(err error) (*SystemError, bool) {
	var sysErr *SystemError
	if stderrors.As(err, &sysErr) {
		return sysErr, true
	}
	return nil, false
}

// Classify maps err to a SystemError tagged with the failing module, method
// and path. It never returns nil for a non-nil err. An err that already is a
// *SystemError is returned unchanged.
func Classify(err error, module, method, pathOrDescriptor string) *SystemError {
	if err == nil {
		return nil
	}
	if sysErr, ok := AsSystemError(err); ok {
		return sysErr
	}
	return &SystemError{
		Reason:           ReasonOf(err),
		Module:           module,
		Method:           method,
		PathOrDescriptor: pathOrDescriptor,
		Syscall:          syscallOf(err),
		Message:          messageOf(err),
		Cause:            err,
	}
}

// ReasonOf returns the Reason for err. Unrecognized errors map to ReasonUnknown.
func ReasonOf(err error) Reason {
	var errno unix.Errno
	if stderrors.As(err, &errno) {
		if r, ok := errnoReasons[errno]; ok {
			return r
		}
		return ReasonUnknown
	}

	switch {
	case stderrors.Is(err, exec.ErrNotFound), stderrors.Is(err, fs.ErrNotExist):
		return ReasonNotFound
	case stderrors.Is(err, fs.ErrPermission):
		return ReasonPermissionDenied
	case stderrors.Is(err, fs.ErrExist):
		return ReasonAlreadyExists
	case stderrors.Is(err, io.ErrUnexpectedEOF):
		return ReasonUnexpectedEOF
	case stderrors.Is(err, io.ErrShortWrite):
		return ReasonWriteZero
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(err, os.ErrDeadlineExceeded):
		return ReasonTimedOut
	case stderrors.Is(err, fs.ErrClosed), stderrors.Is(err, os.ErrProcessDone):
		return ReasonBadResource
	case stderrors.Is(err, fs.ErrInvalid):
		return ReasonInvalidData
	}
	return ReasonUnknown
}

var errnoReasons = map[unix.Errno]Reason{
	unix.ENOENT:    ReasonNotFound,
	unix.ESRCH:     ReasonNotFound,
	unix.EACCES:    ReasonPermissionDenied,
	unix.EPERM:     ReasonPermissionDenied,
	unix.EROFS:     ReasonPermissionDenied,
	unix.EEXIST:    ReasonAlreadyExists,
	unix.ENOTEMPTY: ReasonAlreadyExists,
	unix.ETIMEDOUT: ReasonTimedOut,
	unix.EINVAL:    ReasonInvalidData,
	unix.EISDIR:    ReasonBadResource,
	unix.ENOTDIR:   ReasonBadResource,
	unix.ELOOP:     ReasonBadResource,
	unix.EBADF:     ReasonBadResource,
	unix.EPIPE:     ReasonBadResource,
	unix.EBUSY:     ReasonBusy,
	unix.ETXTBSY:   ReasonBusy,
	unix.EAGAIN:    ReasonBusy,
}

func syscallOf(err error) string {
	var sysErr *os.SyscallError
	if stderrors.As(err, &sysErr) {
		return sysErr.Syscall
	}
	var pathErr *fs.PathError
	if stderrors.As(err, &pathErr) {
		return pathErr.Op
	}
	var linkErr *os.LinkError
	if stderrors.As(err, &linkErr) {
		return linkErr.Op
	}
	return ""
}

func messageOf(err error) string {
	var pathErr *fs.PathError
	if stderrors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	var execErr *exec.Error
	if stderrors.As(err, &execErr) {
		return execErr.Err.Error()
	}
	return err.Error()
}

// BadArgument reports invalid input supplied by the caller.
type BadArgument struct {
	Module  string
	Method  string
	Message string
	Cause   error
}

func (e *BadArgument) Error() string {
	return fmt.Sprintf("BadArgument: %s.%s: %s", e.Module, e.Method, e.Message)
}

func (e *BadArgument) Unwrap() error { return e.Cause }

// NewBadArgument creates a BadArgument error.
func NewBadArgument(module, method, message string) *BadArgument {
	return &BadArgument{Module: module, Method: method, Message: message}
}

// WorkerReason distinguishes worker protocol failures.
type WorkerReason string

const (
	// WorkerDecode is a malformed frame.
	WorkerDecode WorkerReason = "decode"
	// WorkerUnknown is a transport-level failure.
	WorkerUnknown WorkerReason = "unknown"
	// WorkerSpawn is a failure to start or handshake with a worker.
	WorkerSpawn WorkerReason = "spawn"
	// WorkerSend is a failure to deliver a frame.
	WorkerSend WorkerReason = "send"
)

// WorkerError is a failure of the worker message protocol.
type WorkerError struct {
	Reason WorkerReason
	Cause  error
}

func (e *WorkerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("worker %s error: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("worker %s error", e.Reason)
}

func (e *WorkerError) Unwrap() error { return e.Cause }

// NewWorkerError creates a WorkerError.
func NewWorkerError(reason WorkerReason, cause error) *WorkerError {
	return &WorkerError{Reason: reason, Cause: cause}
}

// Defect marks an unrecoverable failure, such as a finalizer failing while a
// scope is being released. Defects are not retried.
type Defect struct {
	Cause error
}

func (e *Defect) Error() string { return "defect: " + e.Cause.Error() }

func (e *Defect) Unwrap() error { return e.Cause }

// IsDefect reports whether err carries a Defect.
func IsDefect(err error) bool {
	var d *Defect
	return stderrors.As(err, &d)
}

// Combine joins errs, dropping nils. A single remaining error is returned
// as is, so callers comparing it with == or a type switch still match.
func Combine(errs ...error) error {
	var kept []error
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return stderrors.Join(kept...)
	}
}
