package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"testing"

	"golang.org/x/sys/unix"
)

func TestReasonOf_Table(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{"enoent", unix.ENOENT, ReasonNotFound},
		{"path error", &fs.PathError{Op: "open", Path: "/x", Err: unix.ENOENT}, ReasonNotFound},
		{"exec not found", &exec.Error{Name: "nope", Err: exec.ErrNotFound}, ReasonNotFound},
		{"fs not exist", fs.ErrNotExist, ReasonNotFound},
		{"eacces", unix.EACCES, ReasonPermissionDenied},
		{"eperm", unix.EPERM, ReasonPermissionDenied},
		{"eexist", unix.EEXIST, ReasonAlreadyExists},
		{"etimedout", unix.ETIMEDOUT, ReasonTimedOut},
		{"deadline", context.DeadlineExceeded, ReasonTimedOut},
		{"unexpected eof", io.ErrUnexpectedEOF, ReasonUnexpectedEOF},
		{"einval", unix.EINVAL, ReasonInvalidData},
		{"eisdir", unix.EISDIR, ReasonBadResource},
		{"enotdir", unix.ENOTDIR, ReasonBadResource},
		{"eloop", unix.ELOOP, ReasonBadResource},
		{"closed", os.ErrClosed, ReasonBadResource},
		{"ebusy", unix.EBUSY, ReasonBusy},
		{"etxtbsy", unix.ETXTBSY, ReasonBusy},
		{"short write", io.ErrShortWrite, ReasonWriteZero},
		{"other errno", unix.EXDEV, ReasonUnknown},
		{"plain", stderrors.New("boom"), ReasonUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReasonOf(tc.err); got != tc.want {
				t.Errorf("ReasonOf(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassify_Context(t *testing.T) {
	cause := &fs.PathError{Op: "access", Path: "/missing", Err: unix.ENOENT}
	err := Classify(cause, "FileSystem", "access", "/missing")
	if err.Reason != ReasonNotFound {
		t.Errorf("expected NotFound, got %s", err.Reason)
	}
	if err.Module != "FileSystem" || err.Method != "access" || err.PathOrDescriptor != "/missing" {
		t.Errorf("unexpected context: %+v", err)
	}
	if err.Message != unix.ENOENT.Error() {
		t.Errorf("expected errno message, got %q", err.Message)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected classified error to unwrap to cause")
	}
}

func TestClassify_Passthrough(t *testing.T) {
	orig := NewSystemError(ReasonBusy, "Command", "spawn", "x", "busy")
	if got := Classify(fmt.Errorf("w: %w", orig), "Other", "method", ""); got != orig {
		t.Error("expected an existing SystemError to be returned unchanged")
	}
	if Classify(nil, "a", "b", "c") != nil {
		t.Error("Classify(nil) should be nil")
	}
}
