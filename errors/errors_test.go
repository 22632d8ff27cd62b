package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out")
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_NotFound_EmptyID(t *testing.T) {
	err := NotFound("key", "")
	if _, ok := err.Details["id"]; ok {
		t.Error("expected no 'id' key in details when id is empty")
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := Internal(nil).WithDetails(map[string]any{"a": 1}).WithDetails(map[string]any{"b": 2})
	if err.Details["a"] != 1 || err.Details["b"] != 2 {
		t.Errorf("expected merged details, got %v", err.Details)
	}
}

func TestAppError_Error_Format(t *testing.T) {
	err := NotFound("key", "5")
	s := err.Error()
	if !strings.Contains(s, "NOT_FOUND") {
		t.Errorf("expected error string to contain code, got %q", s)
	}
	if !strings.Contains(s, "not found") {
		t.Errorf("expected error string to contain message, got %q", s)
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		retryable bool
	}{
		{"ServiceUnavailable", ServiceUnavailable("redis"), ErrCodeServiceUnavailable, true},
		{"ConnectionFailed", ConnectionFailed("redis"), ErrCodeConnectionFailed, true},
		{"Timeout", Timeout("spawn"), ErrCodeTimeout, true},
		{"MissingField", MissingField("name"), ErrCodeMissingField, false},
		{"ExternalServiceError", ExternalServiceError("redis", nil), ErrCodeExternalService, true},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestAppError_AsAppError_Success(t *testing.T) {
	appErr := Internal(nil)
	wrapped := fmt.Errorf("wrap: %w", appErr)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed for wrapped AppError")
	}
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("expected IsAppError to return false for plain error")
	}
}

func TestToAppError_SystemError(t *testing.T) {
	sys := NewSystemError(ReasonBusy, "Command", "spawn", "sleep 1", "text file busy")
	app := ToAppError(fmt.Errorf("outer: %w", sys))
	if app.Code != ErrCodeServiceUnavailable {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %s", app.Code)
	}
	if !app.Retryable {
		t.Error("busy resources should be retryable")
	}
	if app.Details["path"] != "sleep 1" {
		t.Errorf("expected path detail, got %v", app.Details["path"])
	}
}

func TestToAppError_Others(t *testing.T) {
	if ToAppError(nil) != nil {
		t.Error("ToAppError(nil) should return nil")
	}
	if got := ToAppError(NewBadArgument("Path", "fromFileUrl", "bad url")); got.Code != ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", got.Code)
	}
	if got := ToAppError(NewWorkerError(WorkerDecode, nil)); got.Code != ErrCodeInvalidFormat {
		t.Errorf("expected INVALID_FORMAT, got %s", got.Code)
	}
	plain := fmt.Errorf("something broke")
	got := ToAppError(plain)
	if got.Code != ErrCodeInternal || got.Cause != plain {
		t.Errorf("expected internal wrapping plain error, got %v", got)
	}
}

func TestSystemError_IsReasonSentinel(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Classify(stderrors.New("x"), "FileSystem", "stat", "/tmp"))
	if !stderrors.Is(err, ErrUnknown) {
		t.Error("expected Unknown reason to match sentinel")
	}
	if stderrors.Is(err, ErrNotFound) {
		t.Error("Unknown must not match NotFound")
	}
}

func TestClassify_Syscall(t *testing.T) {
	_, openErr := os.Open("/goplatform/no/such/file")
	tests := []struct {
		name    string
		err     error
		reason  Reason
		syscall string
	}{
		{"path error", openErr, ReasonNotFound, "open"},
		{"syscall error", os.NewSyscallError("kill", stderrors.New("x")), ReasonUnknown, "kill"},
		{"plain error", stderrors.New("x"), ReasonUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err, "FileSystem", "open", "/goplatform")
			if got.Reason != tt.reason {
				t.Errorf("reason = %s, want %s", got.Reason, tt.reason)
			}
			if got.Syscall != tt.syscall {
				t.Errorf("syscall = %q, want %q", got.Syscall, tt.syscall)
			}
		})
	}
}

func TestDefect(t *testing.T) {
	cause := stderrors.New("finalizer failed")
	err := fmt.Errorf("close: %w", &Defect{Cause: cause})
	if !IsDefect(err) {
		t.Error("expected IsDefect to be true")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected Defect to unwrap to its cause")
	}
	if IsDefect(cause) {
		t.Error("plain error is not a defect")
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NotFound("key", "a"), ExitNoInput},
		{InvalidInput("key", "empty"), ExitUsage},
		{ServiceUnavailable("redis"), ExitUnavailable},
		{Timeout("spawn"), ExitTempFail},
		{Internal(fmt.Errorf("boom")), ExitSoftware},
		{New("SOMETHING_ELSE", "x"), 1},
	}
	for _, tc := range tests {
		if got := tc.err.ExitCode(); got != tc.want {
			t.Errorf("%s: ExitCode() = %d, want %d", tc.err.Code, got, tc.want)
		}
	}
}

func TestCombine(t *testing.T) {
	first := stderrors.New("read failed")
	second := stderrors.New("close failed")

	if err := Combine(nil, nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	if err := Combine(first, nil); err != first {
		t.Errorf("expected the single error itself, got %T %v", err, err)
	}
	if err := Combine(nil, second); err != second {
		t.Errorf("expected the single error itself, got %T %v", err, err)
	}
	both := Combine(first, second)
	if !stderrors.Is(both, first) || !stderrors.Is(both, second) {
		t.Errorf("expected both errors in %v", both)
	}
}
