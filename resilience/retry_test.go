package resilience

import (
	"context"
	stderrors "errors"
	"io/fs"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/kbukum/goplatform/errors"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func busySpawnErr() error {
	return &fs.PathError{Op: "fork/exec", Path: "/tmp/tool", Err: unix.ETXTBSY}
}

func TestRetryBusySpawnEventuallySucceeds(t *testing.T) {
	cfg := fastConfig(5)
	cfg.RetryIf = RetryOnReasons(errors.ReasonBusy)
	calls := 0

	pid, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, busySpawnErr()
		}
		return 4242, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pid != 4242 || calls != 3 {
		t.Errorf("got pid=%d after %d calls, want 4242 after 3", pid, calls)
	}
}

func TestRetryStopsOnUnlistedReason(t *testing.T) {
	cfg := fastConfig(5)
	cfg.RetryIf = RetryOnReasons(errors.ReasonBusy)
	calls := 0
	notFound := &fs.PathError{Op: "fork/exec", Path: "/nope", Err: unix.ENOENT}

	_, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, notFound
	})
	if calls != 1 {
		t.Errorf("expected a single attempt, got %d", calls)
	}
	if !stderrors.Is(err, unix.ENOENT) {
		t.Errorf("expected the spawn error back, got %v", err)
	}
}

func TestRetryReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastConfig(3), func() (string, error) {
		calls++
		return "", busySpawnErr()
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if errors.ReasonOf(err) != errors.ReasonBusy {
		t.Errorf("expected busy error, got %v", err)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 10, InitialBackoff: 100 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := Retry(ctx, cfg, func() (string, error) {
		calls++
		return "", busySpawnErr()
	})
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected the sleep to be cut short after 1 call, got %d", calls)
	}
}

func TestRetryDoesNotRetryCancellation(t *testing.T) {
	calls := 0
	err := RetryFunc(context.Background(), fastConfig(4), func() error {
		calls++
		return context.Canceled
	})
	if calls != 1 || !stderrors.Is(err, context.Canceled) {
		t.Errorf("got %d calls, err=%v", calls, err)
	}
}

func TestRetryOnRetryReportsAttempts(t *testing.T) {
	var attempts []int
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		attempts = append(attempts, attempt)
		if backoff <= 0 {
			t.Errorf("attempt %d: non-positive backoff %v", attempt, backoff)
		}
	}

	_ = RetryFunc(context.Background(), cfg, func() error { return stderrors.New("flaky") })

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected OnRetry for attempts [1 2], got %v", attempts)
	}
}

func TestBackoff(t *testing.T) {
	cfg := RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		BackoffFactor:  2.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{6, time.Second},
	}
	for _, tt := range tests {
		if got := cfg.backoff(tt.attempt); got != tt.expected {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}
}

func TestBackoffJitterStaysInRange(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffFactor: 2, Jitter: 0.5}
	for i := 0; i < 50; i++ {
		d := cfg.backoff(1)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("jittered backoff %v outside [50ms, 150ms]", d)
		}
	}
}
