package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	perrors "github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/logger"
	"github.com/kbukum/goplatform/process"
)

func runWithExit(t *testing.T, fn func(ctx context.Context) error) <-chan int {
	t.Helper()
	codes := make(chan int, 2)
	go RunMain(fn,
		WithExit(func(code int) { codes <- code }),
		WithSignals(syscall.SIGUSR1),
		WithLogger(logger.NewNop()),
	)
	return codes
}

func awaitCode(t *testing.T, codes <-chan int) int {
	t.Helper()
	select {
	case code := <-codes:
		return code
	case <-time.After(3 * time.Second):
		t.Fatal("no exit")
		return -1
	}
}

func TestRunMainExitCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"failure", errors.New("boom"), 1},
		{"exit coder", &process.ExitError{Command: "false", Code: 7}, 7},
		{"wrapped app error", fmt.Errorf("kv get: %w", perrors.NotFound("key", "a")), perrors.ExitNoInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codes := runWithExit(t, func(context.Context) error { return tt.err })
			if got := awaitCode(t, codes); got != tt.want {
				t.Errorf("exit code = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunMainSignalInterrupts(t *testing.T) {
	started := make(chan struct{})
	codes := runWithExit(t, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if got, want := awaitCode(t, codes), 128+int(syscall.SIGUSR1); got != want {
		t.Errorf("exit code = %d, want %d", got, want)
	}
}

func TestRunMainSecondSignalExitsImmediately(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	codes := runWithExit(t, func(ctx context.Context) error {
		close(started)
		<-release // ignores cancellation
		return nil
	})
	<-started
	_ = syscall.Kill(os.Getpid(), syscall.SIGUSR1)
	time.Sleep(50 * time.Millisecond)
	_ = syscall.Kill(os.Getpid(), syscall.SIGUSR1)
	if got, want := awaitCode(t, codes), 128+int(syscall.SIGUSR1); got != want {
		t.Errorf("exit code = %d, want %d", got, want)
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(nil, syscall.SIGTERM); got != 143 {
		t.Errorf("exitCode(nil, SIGTERM) = %d, want 143", got)
	}
	if got := exitCode(&process.ExitError{Code: 0}, nil); got != 1 {
		t.Errorf("zero exit coder = %d, want 1", got)
	}
}
