// Package runtime runs a program's main computation with signal-driven
// cancellation and maps its outcome to a process exit code.
package runtime

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kbukum/goplatform/logger"
)

// ExitCoder is implemented by errors that carry their own exit code.
type ExitCoder interface {
	ExitCode() int
}

// Option configures RunMain.
type Option func(*options)

type options struct {
	exit    func(int)
	signals []os.Signal
	log     *logger.Logger
}

// WithExit replaces os.Exit.
func WithExit(fn func(code int)) Option {
	return func(o *options) { o.exit = fn }
}

// WithSignals sets the signals that interrupt the computation.
// Defaults to SIGINT and SIGTERM.
func WithSignals(sigs ...os.Signal) Option {
	return func(o *options) { o.signals = sigs }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// RunMain runs fn and exits the process with its outcome.
//
// The first signal cancels fn's context and the exit code becomes
// 128+signal once fn returns. A second signal exits immediately with
// 128+signal. Otherwise the exit code is 0 on success, the error's own
// code when it implements ExitCoder, and 1 for any other error.
func RunMain(fn func(ctx context.Context) error, opts ...Option) {
	o := &options{exit: os.Exit, signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM}}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Get("runtime")
	}

	var once sync.Once
	exit := func(code int) { once.Do(func() { o.exit(code) }) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, o.signals...)
	defer signal.Stop(sigCh)

	var (
		mu       sync.Mutex
		received os.Signal
	)
	finished := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			o.log.Info("received signal, interrupting", logger.Fields(logger.FieldSignal, sig.String()))
			mu.Lock()
			received = sig
			mu.Unlock()
			cancel()
		case <-finished:
			return
		}
		select {
		case sig := <-sigCh:
			o.log.Warn("received second signal, exiting", logger.Fields(logger.FieldSignal, sig.String()))
			exit(signalCode(sig))
		case <-finished:
		}
	}()

	err := fn(ctx)
	close(finished)

	mu.Lock()
	sig := received
	mu.Unlock()
	code := exitCode(err, sig)
	if err != nil && sig == nil {
		o.log.Error("main failed", logger.Fields(logger.FieldError, err.Error(), logger.FieldExitCode, code))
	}
	exit(code)
}

func exitCode(err error, sig os.Signal) int {
	if sig != nil {
		return signalCode(sig)
	}
	if err == nil {
		return 0
	}
	var coder ExitCoder
	if stderrors.As(err, &coder) && coder.ExitCode() != 0 {
		return coder.ExitCode()
	}
	return 1
}

func signalCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}
