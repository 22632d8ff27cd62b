package process

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/goplatform/command"
	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/logger"
	"github.com/kbukum/goplatform/observability"
	"github.com/kbukum/goplatform/stream"
)

const moduleName = "Command"

// Process is a handle to one spawned OS process. It is only valid inside
// the scope it was started in; closing that scope guarantees the process
// is no longer running.
type Process struct {
	cmd   *exec.Cmd
	stage command.Standard
	line  string
	pid   int

	// exit cell: written once by the wait goroutine before done is closed
	done   chan struct{}
	code   int
	signal string

	stdin  stream.Sink[[]byte]
	stdout *stream.Stream[[]byte]
	stderr *stream.Stream[[]byte]
	files  *pipes

	// set when the child leads its own process group
	ownGroup bool

	cfg     Config
	killSig syscall.Signal
	log     *logger.Logger
	metrics *observability.Metrics
	started time.Time
}

// PID returns the OS process id.
func (p *Process) PID() int { return p.pid }

// Command returns the stage the process was started from.
func (p *Process) Command() command.Standard { return p.stage }

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} { return p.done }

// IsRunning reports whether the process has not exited yet. It never blocks.
func (p *Process) IsRunning() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// ExitCode waits for the process to exit and returns its code. A process
// terminated by a signal has no code and fails with reason Unknown.
// Calling ExitCode again returns the same result.
func (p *Process) ExitCode(ctx context.Context) (int, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	if p.signal != "" {
		return 0, errors.NewSystemError(errors.ReasonUnknown, moduleName, "exitCode", p.line,
			"Process interrupted due to receipt of signal: "+p.signal)
	}
	return p.code, nil
}

// Kill sends sig (SIGTERM when omitted) and waits for the process to exit.
// Delivery to a process that already exited is not an error.
func (p *Process) Kill(ctx context.Context, sig ...syscall.Signal) error {
	s := syscall.SIGTERM
	if len(sig) > 0 {
		s = sig[0]
	}
	if err := p.signalProcess(s); err != nil {
		return errors.Classify(err, moduleName, "kill", p.line)
	}
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stdin is the sink feeding the process. It discards everything when
// stdin was not piped.
func (p *Process) Stdin() stream.Sink[[]byte] { return p.stdin }

// Stdout is the process output, or an empty stream when inherited.
func (p *Process) Stdout() *stream.Stream[[]byte] { return p.stdout }

// Stderr is the process error output, or an empty stream when inherited.
func (p *Process) Stderr() *stream.Stream[[]byte] { return p.stderr }

func (p *Process) signalProcess(sig syscall.Signal) error {
	if !p.IsRunning() {
		return nil
	}
	var err error
	if p.ownGroup {
		err = syscall.Kill(-p.pid, sig)
	} else {
		err = p.cmd.Process.Signal(sig)
	}
	if err == nil || stderrors.Is(err, os.ErrProcessDone) || stderrors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

// wait populates the exit cell. It runs once per process.
func (p *Process) wait() {
	ctx, op := observability.StartOperation(context.Background(), observability.SpanProcessWait,
		attribute.Int(observability.AttrPID, p.pid))
	_ = p.cmd.Wait()
	state := p.cmd.ProcessState
	code := state.ExitCode()
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		p.signal = SignalName(ws.Signal())
	}
	p.code = code
	close(p.done)

	op.SetAttributes(attribute.Int(observability.AttrExitCode, code))
	op.End(nil)
	p.metrics.RecordExit(ctx, p.stage.Name, code, time.Since(p.started))
	fields := logger.Fields(logger.FieldPID, p.pid, logger.FieldExitCode, code)
	if p.signal != "" {
		fields[logger.FieldSignal] = p.signal
	}
	p.log.Debug("process exited", fields)
}

// release runs when the owning scope closes. A process still running gets
// the configured kill signal and, after the grace period, SIGKILL.
func (p *Process) release(ctx context.Context) error {
	if !p.IsRunning() {
		return nil
	}
	if err := p.signalProcess(p.killSig); err != nil {
		p.log.Warn("kill signal delivery failed", logger.Fields(
			logger.FieldPID, p.pid, logger.FieldSignal, SignalName(p.killSig), logger.FieldError, err.Error()))
	}

	timer := time.NewTimer(p.cfg.GracePeriod)
	defer timer.Stop()
	select {
	case <-p.done:
		return nil
	case <-timer.C:
	}

	p.log.Warn("process ignored kill signal, sending SIGKILL", logger.Fields(
		logger.FieldPID, p.pid, "grace_period", p.cfg.GracePeriod.String()))
	if err := p.signalProcess(syscall.SIGKILL); err != nil {
		return fmt.Errorf("kill %d: %w", p.pid, err)
	}
	<-p.done
	return nil
}
