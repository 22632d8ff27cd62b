package worker

import (
	"context"
	"io"
	"time"

	"github.com/kbukum/goplatform/command"
	"github.com/kbukum/goplatform/logger"
	"github.com/kbukum/goplatform/process"
	"github.com/kbukum/goplatform/scope"
	"github.com/kbukum/goplatform/stream"
)

// exitWait is how long a disposed subprocess worker gets to exit on its
// own before the executor releases it.
const exitWait = 2 * time.Second

// SpawnProcess starts cmd with ex and speaks the protocol over its stdio:
// frames go to the child's stdin and come back on its stdout. The child is
// expected to run a Runner over a StreamPort on its own stdin and stdout.
//
// Closing sc disposes the worker, gives the child exitWait to exit and
// then releases it.
func SpawnProcess(ctx context.Context, sc *scope.Scope, ex process.Executor, cmd command.Command, opts ...SpawnOption) (*Worker, error) {
	pr, pw := io.Pipe()
	cmd = command.WithStdin(cmd, command.StdinFrom(stream.FromReader(pr, nil)))
	cmd = command.WithStdout(cmd, command.OutputPipe())
	cmd = command.WithStderr(cmd, command.OutputInherit())

	proc, err := ex.Start(ctx, sc, cmd)
	if err != nil {
		_ = pw.Close()
		return nil, err
	}

	// runs after the dispose frame is sent
	_ = sc.AddFinalizer(func(context.Context) error {
		select {
		case <-proc.Done():
		case <-time.After(exitWait):
			logger.Get("worker").Warn("subprocess worker did not exit after dispose",
				logger.Fields(logger.FieldPID, proc.PID()))
		}
		return nil
	})

	readCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	_ = sc.AddFinalizer(func(context.Context) error {
		cancel()
		return nil
	})

	port := NewStreamPort(stream.NewReader(readCtx, proc.Stdout()), pw)
	return Spawn(ctx, sc, port, opts...)
}
