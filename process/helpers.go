package process

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/goplatform/command"
	"github.com/kbukum/goplatform/scope"
	"github.com/kbukum/goplatform/stream"
)

// Bytes runs cmd and returns everything it wrote to stdout.
func Bytes(ctx context.Context, ex Executor, cmd command.Command) ([]byte, error) {
	return scope.UseValue(ctx, func(ctx context.Context, sc *scope.Scope) ([]byte, error) {
		p, err := ex.Start(ctx, sc, cmd)
		if err != nil {
			return nil, err
		}
		return collect(ctx, p.Stdout())
	})
}

// String runs cmd and returns its stdout as text.
func String(ctx context.Context, ex Executor, cmd command.Command) (string, error) {
	return scope.UseValue(ctx, func(ctx context.Context, sc *scope.Scope) (string, error) {
		p, err := ex.Start(ctx, sc, cmd)
		if err != nil {
			return "", err
		}
		return stream.Text(ctx, p.Stdout())
	})
}

// Lines runs cmd and returns its stdout split into lines.
func Lines(ctx context.Context, ex Executor, cmd command.Command) ([]string, error) {
	text, err := String(ctx, ex, cmd)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, nil
}

// StreamLines describes cmd's stdout as lines. The command is started on
// every pull of the stream and released when the stream ends.
func StreamLines(ex Executor, cmd command.Command) *stream.Stream[string] {
	return stream.Lines(stream.Scoped(func(ctx context.Context, sc *scope.Scope) (*stream.Stream[[]byte], error) {
		p, err := ex.Start(ctx, sc, cmd)
		if err != nil {
			return nil, err
		}
		return p.Stdout(), nil
	}))
}

// ExitCode runs cmd to completion and returns its exit code.
func ExitCode(ctx context.Context, ex Executor, cmd command.Command) (int, error) {
	return scope.UseValue(ctx, func(ctx context.Context, sc *scope.Scope) (int, error) {
		p, err := ex.Start(ctx, sc, cmd)
		if err != nil {
			return 0, err
		}
		return p.ExitCode(ctx)
	})
}

// Run runs cmd, captures stdout and stderr and waits for it to exit. A
// non-zero exit code is reported as an *ExitError along with the result.
func Run(ctx context.Context, ex Executor, cmd command.Command) (*Result, error) {
	start := time.Now()
	return scope.UseValue(ctx, func(ctx context.Context, sc *scope.Scope) (*Result, error) {
		p, err := ex.Start(ctx, sc, cmd)
		if err != nil {
			return nil, err
		}

		result := &Result{}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			result.Stdout, err = collect(gctx, p.Stdout())
			return err
		})
		g.Go(func() (err error) {
			result.Stderr, err = collect(gctx, p.Stderr())
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		code, err := p.ExitCode(ctx)
		result.Duration = time.Since(start)
		if err != nil {
			return result, err
		}
		result.ExitCode = code
		if code != 0 {
			return result, &ExitError{Command: cmd.String(), Code: code, Stderr: result.Stderr}
		}
		return result, nil
	})
}

func collect(ctx context.Context, s *stream.Stream[[]byte]) ([]byte, error) {
	var out []byte
	err := stream.ForEach(ctx, s, func(_ context.Context, chunk []byte) error {
		out = append(out, chunk...)
		return nil
	})
	return out, err
}
