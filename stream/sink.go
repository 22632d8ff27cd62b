package stream

import (
	"context"
	"io"
	"sync"

	perrors "github.com/kbukum/goplatform/errors"
)

// Sink consumes a stream. Consume returns once the stream has been fully
// consumed and the sink has finished, or on the first failure.
type Sink[T any] interface {
	Consume(ctx context.Context, s *Stream[T]) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc[T any] func(ctx context.Context, s *Stream[T]) error

// Consume calls f.
func (f SinkFunc[T]) Consume(ctx context.Context, s *Stream[T]) error { return f(ctx, s) }

// Drain returns a sink that pulls every value and discards it.
func Drain[T any]() Sink[T] {
	return SinkFunc[T](RunDrain[T])
}

// Run feeds s into sink.
func Run[T any](ctx context.Context, s *Stream[T], sink Sink[T]) error {
	return sink.Consume(ctx, s)
}

// WriterSink is the write bridge from byte streams to an io.WriteCloser.
// Writes are sequenced: concurrent Consume calls never interleave a chunk.
// The writer is closed exactly once, after the first Consume ends for any
// reason: completion, upstream failure, write failure or cancellation.
type WriterSink struct {
	w       io.WriteCloser
	onError func(error) error

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// ToWriter creates a WriterSink. Write and close failures are passed
// through onError, which may classify them.
func ToWriter(w io.WriteCloser, onError func(error) error) *WriterSink {
	return &WriterSink{w: w, onError: onError}
}

// Consume writes every chunk of s and then closes the writer.
func (ws *WriterSink) Consume(ctx context.Context, s *Stream[[]byte]) error {
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	iter := s.Iter(ctx)
	err := ws.pump(ctx, iter)
	err = perrors.Combine(err, iter.Close())
	if closeErr := ws.Close(); err == nil && closeErr != nil {
		err = ws.mapError(closeErr)
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (ws *WriterSink) pump(ctx context.Context, iter Iterator[[]byte]) error {
	for {
		chunk, ok, err := iter.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := ws.Write(chunk); err != nil {
			return err
		}
	}
}

// Write writes one chunk while holding the sink's single permit.
func (ws *WriterSink) Write(p []byte) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for len(p) > 0 {
		n, err := ws.w.Write(p)
		if err != nil {
			return ws.mapError(err)
		}
		if n == 0 {
			return ws.mapError(io.ErrShortWrite)
		}
		p = p[n:]
	}
	return nil
}

// Close closes the writer once; later calls return the first result.
func (ws *WriterSink) Close() error {
	ws.closeOnce.Do(func() {
		ws.closeErr = ws.w.Close()
	})
	return ws.closeErr
}

func (ws *WriterSink) mapError(err error) error {
	if ws.onError != nil {
		return ws.onError(err)
	}
	return err
}
