package stream

import (
	"context"
	"errors"
	"io"
	"sync"
)

// DefaultChunkSize is the read buffer size used by FromReader.
const DefaultChunkSize = 64 * 1024

// ReaderOption configures FromReader.
type ReaderOption func(*readerSource)

// WithChunkSize sets the maximum chunk size produced per read.
func WithChunkSize(n int) ReaderOption {
	return func(rs *readerSource) {
		if n > 0 {
			rs.chunkSize = n
		}
	}
}

// FromReader wraps r as a lazy, finite byte stream. The stream is not
// restartable: all iterations share r, and once r reports end of data,
// fails or is closed, later iterations end immediately.
//
// Read failures are passed through onError (which may classify them) and
// terminate the stream. Cancelling the context of a pending Next closes r.
// Closing an iterator closes r.
func FromReader(r io.ReadCloser, onError func(error) error, opts ...ReaderOption) *Stream[[]byte] {
	rs := &readerSource{r: r, onError: onError, chunkSize: DefaultChunkSize}
	for _, opt := range opts {
		opt(rs)
	}
	return &Stream[[]byte]{
		create: func(_ context.Context) Iterator[[]byte] {
			return &readerIter{src: rs}
		},
	}
}

type readerSource struct {
	r         io.ReadCloser
	onError   func(error) error
	chunkSize int

	mu        sync.Mutex
	finished  bool
	closeOnce sync.Once
	closeErr  error
}

func (rs *readerSource) close() error {
	rs.closeOnce.Do(func() {
		rs.mu.Lock()
		rs.finished = true
		rs.mu.Unlock()
		rs.closeErr = rs.r.Close()
	})
	return rs.closeErr
}

func (rs *readerSource) isFinished() bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.finished
}

func (rs *readerSource) finish() {
	rs.mu.Lock()
	rs.finished = true
	rs.mu.Unlock()
}

type readerIter struct {
	src *readerSource
}

func (it *readerIter) Next(ctx context.Context) ([]byte, bool, error) {
	if it.src.isFinished() {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		_ = it.src.close()
		return nil, false, err
	}

	buf := make([]byte, it.src.chunkSize)
	stop := context.AfterFunc(ctx, func() { _ = it.src.close() })
	n, err := it.src.r.Read(buf)
	if !stop() {
		return nil, false, ctx.Err()
	}

	if n > 0 {
		if err != nil {
			// Deliver the data now; the next Read reports the condition again.
			if errors.Is(err, io.EOF) {
				it.src.finish()
			}
		}
		return buf[:n], true, nil
	}
	if err == nil {
		return it.Next(ctx)
	}
	it.src.finish()
	if errors.Is(err, io.EOF) {
		return nil, false, nil
	}
	if it.src.onError != nil {
		err = it.src.onError(err)
	}
	return nil, false, err
}

func (it *readerIter) Close() error {
	return it.src.close()
}

// NewReader adapts a byte stream to an io.ReadCloser. The stream is iterated
// with ctx; Close closes the underlying iterator.
func NewReader(ctx context.Context, s *Stream[[]byte]) io.ReadCloser {
	return &streamReader{ctx: ctx, iter: s.create(ctx)}
}

type streamReader struct {
	ctx  context.Context
	iter Iterator[[]byte]
	buf  []byte
	err  error
}

func (r *streamReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		chunk, ok, err := r.iter.Next(r.ctx)
		switch {
		case err != nil:
			r.err = err
		case !ok:
			r.err = io.EOF
		default:
			r.buf = chunk
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *streamReader) Close() error {
	if r.err == nil {
		r.err = io.ErrClosedPipe
	}
	return r.iter.Close()
}
