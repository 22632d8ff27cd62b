package worker

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/fxamacker/cbor/v2"

	perrors "github.com/kbukum/goplatform/errors"
)

// StreamPort carries CBOR-encoded frames over a byte stream pair, such as
// a child process's stdio. End of input is delivered as a DisposeFrame so
// a runner shuts down when its manager goes away.
type StreamPort struct {
	r io.Reader
	w io.WriteCloser

	wmu sync.Mutex
	enc *cbor.Encoder

	mu        sync.Mutex
	listening bool
	closed    bool
	closeOnce sync.Once
}

var _ Port = (*StreamPort)(nil)

// NewStreamPort creates a port reading frames from r and writing to w.
func NewStreamPort(r io.Reader, w io.WriteCloser) *StreamPort {
	return &StreamPort{r: r, w: w, enc: encMode.NewEncoder(w)}
}

// PostMessage encodes f onto the writer. Writes are serialized.
func (p *StreamPort) PostMessage(f Frame) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPortClosed
	}
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return p.enc.Encode(f)
}

// Listen starts decoding frames. A StreamPort supports a single listener
// over its lifetime; a second call returns a no-op stop.
func (p *StreamPort) Listen(l Listener) func() {
	p.mu.Lock()
	if p.listening {
		p.mu.Unlock()
		return func() {}
	}
	p.listening = true
	p.mu.Unlock()

	// callbacks may call stop themselves, so no lock is held while they run
	var stopped atomic.Bool
	deliver := func(fn func()) bool {
		if stopped.Load() {
			return false
		}
		fn()
		return true
	}

	go func() {
		dec := cbor.NewDecoder(p.r)
		for {
			var f Frame
			err := dec.Decode(&f)
			switch {
			case err == nil:
				if !deliver(func() { call(l.OnMessage, f) }) {
					return
				}
				continue
			case errors.Is(err, io.EOF):
				deliver(func() { call(l.OnMessage, DisposeFrame()) })
			case isDecodeError(err):
				deliver(func() { callErr(l.OnMessageError, err) })
			default:
				if !p.isClosed() {
					deliver(func() { callErr(l.OnError, err) })
				}
			}
			return
		}
	}()

	return func() { stopped.Store(true) }
}

// Close closes the writer, and the reader when it is closable.
func (p *StreamPort) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		err = p.w.Close()
		if rc, ok := p.r.(io.Closer); ok {
			err = perrors.Combine(err, rc.Close())
		}
	})
	return err
}

func (p *StreamPort) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func isDecodeError(err error) bool {
	var syntaxErr *cbor.SyntaxError
	var typeErr *cbor.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func call(fn func(Frame), f Frame) {
	if fn != nil {
		fn(f)
	}
}

func callErr(fn func(error), err error) {
	if fn != nil {
		fn(err)
	}
}
