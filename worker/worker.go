package worker

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/logger"
	"github.com/kbukum/goplatform/observability"
	"github.com/kbukum/goplatform/scope"
	"github.com/kbukum/goplatform/stream"
)

// ErrWorkerClosed is returned for requests on a disposed worker.
var ErrWorkerClosed = stderrors.New("worker: closed")

// SpawnOption configures Spawn.
type SpawnOption func(*spawnOptions)

type spawnOptions struct {
	cfg Config
	log *logger.Logger
}

// WithSpawnConfig sets the manager configuration.
func WithSpawnConfig(cfg Config) SpawnOption {
	return func(o *spawnOptions) { o.cfg = cfg }
}

// WithSpawnLogger sets the manager logger.
func WithSpawnLogger(l *logger.Logger) SpawnOption {
	return func(o *spawnOptions) { o.log = l }
}

// Worker is the manager side of a port served by a Runner.
type Worker struct {
	port Port
	log  *logger.Logger
	stop func()

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*mailbox
	err     error
}

// Spawn waits for the worker behind port to signal ready and returns a
// handle for sending it requests. When sc closes the worker is sent a
// dispose frame and the port is closed.
func Spawn(ctx context.Context, sc *scope.Scope, port Port, opts ...SpawnOption) (*Worker, error) {
	o := spawnOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	o.cfg.ApplyDefaults()
	if o.log == nil {
		o.log = logger.Get("worker")
	}

	ctx, op := observability.StartOperation(ctx, observability.SpanWorkerSpawn)
	w := &Worker{port: port, log: o.log, pending: make(map[uint64]*mailbox)}
	ready := make(chan struct{})
	var readyOnce sync.Once

	w.stop = port.Listen(Listener{
		OnMessage: func(f Frame) {
			if !f.HasPayload() {
				if f.Tag == TagRequest {
					readyOnce.Do(func() { close(ready) })
				} else {
					// the worker end went away
					w.fail(ErrWorkerClosed)
				}
				return
			}
			w.dispatch(f)
		},
		OnMessageError: func(err error) { w.fail(errors.NewWorkerError(errors.WorkerDecode, err)) },
		OnError:        func(err error) { w.fail(errors.NewWorkerError(errors.WorkerUnknown, err)) },
	})

	timer := time.NewTimer(o.cfg.ReadyTimeout)
	defer timer.Stop()
	var err error
	select {
	case <-ready:
	case <-timer.C:
		err = errors.NewWorkerError(errors.WorkerSpawn,
			fmt.Errorf("no ready signal within %s", o.cfg.ReadyTimeout))
	case <-ctx.Done():
		err = errors.NewWorkerError(errors.WorkerSpawn, ctx.Err())
	}
	op.End(err)
	if err != nil {
		w.stop()
		_ = port.Close()
		return nil, err
	}

	if err := sc.AddFinalizer(func(context.Context) error {
		return w.dispose()
	}); err != nil {
		_ = w.dispose()
		return nil, err
	}
	w.log.Debug("worker ready")
	return w, nil
}

func (w *Worker) dispose() error {
	_ = w.port.PostMessage(DisposeFrame())
	w.stop()
	w.fail(ErrWorkerClosed)
	return w.port.Close()
}

func (w *Worker) dispatch(f Frame) {
	var resp Response
	if err := Unmarshal(f.Payload, &resp); err != nil {
		w.fail(errors.NewWorkerError(errors.WorkerDecode, err))
		return
	}
	w.mu.Lock()
	box, ok := w.pending[resp.ID]
	w.mu.Unlock()
	if ok {
		box.push(resp)
	}
}

// fail terminates every pending request with err. Later requests fail
// immediately.
func (w *Worker) fail(err error) {
	w.mu.Lock()
	if w.err == nil {
		w.err = err
	}
	boxes := w.pending
	w.pending = make(map[uint64]*mailbox)
	w.mu.Unlock()
	for _, box := range boxes {
		box.close(err)
	}
}

// open registers a request and posts it.
func (w *Worker) open(body []byte) (uint64, *mailbox, error) {
	w.mu.Lock()
	if w.err != nil {
		err := w.err
		w.mu.Unlock()
		return 0, nil, err
	}
	id := w.nextID
	w.nextID++
	box := newMailbox()
	w.pending[id] = box
	w.mu.Unlock()

	if err := w.post(Request{ID: id, Kind: KindData, Body: body}); err != nil {
		w.forget(id)
		return 0, nil, err
	}
	return id, box, nil
}

func (w *Worker) forget(id uint64) {
	w.mu.Lock()
	delete(w.pending, id)
	w.mu.Unlock()
}

func (w *Worker) post(req Request) error {
	data, err := Marshal(req)
	if err != nil {
		return err
	}
	if err := w.port.PostMessage(RequestFrame(data)); err != nil {
		return errors.NewWorkerError(errors.WorkerSend, err)
	}
	return nil
}

// Execute sends req and streams the worker's outputs. Each iteration sends
// the request again. Closing the iterator before the worker finishes sends
// an interrupt.
func Execute[I, O any](w *Worker, req I) *stream.Stream[O] {
	return stream.FromFunc(func(ctx context.Context) stream.Iterator[O] {
		body, err := Marshal(req)
		if err != nil {
			return &errIter[O]{err: err}
		}
		id, box, err := w.open(body)
		if err != nil {
			return &errIter[O]{err: err}
		}
		return &responseIter[O]{w: w, id: id, box: box}
	})
}

// ExecuteOne sends req and returns the first output. The request is
// interrupted if the worker would produce more.
func ExecuteOne[I, O any](ctx context.Context, w *Worker, req I) (O, error) {
	iter := Execute[I, O](w, req).Iter(ctx)
	out, ok, err := iter.Next(ctx)
	closeErr := iter.Close()
	if err != nil {
		return out, err
	}
	if !ok {
		return out, fmt.Errorf("worker: request %T produced no output", req)
	}
	return out, closeErr
}

type responseIter[O any] struct {
	w    *Worker
	id   uint64
	box  *mailbox
	done bool
}

func (it *responseIter[O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	if it.done {
		return zero, false, nil
	}
	resp, err := it.box.next(ctx)
	if err != nil {
		if ctx.Err() == nil {
			it.finish()
		}
		return zero, false, err
	}
	switch resp.Kind {
	case KindChunk:
		var out O
		if err := Unmarshal(resp.Body, &out); err != nil {
			it.finish()
			return zero, false, errors.NewWorkerError(errors.WorkerDecode, err)
		}
		return out, true, nil
	case KindError:
		it.finish()
		return zero, false, &RemoteError{Message: resp.Message}
	default:
		it.finish()
		return zero, false, nil
	}
}

func (it *responseIter[O]) finish() {
	it.done = true
	it.w.forget(it.id)
}

func (it *responseIter[O]) Close() error {
	if it.done {
		return nil
	}
	it.finish()
	err := it.w.post(Request{ID: it.id, Kind: KindInterrupt})
	if stderrors.Is(err, ErrPortClosed) {
		return nil
	}
	return err
}

type errIter[O any] struct {
	err  error
	done bool
}

func (it *errIter[O]) Next(context.Context) (O, bool, error) {
	var zero O
	if it.done {
		return zero, false, nil
	}
	it.done = true
	return zero, false, it.err
}

func (it *errIter[O]) Close() error { return nil }

// mailbox is an unbounded queue of responses for one request.
type mailbox struct {
	mu    sync.Mutex
	items []Response
	err   error
	wake  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

func (m *mailbox) push(r Response) {
	m.mu.Lock()
	m.items = append(m.items, r)
	m.mu.Unlock()
	m.signal()
}

func (m *mailbox) close(err error) {
	m.mu.Lock()
	if m.err == nil {
		m.err = err
	}
	m.mu.Unlock()
	m.signal()
}

func (m *mailbox) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox) next(ctx context.Context) (Response, error) {
	for {
		m.mu.Lock()
		if len(m.items) > 0 {
			r := m.items[0]
			m.items = m.items[1:]
			m.mu.Unlock()
			return r, nil
		}
		err := m.err
		m.mu.Unlock()
		if err != nil {
			return Response{}, err
		}
		select {
		case <-m.wake:
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}
}
