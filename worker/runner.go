package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/logger"
	"github.com/kbukum/goplatform/observability"
	"github.com/kbukum/goplatform/scope"
)

// Handler processes one request received on portID. A returned error ends
// the whole run.
type Handler func(ctx context.Context, portID int, payload cbor.RawMessage) error

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithMetrics records ports and requests on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// Runner is the worker side of the protocol. It serves either a single
// port or, for a shared worker, every port connecting through a hub.
type Runner struct {
	self    Port
	hub     *ConnectHub
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewRunner creates a runner serving self.
func NewRunner(self Port, opts ...Option) *Runner {
	r := &Runner{self: self}
	r.apply(opts)
	return r
}

// NewSharedRunner creates a runner serving every port connected through
// hub. self may be nil; when set it is watched for transport errors and
// closed on shutdown.
func NewSharedRunner(hub *ConnectHub, self Port, opts ...Option) *Runner {
	r := &Runner{self: self, hub: hub}
	r.apply(opts)
	return r
}

func (r *Runner) apply(opts []Option) {
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Get("worker")
	}
}

// Start prepares a run that completes when latch is released. Releasing
// with nil is a graceful shutdown.
func (r *Runner) Start(latch *Latch) *Backing {
	return &Backing{runner: r, latch: latch, ports: make(map[int]*portEntry)}
}

// PortState is the lifecycle state of a registered port.
type PortState int

const (
	PortConnecting PortState = iota
	PortActive
	PortClosing
	PortClosed
)

func (s PortState) String() string {
	switch s {
	case PortConnecting:
		return "connecting"
	case PortActive:
		return "active"
	case PortClosing:
		return "closing"
	default:
		return "closed"
	}
}

type portEntry struct {
	port  Port
	sc    *scope.Scope
	state PortState
}

// Backing is a started runner. Run serves ports until the latch is
// released; Send posts responses.
type Backing struct {
	runner *Runner
	latch  *Latch

	mu      sync.Mutex
	ports   map[int]*portEntry
	nextID  int
	closing bool
}

// PortState returns the state of portID. Ports that were never registered
// or have been removed report PortClosed.
func (b *Backing) PortState(portID int) PortState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if entry, ok := b.ports[portID]; ok {
		return entry.state
	}
	return PortClosed
}

// Send posts payload as a response on portID. An unknown port id falls
// back to the runner's own port.
func (b *Backing) Send(portID int, payload []byte) error {
	b.mu.Lock()
	entry, ok := b.ports[portID]
	b.mu.Unlock()
	port := b.runner.self
	if ok {
		port = entry.port
	}
	if port == nil {
		return errors.NewWorkerError(errors.WorkerSend, ErrPortClosed)
	}
	if err := port.PostMessage(ResponseFrame(payload)); err != nil {
		return errors.NewWorkerError(errors.WorkerSend, err)
	}
	return nil
}

// Ports returns the number of registered ports.
func (b *Backing) Ports() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ports)
}

// Run registers the ports and dispatches every request to handler, each
// in its own goroutine. It returns when the latch is released, a handler
// fails, a port fails or ctx ends. On return every port is closed and
// every handler has finished.
func (b *Backing) Run(ctx context.Context, handler Handler) error {
	r := b.runner
	runID := uuid.NewString()
	ctx = logger.ContextWithRunID(ctx, runID)
	log := r.log.WithContext(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)
	sc := scope.New()

	onRequest := func(portID int, payload cbor.RawMessage) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.closing {
			return
		}
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = &errors.Defect{Cause: fmt.Errorf("handler panic: %v", rec)}
					b.latch.Release(err)
				}
			}()
			if err := handler(gctx, portID, payload); err != nil {
				b.latch.Release(err)
				return err
			}
			return nil
		})
	}

	onMessage := func(portID int) func(Frame) {
		return func(f Frame) {
			if f.Tag == TagRequest {
				onRequest(portID, f.Payload)
				return
			}
			b.mu.Lock()
			entry, ok := b.ports[portID]
			if !ok {
				b.mu.Unlock()
				return
			}
			entry.state = PortClosing
			if len(b.ports) == 1 {
				// the last port closes with the run
				b.mu.Unlock()
				b.latch.Release(nil)
				return
			}
			delete(b.ports, portID)
			b.mu.Unlock()
			log.Debug("port disposed", logger.Fields(logger.FieldPortID, portID))
			_ = entry.sc.Close(context.Background())
		}
	}
	onDecodeError := func(err error) {
		b.latch.Release(errors.NewWorkerError(errors.WorkerDecode, err))
	}
	onTransportError := func(err error) {
		b.latch.Release(errors.NewWorkerError(errors.WorkerUnknown, err))
	}

	handlePort := func(port Port) {
		sub := sc.Fork()
		b.mu.Lock()
		portID := b.nextID
		b.nextID++
		entry := &portEntry{port: port, sc: sub, state: PortConnecting}
		b.ports[portID] = entry
		b.mu.Unlock()

		stop := port.Listen(Listener{
			OnMessage:      onMessage(portID),
			OnMessageError: onDecodeError,
			OnError:        onTransportError,
		})
		r.metrics.PortOpened(ctx)
		_ = sub.AddFinalizer(func(context.Context) error {
			stop()
			r.metrics.PortClosed(ctx)
			return port.Close()
		})
		if err := port.PostMessage(ReadyFrame()); err != nil {
			onTransportError(err)
			return
		}
		b.mu.Lock()
		if entry.state == PortConnecting {
			entry.state = PortActive
		}
		b.mu.Unlock()
		log.Debug("port ready", logger.Fields(logger.FieldPortID, portID))
	}

	if r.hub != nil {
		if r.self != nil {
			stop := r.self.Listen(Listener{OnMessageError: onTransportError, OnError: onTransportError})
			_ = sc.AddFinalizer(func(context.Context) error {
				stop()
				return r.self.Close()
			})
		}
		if err := r.hub.Attach(handlePort); err != nil {
			_ = sc.Close(context.Background())
			cancel()
			return err
		}
		_ = sc.AddFinalizer(func(context.Context) error {
			r.hub.Detach()
			return nil
		})
	} else {
		handlePort(r.self)
	}

	var runErr error
	select {
	case <-b.latch.Done():
		runErr = b.latch.Err()
	case <-ctx.Done():
		runErr = ctx.Err()
	}

	// close ports first so no new requests arrive, then stop handlers
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()
	closeErr := sc.Close(context.Background())
	cancel()
	_ = g.Wait()

	b.mu.Lock()
	clear(b.ports)
	b.mu.Unlock()

	if runErr != nil {
		log.Debug("runner stopped", logger.Fields(logger.FieldError, runErr.Error()))
		return runErr
	}
	log.Debug("runner stopped")
	return closeErr
}
