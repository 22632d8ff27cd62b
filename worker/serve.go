package worker

import (
	"context"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/logger"
	"github.com/kbukum/goplatform/observability"
)

// Request kinds.
const (
	KindData      uint8 = 0
	KindInterrupt uint8 = 1
)

// Response kinds.
const (
	KindChunk uint8 = 0
	KindEnd   uint8 = 1
	KindError uint8 = 2
)

// Request is the payload of a request frame in the typed protocol.
type Request struct {
	_    struct{} `cbor:",toarray"`
	ID   uint64
	Kind uint8
	Body cbor.RawMessage
}

// Response is the payload of a response frame in the typed protocol. A
// request produces any number of chunks followed by one end or error.
type Response struct {
	_       struct{} `cbor:",toarray"`
	ID      uint64
	Kind    uint8
	Body    cbor.RawMessage
	Message string
}

// RemoteError is a request failure reported by the worker.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return "worker: " + e.Message }

// ServeFunc handles one typed request, calling emit for every output value.
type ServeFunc[I, O any] func(ctx context.Context, req I, emit func(O) error) error

type requestKey struct {
	port int
	id   uint64
}

// Serve runs the typed request/response protocol on b. Requests are
// handled concurrently. A request whose function fails gets an error
// response and the run continues; a malformed envelope ends the run with
// a decode error.
func Serve[I, O any](ctx context.Context, b *Backing, fn ServeFunc[I, O]) error {
	var (
		mu       sync.Mutex
		inflight = make(map[requestKey]context.CancelFunc)
	)
	r := b.runner

	return b.Run(ctx, func(ctx context.Context, portID int, payload cbor.RawMessage) error {
		var req Request
		if err := Unmarshal(payload, &req); err != nil {
			return errors.NewWorkerError(errors.WorkerDecode, err)
		}
		key := requestKey{port: portID, id: req.ID}

		if req.Kind == KindInterrupt {
			mu.Lock()
			cancel, ok := inflight[key]
			mu.Unlock()
			if ok {
				cancel()
			}
			return nil
		}

		reqCtx, cancel := context.WithCancel(ctx)
		mu.Lock()
		inflight[key] = cancel
		mu.Unlock()
		defer func() {
			mu.Lock()
			delete(inflight, key)
			mu.Unlock()
			cancel()
		}()

		reqCtx, op := observability.StartOperation(reqCtx, observability.SpanWorkerRequest,
			attribute.Int(observability.AttrPortID, portID))
		err := serveOne(reqCtx, b, portID, req, fn)
		elapsed := op.End(err)
		r.metrics.RecordWorkerRequest(ctx, observability.Status(err), elapsed)

		reply := Response{ID: req.ID, Kind: KindEnd}
		if err != nil {
			if reqCtx.Err() != nil && ctx.Err() == nil {
				// interrupted by the manager, which no longer listens
				return nil
			}
			r.log.Debug("request failed", logger.Fields(
				logger.FieldPortID, portID,
				logger.FieldError, err.Error(),
			))
			reply = Response{ID: req.ID, Kind: KindError, Message: err.Error()}
		}
		return send(b, portID, reply)
	})
}

func serveOne[I, O any](ctx context.Context, b *Backing, portID int, req Request, fn ServeFunc[I, O]) error {
	var in I
	if err := Unmarshal(req.Body, &in); err != nil {
		return err
	}
	emit := func(out O) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := Marshal(out)
		if err != nil {
			return err
		}
		return send(b, portID, Response{ID: req.ID, Kind: KindChunk, Body: body})
	}
	return fn(ctx, in, emit)
}

// send posts resp on portID. Responses for a port that has since been
// disposed are dropped.
func send(b *Backing, portID int, resp Response) error {
	data, err := Marshal(resp)
	if err != nil {
		return err
	}
	err = b.Send(portID, data)
	if err != nil && b.PortState(portID) == PortClosed {
		return nil
	}
	return err
}
