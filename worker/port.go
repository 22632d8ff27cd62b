package worker

import "errors"

// ErrPortClosed is returned when posting to a closed port.
var ErrPortClosed = errors.New("worker: port closed")

// Listener receives port events. Any callback may be nil.
type Listener struct {
	// OnMessage receives each decoded frame, in order.
	OnMessage func(Frame)
	// OnMessageError reports a frame that could not be decoded.
	OnMessageError func(error)
	// OnError reports a transport failure.
	OnError func(error)
}

// Port is one end of a bidirectional frame channel. Frames posted before
// the peer listens are queued. A Port delivers to one listener at a time.
type Port interface {
	// Listen starts delivery to l and returns a function that stops it.
	Listen(l Listener) (stop func())
	// PostMessage sends f to the peer.
	PostMessage(f Frame) error
	// Close releases the port. Later posts fail with ErrPortClosed.
	Close() error
}
