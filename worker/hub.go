package worker

import (
	"errors"
	"sync"
)

// ErrHubAttached is returned by Attach when a runner already listens.
var ErrHubAttached = errors.New("worker: connect hub already attached")

// ConnectHub collects ports that connect to a shared worker. Ports that
// arrive before a runner attaches are held and handed over, each exactly
// once, when it does.
type ConnectHub struct {
	mu      sync.Mutex
	pending []Port
	handler func(Port)
}

// DefaultHub is the process-wide hub used by shared workers.
var DefaultHub = NewConnectHub()

// NewConnectHub creates an empty hub.
func NewConnectHub() *ConnectHub {
	return &ConnectHub{}
}

// Connect hands p to the attached runner, or holds it until one attaches.
func (h *ConnectHub) Connect(p Port) {
	h.mu.Lock()
	handler := h.handler
	if handler == nil {
		h.pending = append(h.pending, p)
	}
	h.mu.Unlock()
	if handler != nil {
		handler(p)
	}
}

// Attach drains the held ports into fn and routes later connects to it.
// Connects racing with the drain wait for it to finish, so ports keep
// their arrival order.
func (h *ConnectHub) Attach(fn func(Port)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handler != nil {
		return ErrHubAttached
	}
	for _, p := range h.pending {
		fn(p)
	}
	h.pending = nil
	h.handler = fn
	return nil
}

// Detach stops routing connects. Later ports are held again.
func (h *ConnectHub) Detach() {
	h.mu.Lock()
	h.handler = nil
	h.mu.Unlock()
}

// Pending returns the number of held ports.
func (h *ConnectHub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}
