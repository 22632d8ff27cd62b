package worker

import "sync"

// ChannelPort is one end of an in-memory entangled pair.
type ChannelPort struct {
	peer *ChannelPort

	mu       sync.Mutex
	queue    []Frame
	listener *Listener
	wake     chan struct{}
	closed   bool
}

var _ Port = (*ChannelPort)(nil)

// NewChannel creates two entangled ports: frames posted on one are
// delivered to the other.
func NewChannel() (*ChannelPort, *ChannelPort) {
	a := &ChannelPort{wake: make(chan struct{}, 1)}
	b := &ChannelPort{wake: make(chan struct{}, 1)}
	a.peer, b.peer = b, a
	return a, b
}

// PostMessage queues f on the peer. Frames sent to a closed peer are
// dropped.
func (p *ChannelPort) PostMessage(f Frame) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPortClosed
	}
	p.peer.enqueue(f)
	return nil
}

func (p *ChannelPort) enqueue(f Frame) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, f)
	p.mu.Unlock()
	p.signal()
}

func (p *ChannelPort) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Listen delivers queued and future frames to l from a single goroutine.
func (p *ChannelPort) Listen(l Listener) func() {
	stop := make(chan struct{})
	p.mu.Lock()
	p.listener = &l
	p.mu.Unlock()

	go func() {
		for {
			p.mu.Lock()
			if p.listener != &l || p.closed {
				p.mu.Unlock()
				return
			}
			batch := p.queue
			p.queue = nil
			p.mu.Unlock()

			for _, f := range batch {
				if l.OnMessage != nil {
					l.OnMessage(f)
				}
			}
			select {
			case <-p.wake:
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			p.mu.Lock()
			if p.listener == &l {
				p.listener = nil
			}
			p.mu.Unlock()
		})
	}
}

// Close disentangles this end. Pending frames are discarded.
func (p *ChannelPort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.queue = nil
	p.mu.Unlock()
	p.signal()
	return nil
}
