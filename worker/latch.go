package worker

import (
	"context"
	"sync"
)

// Latch is a one-shot completion signal carrying an optional error. The
// first Release wins; later calls are ignored.
type Latch struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewLatch creates an unreleased latch.
func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Release completes the latch with err, which is nil for a graceful close.
// It reports whether this call was the one that completed it.
func (l *Latch) Release(err error) bool {
	released := false
	l.once.Do(func() {
		l.err = err
		close(l.done)
		released = true
	})
	return released
}

// Done is closed once the latch is released.
func (l *Latch) Done() <-chan struct{} { return l.done }

// Err returns the release error. It is only meaningful after Done.
func (l *Latch) Err() error {
	select {
	case <-l.done:
		return l.err
	default:
		return nil
	}
}

// Wait blocks until the latch is released or ctx ends.
func (l *Latch) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
