package scope

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/goplatform/errors"
)

// Finalizer releases a resource. It receives a context that is never
// cancelled, so release work cannot be interrupted half way.
type Finalizer func(ctx context.Context) error

type entry struct {
	key int
	fn  Finalizer
}

// Scope owns a set of finalizers and runs each exactly once, in reverse
// registration order, when the scope is closed.
type Scope struct {
	mu       sync.Mutex
	entries  []entry
	nextKey  int
	closing  bool
	done     chan struct{}
	closeErr error

	parent    *Scope
	parentKey int
}

// New creates an open root scope.
func New() *Scope {
	return &Scope{done: make(chan struct{})}
}

// AddFinalizer registers fn. If the scope is already closing or closed, fn
// runs immediately and its failure is returned as a Defect.
func (s *Scope) AddFinalizer(fn Finalizer) error {
	if _, ok := s.add(fn); ok {
		return nil
	}
	if err := runFinalizer(context.Background(), fn); err != nil {
		return &errors.Defect{Cause: err}
	}
	return nil
}

func (s *Scope) add(fn Finalizer) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return 0, false
	}
	s.nextKey++
	s.entries = append(s.entries, entry{key: s.nextKey, fn: fn})
	return s.nextKey, true
}

func (s *Scope) remove(key int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.key == key {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Fork creates a child scope. Closing the parent closes the child first;
// closing the child detaches it from the parent. Forking a closed scope
// returns a scope that is already closed.
func (s *Scope) Fork() *Scope {
	child := New()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		child.closing = true
		close(child.done)
		return child
	}
	s.nextKey++
	child.parent = s
	child.parentKey = s.nextKey
	s.entries = append(s.entries, entry{key: s.nextKey, fn: child.Close})
	return child
}

// Close runs the finalizers in reverse order. Concurrent and repeated calls
// wait for the first close to finish and return its result. Finalizer
// failures are joined and reported as a Defect.
func (s *Scope) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		<-s.done
		return s.closeErr
	}
	s.closing = true
	entries := s.entries
	s.entries = nil
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		if err := runFinalizer(ctx, entries[i].fn); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		joined := errors.Combine(errs...)
		if errors.IsDefect(joined) && len(errs) == 1 {
			s.closeErr = joined
		} else {
			s.closeErr = &errors.Defect{Cause: joined}
		}
	}

	if s.parent != nil {
		s.parent.remove(s.parentKey)
	}
	close(s.done)
	return s.closeErr
}

// Done is closed once the scope has finished closing.
func (s *Scope) Done() <-chan struct{} {
	return s.done
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func runFinalizer(ctx context.Context, fn Finalizer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("finalizer panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Use opens a scope, runs fn in it and closes the scope on every exit path.
func Use(ctx context.Context, fn func(ctx context.Context, s *Scope) error) error {
	s := New()
	err := fn(ctx, s)
	return errors.Combine(err, s.Close(ctx))
}

// UseValue is Use for functions that produce a value.
func UseValue[T any](ctx context.Context, fn func(ctx context.Context, s *Scope) (T, error)) (T, error) {
	s := New()
	v, err := fn(ctx, s)
	return v, errors.Combine(err, s.Close(ctx))
}
