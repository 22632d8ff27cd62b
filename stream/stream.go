package stream

import (
	"context"
	"sync"

	"github.com/kbukum/goplatform/errors"
	"github.com/kbukum/goplatform/scope"
)

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Stream is a lazy, pull-based description of a sequence of values.
// Nothing happens until the stream is iterated; every iteration calls the
// stream's factory again, so a stream built from restartable parts can be
// run more than once.
type Stream[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// Iter returns a fresh Iterator. The caller must Close it.
func (s *Stream[T]) Iter(ctx context.Context) Iterator[T] {
	return s.create(ctx)
}

// --- Constructors ---

// FromFunc creates a stream from a factory that produces an Iterator.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Stream[T] {
	return &Stream[T]{create: fn}
}

// FromSlice creates a stream from a slice of values.
func FromSlice[T any](items []T) *Stream[T] {
	return &Stream[T]{
		create: func(_ context.Context) Iterator[T] {
			return &sliceIter[T]{items: items}
		},
	}
}

// FromValues creates a stream of the given values.
func FromValues[T any](items ...T) *Stream[T] {
	return FromSlice(items)
}

// Empty returns a stream that ends immediately.
func Empty[T any]() *Stream[T] {
	return FromSlice[T](nil)
}

// Fail returns a stream that fails with err on the first pull.
func Fail[T any](err error) *Stream[T] {
	return &Stream[T]{
		create: func(_ context.Context) Iterator[T] {
			return &failIter[T]{err: err}
		},
	}
}

// Scoped creates a stream whose source is acquired in its own scope for
// each iteration. The scope is closed as soon as the source is exhausted,
// fails, or the iterator is closed, whichever happens first, so resources
// live exactly as long as their output is being consumed.
func Scoped[T any](acquire func(ctx context.Context, sc *scope.Scope) (*Stream[T], error)) *Stream[T] {
	return &Stream[T]{
		create: func(ctx context.Context) Iterator[T] {
			sc := scope.New()
			inner, err := acquire(ctx, sc)
			if err != nil {
				return &failIter[T]{err: errors.Combine(err, sc.Close(ctx))}
			}
			return &scopedIter[T]{source: inner.create(ctx), sc: sc}
		},
	}
}

// --- Terminals ---

// Collect runs the stream and returns all values as a slice.
func Collect[T any](ctx context.Context, s *Stream[T]) (result []T, err error) {
	iter := s.create(ctx)
	defer func() { err = errors.Combine(err, iter.Close()) }()
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, nil
		}
		result = append(result, val)
	}
}

// ForEach pulls all values and calls fn for each.
func ForEach[T any](ctx context.Context, s *Stream[T], fn func(context.Context, T) error) (err error) {
	iter := s.create(ctx)
	defer func() { err = errors.Combine(err, iter.Close()) }()
	for {
		val, ok, err := iter.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(ctx, val); err != nil {
			return err
		}
	}
}

// RunDrain pulls every value and discards it.
func RunDrain[T any](ctx context.Context, s *Stream[T]) error {
	return ForEach(ctx, s, func(context.Context, T) error { return nil })
}

// --- Internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

type failIter[T any] struct {
	err  error
	done bool
}

func (it *failIter[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	it.done = true
	return zero, false, it.err
}

func (it *failIter[T]) Close() error { return nil }

type scopedIter[T any] struct {
	source Iterator[T]
	sc     *scope.Scope
	once   sync.Once
	err    error
}

func (it *scopedIter[T]) Next(ctx context.Context) (T, bool, error) {
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		if relErr := it.release(); relErr != nil && err == nil {
			err = relErr
		}
	}
	return val, ok, err
}

func (it *scopedIter[T]) release() error {
	it.once.Do(func() {
		it.err = errors.Combine(it.source.Close(), it.sc.Close(context.Background()))
	})
	return it.err
}

func (it *scopedIter[T]) Close() error { return it.release() }
