package worker

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/goplatform/scope"
)

// SpawnFunc starts one worker in sc.
type SpawnFunc func(ctx context.Context, sc *scope.Scope) (*Worker, error)

// Pool dispatches requests round-robin over a fixed set of workers.
type Pool struct {
	workers []*Worker
	next    atomic.Uint64
}

// NewPool spawns size workers concurrently. If any fails, the ones already
// started are disposed and the first error is returned.
func NewPool(ctx context.Context, sc *scope.Scope, size int, spawn SpawnFunc) (*Pool, error) {
	if size < 1 {
		size = 1
	}
	sub := sc.Fork()
	workers := make([]*Worker, size)
	g, gctx := errgroup.WithContext(ctx)
	for i := range workers {
		g.Go(func() error {
			w, err := spawn(gctx, sub)
			if err != nil {
				return err
			}
			workers[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		_ = sub.Close(context.Background())
		return nil, err
	}
	return &Pool{workers: workers}, nil
}

// Next returns the worker for the next request.
func (p *Pool) Next() *Worker {
	n := p.next.Add(1) - 1
	return p.workers[n%uint64(len(p.workers))]
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }
