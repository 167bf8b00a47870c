// Package workpool bounds CPU-bound work (blob decoding, tokenization) so
// request handlers cannot oversubscribe the machine.
package workpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Pool runs functions with at most Size concurrent executions.
type Pool struct {
	sem  *semaphore.Weighted
	size int
}

// New returns a pool of the given size. Sizes <= 0 use GOMAXPROCS.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size)), size: size}
}

// Size reports the concurrency bound.
func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return p.size
}

// Run executes fn once a slot is free. It returns ctx.Err() if the context ends
// while waiting. A nil pool runs fn inline.
func (p *Pool) Run(ctx context.Context, fn func() error) error {
	if p == nil {
		return fn()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	return fn()
}

// Do is Run for functions that produce a value.
func Do[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var out T
	err := p.Run(ctx, func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
