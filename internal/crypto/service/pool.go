package service

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds the number of concurrently executing offloaded decrypt jobs so
// a burst of large payloads cannot monopolize the CPU.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a pool allowing up to workers concurrent jobs. A value
// below one is treated as one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(workers))}
}

// Do runs fn once a worker slot is free.
//
// If ctx is canceled while waiting for a slot, Do returns the context error
// and fn never runs. If ctx is canceled after fn has started, fn runs to
// completion in the background and Do returns the context error so the
// caller stops waiting; the slot is released when fn finishes.
func (p *Pool) Do(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer p.sem.Release(1)
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
