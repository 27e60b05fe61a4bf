package media

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool bounds how many encoder processes run at once. ffmpeg is CPU-heavy;
// without a cap, a burst of requests would starve the host.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool returns a Pool allowing at most size concurrent holders.
// A size below 1 is treated as 1.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Acquire blocks until a slot is free or ctx expires. Callers must Release
// the slot when the encoder process has exited.
func (p *Pool) Acquire(ctx context.Context) error {
	return p.sem.Acquire(ctx, 1)
}

// Release frees a slot taken by Acquire.
func (p *Pool) Release() {
	p.sem.Release(1)
}
