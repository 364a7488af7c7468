// Package mock contains an in-memory ring buffer for tests.
//
// Producers Put chunks of bytes; every consumer attached with Attach reads
// all chunks from the beginning in order, each at its own pace.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/ridge/ringsource/ringbuffer/api"
)

// Ring is an in-memory ring buffer
type Ring struct {
	mu     sync.RWMutex
	chunks [][]byte
	more   chan struct{} // closed and replaced on every change
	ended  bool
}

// New creates an empty ring
func New() *Ring {
	return &Ring{more: make(chan struct{})}
}

// Put appends a chunk and wakes up waiting consumers. The chunk is copied;
// an empty chunk is dropped.
func (r *Ring) Put(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ended {
		panic("put into an ended ring")
	}
	if len(chunk) == 0 {
		return
	}
	r.chunks = append(r.chunks, append([]byte(nil), chunk...))
	close(r.more)
	r.more = make(chan struct{})
}

// End marks the ring as finished: consumers get api.ErrClosed once they
// have read everything
func (r *Ring) End() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ended {
		r.ended = true
		close(r.more)
	}
}

// Attach returns a new consumer reading from the beginning of the ring
func (r *Ring) Attach() api.Channel {
	return &consumer{ring: r}
}

func (r *Ring) read(next int) (chunk []byte, ok bool, more <-chan struct{}, ended bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if next < len(r.chunks) {
		return r.chunks[next], true, nil, false
	}
	return nil, false, r.more, r.ended
}

type consumer struct {
	ring      *Ring
	next      int
	remainder api.Remainder
	closed    bool
}

func (c *consumer) Get(ctx context.Context, p []byte, wait time.Duration) (int, error) {
	if c.closed {
		return 0, api.ErrClosed
	}
	if c.remainder.Len() > 0 {
		return c.remainder.Take(p), nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		chunk, ok, more, ended := c.ring.read(c.next)
		switch {
		case ok:
			c.next++
			return c.remainder.Deliver(p, chunk), nil
		case ended:
			return 0, api.ErrClosed
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
			return 0, api.ErrTimeout
		case <-more:
		}
	}
}

func (c *consumer) Close() error {
	c.closed = true
	return nil
}
