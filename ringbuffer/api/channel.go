// Package api defines the ring-buffer channel interface implemented by the
// clients in the ringbuffer subpackages.
//
// Outside the ringbuffer packages, import ringbuffer which reexports these
// symbols.
package api

import (
	"context"
	"errors"
	"time"
)

// Channel is an attached consumer of a ring buffer.
//
// A channel has a single reader. Get and Close must not be called
// concurrently with each other.
type Channel interface {
	// Get copies the next bytes of the ring into p, waiting for up to wait for
	// data to arrive.
	//
	// Returns ErrTimeout if nothing arrived in time. Any other error is
	// permanent: the channel is unusable afterwards.
	Get(ctx context.Context, p []byte, wait time.Duration) (int, error)

	// Close detaches from the ring. It is idempotent.
	Close() error
}

// ErrTimeout is returned by Channel.Get when no data arrived within the wait
var ErrTimeout = errors.New("timed out waiting for ring data")

// ErrClosed is returned by Channel.Get after the channel is closed on either
// side
var ErrClosed = errors.New("ring channel closed")

// ErrContinuityBroken is returned by Channel.Get when the ring it follows
// disappears while being read
var ErrContinuityBroken = errors.New("continuity broken")
