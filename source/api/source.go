// Package api defines the byte source capability consumed by the framer and
// the errors shared by the source adapters.
//
// Outside the source packages, import source which reexports these symbols.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Source supplies raw bytes to the framer
type Source interface {
	// Fill appends up to len(p) bytes to p, blocking as the source requires.
	//
	// (n > 0, nil): n bytes were delivered.
	// (0, nil): nothing is available yet; the caller should try again.
	// (n, ErrExhausted): the source has ended for good after delivering n
	// bytes; later calls keep returning ErrExhausted.
	//
	// Any other error is the caller's to handle; the adapters only return
	// ErrNotConnected and the context's error.
	Fill(ctx context.Context, p []byte) (int, error)

	// Close releases the source. It is idempotent.
	Close() error
}

// ErrExhausted is the normal end-of-stream signal
var ErrExhausted = io.EOF

// ErrSchemeMismatch is returned when an adapter is opened with an URI of a
// scheme it doesn't serve
var ErrSchemeMismatch = errors.New("URI scheme mismatch")

// ErrNotConnected is returned when a live source is read before it's opened
// or after it's closed
var ErrNotConnected = errors.New("live source not connected")

// ConnectionError is returned when attaching to a live channel fails
type ConnectionError struct {
	URI string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to attach to live channel %s: %s", e.URI, e.Err)
}

// Unwrap returns the underlying error
func (e *ConnectionError) Unwrap() error {
	return e.Err
}
