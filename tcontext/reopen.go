// Package tcontext contains context helpers.
package tcontext

import (
	"context"
	"time"
)

// Reopen returns a context that carries the values of the given context,
// including its logger, but is not tied to its lifespan and has no deadline.
//
// Long-lived background work started on behalf of a short-lived call, such as
// a ring channel session started by an attach call, runs in such a context.
func Reopen(ctx context.Context) context.Context {
	return reopened{Context: ctx}
}

type reopened struct {
	context.Context //nolint:containedctx // this struct exists to wrap a context
}

func (reopened) Deadline() (time.Time, bool) {
	return time.Time{}, false
}

func (reopened) Done() <-chan struct{} {
	return nil
}

func (reopened) Err() error {
	return nil
}
