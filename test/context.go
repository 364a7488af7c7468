// Package test contains helpers shared by the tests of this module.
package test

import (
	"context"
	"testing"
	"time"

	"github.com/ridge/ringsource/tlog"
)

// Context returns a new testing context carrying a test logger
func Context(t *testing.T) context.Context {
	return tlog.WithLogger(context.Background(), tlog.NewForTesting(t))
}

// ContextWithTimeout is a version of Context with a timeout.
//
// If the timeout expires, the context is closed with
// context.DeadlineExceeded.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(Context(t), timeout)
	t.Cleanup(cancel)
	return ctx
}
