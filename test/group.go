package test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ridge/parallel"
	"github.com/stretchr/testify/require"
)

// Group returns a parallel.Group with a testing context.
//
// The group is shut down when the test finishes. If it finishes with an error
// other than context.Canceled, the test is failed.
func Group(t *testing.T) *parallel.Group {
	return newGroup(Context(t), t)
}

// GroupWithTimeout is a version of Group with a timeout
func GroupWithTimeout(t *testing.T, timeout time.Duration) *parallel.Group {
	return newGroup(ContextWithTimeout(t, timeout), t)
}

func newGroup(ctx context.Context, t *testing.T) *parallel.Group {
	g := parallel.NewGroup(ctx)
	t.Cleanup(func() {
		g.Exit(nil)
		if err := g.Wait(); !errors.Is(err, context.Canceled) {
			require.NoError(t, err)
		}
	})
	return g
}
