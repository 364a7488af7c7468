package tcontext

import (
	"context"
	"testing"
	"time"

	"github.com/ridge/ringsource/tlog"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReopen(t *testing.T) {
	logger := zap.NewExample()
	parent, cancel := context.WithTimeout(tlog.WithLogger(context.Background(), logger), time.Hour)

	reopened := Reopen(parent)
	cancel()

	require.Same(t, logger, tlog.Get(reopened))
	require.NoError(t, reopened.Err())
	_, hasDeadline := reopened.Deadline()
	require.False(t, hasDeadline)
	select {
	case <-reopened.Done():
		require.Fail(t, "context closed")
	default:
	}

	require.Same(t, logger, tlog.Get(Reopen(parent)), "reopening a closed context")
}
