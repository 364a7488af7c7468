package live

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ridge/ringsource/ringbuffer"
	"github.com/ridge/ringsource/ringbuffer/mock"
	"github.com/ridge/ringsource/source/api"
	"github.com/ridge/ringsource/test"
	"github.com/stretchr/testify/require"
)

func TestFill(t *testing.T) {
	ctx := test.Context(t)
	ring := mock.New()
	s := New("mock:events", ring.Attach(), Config{Wait: 10 * time.Millisecond})

	p := make([]byte, 8)
	n, err := s.Fill(ctx, p)
	require.NoError(t, err)
	require.Zero(t, n, "timeout must be reported as no data")

	ring.Put([]byte{1, 2, 3})
	n, err = s.Fill(ctx, p)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, p[:n])

	ring.End()
	n, err = s.Fill(ctx, p)
	require.ErrorIs(t, err, api.ErrExhausted)
	require.Zero(t, n)

	_, err = s.Fill(ctx, p)
	require.ErrorIs(t, err, api.ErrExhausted)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	_, err = s.Fill(ctx, p)
	require.ErrorIs(t, err, api.ErrNotConnected)
}

type failingChannel struct {
	err    error
	closes int
}

func (c *failingChannel) Get(ctx context.Context, p []byte, wait time.Duration) (int, error) {
	return 0, c.err
}

func (c *failingChannel) Close() error {
	c.closes++
	return nil
}

func TestFillChannelFailure(t *testing.T) {
	ctx := test.Context(t)
	ch := &failingChannel{err: fmt.Errorf("ring file removed: %w", ringbuffer.ErrContinuityBroken)}
	s := New("tail:///data/ring", ch, Config{Wait: time.Millisecond})

	n, err := s.Fill(ctx, make([]byte, 8))
	require.ErrorIs(t, err, api.ErrExhausted)
	require.Zero(t, n)
	require.Equal(t, 1, ch.closes)

	_, err = s.Fill(ctx, make([]byte, 8))
	require.ErrorIs(t, err, api.ErrExhausted)
	require.NoError(t, s.Close())
	require.Equal(t, 1, ch.closes)
}

func TestFillNeverOpened(t *testing.T) {
	var s Source
	_, err := s.Fill(test.Context(t), make([]byte, 1))
	require.ErrorIs(t, err, api.ErrNotConnected)
	require.NoError(t, s.Close())
}

func TestFillCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(test.Context(t))
	s := New("mock:events", mock.New().Attach(), Config{Wait: time.Minute})

	cancel()
	_, err := s.Fill(ctx, make([]byte, 1))
	require.ErrorIs(t, err, context.Canceled)
	require.NoError(t, s.Close())
}

func TestOpenSchemeMismatch(t *testing.T) {
	_, err := Open(test.Context(t), "file:///tmp/run-0001.evt", Config{})
	require.ErrorIs(t, err, api.ErrSchemeMismatch)
}

func TestOpenConnectionError(t *testing.T) {
	_, err := Open(test.Context(t), "tail:///nonexistent/ring", Config{})
	var connErr *api.ConnectionError
	require.True(t, errors.As(err, &connErr))
	require.Equal(t, "tail:///nonexistent/ring", connErr.URI)
}
