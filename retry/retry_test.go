package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ridge/ringsource/test"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	ctx := test.Context(t)

	count := 0
	err := Do(ctx, FixedConfig{}, func() error {
		count++
		if count == 10 {
			return errors.New("ten")
		}
		return Retriable(fmt.Errorf("%d", count))
	})
	require.EqualError(t, err, "ten")

	count = 0
	ret, err := Do1(ctx, FixedConfig{}, func() (int, error) {
		count++
		if count == 5 {
			return 5, nil
		}
		return count, Retriable(fmt.Errorf("%d", count))
	})
	require.NoError(t, err)
	require.Equal(t, 5, ret)
}

func TestDoMaxAttempts(t *testing.T) {
	ctx := test.Context(t)

	count := 0
	err := Do(ctx, FixedConfig{MaxAttempts: 3}, func() error {
		count++
		return Retriable(fmt.Errorf("attempt %d", count))
	})
	require.EqualError(t, err, "attempt 3")
	require.Equal(t, 3, count)
}

func TestDoCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(test.Context(t))
	cancel()

	err := Do(ctx, FixedConfig{TryAfter: 1}, func() error {
		panic("must not be called")
	})
	require.ErrorIs(t, err, context.Canceled)
}
