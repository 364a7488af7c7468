package tail

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ridge/must/v2"
	"github.com/ridge/ringsource/ringbuffer/api"
	"github.com/ridge/ringsource/test"
	"github.com/stretchr/testify/require"
)

func appendFile(filename string, data string) {
	f := must.OK1(os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644))
	defer must.Do(f.Close)
	must.OK1(f.Write([]byte(data)))
}

func TestFollow(t *testing.T) {
	ctx := test.Context(t)
	path := filepath.Join(t.TempDir(), "ring")
	appendFile(path, "abc")

	ch, err := Attach(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	p := make([]byte, 10)
	n, err := ch.Get(ctx, p, time.Second)
	require.NoError(t, err)
	require.Equal(t, "abc", string(p[:n]))

	_, err = ch.Get(ctx, p, 20*time.Millisecond)
	require.ErrorIs(t, err, api.ErrTimeout)

	appendFile(path, "def")
	n, err = ch.Get(ctx, p, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, "def", string(p[:n]))
}

func TestFollowWaitsForWrite(t *testing.T) {
	ctx := test.Context(t)
	path := filepath.Join(t.TempDir(), "ring")
	appendFile(path, "")

	ch, err := Attach(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	time.AfterFunc(50*time.Millisecond, func() {
		appendFile(path, "late")
	})

	p := make([]byte, 10)
	n, err := ch.Get(ctx, p, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, "late", string(p[:n]))
}

func TestRemoved(t *testing.T) {
	ctx := test.Context(t)
	path := filepath.Join(t.TempDir(), "ring")
	appendFile(path, "abc")

	ch, err := Attach(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	require.NoError(t, os.Remove(path))
	_, err = ch.Get(ctx, make([]byte, 10), time.Second)
	require.ErrorIs(t, err, api.ErrContinuityBroken)
}

func TestAttachMissing(t *testing.T) {
	_, err := Attach(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring")
	appendFile(path, "")

	ch, err := Attach(path)
	require.NoError(t, err)
	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())

	_, err = ch.Get(test.Context(t), make([]byte, 1), time.Second)
	require.ErrorIs(t, err, api.ErrClosed)
}
