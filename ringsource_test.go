package ringsource

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ridge/parallel"
	"github.com/ridge/ringsource/ringitem"
	"github.com/ridge/ringsource/source"
	"github.com/ridge/ringsource/test"
	"github.com/stretchr/testify/require"
)

var testRecords = []ringitem.Record{
	{Type: ringitem.BeginRun, BodyHeader: &ringitem.BodyHeader{Timestamp: 1, SourceID: 3, BarrierType: 1}, Payload: []byte("run 7")},
	{Type: ringitem.PhysicsEvent, Payload: []byte{1, 2, 3, 4}},
	{Type: ringitem.EndRun, BodyHeader: &ringitem.BodyHeader{Timestamp: 2, SourceID: 3, BarrierType: 2}, Payload: []byte("run 7")},
}

func writeRun(t *testing.T, records ...ringitem.Record) string {
	var b []byte
	for _, r := range records {
		b = r.AppendTo(b)
	}
	path := filepath.Join(t.TempDir(), "run-0007.evt")
	require.NoError(t, os.WriteFile(path, b, 0o644))
	return "file://" + filepath.ToSlash(path)
}

func TestOpenFile(t *testing.T) {
	ctx := test.Context(t)
	f, err := Open(ctx, writeRun(t, testRecords...), Config{})
	require.NoError(t, err)
	defer f.Close()

	for _, expected := range testRecords {
		rec, err := f.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, expected, rec)
	}
	_, err = f.Next(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestOpenTail(t *testing.T) {
	ctx := test.Context(t)
	uri := writeRun(t, testRecords...)
	f, err := Open(ctx, "tail"+uri[len("file"):], Config{})
	require.NoError(t, err)
	defer f.Close()

	for _, expected := range testRecords {
		rec, err := f.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, expected, rec)
	}
}

func TestOpenErrors(t *testing.T) {
	ctx := test.Context(t)

	_, err := Open(ctx, "gopher://localhost/events", Config{})
	require.Error(t, err)

	_, err = Open(ctx, "file:///nonexistent/run.evt", Config{})
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Open(ctx, "tail:///nonexistent/ring.evt", Config{})
	var connErr *source.ConnectionError
	require.True(t, errors.As(err, &connErr))
}

func TestPump(t *testing.T) {
	group := test.Group(t)
	f, err := Open(group.Context(), writeRun(t, testRecords...), Config{})
	require.NoError(t, err)

	ch := make(chan ringitem.Record)
	done := make(chan error, 1)
	group.Spawn("pump", parallel.Continue, func(ctx context.Context) error {
		done <- Pump(ctx, f, ch)
		return nil
	})

	test.AssertEvents(t, ch, testRecords...)
	require.NoError(t, <-done)
}
