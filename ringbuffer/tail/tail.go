// Package tail follows a growing ring file as a live channel.
//
// It serves rings that a producer appends to a local file: reading waits for
// the file to grow instead of ending at its current size.
package tail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ridge/ringsource/ringbuffer/api"
)

// Scheme is the URI scheme served by this package
const Scheme = "tail"

type channel struct {
	f      *os.File
	w      *fsnotify.Watcher
	path   string
	closed bool
}

// Attach opens the file for following from its beginning
func Attach(path string) (api.Channel, error) {
	path = filepath.Clean(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to follow ring file: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to follow ring file %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		f.Close()
		return nil, fmt.Errorf("failed to follow ring file %s: %w", path, err)
	}
	return &channel{f: f, w: w, path: path}, nil
}

func (c *channel) Get(ctx context.Context, p []byte, wait time.Duration) (int, error) {
	if c.closed {
		return 0, api.ErrClosed
	}
	if _, err := os.Lstat(c.path); err != nil { // file does not exist anymore
		return 0, api.ErrContinuityBroken
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		n, err := c.f.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if err := c.waitForMore(ctx, timer.C); err != nil {
			return 0, err
		}
	}
}

func (c *channel) waitForMore(ctx context.Context, timeout <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return api.ErrTimeout
		case event, ok := <-c.w.Events:
			if !ok {
				return api.ErrClosed
			}
			if event.Name != c.path {
				continue
			}
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				return api.ErrContinuityBroken
			case event.Op&fsnotify.Write != 0:
				return nil
			}
		case err, ok := <-c.w.Errors:
			if !ok {
				return api.ErrClosed
			}
			return err
		}
	}
}

func (c *channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return errors.Join(c.w.Close(), c.f.Close())
}
