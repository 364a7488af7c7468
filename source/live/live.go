// Package live is the live byte source: a ring buffer channel read with
// bounded waits.
//
// Normally, outside the source packages, you shouldn't import this package
// directly. Use source.Open to pick the adapter by URI scheme.
package live

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/ridge/ringsource/ringbuffer"
	"github.com/ridge/ringsource/source/api"
	"github.com/ridge/ringsource/tlog"
	"go.uber.org/zap"
)

// DefaultWait is the default bound on a single wait for ring data
const DefaultWait = time.Second

// Config is the live source configuration
type Config struct {
	// Wait bounds a single wait for ring data. DefaultWait if zero.
	Wait time.Duration
}

type state int

const (
	idle state = iota
	attached
	exhausted
)

// Source reads a live ring buffer channel
type Source struct {
	uri   string
	wait  time.Duration
	ch    ringbuffer.Channel
	state state
}

// Open attaches to the ring buffer named by uri.
//
// The scheme is checked before anything else; an attach failure is returned
// as *api.ConnectionError.
func Open(ctx context.Context, uri string, config Config) (*Source, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open live source: %w", err)
	}
	if !ringbuffer.IsScheme(u.Scheme) {
		return nil, fmt.Errorf("failed to open live source %s: %w (one of %v expected)", uri, api.ErrSchemeMismatch, ringbuffer.Schemes)
	}

	ch, err := ringbuffer.Attach(ctx, uri)
	if err != nil {
		return nil, &api.ConnectionError{URI: uri, Err: err}
	}
	return New(uri, ch, config), nil
}

// New wraps an attached channel
func New(uri string, ch ringbuffer.Channel, config Config) *Source {
	wait := config.Wait
	if wait <= 0 {
		wait = DefaultWait
	}
	return &Source{uri: uri, wait: wait, ch: ch, state: attached}
}

// Fill implements api.Source.
//
// A single call waits for up to Config.Wait and returns (0, nil) if nothing
// arrived. Channel failures are logged and end the stream.
func (s *Source) Fill(ctx context.Context, p []byte) (int, error) {
	switch s.state {
	case idle:
		return 0, api.ErrNotConnected
	case exhausted:
		return 0, api.ErrExhausted
	}

	n, err := s.ch.Get(ctx, p, s.wait)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, ringbuffer.ErrTimeout):
		return 0, nil
	case ctx.Err() != nil:
		return 0, ctx.Err()
	}

	if errors.Is(err, ringbuffer.ErrClosed) {
		tlog.Get(ctx).Info("Live source ended", zap.String("uri", s.uri))
	} else {
		tlog.Get(ctx).Warn("Live source failed", zap.String("uri", s.uri), zap.Error(err))
	}
	s.state = exhausted
	if err := s.ch.Close(); err != nil {
		tlog.Get(ctx).Warn("Failed to detach from ring", zap.String("uri", s.uri), zap.Error(err))
	}
	return n, api.ErrExhausted
}

// Close implements api.Source. A closed source reports ErrNotConnected.
func (s *Source) Close() error {
	state := s.state
	s.state = idle
	if state != attached {
		return nil
	}
	if err := s.ch.Close(); err != nil {
		return fmt.Errorf("failed to detach from ring %s: %w", s.uri, err)
	}
	return nil
}
