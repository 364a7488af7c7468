// Package uri opens the byte source named by an URI.
package uri

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ridge/ringsource/ringbuffer"
	"github.com/ridge/ringsource/source/api"
	"github.com/ridge/ringsource/source/file"
	"github.com/ridge/ringsource/source/live"
)

// Config is the source configuration
type Config struct {
	Live live.Config
}

// Open opens the byte source named by an URI in one of the following formats:
//
// file:///path
//
//	A file read to its end.
//
// file://-
//
//	Standard input, read to its end.
//
// tcp://..., ws://..., wss://..., kafka://..., nats://..., tail:///...
//
//	A live ring buffer; see ringbuffer.Attach.
func Open(ctx context.Context, uri string, config Config) (api.Source, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open source: %w", err)
	}

	switch {
	case u.Scheme == file.Scheme:
		s, err := file.Open(uri)
		if err != nil {
			return nil, err
		}
		return s, nil
	case ringbuffer.IsScheme(u.Scheme):
		s, err := live.Open(ctx, uri, config.Live)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("failed to open source %s: unsupported scheme %q, one of %s expected",
			uri, u.Scheme, strings.Join(append([]string{file.Scheme}, ringbuffer.Schemes...), ", "))
	}
}
