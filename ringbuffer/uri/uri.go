// Package uri attaches to a ring buffer named by an URI.
package uri

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ridge/ringsource/ringbuffer/api"
	"github.com/ridge/ringsource/ringbuffer/kafka"
	"github.com/ridge/ringsource/ringbuffer/nats"
	"github.com/ridge/ringsource/ringbuffer/tail"
	"github.com/ridge/ringsource/ringbuffer/tcp"
	"github.com/ridge/ringsource/ringbuffer/ws"
)

// Schemes lists the URI schemes Attach accepts
var Schemes = []string{tcp.Scheme, ws.Scheme, ws.SecureScheme, kafka.Scheme, nats.Scheme, tail.Scheme}

// IsScheme returns if Attach accepts the scheme
func IsScheme(scheme string) bool {
	for _, s := range Schemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// Attach attaches to a ring buffer named by an URI in one of the following
// formats:
//
// tcp://host[:port]/ring
//
//	A ring served by a ring master, port 30000 by default.
//
// ws://host:port/ring/name or wss://host:port/ring/name
//
//	A ring hoisted by a ring server.
//
// kafka://broker1:port1,broker2:port2.../topic[?from=first|last]
//
//	A ring mirrored into a Kafka topic.
//
// nats://host[:port]/subject
//
//	A ring published on a NATS subject.
//
// tail:///path
//
//	A growing file, followed as it's appended to.
func Attach(ctx context.Context, uri string) (api.Channel, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to attach to ring %s: %w", uri, err)
	}

	switch u.Scheme {
	case tcp.Scheme:
		ring := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || ring == "" {
			return nil, fmt.Errorf("failed to attach to ring %s: tcp://host[:port]/ring expected", uri)
		}
		return tcp.Attach(ctx, u.Host, ring)

	case ws.Scheme, ws.SecureScheme:
		if u.Host == "" {
			return nil, fmt.Errorf("failed to attach to ring %s: ws://host:port/ring/name expected", uri)
		}
		return ws.Attach(ctx, uri)

	case kafka.Scheme:
		return kafka.Attach(ctx, uri)

	case nats.Scheme:
		return nats.Attach(ctx, uri)

	case tail.Scheme:
		if (u.Host != "" && u.Host != "localhost") || u.Path == "" { // typical mistake: tail://path instead of tail:///path
			return nil, fmt.Errorf("failed to attach to ring %s: tail:///path expected", uri)
		}
		return tail.Attach(u.Path)

	default:
		return nil, fmt.Errorf("failed to attach to ring %s: one of %s schemes expected", uri, strings.Join(Schemes, ", "))
	}
}
