// Package nats attaches to a ring published on a NATS subject.
//
// Each NATS message carries a chunk of the ring byte stream. Like a ring
// consumer, the subscriber sees only data published after attaching. The URI
// format is
//
//	nats://host[:port]/subject
package nats

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/ridge/ringsource/ringbuffer/api"
	"github.com/ridge/ringsource/tlog"
	"go.uber.org/zap"
)

// Scheme is the URI scheme served by this package
const Scheme = "nats"

const clientName = "ringsource"

// Location is a parsed nats:// ring URI
type Location struct {
	Server  string // nats://host:port
	Subject string
}

// ParseURI parses a nats:// ring URI
func ParseURI(uri string) (Location, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("failed to parse NATS ring URI %s: %w", uri, err)
	}
	subject := strings.TrimPrefix(u.Path, "/")
	if u.Scheme != Scheme || u.Host == "" || subject == "" || strings.ContainsAny(subject, " \t/") {
		return Location{}, fmt.Errorf("failed to parse NATS ring URI %s: nats://host[:port]/subject expected", uri)
	}
	server := url.URL{Scheme: Scheme, Host: u.Host, User: u.User}
	return Location{Server: server.String(), Subject: subject}, nil
}

type channel struct {
	conn      natsConn
	sub       natsSubscription
	remainder api.Remainder
	closed    bool
}

// Attach subscribes to the subject named by a nats:// URI
func Attach(ctx context.Context, uri string) (api.Channel, error) {
	return attach(ctx, uri, realNATSAPI{})
}

func attach(ctx context.Context, uri string, natsAPI natsAPI) (api.Channel, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	logger := tlog.Get(ctx).With(zap.String("subject", loc.Subject))
	conn, err := natsAPI.Connect(loc.Server,
		nats.Name(clientName),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("Disconnected from NATS", zap.Error(err))
		}),
		nats.ReconnectHandler(func(*nats.Conn) {
			logger.Info("Reconnected to NATS; ring data published meanwhile is lost")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS server %s: %w", loc.Server, err)
	}
	sub, err := conn.SubscribeSync(loc.Subject)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to NATS subject %s: %w", loc.Subject, err)
	}
	logger.Debug("Attached to ring")
	return &channel{conn: conn, sub: sub}, nil
}

func (c *channel) Get(ctx context.Context, p []byte, wait time.Duration) (int, error) {
	if c.closed {
		return 0, api.ErrClosed
	}
	if c.remainder.Len() > 0 {
		return c.remainder.Take(p), nil
	}

	nextCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	for {
		msg, err := c.sub.NextMsgWithContext(nextCtx)
		switch {
		case err == nil:
			if len(msg.Data) == 0 {
				continue
			}
			return c.remainder.Deliver(p, msg.Data), nil
		case ctx.Err() != nil:
			return 0, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
			return 0, api.ErrTimeout
		case errors.Is(err, nats.ErrConnectionClosed), errors.Is(err, nats.ErrBadSubscription):
			return 0, api.ErrClosed
		default:
			// slow consumer: messages were dropped
			return 0, fmt.Errorf("failed to receive ring data from NATS: %w", err)
		}
	}
}

func (c *channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.sub.Unsubscribe()
	c.conn.Close()
	if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubscription) {
		return nil
	}
	return err
}
