// Package ws attaches to a ring streamed by a ring server over WebSocket.
//
// The server sends the ring contents as binary messages. Message boundaries
// carry no meaning: the consumer sees one continuous byte stream.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ridge/parallel"
	"github.com/ridge/ringsource/ringbuffer/api"
	"github.com/ridge/ringsource/tcontext"
	"github.com/ridge/ringsource/tlog"
	"github.com/ridge/ringsource/tws"
	"go.uber.org/zap"
)

// Schemes served by this package
const (
	Scheme       = "ws"
	SecureScheme = "wss"
)

type channel struct {
	group       *parallel.Group
	established chan struct{}
	messages    chan []byte
	done        chan struct{} // closed once the session is over; err is set
	err         error

	remainder api.Remainder
	closed    bool
}

// Attach connects to a ring server WebSocket endpoint, such as
// ws://host:port/ring/events, and returns once the connection is
// established
func Attach(ctx context.Context, url string) (api.Channel, error) {
	ctx = tlog.With(ctx, zap.String("ring", url))
	c := &channel{
		group:       parallel.NewGroup(tcontext.Reopen(ctx)),
		established: make(chan struct{}),
		messages:    make(chan []byte),
		done:        make(chan struct{}),
	}
	c.group.Spawn("session", parallel.Exit, func(ctx context.Context) error {
		defer close(c.done)
		c.err = tws.Dial(ctx, url, http.Header{}, tws.StreamerConfig, c.session)
		return c.err
	})

	select {
	case <-c.established:
		tlog.Get(ctx).Debug("Attached to ring")
		return c, nil
	case <-c.done:
		err := c.err
		_ = c.Close()
		if err == nil {
			err = api.ErrClosed
		}
		return nil, fmt.Errorf("failed to attach to ring %s: %w", url, err)
	case <-ctx.Done():
		_ = c.Close()
		return nil, ctx.Err()
	}
}

func (c *channel) session(ctx context.Context, incoming <-chan tws.Message, outgoing chan<- tws.Message) error {
	close(c.established)
	defer close(c.messages)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-incoming:
			if !ok {
				return nil
			}
			if !msg.Binary || len(msg.Data) == 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case c.messages <- msg.Data:
			}
		}
	}
}

func (c *channel) Get(ctx context.Context, p []byte, wait time.Duration) (int, error) {
	if c.closed {
		return 0, api.ErrClosed
	}
	if c.remainder.Len() > 0 {
		return c.remainder.Take(p), nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-timer.C:
		return 0, api.ErrTimeout
	case msg, ok := <-c.messages:
		if ok {
			return c.remainder.Deliver(p, msg), nil
		}
		<-c.done
		if c.err != nil && !errors.Is(c.err, context.Canceled) {
			return 0, fmt.Errorf("ring stream failed: %w", c.err)
		}
		return 0, api.ErrClosed
	}
}

func (c *channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.group.Exit(nil)
	if err := c.group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, c.err) {
		return err
	}
	return nil
}
