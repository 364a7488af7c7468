// Package tcp attaches to a ring served by a ring master over TCP.
//
// The consumer connects to the ring master, asks for the ring with
//
//	REMOTE <ring>\n
//
// and, once the ring master answers "OK BINARY FOLLOWS", receives the ring
// contents as a raw byte stream.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/ridge/ringsource/retry"
	"github.com/ridge/ringsource/ringbuffer/api"
	"github.com/ridge/ringsource/tlog"
	"github.com/ridge/ringsource/tnet"
	"go.uber.org/zap"
)

// Scheme is the URI scheme served by this package
const Scheme = "tcp"

// DefaultPort is the ring master port used when the URI doesn't name one
const DefaultPort = 30000

const (
	handshakeTimeout = 10 * time.Second
	okReply          = "OK BINARY FOLLOWS"
)

var attachRetry = retry.ExpConfig{Min: 250 * time.Millisecond, Max: 2 * time.Second, Scale: 2.0, MaxAttempts: 4}

type channel struct {
	conn   net.Conn
	r      *bufio.Reader
	closed bool
}

// Attach connects to the ring master at host (host or host:port) and
// requests the named ring
func Attach(ctx context.Context, host, ring string) (api.Channel, error) {
	if ring == "" || strings.ContainsAny(ring, " \r\n/") {
		return nil, fmt.Errorf("invalid ring name %q", ring)
	}
	addr := host
	if _, _, err := net.SplitHostPort(host); err != nil {
		addr = net.JoinHostPort(host, strconv.Itoa(DefaultPort))
	}

	ctx = tlog.With(ctx, zap.String("ringMaster", addr), zap.String("ring", ring))
	conn, err := retry.Do1(ctx, attachRetry, func() (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, tnet.MaybeRetriableError(fmt.Errorf("failed to connect to ring master %s: %w", addr, err))
		}
		return conn, nil
	})
	if err != nil {
		return nil, err
	}

	r, err := handshake(conn, ring)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to request ring %s from %s: %w", ring, addr, err)
	}
	tlog.Get(ctx).Debug("Attached to ring")
	return &channel{conn: conn, r: r}, nil
}

func handshake(conn net.Conn, ring string) (*bufio.Reader, error) {
	if err := conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return nil, err
	}
	if _, err := io.WriteString(conn, "REMOTE "+ring+"\n"); err != nil {
		return nil, err
	}
	r := bufio.NewReader(conn)
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if reply := strings.TrimRight(line, "\r\n"); reply != okReply {
		return nil, fmt.Errorf("ring master refused: %s", reply)
	}
	return r, conn.SetDeadline(time.Time{})
}

func (c *channel) Get(ctx context.Context, p []byte, wait time.Duration) (int, error) {
	if c.closed {
		return 0, api.ErrClosed
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(wait)); err != nil {
		return 0, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	n, err := c.r.Read(p)
	switch {
	case n > 0:
		return n, nil
	case ctx.Err() != nil:
		return 0, ctx.Err()
	case tnet.IsTimeout(err):
		return 0, api.ErrTimeout
	case errors.Is(err, io.EOF), tnet.IsClosedConnectionError(err):
		return 0, api.ErrClosed
	case err != nil:
		return 0, fmt.Errorf("failed to read from ring master: %w", err)
	}
	return 0, api.ErrTimeout
}

func (c *channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return tnet.StripClosedConnectionError(c.conn.Close())
}
