package ringbuffer

import (
	"github.com/ridge/ringsource/ringbuffer/api"
	"github.com/ridge/ringsource/ringbuffer/uri"
)

// Channel is an attached consumer of a ring buffer
type Channel = api.Channel

var (
	// ErrTimeout is returned by Channel.Get when no data arrived within the wait
	ErrTimeout = api.ErrTimeout

	// ErrClosed is returned by Channel.Get after the channel is closed
	ErrClosed = api.ErrClosed

	// ErrContinuityBroken is returned by Channel.Get when the ring disappears
	ErrContinuityBroken = api.ErrContinuityBroken
)

// Schemes lists the URI schemes Attach accepts
var Schemes = uri.Schemes

// Attach attaches to a ring buffer named by an URI
var Attach = uri.Attach

// IsScheme returns if Attach accepts the scheme
var IsScheme = uri.IsScheme
