package source

import (
	"github.com/ridge/ringsource/source/api"
	"github.com/ridge/ringsource/source/live"
	"github.com/ridge/ringsource/source/uri"
)

// Source supplies raw bytes to the framer
type Source = api.Source

// Config is the source configuration
type Config = uri.Config

// LiveConfig is the live source configuration
type LiveConfig = live.Config

// ConnectionError is returned when attaching to a live channel fails
type ConnectionError = api.ConnectionError

var (
	// ErrExhausted is the normal end-of-stream signal
	ErrExhausted = api.ErrExhausted

	// ErrSchemeMismatch is returned when an adapter is opened with an URI of
	// a scheme it doesn't serve
	ErrSchemeMismatch = api.ErrSchemeMismatch

	// ErrNotConnected is returned when a live source is read before it's
	// opened or after it's closed
	ErrNotConnected = api.ErrNotConnected
)

// Open opens the byte source named by an URI
var Open = uri.Open
