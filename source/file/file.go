// Package file is the finite byte source: a regular file or standard input.
//
// Normally, outside the source packages, you shouldn't import this package
// directly. Use source.Open to pick the adapter by URI scheme.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/ridge/ringsource/source/api"
	"github.com/ridge/ringsource/tlog"
	"go.uber.org/zap"
)

// Scheme is the URI scheme served by this package
const Scheme = "file"

// Stdin is the path standing for standard input
const Stdin = "-"

// Source reads a finite byte stream
type Source struct {
	name      string
	r         io.Reader
	c         io.Closer // nil for readers the source doesn't own
	exhausted bool
}

// Open opens the file named by a file:// URI. The path "-" (file://-)
// selects standard input.
func Open(uri string) (*Source, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open file source: %w", err)
	}
	if u.Scheme != Scheme {
		return nil, fmt.Errorf("failed to open file source %s: %w (file://... expected)", uri, api.ErrSchemeMismatch)
	}

	switch {
	case u.Host == Stdin && u.Path == "":
		return New(os.Stdin, "stdin"), nil
	case u.Host != "" && u.Host != "localhost", u.Path == "": // typical mistake: file://path instead of file:///path
		return nil, fmt.Errorf("failed to open file source %s: file:///path or file://- expected", uri)
	}
	path := u.Path

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file source: %w", err)
	}
	return &Source{name: path, r: f, c: f}, nil
}

// New wraps a reader. The reader is not closed by Close.
func New(r io.Reader, name string) *Source {
	return &Source{name: name, r: r}
}

// Fill implements api.Source.
//
// Reads are repeated until p is full or the stream ends. Read errors are
// logged and end the stream.
func (s *Source) Fill(ctx context.Context, p []byte) (int, error) {
	if s.exhausted {
		return 0, api.ErrExhausted
	}

	var n int
	for n < len(p) {
		m, err := s.r.Read(p[n:])
		n += m
		if err != nil {
			if !errors.Is(err, io.EOF) {
				tlog.Get(ctx).Error("Failed to read file source", zap.String("file", s.name), zap.Error(err))
			}
			s.exhausted = true
			return n, api.ErrExhausted
		}
		if m == 0 {
			s.exhausted = true
			return n, api.ErrExhausted
		}
	}
	return n, nil
}

// Close implements api.Source
func (s *Source) Close() error {
	s.exhausted = true
	if s.c == nil {
		return nil
	}
	c := s.c
	s.c = nil
	if err := c.Close(); err != nil {
		return fmt.Errorf("failed to close file source %s: %w", s.name, err)
	}
	return nil
}
