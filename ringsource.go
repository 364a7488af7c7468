package ringsource

import (
	"context"
	"errors"
	"time"

	"github.com/ridge/ringsource/framer"
	"github.com/ridge/ringsource/ringitem"
	"github.com/ridge/ringsource/source"
	"github.com/ridge/ringsource/tlog"
	"go.uber.org/zap"
)

// Config is the ring source configuration. Zero fields take defaults.
type Config struct {
	// BufferSize is the initial framer buffer size
	BufferSize int

	// MaxRecordSize limits the declared record length
	MaxRecordSize int

	// Wait bounds a single wait for live ring data
	Wait time.Duration
}

// Open opens the source named by uri and returns a framer reading it
func Open(ctx context.Context, uri string, config Config) (*framer.Framer, error) {
	src, err := source.Open(ctx, uri, source.Config{Live: source.LiveConfig{Wait: config.Wait}})
	if err != nil {
		return nil, err
	}
	tlog.Get(ctx).Debug("Opened ring source", zap.String("uri", uri))
	return framer.New(src, framer.Config{BufferSize: config.BufferSize, MaxRecordSize: config.MaxRecordSize}), nil
}

// Pump sends the records of f to dest until the source is exhausted, then
// returns nil. f is closed on return.
func Pump(ctx context.Context, f *framer.Framer, dest chan<- ringitem.Record) error {
	defer f.Close()

	for {
		rec, err := f.Next(ctx)
		if errors.Is(err, source.ErrExhausted) {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case dest <- rec:
		}
	}
}
