// Package framer reassembles ring item records from a byte source.
//
// The source may deliver bytes in chunks of any size: records straddling
// chunk boundaries are accumulated in a buffer owned by the framer until
// complete. Only as many bytes are pulled from the source as the next record
// needs.
package framer

import (
	"context"
	"errors"
	"fmt"

	"github.com/ridge/ringsource/ringitem"
	"github.com/ridge/ringsource/source/api"
	"github.com/ridge/ringsource/tlog"
	"go.uber.org/zap"
)

const (
	// DefaultBufferSize is the default initial buffer size
	DefaultBufferSize = 1 << 20

	// DefaultMaxRecordSize is the default limit on the declared record length
	DefaultMaxRecordSize = 256 << 20
)

// ErrTooLarge is the reason reported by Truncation.Err when a record
// declares a length above Config.MaxRecordSize
var ErrTooLarge = errors.New("ring item too large")

// Config is the framer configuration
type Config struct {
	// BufferSize is the initial buffer size. The buffer grows when a record
	// doesn't fit. DefaultBufferSize if zero.
	BufferSize int

	// MaxRecordSize limits the declared record length. DefaultMaxRecordSize
	// if zero.
	MaxRecordSize int
}

// Truncation describes the incomplete record left when the stream ended
type Truncation struct {
	// Pending is the number of bytes received for the record
	Pending int

	// Length is the declared total length; zero if fewer than
	// ringitem.LengthSize bytes were received
	Length uint32

	// TooLarge is set if the stream was cut at a record declaring a length
	// above Config.MaxRecordSize rather than by the source ending
	TooLarge bool
}

// Err returns ErrTooLarge if the record was too large, nil otherwise
func (t *Truncation) Err() error {
	if t.TooLarge {
		return ErrTooLarge
	}
	return nil
}

// Framer splits the byte stream of a source into records.
//
// A Framer has a single reader: Next and Close must not be called
// concurrently.
type Framer struct {
	src     api.Source
	maxSize int

	buf    []byte
	cursor int // start of unconsumed bytes
	filled int // end of valid bytes

	exhausted  bool  // source reported the end
	err        error // sticky result of Next once the stream is over
	truncation *Truncation
	closed     bool

	records uint64
	bytes   uint64
}

// New creates a Framer reading from src. The Framer owns src and closes it
// once the stream is over.
func New(src api.Source, config Config) *Framer {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultBufferSize
	}
	if config.MaxRecordSize <= 0 {
		config.MaxRecordSize = DefaultMaxRecordSize
	}
	if config.BufferSize < ringitem.LengthSize {
		config.BufferSize = ringitem.LengthSize
	}
	return &Framer{
		src:     src,
		maxSize: config.MaxRecordSize,
		buf:     make([]byte, config.BufferSize),
	}
}

// Next returns the next record, blocking until it's complete.
//
// Returns api.ErrExhausted (io.EOF) once the source has ended; bytes of an
// incomplete trailing record are dropped, see Truncation. A record declaring
// a length above Config.MaxRecordSize can never complete, so it ends the
// stream the same way. The context error
// is returned if ctx is closed while waiting; the framer stays usable.
func (f *Framer) Next(ctx context.Context) (ringitem.Record, error) {
	if f.err != nil {
		return ringitem.Record{}, f.err
	}

	ok, err := f.ensure(ctx, ringitem.LengthSize)
	if err != nil {
		return ringitem.Record{}, err
	}
	if !ok {
		return ringitem.Record{}, f.end(ctx)
	}

	length, _ := ringitem.PeekLength(f.buf[f.cursor:f.filled])
	switch {
	case length < ringitem.MinSize:
		return ringitem.Record{}, f.fail(ctx, fmt.Errorf("failed to frame record at byte %d: declared length %d: %w", f.offset(), length, ringitem.ErrTooShort))
	case uint64(length) > uint64(f.maxSize):
		tlog.Get(ctx).Warn("Record exceeds the size limit, ending the stream", zap.Uint64("offset", f.offset()),
			zap.Uint32("length", length), zap.Int("limit", f.maxSize), zap.Error(ErrTooLarge))
		f.truncation = &Truncation{Pending: f.filled - f.cursor, Length: length, TooLarge: true}
		return ringitem.Record{}, f.end(ctx)
	}

	ok, err = f.ensure(ctx, int(length))
	if err != nil {
		return ringitem.Record{}, err
	}
	if !ok {
		return ringitem.Record{}, f.end(ctx)
	}

	rec, err := ringitem.Decode(f.buf[f.cursor:f.filled])
	if err != nil {
		return ringitem.Record{}, f.fail(ctx, fmt.Errorf("failed to frame record at byte %d: %w", f.offset(), err))
	}
	f.cursor += int(length)
	f.records++
	return rec, nil
}

// ensure refills until n unconsumed bytes are available. Returns false if
// the source ends first.
func (f *Framer) ensure(ctx context.Context, n int) (bool, error) {
	for f.filled-f.cursor < n {
		if f.exhausted {
			return false, nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if err := f.refill(ctx, n); err != nil {
			return false, err
		}
	}
	return true, nil
}

// refill moves the unconsumed bytes to the start of the buffer, growing it
// if n bytes wouldn't fit, and reads from the source into the free space
func (f *Framer) refill(ctx context.Context, n int) error {
	if f.cursor > 0 {
		f.filled = copy(f.buf, f.buf[f.cursor:f.filled])
		f.cursor = 0
	}
	if n > len(f.buf) {
		size := 2 * len(f.buf)
		if size < n {
			size = n
		}
		if size > f.maxSize {
			size = f.maxSize
		}
		buf := make([]byte, size)
		copy(buf, f.buf[:f.filled])
		f.buf = buf
	}

	read, err := f.src.Fill(ctx, f.buf[f.filled:])
	f.filled += read
	f.bytes += uint64(read)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, api.ErrExhausted):
		f.exhausted = true
		return nil
	default:
		return err
	}
}

// offset returns the stream offset of the cursor
func (f *Framer) offset() uint64 {
	return f.bytes - uint64(f.filled-f.cursor)
}

func (f *Framer) end(ctx context.Context) error {
	logger := tlog.Get(ctx)
	if pending := f.filled - f.cursor; pending > 0 && f.truncation == nil {
		f.truncation = &Truncation{Pending: pending}
		if length, ok := ringitem.PeekLength(f.buf[f.cursor:f.filled]); ok {
			f.truncation.Length = length
		}
		logger.Warn("Source ended inside a record", zap.Uint64("offset", f.offset()),
			zap.Int("pending", pending), zap.Uint32("length", f.truncation.Length))
	}
	logger.Debug("Source exhausted", zap.Uint64("records", f.records), zap.Uint64("bytes", f.bytes))
	f.err = api.ErrExhausted
	f.release(ctx)
	return f.err
}

func (f *Framer) fail(ctx context.Context, err error) error {
	tlog.Get(ctx).Error("Stream is corrupt", zap.Error(err))
	f.err = err
	f.release(ctx)
	return err
}

func (f *Framer) release(ctx context.Context) {
	f.closed = true
	f.buf = nil
	f.cursor, f.filled = 0, 0
	if err := f.src.Close(); err != nil {
		tlog.Get(ctx).Warn("Failed to close source", zap.Error(err))
	}
}

// Truncation returns the incomplete trailing record dropped when the source
// ended, or nil if the stream ended on a record boundary
func (f *Framer) Truncation() *Truncation {
	return f.truncation
}

// Records returns the number of records returned so far
func (f *Framer) Records() uint64 {
	return f.records
}

// Bytes returns the number of bytes read from the source so far
func (f *Framer) Bytes() uint64 {
	return f.bytes
}

// Close closes the source. Next returns api.ErrExhausted afterwards. Close is
// idempotent.
func (f *Framer) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.err == nil {
		f.err = api.ErrExhausted
	}
	f.buf = nil
	f.cursor, f.filled = 0, 0
	return f.src.Close()
}
