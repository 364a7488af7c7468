// Package ringdump is the ringdump tool: it reads ring items from any ring
// source and logs them.
package ringdump

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ridge/ringsource"
	"github.com/ridge/ringsource/framer"
	"github.com/ridge/ringsource/run"
	"github.com/ridge/ringsource/source"
	"github.com/ridge/ringsource/tlog"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// Config contains the dump parameters
type Config struct {
	URI     string
	Source  ringsource.Config
	Skip    uint64 // records to skip before logging
	Count   uint64 // records to log; 0 for all
	Payload bool   // log payloads in hex
}

// Summary describes a finished dump
type Summary struct {
	Records    uint64 // records read, skipped included
	Logged     uint64
	Bytes      uint64
	Truncation *framer.Truncation
}

func (s Summary) String() string {
	str := fmt.Sprintf("%d records (%d logged), %d bytes", s.Records, s.Logged, s.Bytes)
	switch {
	case s.Truncation == nil:
	case s.Truncation.TooLarge:
		str += fmt.Sprintf("; stopped at a record of %d bytes: %v", s.Truncation.Length, s.Truncation.Err())
	default:
		str += fmt.Sprintf("; incomplete trailing record: %d of %d bytes", s.Truncation.Pending, s.Truncation.Length)
	}
	return str
}

// Main handles the command line and runs the tool
func Main(args []string) {
	run.Tool(func(ctx context.Context) error {
		var config Config
		pflag.StringVar(&config.URI, "source", "", "ring source URI (file:///path, file://-, tcp://host/ring, ws://host:port/ring/name, ...)")
		pflag.DurationVar(&config.Source.Wait, "wait", time.Second, "bound on a single wait for live ring data")
		pflag.IntVar(&config.Source.BufferSize, "buffer", framer.DefaultBufferSize, "initial framer buffer size")
		pflag.Uint64Var(&config.Skip, "skip", 0, "records to skip")
		pflag.Uint64Var(&config.Count, "count", 0, "records to dump, 0 for all")
		pflag.BoolVar(&config.Payload, "payload", false, "log payloads in hex")
		if err := pflag.CommandLine.Parse(args[1:]); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				return nil
			}
			return err
		}
		if config.URI == "" {
			return errors.New("--source is required")
		}

		summary, err := Dump(ctx, config)
		fmt.Fprintln(os.Stdout, summary)
		return err
	})
}

// Dump reads records from the source and logs them
func Dump(ctx context.Context, config Config) (summary Summary, err error) {
	ctx = tlog.With(ctx, zap.String("source", config.URI))
	logger := tlog.Get(ctx)

	f, err := ringsource.Open(ctx, config.URI, config.Source)
	if err != nil {
		return Summary{}, err
	}
	defer f.Close()

	defer func() {
		summary.Records = f.Records()
		summary.Bytes = f.Bytes()
		summary.Truncation = f.Truncation()
	}()

	for config.Count == 0 || summary.Logged < config.Count {
		rec, err := f.Next(ctx)
		if errors.Is(err, source.ErrExhausted) {
			return summary, nil
		}
		if err != nil {
			return summary, err
		}
		if f.Records() <= config.Skip {
			continue
		}

		fields := []zap.Field{zap.Uint64("index", f.Records()-1), zap.Object("record", rec)}
		if config.Payload {
			fields = append(fields, zap.String("payload", hex.EncodeToString(rec.Payload)))
		}
		logger.Info("Record", fields...)
		summary.Logged++
	}
	return summary, nil
}
