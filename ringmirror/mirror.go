// Package ringmirror is the ringmirror tool: it copies a ring into a Kafka
// topic or a NATS subject, where kafka:// and nats:// ring sources read it.
//
// Records are packed whole into messages of up to Config.BatchBytes, so that
// a message never splits a record unless the record alone exceeds the limit.
package ringmirror

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ridge/parallel"
	"github.com/ridge/ringsource"
	"github.com/ridge/ringsource/framer"
	"github.com/ridge/ringsource/ringitem"
	"github.com/ridge/ringsource/run"
	"github.com/ridge/ringsource/tlog"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// DefaultBatchBytes is the default message size limit
const DefaultBatchBytes = 64 << 10

// maxChunks bounds the number of messages written at once
const maxChunks = 100

// Config describes the mirror tool configuration
type Config struct {
	From, To   string
	Source     ringsource.Config
	BatchBytes int
}

// Main handles the command line and runs the mirror tool
func Main(args []string) {
	var config Config
	pflag.StringVar(&config.From, "from", "", "ring source URI")
	pflag.StringVar(&config.To, "to", "", "destination URI (kafka://... or nats://...)")
	pflag.DurationVar(&config.Source.Wait, "wait", time.Second, "bound on a single wait for live ring data")
	pflag.IntVar(&config.BatchBytes, "batch", DefaultBatchBytes, "message size limit")
	_ = pflag.CommandLine.Parse(args[1:])

	run.Tool(func(ctx context.Context) error {
		if config.From == "" || config.To == "" {
			return errors.New("--from and --to are required")
		}
		return Run(ctx, config)
	})
}

// Run mirrors the ring until the source ends
func Run(ctx context.Context, config Config) error {
	sink, err := OpenSink(ctx, config.To)
	if err != nil {
		return err
	}
	defer sink.Close()

	f, err := ringsource.Open(ctx, config.From, config.Source)
	if err != nil {
		return err
	}
	return Mirror(ctx, f, sink, config.BatchBytes)
}

// Mirror copies the records of f to sink until f is exhausted. f is closed on
// return.
func Mirror(ctx context.Context, f *framer.Framer, sink Sink, batchBytes int) error {
	if batchBytes <= 0 {
		batchBytes = DefaultBatchBytes
	}

	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		logger := tlog.Get(ctx)
		logger.Info("Started mirroring")
		records := make(chan ringitem.Record, maxChunks)

		spawn("reader", parallel.Continue, func(ctx context.Context) error {
			defer close(records)
			err := ringsource.Pump(ctx, f, records)
			if err != nil && ctx.Err() != nil {
				return nil
			}
			return err
		})

		spawn("writer", parallel.Exit, func(ctx context.Context) error {
			var chunk []byte
			var chunks [][]byte
			var n uint64
			flush := func() error {
				if len(chunk) != 0 {
					chunks = append(chunks, chunk)
					chunk = nil
				}
				if len(chunks) == 0 {
					return nil
				}
				if err := sink.Write(ctx, chunks); err != nil {
					return fmt.Errorf("failed to mirror ring: %w", err)
				}
				chunks = nil
				return nil
			}

			for {
				var rec ringitem.Record
				var ok bool
				select {
				case rec, ok = <-records:
				default:
					// nothing pending: don't hold back what we have
					if err := flush(); err != nil {
						return err
					}
					select {
					case <-ctx.Done():
						return ctx.Err()
					case rec, ok = <-records:
					}
				}

				if !ok {
					if err := flush(); err != nil {
						return err
					}
					logger.Info("Finished mirroring", zap.Uint64("records", n))
					return nil
				}

				if len(chunk) != 0 && len(chunk)+rec.Size() > batchBytes {
					chunks = append(chunks, chunk)
					chunk = nil
					if len(chunks) >= maxChunks {
						if err := flush(); err != nil {
							return err
						}
					}
				}
				chunk = rec.AppendTo(chunk)
				n++
			}
		})
		return nil
	})
}
