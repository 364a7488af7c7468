// Package kafka attaches to a ring mirrored into a Kafka topic.
//
// Each Kafka message carries a chunk of the ring byte stream; chunks are
// consumed in offset order from partition 0. The URI format is
//
//	kafka://broker1:port1,broker2:port2/topic[?from=first|last]
//
// from=last, the default, follows only data produced after attaching, the
// way a ring consumer does; from=first replays the whole retained topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ridge/ringsource/ringbuffer/api"
	"github.com/ridge/ringsource/tlog"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Scheme is the URI scheme served by this package
const Scheme = "kafka"

const (
	readerMaxBytes = 1e7
	readerMaxWait  = 500 * time.Millisecond
)

var (
	brokerRE = regexp.MustCompile(`^[-.a-z0-9]+:\d+$`)
	topicRE  = regexp.MustCompile(`^[-._a-zA-Z0-9]+$`)
)

// Location is a parsed kafka:// ring URI
type Location struct {
	Brokers []string
	Topic   string
	Offset  int64 // kafka.FirstOffset or kafka.LastOffset
}

// ParseURI parses a kafka:// ring URI
func ParseURI(uri string) (Location, error) {
	const expected = "kafka://broker1:port1,broker2:port2.../topic[?from=first|last] expected"

	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("failed to parse Kafka ring URI %s: %w", uri, err)
	}
	if u.Scheme != Scheme {
		return Location{}, fmt.Errorf("failed to parse Kafka ring URI %s: %s", uri, expected)
	}

	loc := Location{
		Brokers: strings.Split(u.Host, ","),
		Topic:   strings.TrimPrefix(u.Path, "/"),
		Offset:  kafka.LastOffset,
	}
	for _, b := range loc.Brokers {
		if !brokerRE.MatchString(b) {
			return Location{}, fmt.Errorf("failed to parse Kafka ring URI %s: %s", uri, expected)
		}
	}
	if !topicRE.MatchString(loc.Topic) {
		return Location{}, fmt.Errorf("failed to parse Kafka ring URI %s: %s", uri, expected)
	}
	switch from := u.Query().Get("from"); from {
	case "", "last":
	case "first":
		loc.Offset = kafka.FirstOffset
	default:
		return Location{}, fmt.Errorf("failed to parse Kafka ring URI %s: invalid from=%s, %s", uri, from, expected)
	}
	return loc, nil
}

type channel struct {
	reader    kafkaReader
	remainder api.Remainder
	closed    bool
}

// Attach starts consuming the topic named by a kafka:// URI
func Attach(ctx context.Context, uri string) (api.Channel, error) {
	return attach(ctx, uri, realKafkaAPI{})
}

func attach(ctx context.Context, uri string, kafkaAPI kafkaAPI) (api.Channel, error) {
	loc, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	reader := kafkaAPI.NewReader(kafka.ReaderConfig{
		Brokers:  loc.Brokers,
		Topic:    loc.Topic,
		MinBytes: 1,
		MaxBytes: readerMaxBytes,
		MaxWait:  readerMaxWait,
	})
	if err := reader.SetOffset(loc.Offset); err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("failed to attach to Kafka topic %s: %w", loc.Topic, err)
	}
	tlog.Get(ctx).Debug("Attached to ring", zap.Strings("brokers", loc.Brokers), zap.String("topic", loc.Topic))
	return &channel{reader: reader}, nil
}

func (c *channel) Get(ctx context.Context, p []byte, wait time.Duration) (int, error) {
	if c.closed {
		return 0, api.ErrClosed
	}
	if c.remainder.Len() > 0 {
		return c.remainder.Take(p), nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	for {
		message, err := c.reader.FetchMessage(fetchCtx)
		switch {
		case err == nil:
			if len(message.Value) == 0 {
				continue
			}
			return c.remainder.Deliver(p, message.Value), nil
		case ctx.Err() != nil:
			return 0, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			return 0, api.ErrTimeout
		case errors.Is(err, io.EOF):
			return 0, api.ErrClosed
		default:
			return 0, fmt.Errorf("failed to fetch ring data from Kafka: %w", err)
		}
	}
}

func (c *channel) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.reader.Close()
}
