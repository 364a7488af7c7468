package ringmirror

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/ridge/must/v2"
	"github.com/ridge/ringsource/retry"
	ringkafka "github.com/ridge/ringsource/ringbuffer/kafka"
	ringnats "github.com/ridge/ringsource/ringbuffer/nats"
	"github.com/ridge/ringsource/tlog"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const writerTimeout = time.Minute

var writerRetry = retry.ExpConfig{Min: 100 * time.Millisecond, Max: 10 * time.Second, Scale: 2.0, MaxAttempts: 10}

// Sink receives chunks of the ring byte stream. Each chunk holds whole
// records.
type Sink interface {
	Write(ctx context.Context, chunks [][]byte) error
	Close() error
}

// OpenSink opens the sink named by an URI:
//
// kafka://broker1:port1,broker2:port2.../topic
//
//	Partition 0 of a Kafka topic, one chunk per message.
//
// nats://host[:port]/subject
//
//	A NATS subject, one chunk per message.
func OpenSink(ctx context.Context, uri string) (Sink, error) {
	return openSink(ctx, uri, realKafkaAPI{}, realNATSAPI{})
}

func openSink(ctx context.Context, uri string, kafkaAPI kafkaAPI, natsAPI natsAPI) (Sink, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror sink: %w", err)
	}

	switch u.Scheme {
	case ringkafka.Scheme:
		loc, err := ringkafka.ParseURI(uri)
		if err != nil {
			return nil, err
		}
		return &kafkaSink{api: kafkaAPI, brokers: loc.Brokers, topic: loc.Topic}, nil

	case ringnats.Scheme:
		loc, err := ringnats.ParseURI(uri)
		if err != nil {
			return nil, err
		}
		conn, err := natsAPI.Connect(loc.Server, nats.Name("ringmirror"))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS server %s: %w", loc.Server, err)
		}
		tlog.Get(ctx).Debug("Connected to NATS", zap.String("server", loc.Server))
		return &natsSink{conn: conn, subject: loc.Subject}, nil

	default:
		return nil, fmt.Errorf("failed to open mirror sink %s: kafka://... or nats://... expected", uri)
	}
}

type kafkaSink struct {
	api     kafkaAPI
	brokers []string
	topic   string
	conn    kafkaConn // nil until connected and after failures
}

func (s *kafkaSink) Write(ctx context.Context, chunks [][]byte) error {
	if len(chunks) == 0 {
		return nil
	}
	batch := make([]kafka.Message, 0, len(chunks))
	for _, c := range chunks {
		batch = append(batch, kafka.Message{Value: c})
	}

	ctx = tlog.With(ctx, zap.String("topic", s.topic))
	return retry.Do(ctx, writerRetry, func() error {
		if err := s.writeBatch(ctx, batch); err != nil {
			if shouldRetry(err) {
				return retry.Retriable(fmt.Errorf("failed to write Kafka messages: %w", err))
			}
			return err
		}
		return nil
	})
}

func (s *kafkaSink) writeBatch(ctx context.Context, batch []kafka.Message) error {
	ctx, cancel := context.WithTimeout(ctx, writerTimeout)
	defer cancel()

	if s.conn == nil {
		// any broker leads to the leader
		conn, err := s.api.DialLeader(ctx, "tcp", s.brokers[0], s.topic, 0)
		if err != nil {
			return err
		}
		s.conn = conn
	}

	deadline, _ := ctx.Deadline()         // ok is definitely true because of context.WithTimeout
	must.OK(s.conn.SetDeadline(deadline)) // kafka-go always returns nil from conn.SetDeadline

	if _, err := s.conn.WriteMessages(batch...); err != nil {
		_ = s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

func (s *kafkaSink) Close() error {
	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil
	return conn.Close()
}

type natsSink struct {
	conn    natsConn
	subject string
	closed  bool
}

func (s *natsSink) Write(ctx context.Context, chunks [][]byte) error {
	for _, c := range chunks {
		if err := s.conn.Publish(s.subject, c); err != nil {
			return fmt.Errorf("failed to publish to NATS subject %s: %w", s.subject, err)
		}
	}
	if err := s.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to publish to NATS subject %s: %w", s.subject, err)
	}
	return nil
}

func (s *natsSink) Close() error {
	if !s.closed {
		s.closed = true
		s.conn.Close()
	}
	return nil
}
