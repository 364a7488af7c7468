package ringmirror

import (
	"context"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
)

// These are the subsets of the kafka-go and nats.go APIs that we use, defined
// as mockable API

type kafkaAPI interface {
	DialLeader(ctx context.Context, network string, address string, topic string, partition int) (kafkaConn, error)
}

type kafkaConn interface {
	Close() error
	SetDeadline(t time.Time) error
	WriteMessages(batch ...kafka.Message) (int, error)
}

type natsAPI interface {
	Connect(url string, options ...nats.Option) (natsConn, error)
}

type natsConn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

type realKafkaAPI struct{}

func (realKafkaAPI) DialLeader(ctx context.Context, network string, address string, topic string, partition int) (kafkaConn, error) {
	conn, err := kafka.DialLeader(ctx, network, address, topic, partition)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type realNATSAPI struct{}

func (realNATSAPI) Connect(url string, options ...nats.Option) (natsConn, error) {
	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, err
	}
	return nc, nil
}

func shouldRetry(err error) bool {
	if errors.Is(err, kafka.Unknown) {
		return true
	}
	var kerr kafka.Error
	if !errors.As(err, &kerr) {
		return true
	}
	return kerr.Timeout()
}
