package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// This is the subset of the kafka-go API that we use, defined as mockable API

type kafkaAPI interface {
	NewReader(config kafka.ReaderConfig) kafkaReader
}

type kafkaReader interface {
	Close() error
	SetOffset(offset int64) error
	FetchMessage(ctx context.Context) (kafka.Message, error)
}

type realKafkaAPI struct{}

func (realKafkaAPI) NewReader(config kafka.ReaderConfig) kafkaReader {
	return kafka.NewReader(config)
}
