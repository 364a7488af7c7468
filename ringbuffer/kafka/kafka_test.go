package kafka

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ridge/ringsource/ringbuffer/api"
	"github.com/ridge/ringsource/test"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(kafka.Message), args.Error(1)
}

func (m *mockReader) Close() error {
	return m.Called().Error(0)
}

func (m *mockReader) SetOffset(offset int64) error {
	return m.Called(offset).Error(0)
}

type mockAPI struct {
	reader mockReader
	config kafka.ReaderConfig
}

func (m *mockAPI) NewReader(config kafka.ReaderConfig) kafkaReader {
	m.config = config
	return &m.reader
}

func matchAny() any {
	return mock.MatchedBy(func(any) bool {
		return true
	})
}

func TestParseURI(t *testing.T) {
	loc, err := ParseURI("kafka://localhost:9092,kafka-2.local:9093/events")
	require.NoError(t, err)
	require.Equal(t, Location{
		Brokers: []string{"localhost:9092", "kafka-2.local:9093"},
		Topic:   "events",
		Offset:  kafka.LastOffset,
	}, loc)

	loc, err = ParseURI("kafka://localhost:9092/events?from=first")
	require.NoError(t, err)
	require.Equal(t, kafka.FirstOffset, loc.Offset)

	for _, uri := range []string{
		"kafka://localhost/events",
		"kafka://localhost:9092",
		"kafka://localhost:9092/a/b",
		"kafka://localhost:9092/events?from=middle",
		"tcp://localhost:9092/events",
	} {
		_, err := ParseURI(uri)
		require.Error(t, err, uri)
	}
}

func TestGet(t *testing.T) {
	ctx := test.Context(t)

	var m mockAPI
	m.reader.On("SetOffset", kafka.FirstOffset).Return(nil).Once()
	m.reader.On("FetchMessage", matchAny()).Return(kafka.Message{Value: []byte{1, 2, 3, 4}}, nil).Once()
	m.reader.On("FetchMessage", matchAny()).Return(kafka.Message{}, nil).Once()
	m.reader.On("FetchMessage", matchAny()).Return(kafka.Message{Value: []byte{5}}, nil).Once()
	m.reader.On("FetchMessage", matchAny()).Return(kafka.Message{}, context.DeadlineExceeded).Once()
	m.reader.On("FetchMessage", matchAny()).Return(kafka.Message{}, io.EOF).Once()
	m.reader.On("Close").Return(nil).Once()

	ch, err := attach(ctx, "kafka://localhost:9092/events?from=first", &m)
	require.NoError(t, err)
	require.Equal(t, []string{"localhost:9092"}, m.config.Brokers)
	require.Equal(t, "events", m.config.Topic)

	p := make([]byte, 3)
	n, err := ch.Get(ctx, p, time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, p[:n])

	n, err = ch.Get(ctx, p, time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte{4}, p[:n])

	n, err = ch.Get(ctx, p, time.Second)
	require.NoError(t, err)
	require.Equal(t, []byte{5}, p[:n])

	_, err = ch.Get(ctx, p, time.Second)
	require.ErrorIs(t, err, api.ErrTimeout)

	_, err = ch.Get(ctx, p, time.Second)
	require.ErrorIs(t, err, api.ErrClosed)

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	_, err = ch.Get(ctx, p, time.Second)
	require.ErrorIs(t, err, api.ErrClosed)

	m.reader.AssertExpectations(t)
}

func TestGetCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(test.Context(t))

	var m mockAPI
	m.reader.On("SetOffset", kafka.LastOffset).Return(nil).Once()
	m.reader.On("FetchMessage", matchAny()).Return(kafka.Message{}, context.Canceled).Once()

	ch, err := attach(ctx, "kafka://localhost:9092/events", &m)
	require.NoError(t, err)

	cancel()
	_, err = ch.Get(ctx, make([]byte, 1), time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAttachFailure(t *testing.T) {
	var m mockAPI
	m.reader.On("SetOffset", kafka.LastOffset).Return(errors.New("boom")).Once()
	m.reader.On("Close").Return(nil).Once()

	_, err := attach(test.Context(t), "kafka://localhost:9092/events", &m)
	require.Error(t, err)
	m.reader.AssertExpectations(t)
}
