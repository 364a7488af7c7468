package ringmirror

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/ridge/ringsource/framer"
	"github.com/ridge/ringsource/ringitem"
	"github.com/ridge/ringsource/source/file"
	"github.com/ridge/ringsource/test"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testStream(n int) ([]ringitem.Record, []byte) {
	var records []ringitem.Record
	var b []byte
	for i := 0; i < n; i++ {
		rec := ringitem.Record{
			Type:       ringitem.PhysicsEvent,
			BodyHeader: &ringitem.BodyHeader{Timestamp: uint64(i), SourceID: 1},
			Payload:    bytes.Repeat([]byte{byte(i)}, i%50),
		}
		records = append(records, rec)
		b = rec.AppendTo(b)
	}
	return records, b
}

type collectingSink struct {
	chunks [][]byte
	closed bool
}

func (s *collectingSink) Write(ctx context.Context, chunks [][]byte) error {
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *collectingSink) Close() error {
	s.closed = true
	return nil
}

func TestMirror(t *testing.T) {
	ctx := test.Context(t)
	records, b := testStream(200)

	var sink collectingSink
	f := framer.New(file.New(bytes.NewReader(b), "test"), framer.Config{})
	require.NoError(t, Mirror(ctx, f, &sink, 1000))

	require.Equal(t, b, bytes.Join(sink.chunks, nil))
	var mirrored []ringitem.Record
	for _, chunk := range sink.chunks {
		require.LessOrEqual(t, len(chunk), 1000)
		// every chunk holds whole records
		cf := framer.New(file.New(bytes.NewReader(chunk), "chunk"), framer.Config{})
		for {
			rec, err := cf.Next(ctx)
			if err != nil {
				require.Nil(t, cf.Truncation())
				break
			}
			mirrored = append(mirrored, rec)
		}
	}
	require.Equal(t, records, mirrored)
}

func TestMirrorLargeRecord(t *testing.T) {
	rec := ringitem.Record{Type: ringitem.PhysicsEvent, Payload: make([]byte, 5000)}

	var sink collectingSink
	f := framer.New(file.New(bytes.NewReader(rec.Marshal()), "test"), framer.Config{})
	require.NoError(t, Mirror(test.Context(t), f, &sink, 1000))
	require.Equal(t, [][]byte{rec.Marshal()}, sink.chunks)
}

type failingSink struct{}

func (failingSink) Write(ctx context.Context, chunks [][]byte) error {
	return errors.New("broker unavailable")
}

func (failingSink) Close() error {
	return nil
}

func TestMirrorSinkFailure(t *testing.T) {
	_, b := testStream(10)
	f := framer.New(file.New(bytes.NewReader(b), "test"), framer.Config{})
	err := Mirror(test.Context(t), f, failingSink{}, 0)
	require.ErrorContains(t, err, "broker unavailable")
}

type mockKafkaConn struct {
	mock.Mock
}

func (m *mockKafkaConn) Close() error {
	return m.Called().Error(0)
}

func (m *mockKafkaConn) SetDeadline(t time.Time) error {
	return nil
}

func (m *mockKafkaConn) WriteMessages(batch ...kafka.Message) (int, error) {
	args := m.Called(batch)
	return args.Int(0), args.Error(1)
}

type mockKafkaAPI struct {
	conn  mockKafkaConn
	dials int
	addr  string
	topic string
}

func (m *mockKafkaAPI) DialLeader(ctx context.Context, network string, address string, topic string, partition int) (kafkaConn, error) {
	m.dials++
	m.addr = address
	m.topic = topic
	return &m.conn, nil
}

func TestKafkaSink(t *testing.T) {
	ctx := test.Context(t)
	var m mockKafkaAPI
	m.conn.On("WriteMessages", []kafka.Message{{Value: []byte{1}}, {Value: []byte{2, 3}}}).Return(0, kafka.RequestTimedOut).Once()
	m.conn.On("Close").Return(nil).Twice()
	m.conn.On("WriteMessages", []kafka.Message{{Value: []byte{1}}, {Value: []byte{2, 3}}}).Return(2, nil).Once()

	sink, err := openSink(ctx, "kafka://broker-1:9092,broker-2:9092/events", &m, nil)
	require.NoError(t, err)

	require.NoError(t, sink.Write(ctx, [][]byte{{1}, {2, 3}}))
	require.Equal(t, 2, m.dials, "connection must be reestablished after a failure")
	require.Equal(t, "broker-1:9092", m.addr)
	require.Equal(t, "events", m.topic)

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
	m.conn.AssertExpectations(t)
}

type mockNATSConn struct {
	published [][]byte
	subject   string
	flushes   int
	closed    bool
}

func (m *mockNATSConn) Publish(subject string, data []byte) error {
	m.subject = subject
	m.published = append(m.published, data)
	return nil
}

func (m *mockNATSConn) FlushWithContext(ctx context.Context) error {
	m.flushes++
	return nil
}

func (m *mockNATSConn) Close() {
	m.closed = true
}

type mockNATSAPI struct {
	conn mockNATSConn
	url  string
}

func (m *mockNATSAPI) Connect(url string, options ...nats.Option) (natsConn, error) {
	m.url = url
	return &m.conn, nil
}

func TestNATSSink(t *testing.T) {
	ctx := test.Context(t)
	var m mockNATSAPI

	sink, err := openSink(ctx, "nats://localhost:4222/rings.events", nil, &m)
	require.NoError(t, err)
	require.Equal(t, "nats://localhost:4222", m.url)

	require.NoError(t, sink.Write(ctx, [][]byte{{1}, {2, 3}}))
	require.Equal(t, "rings.events", m.conn.subject)
	require.Equal(t, [][]byte{{1}, {2, 3}}, m.conn.published)
	require.Equal(t, 1, m.conn.flushes)

	require.NoError(t, sink.Close())
	require.True(t, m.conn.closed)
}

func TestOpenSinkInvalid(t *testing.T) {
	ctx := test.Context(t)
	for _, uri := range []string{
		"file:///tmp/ring",
		"kafka://broker/events",
		"nats://localhost:4222",
		"://",
	} {
		_, err := openSink(ctx, uri, nil, nil)
		require.Error(t, err, uri)
	}
}
