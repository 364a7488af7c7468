package ringitem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPeekLength(t *testing.T) {
	length, ok := PeekLength([]byte{0x0c, 0x00, 0x00, 0x00, 0xff})
	require.True(t, ok)
	require.Equal(t, uint32(12), length)

	_, ok = PeekLength([]byte{0x0c, 0x00, 0x00})
	require.False(t, ok)
}

func TestDecodeNoBodyHeader(t *testing.T) {
	b := []byte{
		0x0e, 0x00, 0x00, 0x00, // total length 14
		0x01, 0x00, 0x00, 0x00, // BEGIN_RUN
		0x00, 0x00, 0x00, 0x00, // no body header
		0xaa, 0xbb,
		0xcc, // beyond the record
	}
	rec, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, Record{Type: BeginRun, Payload: []byte{0xaa, 0xbb}}, rec)
	require.Equal(t, 14, rec.Size())

	b[12] = 0x00
	require.Equal(t, []byte{0xaa, 0xbb}, rec.Payload, "payload must not alias the input")
}

func TestDecodeMarkerOnly(t *testing.T) {
	b := []byte{
		0x0c, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0xaa, 0xbb,
	}
	rec, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, Type(1), rec.Type)
	require.Nil(t, rec.BodyHeader)
	require.Empty(t, rec.Payload)
	require.Equal(t, 12, rec.Size())
}

func TestDecodeBodyHeader(t *testing.T) {
	b := []byte{
		0x1e, 0x00, 0x00, 0x00, // total length 30
		0x1e, 0x00, 0x00, 0x00, // PHYSICS_EVENT
		0x14, 0x00, 0x00, 0x00, // body header follows
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01, // timestamp
		0x02, 0x00, 0x00, 0x00, // source id
		0x03, 0x00, 0x00, 0x00, // barrier type
		0xaa, 0xbb,
	}
	rec, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, Record{
		Type: PhysicsEvent,
		BodyHeader: &BodyHeader{
			Timestamp:   0x0102030405060708,
			SourceID:    2,
			BarrierType: 3,
		},
		Payload: []byte{0xaa, 0xbb},
	}, rec)
	require.Equal(t, b, rec.Marshal())
}

func TestDecodeOtherMarkers(t *testing.T) {
	for _, marker := range []byte{4, 16, 19, 21, 0xff} {
		b := []byte{
			0x14, 0x00, 0x00, 0x00, // total length 20
			0x1e, 0x00, 0x00, 0x00,
			marker, 0x00, 0x00, 0x00,
			1, 2, 3, 4, 5, 6, 7, 8,
		}
		rec, err := Decode(b)
		require.NoError(t, err)
		require.Nil(t, rec.BodyHeader, "marker %d", marker)
		require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, rec.Payload, "marker %d", marker)
	}
}

func TestDecodeBodyHeaderMarkerTooShort(t *testing.T) {
	b := []byte{
		0x10, 0x00, 0x00, 0x00, // total length 16 cannot hold a body header
		0x1e, 0x00, 0x00, 0x00,
		0x14, 0x00, 0x00, 0x00,
		1, 2, 3, 4,
	}
	rec, err := Decode(b)
	require.NoError(t, err)
	require.Nil(t, rec.BodyHeader)
	require.Equal(t, []byte{1, 2, 3, 4}, rec.Payload)
}

func TestDecodeMinimal(t *testing.T) {
	rec, err := Decode([]byte{0x08, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x14, 0x00})
	require.NoError(t, err)
	require.Equal(t, Record{Type: EndRun, Payload: []byte{}}, rec)
	require.Equal(t, 12, rec.Size(), "re-encoded with a marker")
	require.Len(t, rec.Marshal(), 12)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte{0x07, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00})
	require.ErrorIs(t, err, ErrTooShort)

	_, err = Decode([]byte{0x10, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00})
	require.ErrorIs(t, err, ErrIncomplete)

	_, err = Decode([]byte{0x10})
	require.ErrorIs(t, err, ErrIncomplete)
}

func TestRoundTrip(t *testing.T) {
	records := []Record{
		{Type: RingFormat, Payload: []byte{0x0c, 0x00, 0x00, 0x00}},
		{Type: BeginRun, BodyHeader: &BodyHeader{Timestamp: 42, SourceID: 1, BarrierType: 1}, Payload: []byte("run 1")},
		{Type: PhysicsEvent, Payload: []byte{}},
		{Type: FirstUserItemCode + 5, BodyHeader: &BodyHeader{}, Payload: []byte{0xff}},
	}

	var b []byte
	for _, r := range records {
		b = r.AppendTo(b)
	}

	var decoded []Record
	for len(b) > 0 {
		length, ok := PeekLength(b)
		require.True(t, ok)
		rec, err := Decode(b)
		require.NoError(t, err)
		decoded = append(decoded, rec)
		b = b[length:]
	}
	require.Equal(t, records, decoded)
}

func TestTypeString(t *testing.T) {
	require.Equal(t, "PHYSICS_EVENT", PhysicsEvent.String())
	require.Equal(t, "USER_ITEM+3", (FirstUserItemCode + 3).String())
	require.Equal(t, "99", Type(99).String())
}
