// Package ringitem contains the ring item record type and the codec for its
// framing header.
//
// On the wire every record starts with a little-endian header:
//
//	offset  size  field
//	0       4     total length of the record, this field included
//	4       4     type tag
//	8       4     body header length: 20 if a body header follows, anything
//	              else means there is none
//	12      8     timestamp      (body header only)
//	20      4     source id      (body header only)
//	24      4     barrier type   (body header only)
//
// The payload occupies the rest of the record.
package ringitem

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// LengthSize is the size of the total length field
	LengthSize = 4

	// MinSize is the smallest valid total length: length and type
	MinSize = 8

	// BodyHeaderSize is the body header length marker value announcing a body
	// header; the body header occupies that many bytes including the marker
	BodyHeaderSize = 20

	markerOffset   = 8
	markerSize     = 4
	noBodyHeader   = markerOffset + markerSize
	withBodyHeader = markerOffset + BodyHeaderSize
)

// ErrTooShort is returned by Decode when the declared total length is below
// MinSize
var ErrTooShort = errors.New("ring item shorter than its header")

// ErrIncomplete is returned by Decode when the window holds fewer bytes than
// the declared total length
var ErrIncomplete = errors.New("ring item incomplete")

// BodyHeader is the optional block carrying event-builder metadata
type BodyHeader struct {
	Timestamp   uint64 `json:"timestamp"`
	SourceID    uint32 `json:"sourceId"`
	BarrierType uint32 `json:"barrierType"`
}

// Record is a single ring item.
//
// A decoded Record owns its payload; it never aliases the buffer it was
// decoded from.
type Record struct {
	Type       Type
	BodyHeader *BodyHeader // nil if the record has none
	Payload    []byte
}

// PeekLength decodes the total length at the start of b without consuming
// anything. ok is false if b is shorter than LengthSize.
func PeekLength(b []byte) (length uint32, ok bool) {
	if len(b) < LengthSize {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// Decode decodes the record at the start of b. b must hold at least the
// declared total length; bytes beyond it are ignored.
//
// Only a marker of exactly BodyHeaderSize announces a body header. A record
// too short to contain the marker has neither body header nor payload.
func Decode(b []byte) (Record, error) {
	length, ok := PeekLength(b)
	if !ok {
		return Record{}, ErrIncomplete
	}
	if length < MinSize {
		return Record{}, fmt.Errorf("failed to decode ring item of length %d: %w", length, ErrTooShort)
	}
	if uint64(len(b)) < uint64(length) {
		return Record{}, fmt.Errorf("failed to decode ring item of length %d from %d bytes: %w", length, len(b), ErrIncomplete)
	}
	b = b[:length]

	rec := Record{Type: Type(binary.LittleEndian.Uint32(b[4:]))}
	if len(b) < noBodyHeader {
		rec.Payload = []byte{}
		return rec, nil
	}

	start := noBodyHeader
	if binary.LittleEndian.Uint32(b[markerOffset:]) == BodyHeaderSize && len(b) >= withBodyHeader {
		rec.BodyHeader = &BodyHeader{
			Timestamp:   binary.LittleEndian.Uint64(b[12:]),
			SourceID:    binary.LittleEndian.Uint32(b[20:]),
			BarrierType: binary.LittleEndian.Uint32(b[24:]),
		}
		start = withBodyHeader
	}

	rec.Payload = make([]byte, len(b)-start)
	copy(rec.Payload, b[start:])
	return rec, nil
}

// HeaderSize returns the number of header bytes the record occupies on the
// wire
func (r Record) HeaderSize() int {
	if r.BodyHeader != nil {
		return withBodyHeader
	}
	return noBodyHeader
}

// Size returns the total length of the encoded record.
//
// A record decoded from fewer than 12 bytes has no marker on the wire, but
// it is encoded with one, so its Size is 12 rather than the length it was
// decoded from.
func (r Record) Size() int {
	return r.HeaderSize() + len(r.Payload)
}

// AppendTo appends the encoded record to b and returns the extended slice.
// A record without a body header is written with a zero marker.
func (r Record) AppendTo(b []byte) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(r.Size()))
	b = binary.LittleEndian.AppendUint32(b, uint32(r.Type))
	if r.BodyHeader == nil {
		b = binary.LittleEndian.AppendUint32(b, 0)
	} else {
		b = binary.LittleEndian.AppendUint32(b, BodyHeaderSize)
		b = binary.LittleEndian.AppendUint64(b, r.BodyHeader.Timestamp)
		b = binary.LittleEndian.AppendUint32(b, r.BodyHeader.SourceID)
		b = binary.LittleEndian.AppendUint32(b, r.BodyHeader.BarrierType)
	}
	return append(b, r.Payload...)
}

// Marshal returns the encoded record
func (r Record) Marshal() []byte {
	return r.AppendTo(make([]byte, 0, r.Size()))
}
