package ringitem

import "go.uber.org/zap/zapcore"

// MarshalLogObject implements zapcore.ObjectMarshaler to allow logging of
// BodyHeader with zap.Object
func (h BodyHeader) MarshalLogObject(e zapcore.ObjectEncoder) error {
	e.AddUint64("timestamp", h.Timestamp)
	e.AddUint32("sourceID", h.SourceID)
	e.AddUint32("barrierType", h.BarrierType)
	return nil
}

// MarshalLogObject implements zapcore.ObjectMarshaler to allow logging of
// Record with zap.Object. The payload is summarized by its length.
func (r Record) MarshalLogObject(e zapcore.ObjectEncoder) error {
	e.AddUint32("type", uint32(r.Type))
	e.AddString("typeName", r.Type.String())
	e.AddInt("size", r.Size())
	if r.BodyHeader != nil {
		if err := e.AddObject("bodyHeader", *r.BodyHeader); err != nil {
			return err
		}
	}
	e.AddInt("payloadLen", len(r.Payload))
	return nil
}
