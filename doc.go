// Package ringsource reads ring items from files, standard input and live
// ring buffers.
//
// A ring item is a length-prefixed binary record:
//
//	total length  u32  the whole record, this field included
//	type          u32  see ringitem.Type
//	body header   u32  20 if a body header follows, anything else if not
//	[timestamp    u64
//	 source id    u32
//	 barrier type u32]
//	payload
//
// all integers little-endian. A source is named by an URI:
//
//	file:///path/run-0001.evt             a file, read to its end
//	file://-                              standard input, read to its end
//	tcp://spdaq01/events                  a ring on a ring master
//	ws://ringserver:8080/ring/events      a ring hoisted by ringserver
//	kafka://broker:9092/events            a ring mirrored into Kafka
//	nats://nats:4222/rings.events         a ring published on NATS
//	tail:///path/ring.evt                 a growing file
//
// Open returns a framer, which pulls bytes from the source only as needed and
// returns complete records one at a time:
//
//	f, err := ringsource.Open(ctx, "tcp://spdaq01/events", ringsource.Config{})
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	for {
//		rec, err := f.Next(ctx)
//		if errors.Is(err, io.EOF) {
//			return nil
//		}
//		if err != nil {
//			return err
//		}
//		...
//	}
//
// Files end at their last byte. Live rings end only when the channel is
// closed or breaks; until then Next keeps waiting, in bounded steps that let
// the context cancel it.
package ringsource
