// Package ringbuffer contains live ring buffer clients.
//
// The actual client code is in the subpackages, one per transport: ring
// masters, ring servers, and the brokers rings are mirrored into. The package
// itself is a façade that reexports certain symbols from its subpackages.
// Most non-testing code outside ringbuffer should not import these
// subpackages directly.
package ringbuffer
