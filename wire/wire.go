/*
Package wire - byte-level primitives for the nuke-ms binary protocol

The wire format is little-endian, regardless of host architecture. All
multi-byte integers that travel over the network pass through the helpers
in this package so that every higher layer (msglayer, userid) reads and
writes bytes the same way.

encoding/binary already produces the requested order on every Go
architecture, so there is no host-order detection here: ToWire/FromWire
are named wrappers, not conversions, kept as their own functions so the
wire-order contract is visible at every call site rather than buried in
a binary.LittleEndian.* call.
*/
package wire

import "encoding/binary"

// ByteOrder is the wire byte order used by every layer in this module.
var ByteOrder = binary.LittleEndian

// ToWire16 returns x unchanged; it exists to document that x is now in
// wire order and safe to append to an outbound buffer.
func ToWire16(x uint16) uint16 { return x }

// FromWire16 returns x unchanged; it exists to document that x was read
// out of wire order bytes and is now a host-native value.
func FromWire16(x uint16) uint16 { return x }

// ToWire32 is the 32-bit counterpart of ToWire16.
func ToWire32(x uint32) uint32 { return x }

// FromWire32 is the 32-bit counterpart of FromWire16.
func FromWire32(x uint32) uint32 { return x }

// PutUint16 appends x to dst in wire order and returns the extended slice.
func PutUint16(dst []byte, x uint16) []byte {
	var buf [2]byte
	ByteOrder.PutUint16(buf[:], ToWire16(x))
	return append(dst, buf[:]...)
}

// PutUint32 appends x to dst in wire order and returns the extended slice.
func PutUint32(dst []byte, x uint32) []byte {
	var buf [4]byte
	ByteOrder.PutUint32(buf[:], ToWire32(x))
	return append(dst, buf[:]...)
}

// PutUint64 appends x to dst in wire order and returns the extended slice.
func PutUint64(dst []byte, x uint64) []byte {
	var buf [8]byte
	ByteOrder.PutUint64(buf[:], x)
	return append(dst, buf[:]...)
}

// Uint16 reads a wire-order u16 from the first 2 bytes of src.
func Uint16(src []byte) uint16 { return FromWire16(ByteOrder.Uint16(src)) }

// Uint32 reads a wire-order u32 from the first 4 bytes of src.
func Uint32(src []byte) uint32 { return FromWire32(ByteOrder.Uint32(src)) }

// Uint64 reads a wire-order u64 from the first 8 bytes of src.
func Uint64(src []byte) uint64 { return ByteOrder.Uint64(src) }
