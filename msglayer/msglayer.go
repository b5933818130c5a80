/*
Package msglayer - nested binary message layers

When data is sent over the network it travels wrapped in several layers.
The layers compose by containment rather than a single flat header:
SegmentationLayer owns an Inner layer, NearUserMessage owns a
StringwrapLayer.

Every concrete layer implements Layer: Size (exact serialized byte
length), FillSerialized (write exactly Size() bytes), and a
FromSerialized constructor returning one of the sentinel errors below.

The buffer backing an inbound packet is allocated once, when the
segmentation body is read off the wire, and is shared by every layer
parsed from it through SerializedData - each layer hands its inner
layer a view of the same buffer, without copying. Only StringwrapLayer
decodes its code units into a new Go string.
*/
package msglayer

import "errors"

// Sentinel framing errors: named kinds a caller can errors.Is against,
// not opaque strings.
var (
	// ErrInvalidHeader is returned when a layer's fixed header bytes
	// don't match the expected tag/pad values.
	ErrInvalidHeader = errors.New("msglayer: invalid header")

	// ErrUndersizedPacket is returned when fewer bytes were supplied
	// than a layer's minimum size requires.
	ErrUndersizedPacket = errors.New("msglayer: undersized packet")

	// ErrOversizedPacket is returned when a segmentation header
	// declares a size larger than MaxPacketSize.
	ErrOversizedPacket = errors.New("msglayer: oversized packet")

	// ErrUnalignedPayload is returned when a StringwrapLayer payload
	// is not a whole number of 16-bit code units.
	ErrUnalignedPayload = errors.New("msglayer: unaligned payload")
)

// Layer is the uniform contract every message layer implements.
type Layer interface {
	// Size returns the exact number of bytes FillSerialized writes.
	Size() int

	// FillSerialized writes exactly Size() bytes into out, which must
	// have length >= Size(), and returns the number of bytes written.
	FillSerialized(out []byte) int
}

// SerializedData is a view over a byte region owned elsewhere - the
// region stays valid as long as the caller keeps a reference to the
// backing slice, matching the original's shared_ptr<const
// byte_sequence> ownership handle, translated to Go's GC-backed slice
// aliasing (a re-slice of data keeps the whole backing array alive).
type SerializedData struct {
	data []byte
}

// NewSerializedData wraps data without copying it.
func NewSerializedData(data []byte) SerializedData {
	return SerializedData{data: data}
}

// Size returns the number of bytes in the view.
func (s SerializedData) Size() int { return len(s.data) }

// FillSerialized copies the view's bytes into out.
func (s SerializedData) FillSerialized(out []byte) int {
	return copy(out, s.data)
}

// Bytes returns the underlying byte view. The returned slice aliases
// s's backing array; callers that need an independent copy must clone
// it themselves.
func (s SerializedData) Bytes() []byte { return s.data }

// Serialize allocates a fresh buffer sized to l.Size(), fills it via
// l.FillSerialized, and returns it.
func Serialize(l Layer) []byte {
	buf := make([]byte, l.Size())
	l.FillSerialized(buf)
	return buf
}
