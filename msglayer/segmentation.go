package msglayer

import "nuke-ms/wire"

const (
	// SegmentationTag is the layer identifier byte for SegmentationLayer.
	SegmentationTag byte = 0x80

	// SegmentationHeaderLen is the fixed header length in bytes.
	SegmentationHeaderLen = 4

	// MaxPacketSize is the maximum value of a segmentation frame's
	// size field, including the 4-byte header.
	MaxPacketSize = 0x8FFF
)

// SegmentationHeader is the decoded form of a segmentation frame's
// 4-byte header.
type SegmentationHeader struct {
	// Size is the total frame size, including the 4-byte header.
	Size uint16
}

// DecodeHeader decodes a 4-byte segmentation header. It does not
// allocate and is used by receive loops to learn how many body bytes
// to read before allocating a buffer for them.
func DecodeHeader(header []byte) (SegmentationHeader, error) {
	if len(header) < SegmentationHeaderLen {
		return SegmentationHeader{}, ErrUndersizedPacket
	}
	if header[0] != SegmentationTag {
		return SegmentationHeader{}, ErrInvalidHeader
	}
	if header[3] != 0 {
		return SegmentationHeader{}, ErrInvalidHeader
	}

	size := wire.Uint16(header[1:3])
	if size > MaxPacketSize {
		return SegmentationHeader{}, ErrOversizedPacket
	}
	if size < SegmentationHeaderLen {
		return SegmentationHeader{}, ErrUndersizedPacket
	}
	return SegmentationHeader{Size: size}, nil
}

// SegmentationLayer is the outermost framing layer: a 4-byte header
// followed by an inner layer of any type implementing Layer.
type SegmentationLayer[Inner Layer] struct {
	InnerLayer Inner
}

// NewSegmentationLayer wraps inner in a SegmentationLayer.
func NewSegmentationLayer[Inner Layer](inner Inner) SegmentationLayer[Inner] {
	return SegmentationLayer[Inner]{InnerLayer: inner}
}

// Size returns the header length plus the inner layer's size.
func (s SegmentationLayer[Inner]) Size() int {
	return SegmentationHeaderLen + s.InnerLayer.Size()
}

// FillSerialized writes the 4-byte header, then delegates to the inner
// layer.
func (s SegmentationLayer[Inner]) FillSerialized(out []byte) int {
	out[0] = SegmentationTag
	wire.ByteOrder.PutUint16(out[1:3], uint16(s.Size()))
	out[3] = 0
	n := SegmentationHeaderLen
	n += s.InnerLayer.FillSerialized(out[n:])
	return n
}

// SegmentationFromSerialized decodes a segmentation frame whose body
// bytes (after the 4-byte header) have already been read, and parses
// the inner layer with innerFromSerialized.
func SegmentationFromSerialized[Inner Layer](
	data SerializedData,
	innerFromSerialized func(SerializedData) (Inner, error),
) (SegmentationLayer[Inner], error) {
	b := data.Bytes()
	hdr, err := DecodeHeader(b)
	if err != nil {
		var zero SegmentationLayer[Inner]
		return zero, err
	}

	bodyLen := int(hdr.Size) - SegmentationHeaderLen
	if len(b) < SegmentationHeaderLen+bodyLen {
		var zero SegmentationLayer[Inner]
		return zero, ErrUndersizedPacket
	}

	inner, err := innerFromSerialized(NewSerializedData(b[SegmentationHeaderLen : SegmentationHeaderLen+bodyLen]))
	if err != nil {
		var zero SegmentationLayer[Inner]
		return zero, err
	}

	return SegmentationLayer[Inner]{InnerLayer: inner}, nil
}
