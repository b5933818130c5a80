package msglayer

import (
	"unicode/utf8"

	"nuke-ms/wire"
)

// StringwrapLayer wraps a narrow text message as a sequence of 16-bit
// code units, each character widened to u16 in wire order - this is
// the payload of a NearUserMessage.
type StringwrapLayer struct {
	Text string
}

// NewStringwrapLayer wraps text.
func NewStringwrapLayer(text string) StringwrapLayer {
	return StringwrapLayer{Text: text}
}

// Size returns 2 times the number of characters in Text.
func (s StringwrapLayer) Size() int { return utf8.RuneCountInString(s.Text) * 2 }

// FillSerialized writes each character as a wire-order u16.
func (s StringwrapLayer) FillSerialized(out []byte) int {
	n := 0
	for _, r := range s.Text {
		wire.ByteOrder.PutUint16(out[n:], uint16(r))
		n += 2
	}
	return n
}

// StringwrapFromSerialized parses a StringwrapLayer from a byte view.
// The payload length must be an even number of bytes; odd-length
// payloads fail with ErrUnalignedPayload.
func StringwrapFromSerialized(data SerializedData) (StringwrapLayer, error) {
	b := data.Bytes()
	if len(b)%2 != 0 {
		return StringwrapLayer{}, ErrUnalignedPayload
	}

	runes := make([]rune, len(b)/2)
	for i := range runes {
		runes[i] = rune(wire.Uint16(b[i*2:]))
	}
	return StringwrapLayer{Text: string(runes)}, nil
}
