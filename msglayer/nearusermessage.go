package msglayer

import (
	"nuke-ms/userid"
	"nuke-ms/wire"
)

// NearUserMessageTag is the layer identifier byte for NearUserMessage.
const NearUserMessageTag byte = 0x41

// NearUserMessageHeaderLen is the fixed header length in bytes, before
// the StringwrapLayer payload.
const NearUserMessageHeaderLen = 21

// NearUserMessage is the user-visible message: a tag byte, a message
// id, a recipient and sender UniqueUserID, and a text payload.
type NearUserMessage struct {
	MsgID     uint32
	Recipient userid.UniqueUserID
	Sender    userid.UniqueUserID
	Text      StringwrapLayer
}

// NewNearUserMessage builds a NearUserMessage from its fields.
func NewNearUserMessage(msgID uint32, recipient, sender userid.UniqueUserID, text string) NearUserMessage {
	return NearUserMessage{
		MsgID:     msgID,
		Recipient: recipient,
		Sender:    sender,
		Text:      NewStringwrapLayer(text),
	}
}

// Size returns the header length plus the inner StringwrapLayer size.
func (m NearUserMessage) Size() int {
	return NearUserMessageHeaderLen + m.Text.Size()
}

// FillSerialized writes the tag, header fields, then the text payload.
func (m NearUserMessage) FillSerialized(out []byte) int {
	out[0] = NearUserMessageTag
	n := 1
	n += copy(out[n:], wire.PutUint32(nil, m.MsgID))
	n += copy(out[n:], m.Recipient.AppendTo(nil))
	n += copy(out[n:], m.Sender.AppendTo(nil))
	n += m.Text.FillSerialized(out[n:])
	return n
}

// NearUserMessageFromSerialized parses a NearUserMessage from a byte
// view. Fails with ErrUndersizedPacket if data is shorter than the
// header, ErrInvalidHeader if the tag byte isn't 0x41, or
// ErrUnalignedPayload if the text payload has odd length.
func NearUserMessageFromSerialized(data SerializedData) (NearUserMessage, error) {
	b := data.Bytes()
	if len(b) < NearUserMessageHeaderLen {
		return NearUserMessage{}, ErrUndersizedPacket
	}
	if b[0] != NearUserMessageTag {
		return NearUserMessage{}, ErrInvalidHeader
	}

	msgID := wire.Uint32(b[1:5])
	recipient := userid.FromBytes(b[5:13])
	sender := userid.FromBytes(b[13:21])

	text, err := StringwrapFromSerialized(NewSerializedData(b[NearUserMessageHeaderLen:]))
	if err != nil {
		return NearUserMessage{}, err
	}

	return NearUserMessage{
		MsgID:     msgID,
		Recipient: recipient,
		Sender:    sender,
		Text:      text,
	}, nil
}
