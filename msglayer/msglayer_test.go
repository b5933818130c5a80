package msglayer

import (
	"testing"

	"nuke-ms/userid"
)

func TestStringwrapRoundTrip(t *testing.T) {
	text := "This is a narrow char string"
	s := NewStringwrapLayer(text)
	if got, want := s.Size(), 56; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	buf := Serialize(s)
	if len(buf) != s.Size() {
		t.Fatalf("Serialize produced %d bytes, want %d", len(buf), s.Size())
	}

	got, err := StringwrapFromSerialized(NewSerializedData(buf))
	if err != nil {
		t.Fatalf("StringwrapFromSerialized: %v", err)
	}
	if got.Text != text {
		t.Fatalf("round trip text = %q, want %q", got.Text, text)
	}
}

func TestStringwrapUnalignedPayload(t *testing.T) {
	_, err := StringwrapFromSerialized(NewSerializedData([]byte{0x01, 0x02, 0x03}))
	if err != ErrUnalignedPayload {
		t.Fatalf("err = %v, want ErrUnalignedPayload", err)
	}
}

func TestNearUserMessageRoundTrip(t *testing.T) {
	msg := NewNearUserMessage(0xF0, userid.UniqueUserID(0x0000756f79206f74), userid.UniqueUserID(0x0000656d206d6f72), "With love")

	if got, want := msg.Size(), 21+18; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	seg := NewSegmentationLayer[NearUserMessage](msg)
	if got, want := seg.Size(), 43; got != want {
		t.Fatalf("segmentation Size() = %d, want %d", got, want)
	}

	buf := Serialize(seg)
	if len(buf) != 43 {
		t.Fatalf("serialized length = %d, want 43", len(buf))
	}
	if buf[0] != 0x80 || buf[1] != 0x2B || buf[2] != 0x00 || buf[3] != 0x00 {
		t.Fatalf("segmentation header = % x, want 80 2B 00 00", buf[:4])
	}
	if buf[4] != 0x41 {
		t.Fatalf("inner tag = %#x, want 0x41", buf[4])
	}
	if buf[5] != 0xF0 || buf[6] != 0 || buf[7] != 0 || buf[8] != 0 {
		t.Fatalf("msg_id bytes = % x, want F0 00 00 00", buf[5:9])
	}

	parsed, err := SegmentationFromSerialized(NewSerializedData(buf), NearUserMessageFromSerialized)
	if err != nil {
		t.Fatalf("SegmentationFromSerialized: %v", err)
	}
	if parsed.InnerLayer.MsgID != msg.MsgID ||
		parsed.InnerLayer.Recipient != msg.Recipient ||
		parsed.InnerLayer.Sender != msg.Sender ||
		parsed.InnerLayer.Text.Text != msg.Text.Text {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed.InnerLayer, msg)
	}
}

func TestNearUserMessageEmptyString(t *testing.T) {
	msg := NewNearUserMessage(1, userid.None, userid.None, "")
	if got, want := msg.Size(), 21; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}

	buf := Serialize(msg)
	parsed, err := NearUserMessageFromSerialized(NewSerializedData(buf))
	if err != nil {
		t.Fatalf("NearUserMessageFromSerialized: %v", err)
	}
	if parsed.Text.Text != "" {
		t.Fatalf("Text = %q, want empty", parsed.Text.Text)
	}
}

func TestNearUserMessageInvalidHeader(t *testing.T) {
	buf := Serialize(NewNearUserMessage(1, userid.None, userid.None, "hi"))
	buf[0] = 0x99
	_, err := NearUserMessageFromSerialized(NewSerializedData(buf))
	if err != ErrInvalidHeader {
		t.Fatalf("err = %v, want ErrInvalidHeader", err)
	}
}

func TestNearUserMessageUndersized(t *testing.T) {
	_, err := NearUserMessageFromSerialized(NewSerializedData(make([]byte, 10)))
	if err != ErrUndersizedPacket {
		t.Fatalf("err = %v, want ErrUndersizedPacket", err)
	}
}

func TestSegmentationHeaderOnlyFrame(t *testing.T) {
	header := []byte{0x80, 0x04, 0x00, 0x00}
	hdr, err := DecodeHeader(header)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if hdr.Size != 4 {
		t.Fatalf("Size = %d, want 4", hdr.Size)
	}
}

func TestSegmentationMaxSize(t *testing.T) {
	header := []byte{0x80, 0xFF, 0x8F, 0x00}
	hdr, err := DecodeHeader(header)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if hdr.Size != MaxPacketSize {
		t.Fatalf("Size = %#x, want %#x", hdr.Size, MaxPacketSize)
	}
}

func TestSegmentationOversized(t *testing.T) {
	header := []byte{0x80, 0x00, 0x90, 0x00}
	_, err := DecodeHeader(header)
	if err != ErrOversizedPacket {
		t.Fatalf("err = %v, want ErrOversizedPacket", err)
	}
}

func TestSegmentationUndersizedHeaderField(t *testing.T) {
	cases := [][]byte{
		{0x80, 0x00, 0x00, 0x00},
		{0x80, 0x03, 0x00, 0x00},
	}
	for _, header := range cases {
		_, err := DecodeHeader(header)
		if err != ErrUndersizedPacket {
			t.Fatalf("header % x: err = %v, want ErrUndersizedPacket", header, err)
		}
	}
}

func TestSegmentationInvalidHeader(t *testing.T) {
	cases := [][]byte{
		{0x00, 0x04, 0x00, 0x00},
		{0x80, 0x04, 0x00, 0x01},
	}
	for _, header := range cases {
		_, err := DecodeHeader(header)
		if err != ErrInvalidHeader {
			t.Fatalf("header % x: err = %v, want ErrInvalidHeader", header, err)
		}
	}
}
