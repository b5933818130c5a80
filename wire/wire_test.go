package wire

import "testing"

func TestUint32RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 0x1A2B3C4D, 0xFFFFFFFF}
	for _, x := range cases {
		buf := PutUint32(nil, x)
		got := Uint32(buf)
		if got != x {
			t.Errorf("round trip failed: put %#x, got %#x", x, got)
		}
	}
}

func TestUint32Endianness(t *testing.T) {
	// 0x1A2B3C4D encodes least-significant-byte-first on the wire.
	buf := PutUint32(nil, 0x1A2B3C4D)
	want := []byte{0x4D, 0x3C, 0x2B, 0x1A}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d: got %#x want %#x", i, buf[i], want[i])
		}
	}
}

func TestUint16RoundTrip(t *testing.T) {
	cases := []uint16{0, 1, 0xABCD, 0xFFFF}
	for _, x := range cases {
		buf := PutUint16(nil, x)
		got := Uint16(buf)
		if got != x {
			t.Errorf("round trip failed: put %#x, got %#x", x, got)
		}
	}
}

func TestUint64RoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0x0000656d206d6f72, 0xFFFFFFFFFFFFFFFF}
	for _, x := range cases {
		buf := PutUint64(nil, x)
		got := Uint64(buf)
		if got != x {
			t.Errorf("round trip failed: put %#x, got %#x", x, got)
		}
	}
}
