package userid

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []UniqueUserID{None, 1, 0x0000756f79206f74, 0xFFFFFFFFFFFFFFFF}
	for _, id := range cases {
		buf := id.AppendTo(nil)
		if len(buf) != Size {
			t.Fatalf("serialized length = %d, want %d", len(buf), Size)
		}
		got := FromBytes(buf)
		if got != id {
			t.Errorf("round trip failed: put %#x, got %#x", id, got)
		}
	}
}

func TestNoneIsZero(t *testing.T) {
	if None != 0 {
		t.Fatalf("None = %#x, want 0", None)
	}
	if !None.IsNone() {
		t.Fatal("None.IsNone() = false")
	}
	if UniqueUserID(1).IsNone() {
		t.Fatal("UniqueUserID(1).IsNone() = true")
	}
}
