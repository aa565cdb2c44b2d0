package scalar

import "testing"

func TestLittleEndianIntegers(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	if got := Getleu16(buf, 0); got != 0x0201 {
		t.Errorf("Getleu16 = %#x, want 0x0201", got)
	}
	if got := Getleu32(buf, 0); got != 0x04030201 {
		t.Errorf("Getleu32 = %#x, want 0x04030201", got)
	}
	if got := Getleu64(buf, 0); got != 0x0807060504030201 {
		t.Errorf("Getleu64 = %#x, want 0x0807060504030201", got)
	}
}

func TestSignedConversions(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	if got := Getles16(buf, 0); got != -1 {
		t.Errorf("Getles16 = %d, want -1", got)
	}
	if got := Getles32(buf, 0); got != -1 {
		t.Errorf("Getles32 = %d, want -1", got)
	}
	if got := Getsb(buf, 0); got != -1 {
		t.Errorf("Getsb = %d, want -1", got)
	}
}

func TestUINT2INT(t *testing.T) {
	cases := []struct {
		value uint32
		bits  uint
		want  int32
	}{
		{0x0F, 4, -1},
		{0x07, 4, 7},
		{0x1FF, 9, -1},
		{0xFF, 8, -1},
	}
	for _, c := range cases {
		if got := UINT2INT(c.value, c.bits); got != c.want {
			t.Errorf("UINT2INT(%#x, %d) = %d, want %d", c.value, c.bits, got, c.want)
		}
	}
}

func TestGetles32x100s8(t *testing.T) {
	buf := make([]byte, 8)
	// main = 12345 at offset 0, ext = 7 at offset 4
	buf[0], buf[1], buf[2], buf[3] = 0x39, 0x30, 0x00, 0x00
	buf[4] = 7
	got := Getles32x100s8(buf, 0, 4)
	want := int64(12345)*100 + 7
	if got != want {
		t.Errorf("Getles32x100s8 = %d, want %d", got, want)
	}
}

func TestGetled64RoundTrips(t *testing.T) {
	// 1.5 in IEEE-754 little-endian double.
	buf := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xF8, 0x3F}
	got := Getled64(buf, 0)
	if got != 1.5 {
		t.Errorf("Getled64 = %v, want 1.5", got)
	}
}

func TestFletcher8(t *testing.T) {
	// UBX-NAV-EOE: class 0x01 id 0x61 len 0x0004 payload 0x01020304 (iTOW-like)
	data := []byte{0x01, 0x61, 0x04, 0x00, 0x01, 0x02, 0x03, 0x04}
	ckA, ckB := Fletcher8(data)
	if ckA == 0 && ckB == 0 {
		t.Fatal("checksum should not be trivially zero for non-zero input")
	}
	// Recompute manually to verify the accumulator logic.
	var a, b byte
	for _, v := range data {
		a += v
		b += a
	}
	if ckA != a || ckB != b {
		t.Errorf("Fletcher8 = (%d,%d), want (%d,%d)", ckA, ckB, a, b)
	}
}

func TestNMEAChecksum(t *testing.T) {
	// $GPGGA,...*47 — checksum over bytes between $ and *.
	sentence := "GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,"
	got := NMEAChecksum([]byte(sentence))
	if got != 0x47 {
		t.Errorf("NMEAChecksum = %#02x, want 0x47", got)
	}
}
