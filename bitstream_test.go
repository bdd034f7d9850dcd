package sfddust

import (
	"math"
	"testing"
)

// TestBitpixWidth verifies sample sizes for every legal BITPIX and rejects the rest.
func TestBitpixWidth(t *testing.T) {
	cases := map[int]int{8: 1, 16: 2, 32: 4, 64: 8, -32: 4, -64: 8, 0: 0, 12: 0, -8: 0, -16: 0, 128: 0}
	for bitpix, want := range cases {
		if got := bitpixWidth(bitpix); got != want {
			t.Errorf("bitpixWidth(%d): got %d, want %d", bitpix, got, want)
		}
	}
}

// TestSampleReaderInts verifies big-endian integer decoding; BITPIX 8 is unsigned.
func TestSampleReaderInts(t *testing.T) {
	cases := []struct {
		bitpix int
		buf    []byte
		want   int64
	}{
		{8, []byte{0xFF}, 255},
		{16, []byte{0xFF, 0xFE}, -2},
		{16, []byte{0x01, 0x00}, 256},
		{32, []byte{0x80, 0x00, 0x00, 0x00}, math.MinInt32},
		{64, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x02}, 258},
		{64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, -1},
	}
	for _, tc := range cases {
		r := newSampleReader(tc.buf, tc.bitpix)
		got, err := r.readInt()
		if err != nil {
			t.Errorf("BITPIX %d % X: unexpected error: %v", tc.bitpix, tc.buf, err)
			continue
		}
		if got != tc.want {
			t.Errorf("BITPIX %d % X: got %d, want %d", tc.bitpix, tc.buf, got, tc.want)
		}
		if r.bytePos() != len(tc.buf) {
			t.Errorf("BITPIX %d: pos got %d, want %d", tc.bitpix, r.bytePos(), len(tc.buf))
		}
	}
}

// TestSampleReaderFloats verifies IEEE-754 decoding of both widths.
func TestSampleReaderFloats(t *testing.T) {
	r := newSampleReader([]byte{0x3F, 0xC0, 0x00, 0x00, 0xC0, 0x20, 0x00, 0x00}, -32)
	for _, want := range []float64{1.5, -2.5} {
		got, err := r.readFloat()
		if err != nil {
			t.Fatalf("readFloat: %v", err)
		}
		if got != want {
			t.Errorf("readFloat -32: got %v, want %v", got, want)
		}
	}

	r = newSampleReader([]byte{0x40, 0x09, 0x21, 0xFB, 0x54, 0x44, 0x2D, 0x18}, -64)
	got, err := r.readFloat()
	if err != nil {
		t.Fatalf("readFloat -64: %v", err)
	}
	if got != math.Pi {
		t.Errorf("readFloat -64: got %v, want π", got)
	}
}

// TestSampleReaderOverflow verifies reads past the buffer end return an error, not a panic.
func TestSampleReaderOverflow(t *testing.T) {
	r := newSampleReader([]byte{0x00, 0x01, 0x02}, 16)
	if _, err := r.readInt(); err != nil {
		t.Fatalf("first read: %v", err)
	}
	if _, err := r.readInt(); err == nil {
		t.Error("expected error reading past buffer end, got nil")
	}
	if r.bytePos() != 2 {
		t.Errorf("failed read advanced pos to %d", r.bytePos())
	}

	if _, err := newSampleReader(nil, -64).readFloat(); err == nil {
		t.Error("expected error reading from empty buffer, got nil")
	}
}

// TestSampleReaderInvalidWidth verifies an invalid BITPIX never reads.
func TestSampleReaderInvalidWidth(t *testing.T) {
	r := newSampleReader([]byte{1, 2, 3, 4}, 12)
	if _, err := r.readInt(); err == nil {
		t.Error("expected error for invalid BITPIX, got nil")
	}
}
