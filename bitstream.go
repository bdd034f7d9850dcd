package sfddust

import (
	"encoding/binary"
	"fmt"
	"math"
)

// sampleReader reads big-endian FITS data samples of a single BITPIX type
// from a byte slice. Every read is bounds-checked; library code must never
// panic on untrusted input.
type sampleReader struct {
	buf   []byte
	pos   int // current byte position
	width int // bytes per sample
}

func newSampleReader(b []byte, bitpix int) *sampleReader {
	return &sampleReader{buf: b, width: bitpixWidth(bitpix)}
}

// bitpixWidth returns the sample size in bytes, or 0 for an invalid BITPIX.
func bitpixWidth(bitpix int) int {
	switch bitpix {
	case 8, 16, 32, 64, -32, -64:
		if bitpix < 0 {
			return -bitpix / 8
		}
		return bitpix / 8
	}
	return 0
}

func (r *sampleReader) next() ([]byte, error) {
	if r.width == 0 {
		return nil, fmt.Errorf("sampleReader: invalid sample width")
	}
	end := r.pos + r.width
	if end > len(r.buf) {
		return nil, fmt.Errorf("sampleReader: read %d bytes at pos %d overflows buffer (%d bytes)",
			r.width, r.pos, len(r.buf))
	}
	b := r.buf[r.pos:end]
	r.pos = end
	return b, nil
}

// readInt reads the next integer sample. BITPIX 8 is unsigned, the others
// are two's complement.
func (r *sampleReader) readInt() (int64, error) {
	b, err := r.next()
	if err != nil {
		return 0, err
	}
	switch r.width {
	case 1:
		return int64(b[0]), nil
	case 2:
		return int64(int16(binary.BigEndian.Uint16(b))), nil
	case 4:
		return int64(int32(binary.BigEndian.Uint32(b))), nil
	default:
		return int64(binary.BigEndian.Uint64(b)), nil
	}
}

// readFloat reads the next IEEE-754 sample (BITPIX -32 or -64).
func (r *sampleReader) readFloat() (float64, error) {
	b, err := r.next()
	if err != nil {
		return 0, err
	}
	if r.width == 4 {
		return float64(math.Float32frombits(binary.BigEndian.Uint32(b))), nil
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// bytePos returns the current byte position.
func (r *sampleReader) bytePos() int { return r.pos }
