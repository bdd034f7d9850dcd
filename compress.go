package sfddust

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// maxMapBytes caps how much a single (decompressed) map may occupy.
// A 16384² float64 image plus a generous header; SFD 4096² float32 maps are ~64 MB.
const maxMapBytes = maxHeaderBlocks*blockSize + maxGridDim*maxGridDim*8 + blockSize

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// decompressor sniffs r and returns a reader yielding the FITS bytes.
// Plain FITS passes through untouched.
func decompressor(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(4)
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewDecoder(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	}
	return br, func() {}, nil
}

// readMapBytes reads a possibly compressed map, enforcing maxMapBytes.
func readMapBytes(r io.Reader) ([]byte, error) {
	dr, done, err := decompressor(r)
	if err != nil {
		return nil, err
	}
	defer done()

	raw, err := io.ReadAll(io.LimitReader(dr, maxMapBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxMapBytes {
		return nil, fmt.Errorf("map exceeds %d bytes", int64(maxMapBytes))
	}
	return raw, nil
}
