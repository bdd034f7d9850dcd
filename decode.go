package sfddust

import (
	"fmt"
	"io"
)

// DecodeMap decodes a FITS primary HDU holding one hemisphere of the dust
// map. The hemisphere is taken from the sign of the reference latitude.
// Errors are *MapFormatError.
func DecodeMap(raw []byte) (*HemisphereMap, error) {
	m, err := decodeMap(raw)
	if err != nil {
		return nil, &MapFormatError{Err: err}
	}
	return m, nil
}

// ReadMap reads a whole map from r, which may be gzip or zstd compressed,
// and decodes it.
func ReadMap(r io.Reader) (*HemisphereMap, error) {
	raw, err := readMapBytes(r)
	if err != nil {
		return nil, &MapFormatError{Err: err}
	}
	return DecodeMap(raw)
}

func decodeMap(raw []byte) (*HemisphereMap, error) {
	h, off, err := parseHeader(raw)
	if err != nil {
		return nil, err
	}

	naxis, ok := h.Int("NAXIS")
	if !ok {
		return nil, fmt.Errorf("missing NAXIS")
	}
	if naxis != 2 {
		return nil, fmt.Errorf("NAXIS=%d, want a 2-D image", naxis)
	}
	n1, ok1 := h.Int("NAXIS1")
	n2, ok2 := h.Int("NAXIS2")
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("missing NAXIS1/NAXIS2")
	}
	// Validate grid dimensions before any allocation sized by them.
	if n1 <= 0 || n1 > maxGridDim || n2 <= 0 || n2 > maxGridDim {
		return nil, fmt.Errorf("invalid grid dimensions %dx%d (max %d)", n1, n2, maxGridDim)
	}
	if n1 != n2 {
		return nil, fmt.Errorf("grid is not square: %dx%d", n1, n2)
	}

	proj, err := projectionFromHeader(h)
	if err != nil {
		return nil, fmt.Errorf("projection: %w", err)
	}

	p, err := pixelParamsFromHeader(h, int(n1*n2))
	if err != nil {
		return nil, err
	}
	vals, err := unpackPixels(raw[off:], p)
	if err != nil {
		return nil, err
	}

	pole := North
	if proj.RefLat < 0 {
		pole = South
	}
	// LAM_NSGP is +1 for the north map, -1 for the south map in the SFD files.
	if nsgp, ok := h.Int("LAM_NSGP"); ok {
		if (nsgp > 0) != (pole == North) {
			return nil, fmt.Errorf("LAM_NSGP=%d disagrees with CRVAL2=%g", nsgp, proj.RefLat)
		}
	}

	return NewHemisphereMap(pole, Grid{Size: int(n1), Vals: vals}, proj)
}
