package sfddust

import (
	"fmt"
	"math"
)

// pixelParams holds the keywords that control how stored samples become
// physical values.
type pixelParams struct {
	Bitpix   int
	N        int     // number of samples, NAXIS1×NAXIS2
	Scale    float64 // BSCALE
	Zero     float64 // BZERO
	Blank    int64   // BLANK, integer BITPIX only
	HasBlank bool
}

// pixelParamsFromHeader extracts the sample encoding keywords.
func pixelParamsFromHeader(h Header, n int) (pixelParams, error) {
	bitpix, ok := h.Int("BITPIX")
	if !ok {
		return pixelParams{}, fmt.Errorf("missing BITPIX")
	}
	if bitpixWidth(int(bitpix)) == 0 {
		return pixelParams{}, fmt.Errorf("unsupported BITPIX %d", bitpix)
	}
	p := pixelParams{
		Bitpix: int(bitpix),
		N:      n,
		Scale:  h.floatOr("BSCALE", 1),
		Zero:   h.floatOr("BZERO", 0),
	}
	if p.Scale == 0 || math.IsNaN(p.Scale) || math.IsInf(p.Scale, 0) {
		return pixelParams{}, fmt.Errorf("invalid BSCALE %g", p.Scale)
	}
	if blank, ok := h.Int("BLANK"); ok && p.Bitpix > 0 {
		p.Blank, p.HasBlank = blank, true
	}
	return p, nil
}

// dataBytes returns the number of data bytes the samples occupy, unpadded.
func (p pixelParams) dataBytes() int64 {
	return int64(p.N) * int64(bitpixWidth(p.Bitpix))
}

// unpackPixels decodes p.N samples from the data unit.
// Unpacking formula: physical = BZERO + BSCALE × stored.
// Integer samples equal to BLANK become NaN.
func unpackPixels(data []byte, p pixelParams) ([]float32, error) {
	if need := p.dataBytes(); int64(len(data)) < need {
		return nil, fmt.Errorf("data unit truncated: have %d bytes, need %d", len(data), need)
	}
	identity := p.Scale == 1 && p.Zero == 0

	result := make([]float32, p.N)
	r := newSampleReader(data, p.Bitpix)
	for i := range result {
		if p.Bitpix < 0 {
			v, err := r.readFloat()
			if err != nil {
				return nil, fmt.Errorf("reading sample %d: %w", i, err)
			}
			if !identity {
				v = p.Zero + p.Scale*v
			}
			result[i] = float32(v)
			continue
		}
		x, err := r.readInt()
		if err != nil {
			return nil, fmt.Errorf("reading sample %d: %w", i, err)
		}
		if p.HasBlank && x == p.Blank {
			result[i] = float32(math.NaN())
			continue
		}
		result[i] = float32(p.Zero + p.Scale*float64(x))
	}
	return result, nil
}
