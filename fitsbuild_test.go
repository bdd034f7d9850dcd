package sfddust

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"
)

// card is one keyword/value pair for buildFITS. A nil value writes a
// commentary card.
type card struct {
	key string
	val any
}

// encodeCard renders an 80-byte header card.
func encodeCard(key string, val any) []byte {
	var s string
	switch v := val.(type) {
	case nil:
		s = fmt.Sprintf("%-8s %s", key, "commentary")
	case string:
		s = fmt.Sprintf("%-8s= '%-8s'", key, strings.ReplaceAll(v, "'", "''"))
	case bool:
		b := "F"
		if v {
			b = "T"
		}
		s = fmt.Sprintf("%-8s= %20s", key, b)
	case int:
		s = fmt.Sprintf("%-8s= %20d", key, v)
	case float64:
		s = fmt.Sprintf("%-8s= %20s", key, strconv.FormatFloat(v, 'E', -1, 64))
	default:
		panic(fmt.Sprintf("encodeCard: unsupported %T", val))
	}
	return []byte(fmt.Sprintf("%-80s", s)[:80])
}

// padBlock pads b with fill to a whole number of FITS blocks.
func padBlock(b []byte, fill byte) []byte {
	for len(b)%blockSize != 0 {
		b = append(b, fill)
	}
	return b
}

// buildFITS assembles header cards (END appended) and a data unit.
func buildFITS(cards []card, data []byte) []byte {
	var hdr []byte
	for _, c := range cards {
		hdr = append(hdr, encodeCard(c.key, c.val)...)
	}
	hdr = append(hdr, []byte(fmt.Sprintf("%-80s", "END"))...)
	out := padBlock(hdr, ' ')
	if len(data) > 0 {
		out = append(out, padBlock(append([]byte(nil), data...), 0)...)
	}
	return out
}

// float32Data encodes vals as BITPIX -32 big-endian samples.
func float32Data(vals []float32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.BigEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b
}

// imageCards returns the structural cards of a size×size image.
func imageCards(bitpix, size int) []card {
	return []card{
		{"SIMPLE", true},
		{"BITPIX", bitpix},
		{"NAXIS", 2},
		{"NAXIS1", size},
		{"NAXIS2", size},
	}
}

// sfdCards returns WCS cards laid out like the SFD 4096² map headers,
// rescaled to a size×size grid.
func sfdCards(pole Hemisphere, size int) []card {
	lat, nsgp := 90.0, 1
	if pole == South {
		lat, nsgp = -90.0, -1
	}
	// b = 0 falls on the circle of radius size/2 pixels.
	scale := toDeg(math.Sqrt2) / (float64(size) / 2)
	crpix := float64(size)/2 + 0.5
	return []card{
		{"CTYPE1", "GLON-ZEA"},
		{"CRPIX1", crpix},
		{"CRVAL1", 0.0},
		{"CDELT1", -scale},
		{"CTYPE2", "GLAT-ZEA"},
		{"CRPIX2", crpix},
		{"CRVAL2", lat},
		{"CDELT2", scale},
		{"LONPOLE", 180.0},
		{"LAM_NSGP", nsgp},
		{"LAM_SCAL", size / 2},
	}
}

// sfdFITS builds a complete float32 map file for the hemisphere.
func sfdFITS(pole Hemisphere, size int, vals []float32) []byte {
	cards := append(imageCards(-32, size), sfdCards(pole, size)...)
	return buildFITS(cards, float32Data(vals))
}

// trivialProjection is an equidistant projection with unit pixel scale, no
// rotation and the reference pixel at the origin.
func trivialProjection(pole Hemisphere) Projection {
	lat := 90.0
	if pole == South {
		lat = -90
	}
	return Projection{
		Type:    ARC,
		RefLat:  lat,
		LonPole: 180,
		CD:      [2][2]float64{{1, 0}, {0, 1}},
	}
}

// seqGrid returns a size×size grid with Vals[i] = offset + i.
func seqGrid(size int, offset float32) Grid {
	vals := make([]float32, size*size)
	for i := range vals {
		vals[i] = offset + float32(i)
	}
	return Grid{Size: size, Vals: vals}
}

// constGrid returns a size×size grid filled with v.
func constGrid(size int, v float32) Grid {
	vals := make([]float32, size*size)
	for i := range vals {
		vals[i] = v
	}
	return Grid{Size: size, Vals: vals}
}

func mustMap(t testing.TB, pole Hemisphere, g Grid, p Projection) *HemisphereMap {
	t.Helper()
	m, err := NewHemisphereMap(pole, g, p)
	if err != nil {
		t.Fatalf("NewHemisphereMap(%s): %v", pole, err)
	}
	return m
}

// trivialStore returns a store of two size×size sequential grids on the
// trivial projection, north values starting at 100 and south at 200.
func trivialStore(t testing.TB, size int) *Store {
	t.Helper()
	north := mustMap(t, North, seqGrid(size, 100), trivialProjection(North))
	south := mustMap(t, South, seqGrid(size, 200), trivialProjection(South))
	s, err := NewStore(north, south)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}
