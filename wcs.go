package sfddust

import (
	"fmt"
	"math"
	"strings"
)

// projectionFromHeader narrows the WCS keywords of a map header into a
// Projection. Only galactic zenithal projections are accepted.
//
// The linear transform is taken from CDi_j when any is present, otherwise
// from PCi_j scaled by CDELTi, otherwise from CDELTi and CROTA2.
func projectionFromHeader(h Header) (Projection, error) {
	ctype1, ok1 := h.String("CTYPE1")
	ctype2, ok2 := h.String("CTYPE2")
	if !ok1 || !ok2 {
		return Projection{}, fmt.Errorf("missing CTYPE1/CTYPE2")
	}
	lonAxis, lonCode, _ := strings.Cut(ctype1, "-")
	latAxis, latCode, _ := strings.Cut(ctype2, "-")
	lonCode = strings.TrimLeft(lonCode, "-")
	latCode = strings.TrimLeft(latCode, "-")
	if lonAxis != "GLON" || latAxis != "GLAT" {
		return Projection{}, fmt.Errorf("axes %q/%q are not galactic GLON/GLAT", ctype1, ctype2)
	}
	if lonCode != latCode {
		return Projection{}, fmt.Errorf("mismatched projection codes %q/%q", ctype1, ctype2)
	}

	var p Projection
	p.Type = ProjectionType(lonCode)

	crpix1, ok1 := h.Float("CRPIX1")
	crpix2, ok2 := h.Float("CRPIX2")
	if !ok1 || !ok2 {
		return Projection{}, fmt.Errorf("missing CRPIX1/CRPIX2")
	}
	p.RefX, p.RefY = crpix1-1, crpix2-1

	crval2, ok := h.Float("CRVAL2")
	if !ok {
		return Projection{}, fmt.Errorf("missing CRVAL2")
	}
	p.RefLon = h.floatOr("CRVAL1", 0)
	p.RefLat = crval2

	// Zenithal projections have θ0 = 90°, so the default is 0 only when the
	// reference point is the north pole itself.
	defPole := 180.0
	if p.RefLat >= 90 {
		defPole = 0
	}
	p.LonPole = h.floatOr("LONPOLE", defPole)

	cd, err := linearTransform(h)
	if err != nil {
		return Projection{}, err
	}
	p.CD = cd

	if err := p.Validate(); err != nil {
		return Projection{}, err
	}
	return p, nil
}

func linearTransform(h Header) ([2][2]float64, error) {
	var cd [2][2]float64
	keys := [2][2]string{{"CD1_1", "CD1_2"}, {"CD2_1", "CD2_2"}}

	hasCD := false
	for i := range keys {
		for j := range keys[i] {
			if v, ok := h.Float(keys[i][j]); ok {
				cd[i][j] = v
				hasCD = true
			}
		}
	}
	if hasCD {
		return cd, nil
	}

	cdelt1, ok1 := h.Float("CDELT1")
	cdelt2, ok2 := h.Float("CDELT2")
	if !ok1 || !ok2 {
		return cd, fmt.Errorf("missing CDELT1/CDELT2 and no CDi_j matrix")
	}
	cdelt := [2]float64{cdelt1, cdelt2}

	pc := [2][2]float64{{1, 0}, {0, 1}}
	hasPC := false
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if v, ok := h.Float(fmt.Sprintf("PC%d_%d", i+1, j+1)); ok {
				pc[i][j] = v
				hasPC = true
			}
		}
	}
	if hasPC {
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				cd[i][j] = cdelt[i] * pc[i][j]
			}
		}
		return cd, nil
	}

	ρ := toRad(h.floatOr("CROTA2", 0))
	sinρ, cosρ := math.Sincos(ρ)
	cd[0][0] = cdelt1 * cosρ
	cd[0][1] = -cdelt2 * sinρ
	cd[1][0] = cdelt1 * sinρ
	cd[1][1] = cdelt2 * cosρ
	return cd, nil
}
