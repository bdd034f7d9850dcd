// Package sfddust looks up interstellar dust reddening, E(B−V), in the
// Schlegel, Finkbeiner & Davis (1998) full-sky maps. The maps come as two
// FITS images, one zenithal projection centred on each galactic pole.
package sfddust

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Hemisphere identifies one of the two pole-centred maps.
type Hemisphere int

const (
	North Hemisphere = iota // b ≥ 0
	South                   // b < 0
)

func (h Hemisphere) String() string {
	if h == North {
		return "north"
	}
	return "south"
}

// Suffix returns the file name suffix of the hemisphere's map.
func (h Hemisphere) Suffix() string {
	if h == North {
		return "ngp"
	}
	return "sgp"
}

// HemisphereOf returns the map a latitude belongs to. -0 compares equal to
// 0 and goes north; NaN belongs to neither map and reports false.
func HemisphereOf(b float64) (Hemisphere, bool) {
	switch {
	case b >= 0:
		return North, true
	case b < 0:
		return South, true
	}
	return 0, false
}

// ProjectionType is the zenithal projection code from CTYPEi.
type ProjectionType string

const (
	// ARC is the zenithal equidistant projection: R = 90° − θ.
	ARC ProjectionType = "ARC"
	// ZEA is the zenithal equal-area projection used by the SFD files.
	ZEA ProjectionType = "ZEA"
)

// radius returns the projection-plane distance (degrees) from the
// projection centre for native latitude θ (radians).
func (t ProjectionType) radius(θ float64) float64 {
	switch t {
	case ARC:
		return 90 - toDeg(θ)
	case ZEA:
		return toDeg(math.Sqrt(2 * (1 - math.Sin(θ))))
	}
	return math.NaN()
}

// nativeLat inverts radius. Returns NaN when r lies outside the projection.
func (t ProjectionType) nativeLat(r float64) float64 {
	switch t {
	case ARC:
		return toRad(90 - r)
	case ZEA:
		s := toRad(r) / 2
		if s > 1 {
			return math.NaN()
		}
		return math.Pi/2 - 2*math.Asin(s)
	}
	return math.NaN()
}

// Projection holds the parameters that map galactic (l, b) onto fractional
// array indices of one hemisphere's grid.
type Projection struct {
	Type           ProjectionType
	RefX, RefY     float64       // reference pixel, 0-based (CRPIXi − 1)
	RefLon, RefLat float64       // reference sky point, degrees (CRVALi)
	LonPole        float64       // native longitude of the celestial pole, degrees
	CD             [2][2]float64 // degrees per pixel, rotation included
}

// Validate checks that the projection can be evaluated.
func (p *Projection) Validate() error {
	if p.Type != ARC && p.Type != ZEA {
		return fmt.Errorf("unsupported projection %q (supported: ARC, ZEA)", p.Type)
	}
	for _, v := range []float64{p.RefX, p.RefY, p.RefLon, p.RefLat, p.LonPole} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite projection parameter")
		}
	}
	if p.RefLat < -90 || p.RefLat > 90 {
		return fmt.Errorf("reference latitude %g out of range", p.RefLat)
	}
	_, err := p.pixelMatrix()
	return err
}

func (p *Projection) cdMatrix() *mat.Dense {
	return mat.NewDense(2, 2, []float64{
		p.CD[0][0], p.CD[0][1],
		p.CD[1][0], p.CD[1][1],
	})
}

// pixelMatrix returns CD⁻¹, the map from projection-plane degrees to pixels.
func (p *Projection) pixelMatrix() (*mat.Dense, error) {
	cd := p.cdMatrix()
	det := mat.Det(cd)
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return nil, fmt.Errorf("CD matrix is singular (det=%g)", det)
	}
	var inv mat.Dense
	if err := inv.Inverse(cd); err != nil {
		// Condition errors still produce a usable inverse.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("inverting CD matrix: %w", err)
		}
	}
	return &inv, nil
}

// native rotates galactic (l, b) into native spherical coordinates (φ, θ),
// radians, with the native pole at the reference point.
func (p *Projection) native(l, b float64) (φ, θ float64) {
	sinδ, cosδ := math.Sincos(toRad(b))
	sinδp, cosδp := math.Sincos(toRad(p.RefLat))
	sinΔ, cosΔ := math.Sincos(toRad(l - p.RefLon))

	φ = toRad(p.LonPole) + math.Atan2(-cosδ*sinΔ, sinδ*cosδp-cosδ*sinδp*cosΔ)
	θ = math.Asin(clampUnit(sinδ*sinδp + cosδ*cosδp*cosΔ))
	return
}

// plane returns the projection-plane offset (degrees) of (l, b) from the
// projection centre. Convention: x = R sin φ, y = −R cos φ.
func (p *Projection) plane(l, b float64) (x, y float64) {
	φ, θ := p.native(l, b)
	r := p.Type.radius(θ)
	sinφ, cosφ := math.Sincos(φ)
	return r * sinφ, -r * cosφ
}

// WorldToPixel maps galactic (l, b) in degrees to fractional 0-based array
// coordinates (x = column, y = row). The result may lie outside the grid.
// l is periodic; b is not checked against the hemisphere.
func (p *Projection) WorldToPixel(l, b float64) (x, y float64) {
	xs, ys := []float64{0}, []float64{0}
	if err := p.ProjectBatch([]float64{l}, []float64{b}, xs, ys); err != nil {
		return math.NaN(), math.NaN()
	}
	return xs[0], ys[0]
}

// ProjectBatch maps each (l[i], b[i]) to (x[i], y[i]). All slices must have
// the same length.
func (p *Projection) ProjectBatch(l, b, x, y []float64) error {
	n := len(l)
	if len(b) != n || len(x) != n || len(y) != n {
		return fmt.Errorf("ProjectBatch: slice lengths %d/%d/%d/%d differ", len(l), len(b), len(x), len(y))
	}
	if n == 0 {
		return nil
	}
	inv, err := p.pixelMatrix()
	if err != nil {
		return err
	}

	planar := mat.NewDense(2, n, nil)
	for i := range l {
		px, py := p.plane(l[i], b[i])
		planar.Set(0, i, px)
		planar.Set(1, i, py)
	}
	var pix mat.Dense
	pix.Mul(inv, planar)
	for i := range x {
		x[i] = p.RefX + pix.At(0, i)
		y[i] = p.RefY + pix.At(1, i)
	}
	return nil
}

// PixelToWorld maps 0-based array coordinates back to galactic (l, b),
// l in [0, 360). Returns NaN for pixels outside the projection's domain.
func (p *Projection) PixelToWorld(x, y float64) (l, b float64) {
	dx, dy := x-p.RefX, y-p.RefY
	px := p.CD[0][0]*dx + p.CD[0][1]*dy
	py := p.CD[1][0]*dx + p.CD[1][1]*dy

	r := math.Hypot(px, py)
	θ := p.Type.nativeLat(r)
	if math.IsNaN(θ) {
		return math.NaN(), math.NaN()
	}
	φ := 0.0
	if r != 0 {
		// x = R sin φ, −y = R cos φ → φ = atan2(x, −y)
		φ = math.Atan2(px, -py)
	}

	sinθ, cosθ := math.Sincos(θ)
	sinδp, cosδp := math.Sincos(toRad(p.RefLat))
	sinΔ, cosΔ := math.Sincos(φ - toRad(p.LonPole))

	l = p.RefLon + toDeg(math.Atan2(-cosθ*sinΔ, sinθ*cosδp-cosθ*sinδp*cosΔ))
	b = toDeg(math.Asin(clampUnit(sinθ*sinδp + cosθ*cosδp*cosΔ)))
	return NormLon(l), b
}

// helpers
func toRad(d float64) float64 { return d * math.Pi / 180 }
func toDeg(r float64) float64 { return r * 180 / math.Pi }

func clampUnit(v float64) float64 { return math.Max(-1, math.Min(1, v)) }

// NormLon reduces a longitude to [0, 360).
func NormLon(l float64) float64 {
	l = math.Mod(l, 360)
	if l < 0 {
		l += 360
	}
	if l == 360 {
		// -tiny + 360 rounds up
		l = 0
	}
	return l
}
