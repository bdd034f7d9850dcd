package sfddust

import "fmt"

// Grid is a square raster of reddening values.
// Values are stored row-major: Vals[row*Size + col], row = y, col = x.
type Grid struct {
	Size int
	Vals []float32
}

// At returns the value at (row, col).
func (g *Grid) At(row, col int) float32 {
	return g.Vals[row*g.Size+col]
}

func (g *Grid) validate() error {
	if g.Size <= 0 || g.Size > maxGridDim {
		return fmt.Errorf("invalid grid size %d (max %d)", g.Size, maxGridDim)
	}
	// int64 product: Size² overflows int on 32-bit platforms near the cap.
	if int64(len(g.Vals)) != int64(g.Size)*int64(g.Size) {
		return fmt.Errorf("grid holds %d values, expected %d (%dx%d)",
			len(g.Vals), int64(g.Size)*int64(g.Size), g.Size, g.Size)
	}
	return nil
}

// HemisphereMap is one pole's grid together with its projection.
// It is immutable once built and may be shared between stores; the spline
// coefficient cache is derived data filled lazily and safely from
// concurrent queries.
type HemisphereMap struct {
	Pole Hemisphere
	Grid Grid
	Proj Projection

	splines splineCache
}

// NewHemisphereMap validates the grid and projection and returns the map.
func NewHemisphereMap(pole Hemisphere, grid Grid, proj Projection) (*HemisphereMap, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}
	if err := proj.Validate(); err != nil {
		return nil, err
	}
	return &HemisphereMap{
		Pole: pole,
		Grid: grid,
		Proj: proj,
	}, nil
}

// Lookup projects (l, b) onto this map and samples it with the given
// interpolation order. The caller picks the hemisphere.
func (m *HemisphereMap) Lookup(l, b float64, order int) (float32, error) {
	x, y := m.Proj.WorldToPixel(l, b)
	return m.Sample(x, y, order)
}
