package sfddust

import (
	"fmt"
	"log/slog"
	"math"
)

// Interpolation orders. 0 is nearest-neighbour, 1 bilinear, 2..5 B-spline.
const (
	DefaultOrder = 1
	MaxOrder     = 5
)

func checkOrder(order int) error {
	if order < 0 || order > MaxOrder {
		return fmt.Errorf("%w: %d (supported: 0-%d)", ErrInvalidOrder, order, MaxOrder)
	}
	return nil
}

// Sample interpolates the grid at fractional array coordinates (x = column,
// y = row). Coordinates outside the grid are clamped to the nearest edge
// first, so values are never extrapolated. NaN coordinates yield NaN.
func (m *HemisphereMap) Sample(x, y float64, order int) (float32, error) {
	if err := checkOrder(order); err != nil {
		return 0, err
	}
	return m.sample(x, y, order, discardLogger), nil
}

// SampleBatch samples every (x[i], y[i]) into out[i].
func (m *HemisphereMap) SampleBatch(x, y []float64, order int, out []float32) error {
	return m.sampleBatch(x, y, order, out, discardLogger)
}

func (m *HemisphereMap) sampleBatch(x, y []float64, order int, out []float32, logger *slog.Logger) error {
	if err := checkOrder(order); err != nil {
		return err
	}
	if len(y) != len(x) || len(out) != len(x) {
		return fmt.Errorf("SampleBatch: slice lengths %d/%d/%d differ", len(x), len(y), len(out))
	}
	for i := range x {
		out[i] = m.sample(x[i], y[i], order, logger)
	}
	return nil
}

func (m *HemisphereMap) sample(x, y float64, order int, logger *slog.Logger) float32 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return float32(math.NaN())
	}
	g := &m.Grid
	x = clampCoord(x, g.Size)
	y = clampCoord(y, g.Size)

	switch order {
	case 0:
		return sampleNearest(g, x, y)
	case 1:
		return sampleLinear(g, x, y)
	}
	s := m.splineCoefficients(order, logger)
	return float32(s.at(x+splinePad, y+splinePad, order))
}

// sampleNearest rounds half up, as floor(c + 0.5).
func sampleNearest(g *Grid, x, y float64) float32 {
	col := clampIndex(int(math.Floor(x+0.5)), g.Size)
	row := clampIndex(int(math.Floor(y+0.5)), g.Size)
	return g.At(row, col)
}

func sampleLinear(g *Grid, x, y float64) float32 {
	fx, fy := math.Floor(x), math.Floor(y)
	tx, ty := x-fx, y-fy
	c0 := clampIndex(int(fx), g.Size)
	r0 := clampIndex(int(fy), g.Size)
	c1 := clampIndex(c0+1, g.Size)
	r1 := clampIndex(r0+1, g.Size)

	v := (1-ty)*((1-tx)*float64(g.At(r0, c0))+tx*float64(g.At(r0, c1))) +
		ty*((1-tx)*float64(g.At(r1, c0))+tx*float64(g.At(r1, c1)))
	return float32(v)
}

// clampCoord limits c to [0, n-1]. ±Inf clamps like any other value.
func clampCoord(c float64, n int) float64 {
	return math.Max(0, math.Min(float64(n-1), c))
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
