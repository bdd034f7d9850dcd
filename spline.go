package sfddust

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
)

// splinePad is the number of edge-replicated pixels added on every side
// before prefiltering, so that the mirror boundary of the recursive filter
// behaves like nearest-value extension at the true grid edge.
const splinePad = 12

// splineTolerance bounds the truncation error of the causal initialisation.
const splineTolerance = 1e-15

// splineCache holds B-spline coefficients per interpolation order.
type splineCache struct {
	once   [MaxOrder + 1]sync.Once
	coeffs [MaxOrder + 1]*splineCoeffs
}

// splineCoeffs is a padded, prefiltered copy of a grid.
// Values are stored row-major: c[row*size + col].
type splineCoeffs struct {
	size int // padded edge length
	c    []float64
}

// splineCoefficients returns the coefficients for order (2..MaxOrder),
// computing them on first use. The build is logged to logger by whichever
// caller triggers it.
func (m *HemisphereMap) splineCoefficients(order int, logger *slog.Logger) *splineCoeffs {
	m.splines.once[order].Do(func() {
		start := time.Now()
		m.splines.coeffs[order] = prefilter(&m.Grid, order)
		logger.Debug("built spline coefficients",
			"hemisphere", m.Pole,
			"order", order,
			"elapsed", time.Since(start))
	})
	return m.splines.coeffs[order]
}

// splinePoles returns the poles of the recursive B-spline prefilter.
func splinePoles(order int) []float64 {
	switch order {
	case 2:
		return []float64{math.Sqrt(8) - 3}
	case 3:
		return []float64{math.Sqrt(3) - 2}
	case 4:
		return []float64{
			math.Sqrt(664-math.Sqrt(438976)) + math.Sqrt(304) - 19,
			math.Sqrt(664+math.Sqrt(438976)) - math.Sqrt(304) - 19,
		}
	case 5:
		return []float64{
			math.Sqrt(135.0/2-math.Sqrt(17745.0/4)) + math.Sqrt(105.0/4) - 13.0/2,
			math.Sqrt(135.0/2+math.Sqrt(17745.0/4)) - math.Sqrt(105.0/4) - 13.0/2,
		}
	}
	return nil
}

// prefilter pads g by splinePad with edge values and converts it into
// B-spline coefficients of the given order, filtering rows then columns.
func prefilter(g *Grid, order int) *splineCoeffs {
	n := g.Size
	size := n + 2*splinePad
	c := make([]float64, size*size)
	for row := 0; row < size; row++ {
		src := clampIndex(row-splinePad, n)
		for col := 0; col < size; col++ {
			c[row*size+col] = float64(g.Vals[src*n+clampIndex(col-splinePad, n)])
		}
	}

	poles := splinePoles(order)
	for row := 0; row < size; row++ {
		filterLine(c[row*size:(row+1)*size], poles)
	}
	line := make([]float64, size)
	for col := 0; col < size; col++ {
		for row := 0; row < size; row++ {
			line[row] = c[row*size+col]
		}
		filterLine(line, poles)
		for row := 0; row < size; row++ {
			c[row*size+col] = line[row]
		}
	}
	return &splineCoeffs{size: size, c: c}
}

// filterLine converts samples to B-spline coefficients in place using the
// causal/anticausal recursive filter with mirror-symmetric boundaries.
func filterLine(c []float64, poles []float64) {
	n := len(c)
	if n < 2 {
		return
	}
	gain := 1.0
	for _, z := range poles {
		gain *= (1 - z) * (1 - 1/z)
	}
	floats.Scale(gain, c)

	for _, z := range poles {
		c[0] = causalInit(c, z)
		for i := 1; i < n; i++ {
			c[i] += z * c[i-1]
		}
		c[n-1] = anticausalInit(c, z)
		for i := n - 2; i >= 0; i-- {
			c[i] = z * (c[i+1] - c[i])
		}
	}
}

func causalInit(c []float64, z float64) float64 {
	n := len(c)
	horizon := int(math.Ceil(math.Log(splineTolerance) / math.Log(math.Abs(z))))
	if horizon < n {
		zn := z
		sum := c[0]
		for k := 1; k < horizon; k++ {
			sum += zn * c[k]
			zn *= z
		}
		return sum
	}
	zn := z
	iz := 1 / z
	z2n := math.Pow(z, float64(n-1))
	sum := c[0] + z2n*c[n-1]
	z2n *= z2n * iz
	for k := 1; k <= n-2; k++ {
		sum += (zn + z2n) * c[k]
		zn *= z
		z2n *= iz
	}
	return sum / (1 - zn*zn)
}

func anticausalInit(c []float64, z float64) float64 {
	n := len(c)
	return (z / (z*z - 1)) * (z*c[n-2] + c[n-1])
}

// bspline evaluates the centred B-spline of degree n at x.
func bspline(n int, x float64) float64 {
	x = math.Abs(x)
	half := float64(n+1) / 2
	if x >= half {
		return 0
	}
	var sum float64
	sign := 1.0
	binom := 1.0 // C(n+1, k)
	for k := 0; k <= n+1; k++ {
		if t := x + half - float64(k); t > 0 {
			sum += sign * binom * math.Pow(t, float64(n))
		}
		binom = binom * float64(n+1-k) / float64(k+1)
		sign = -sign
	}
	fact := 1.0
	for k := 2; k <= n; k++ {
		fact *= float64(k)
	}
	return sum / fact
}

// splineWindow returns the first coefficient index and the n+1 weights for
// coordinate c. Even orders centre on the nearest index, odd orders on the
// floor.
func splineWindow(c float64, order int, w []float64) int {
	var start int
	if order&1 == 1 {
		start = int(math.Floor(c)) - order/2
	} else {
		start = int(math.Floor(c+0.5)) - order/2
	}
	for k := 0; k <= order; k++ {
		w[k] = bspline(order, c-float64(start+k))
	}
	return start
}

// at evaluates the spline at padded coordinates (x, y).
func (s *splineCoeffs) at(x, y float64, order int) float64 {
	var wx, wy [MaxOrder + 1]float64
	x0 := splineWindow(x, order, wx[:])
	y0 := splineWindow(y, order, wy[:])

	var v float64
	for j := 0; j <= order; j++ {
		row := clampIndex(y0+j, s.size) * s.size
		var acc float64
		for i := 0; i <= order; i++ {
			acc += wx[i] * s.c[row+clampIndex(x0+i, s.size)]
		}
		v += wy[j] * acc
	}
	return v
}
