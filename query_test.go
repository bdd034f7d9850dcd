package sfddust

import (
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// sentinelStore returns constant maps, 1 in the north and 2 in the south,
// so the output reveals which hemisphere served each element.
func sentinelStore(t *testing.T) *Store {
	t.Helper()
	north := mustMap(t, North, constGrid(8, 1), trivialProjection(North))
	south := mustMap(t, South, constGrid(8, 2), trivialProjection(South))
	s, err := NewStore(north, south)
	require.NoError(t, err)
	return s
}

func TestQueryHemisphereDispatch(t *testing.T) {
	s := sentinelStore(t)
	l := Vector(0.0, 10, 20, 30, 40, 50)
	b := Vector(45, -45, 0, math.Copysign(0, -1), -1e-9, 90)

	for order := 0; order <= MaxOrder; order++ {
		got, err := s.Query(l, b, WithOrder(order))
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float32{1, 2, 1, 1, 2, 1}, got.Data(), 1e-5, "order %d", order)
	}
}

// TestQueryTwoMapScenario checks a hand-computed case on 4×4 equidistant
// maps with unit pixels and the reference pixel at the grid origin.
func TestQueryTwoMapScenario(t *testing.T) {
	s := trivialStore(t, 4)

	// North, (0, 0): φ = 0, R = 90 → plane (0, −90) → clamped to row 0, col 0.
	// South, (0, −1e-9): φ = 180°, R ≈ 90 → plane (≈0, 90) → row 3, col 0.
	got, err := s.Query(Vector(0.0, 0), Vector(0.0, -1e-9), WithOrder(0))
	require.NoError(t, err)
	assert.Equal(t, []float32{100, 212}, got.Data())

	// −0 compares equal to 0 and reads the north map.
	v, err := s.QueryScalar(0, math.Copysign(0, -1), WithOrder(0))
	require.NoError(t, err)
	assert.Equal(t, float32(100), v)

	// l = 90, b = 89 lands exactly on pixel (1, 0) of the north map.
	v, err = s.QueryScalar(90, 89, WithOrder(0))
	require.NoError(t, err)
	assert.Equal(t, float32(101), v)
}

// TestQueryClampsFarOutside verifies positions far beyond the grid read the
// edge value rather than extrapolating.
func TestQueryClampsFarOutside(t *testing.T) {
	north := mustMap(t, North, seqGrid(4, 0), Projection{
		Type: ARC, RefX: 1.5, RefY: 1.5, RefLat: 90, LonPole: 180,
		CD: [2][2]float64{{1, 0}, {0, 1}},
	})
	south := mustMap(t, South, seqGrid(4, 0), trivialProjection(South))
	s, err := NewStore(north, south)
	require.NoError(t, err)

	// l = 45, b = 1: R = 89 → pixel (64.4, −61.4) → clamped to row 0, col 3.
	for _, order := range []int{0, 1, 3} {
		v, err := s.QueryScalar(45, 1, WithOrder(order))
		require.NoError(t, err)
		assert.InDelta(t, 3, v, 1e-4, "order %d", order)
	}
}

func TestQueryShapes(t *testing.T) {
	s := sentinelStore(t)

	scalar, err := s.Query(Scalar(10.0), Scalar(-5.0), WithOrder(0))
	require.NoError(t, err)
	assert.Equal(t, 0, scalar.Rank())
	v, ok := scalar.Item()
	require.True(t, ok)
	assert.Equal(t, float32(2), v)

	l, err := NewArray([]int{2, 3}, []float64{0, 1, 2, 3, 4, 5})
	require.NoError(t, err)
	b, err := NewArray([]int{2, 3}, []float64{10, -10, 10, -10, 10, -10})
	require.NoError(t, err)
	grid, err := s.Query(l, b, WithOrder(0))
	require.NoError(t, err)
	if diff := cmp.Diff([]int{2, 3}, grid.Shape()); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, float32(2), grid.At(1, 2))
	assert.Equal(t, float32(1), grid.At(1, 1))

	empty, err := s.Query(Vector[float64](), Vector[float64]())
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	if diff := cmp.Diff([]int{0}, empty.Shape()); diff != "" {
		t.Errorf("empty shape mismatch (-want +got):\n%s", diff)
	}
}

// TestQueryScalarMatchesArray verifies a scalar query equals the single
// element of the equivalent one-element array query, for every order.
func TestQueryScalarMatchesArray(t *testing.T) {
	s := trivialStore(t, 8)
	positions := [][2]float64{{30, 85}, {200, -87.3}, {359, 88.8}, {12, -0.5}}
	for order := 0; order <= MaxOrder; order++ {
		for _, p := range positions {
			v, err := s.QueryScalar(p[0], p[1], WithOrder(order))
			require.NoError(t, err)
			arr, err := s.Query(Vector(p[0]), Vector(p[1]), WithOrder(order))
			require.NoError(t, err)
			assert.Equal(t, arr.Data()[0], v, "order %d at %v", order, p)
		}
	}
}

// TestQueryElementwise verifies each element of a mixed batch equals its
// own scalar query, so partitioning and scattering preserve positions.
func TestQueryElementwise(t *testing.T) {
	s := trivialStore(t, 8)
	ls := []float64{10, 200, 33, 300, 120, 5}
	bs := []float64{86, -84, 88.5, -89, 83.2, -86}
	got, err := s.Query(Vector(ls...), Vector(bs...), WithOrder(1))
	require.NoError(t, err)
	for i := range ls {
		want, err := s.QueryScalar(ls[i], bs[i], WithOrder(1))
		require.NoError(t, err)
		assert.InDelta(t, want, got.Data()[i], 1e-5, "element %d", i)
	}
}

func TestQueryShapeMismatch(t *testing.T) {
	s := sentinelStore(t)
	cases := []struct {
		name string
		l, b Array[float64]
	}{
		{"lengths", Vector(1.0, 2), Vector(1.0, 2, 3)},
		{"rank", Vector(1.0), Scalar(1.0)},
		{"2x3 vs 3x2", mustArray(t, []int{2, 3}), mustArray(t, []int{3, 2})},
	}
	for _, tc := range cases {
		out, err := s.Query(tc.l, tc.b)
		require.Error(t, err, tc.name)
		assert.ErrorIs(t, err, ErrShapeMismatch, tc.name)
		var se *ShapeMismatchError
		require.ErrorAs(t, err, &se, tc.name)
		assert.Equal(t, tc.l.Shape(), se.L, tc.name)
		assert.Equal(t, 0, out.Len(), tc.name)
	}
}

func mustArray(t *testing.T, shape []int) Array[float64] {
	t.Helper()
	n := 1
	for _, d := range shape {
		n *= d
	}
	a, err := NewArray(shape, make([]float64, n))
	require.NoError(t, err)
	return a
}

func TestQueryNaN(t *testing.T) {
	s := sentinelStore(t)
	got, err := s.Query(Vector(10, math.NaN(), 10), Vector(math.NaN(), 45, -45), WithOrder(0))
	require.NoError(t, err)
	d := got.Data()
	assert.True(t, math.IsNaN(float64(d[0])), "NaN latitude")
	assert.True(t, math.IsNaN(float64(d[1])), "NaN longitude")
	assert.Equal(t, float32(2), d[2])
}

func TestQueryInvalidOrder(t *testing.T) {
	s := sentinelStore(t)
	for _, order := range []int{-1, 6} {
		_, err := s.Query(Vector(1.0), Vector(1.0), WithOrder(order))
		assert.ErrorIs(t, err, ErrInvalidOrder)
		_, err = s.QueryScalar(1, 1, WithOrder(order))
		assert.ErrorIs(t, err, ErrInvalidOrder)
	}
}

func TestQueryMalformedArray(t *testing.T) {
	s := sentinelStore(t)
	bad := Array[float64]{shape: []int{3}, data: []float64{1}}
	_, err := s.Query(bad, bad)
	assert.Error(t, err)
}

func TestQueryMatrix(t *testing.T) {
	s := sentinelStore(t)
	l := mat.NewDense(2, 2, []float64{0, 90, 180, 270})
	b := mat.NewDense(2, 2, []float64{30, -30, -60, 60})
	got, err := s.QueryMatrix(l, b, WithOrder(0))
	require.NoError(t, err)
	want := mat.NewDense(2, 2, []float64{1, 2, 2, 1})
	assert.True(t, mat.Equal(want, got), "got %v", mat.Formatted(got))

	_, err = s.QueryMatrix(l, mat.NewDense(1, 2, nil))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

// TestFuncAlias verifies the function value behaves exactly like Query.
func TestFuncAlias(t *testing.T) {
	s := trivialStore(t, 8)
	var q QueryFunc = s.Func()
	l, b := Vector(30.0, 200), Vector(85.0, -87)
	want, err := s.Query(l, b, WithOrder(2))
	require.NoError(t, err)
	got, err := q(l, b, WithOrder(2))
	require.NoError(t, err)
	if diff := cmp.Diff(want.Data(), got.Data()); diff != "" {
		t.Errorf("Func mismatch (-Query +Func):\n%s", diff)
	}
}

// TestQueryConcurrent verifies concurrent queries share the store safely,
// including the first spline build.
func TestQueryConcurrent(t *testing.T) {
	s := trivialStore(t, 8)
	l, b := Vector(30.0, 200, 45), Vector(85.0, -87, 89)
	want, err := s.Query(l, b, WithOrder(1))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	outs := make([][]float32, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			order := 1
			if i%2 == 0 {
				order = 4
			}
			res, err := s.Query(l, b, WithOrder(order))
			errs[i] = err
			outs[i] = res.Data()
		}()
	}
	wg.Wait()
	for i := range errs {
		require.NoError(t, errs[i])
		if i%2 == 1 {
			assert.Equal(t, want.Data(), outs[i])
		} else {
			assert.Equal(t, outs[0], outs[i])
		}
	}
}
