package sfddust

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// QueryFunc is the signature of (*Store).Query.
type QueryFunc func(l, b Array[float64], opts ...QueryOption) (Array[float32], error)

// Func returns the store's query as a function value.
func (s *Store) Func() QueryFunc { return s.Query }

// Query returns E(B−V) at each galactic (l[i], b[i]), degrees. The result
// has the shape of l. Elements with b ≥ 0 are read from the north map, the
// rest from the south map.
//
// A NaN latitude belongs to neither map and yields NaN. The Python SFDQuery
// leaves such elements at 0, which reads as a real, dust-free value; callers
// porting from it should test for NaN instead.
func (s *Store) Query(l, b Array[float64], opts ...QueryOption) (Array[float32], error) {
	o := queryOptions{order: DefaultOrder}
	for _, opt := range opts {
		opt(&o)
	}
	if err := checkOrder(o.order); err != nil {
		return Array[float32]{}, err
	}
	if !l.valid() || !b.valid() {
		return Array[float32]{}, fmt.Errorf("query: malformed array")
	}
	if !slices.Equal(l.shape, b.shape) {
		return Array[float32]{}, &ShapeMismatchError{L: l.Shape(), B: b.Shape()}
	}

	ls, bs := l.data, b.data
	out := make([]float32, len(ls))

	var parts [2][]int
	for i, bi := range bs {
		pole, ok := HemisphereOf(bi)
		if !ok {
			out[i] = float32(math.NaN())
			continue
		}
		parts[pole] = append(parts[pole], i)
	}

	// Partitions write disjoint indices of out.
	var g errgroup.Group
	for _, pole := range []Hemisphere{North, South} {
		idx := parts[pole]
		if len(idx) == 0 {
			continue
		}
		m := s.Map(pole)
		g.Go(func() error {
			if err := evaluate(m, idx, ls, bs, o.order, out, s.logger); err != nil {
				return fmt.Errorf("%s partition: %w", pole, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Array[float32]{}, err
	}
	return Array[float32]{shape: l.Shape(), data: out}, nil
}

// evaluate projects and samples the elements idx of (ls, bs) on m and
// scatters the results back into out at their original positions.
func evaluate(m *HemisphereMap, idx []int, ls, bs []float64, order int, out []float32, logger *slog.Logger) error {
	n := len(idx)
	pl := make([]float64, n)
	pb := make([]float64, n)
	for k, i := range idx {
		pl[k], pb[k] = ls[i], bs[i]
	}

	x := make([]float64, n)
	y := make([]float64, n)
	if err := m.Proj.ProjectBatch(pl, pb, x, y); err != nil {
		return err
	}
	vals := make([]float32, n)
	if err := m.sampleBatch(x, y, order, vals, logger); err != nil {
		return err
	}
	for k, i := range idx {
		out[i] = vals[k]
	}
	return nil
}

// QueryScalar is Query for a single position.
func (s *Store) QueryScalar(l, b float64, opts ...QueryOption) (float32, error) {
	res, err := s.Query(Scalar(l), Scalar(b), opts...)
	if err != nil {
		return 0, err
	}
	v, _ := res.Item()
	return v, nil
}

// QueryMatrix is Query for rank-2 gonum inputs of equal dimensions.
func (s *Store) QueryMatrix(l, b mat.Matrix, opts ...QueryOption) (*mat.Dense, error) {
	res, err := s.Query(FromMatrix(l), FromMatrix(b), opts...)
	if err != nil {
		return nil, err
	}
	return ToDense(res)
}
