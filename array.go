package sfddust

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Float is the element type of an Array.
type Float interface {
	~float32 | ~float64
}

// Array is an n-dimensional row-major array. Rank 0 is a scalar.
// Arrays are values; the constructors copy their input.
type Array[T Float] struct {
	shape []int
	data  []T
}

// Scalar returns a rank-0 array holding v.
func Scalar[T Float](v T) Array[T] {
	return Array[T]{data: []T{v}}
}

// Vector returns a rank-1 array holding a copy of v.
func Vector[T Float](v ...T) Array[T] {
	return Array[T]{shape: []int{len(v)}, data: slices.Clone(v)}
}

// NewArray returns an array of the given shape holding a copy of data.
func NewArray[T Float](shape []int, data []T) (Array[T], error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return Array[T]{}, fmt.Errorf("negative dimension in shape %v", shape)
		}
		n *= d
	}
	if n != len(data) {
		return Array[T]{}, fmt.Errorf("shape %v holds %d elements, got %d", shape, n, len(data))
	}
	return Array[T]{shape: slices.Clone(shape), data: slices.Clone(data)}, nil
}

// FromMatrix returns a rank-2 array with the contents of m.
func FromMatrix(m mat.Matrix) Array[float64] {
	r, c := m.Dims()
	data := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return Array[float64]{shape: []int{r, c}, data: data}
}

// ToDense converts a rank-2 array into a gonum matrix.
func ToDense[T Float](a Array[T]) (*mat.Dense, error) {
	if a.Rank() != 2 {
		return nil, fmt.Errorf("ToDense: rank %d, want 2", a.Rank())
	}
	r, c := a.shape[0], a.shape[1]
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("ToDense: empty shape %v", a.shape)
	}
	data := make([]float64, len(a.data))
	for i, v := range a.data {
		data[i] = float64(v)
	}
	return mat.NewDense(r, c, data), nil
}

// Shape returns a copy of the array's dimensions.
func (a Array[T]) Shape() []int { return slices.Clone(a.shape) }

// Rank returns the number of dimensions.
func (a Array[T]) Rank() int { return len(a.shape) }

// Len returns the number of elements.
func (a Array[T]) Len() int { return len(a.data) }

// Data returns the elements in row-major order. The slice is shared.
func (a Array[T]) Data() []T { return a.data }

// At returns the element at the given index, one value per dimension.
func (a Array[T]) At(idx ...int) T {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("sfddust: At with %d indices on rank %d array", len(idx), len(a.shape)))
	}
	off := 0
	for k, i := range idx {
		if i < 0 || i >= a.shape[k] {
			panic(fmt.Sprintf("sfddust: index %d out of range for axis %d of length %d", i, k, a.shape[k]))
		}
		off = off*a.shape[k] + i
	}
	return a.data[off]
}

// Item returns the single element of a rank-0 array.
func (a Array[T]) Item() (T, bool) {
	if len(a.shape) != 0 || len(a.data) != 1 {
		return 0, false
	}
	return a.data[0], true
}

// valid reports whether the element count matches the shape. Only the zero
// Array and hand-built values can fail this.
func (a Array[T]) valid() bool {
	n := 1
	for _, d := range a.shape {
		n *= d
	}
	return n == len(a.data)
}
