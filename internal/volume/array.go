// Package volume provides dense N-dimensional arrays for volumetric MRI data
// and the axis manipulations needed to move between on-disk storage order and
// in-memory analysis order.
package volume

import "fmt"

// Array is a dense N-dimensional array stored as a flat row-major buffer,
// i.e. the last axis varies fastest.
type Array struct {
	Data  []float64
	Shape Shape
}

// New creates an array from a flat buffer and a shape. The buffer length must
// match the shape's element count.
func New(data []float64, shape Shape) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %s (%d elements)",
			len(data), shape, shape.NumElements())
	}
	return &Array{Data: data, Shape: shape.Clone()}, nil
}

// Zeros creates a zero-filled array with the given shape.
func Zeros(shape Shape) *Array {
	return &Array{
		Data:  make([]float64, shape.NumElements()),
		Shape: shape.Clone(),
	}
}

// Rank returns the number of axes.
func (a *Array) Rank() int {
	return len(a.Shape)
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	data := make([]float64, len(a.Data))
	copy(data, a.Data)
	return &Array{Data: data, Shape: a.Shape.Clone()}
}

// Reshape returns a view-like array with a new shape over the same element
// order. The element count must be unchanged.
func (a *Array) Reshape(shape Shape) (*Array, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(a.Data) {
		return nil, fmt.Errorf("cannot reshape %s into %s", a.Shape, shape)
	}
	return &Array{Data: a.Data, Shape: shape.Clone()}, nil
}

// Transpose permutes the axes according to perm and materializes the result
// in row-major order. perm must be a permutation of [0, rank).
func (a *Array) Transpose(perm []int) (*Array, error) {
	rank := a.Rank()
	if len(perm) != rank {
		return nil, fmt.Errorf("permutation length %d does not match rank %d", len(perm), rank)
	}
	seen := make([]bool, rank)
	for _, p := range perm {
		if p < 0 || p >= rank || seen[p] {
			return nil, fmt.Errorf("invalid axis permutation %v for rank %d", perm, rank)
		}
		seen[p] = true
	}

	srcStrides := a.Shape.ComputeStrides()
	newShape := make(Shape, rank)
	permStrides := make([]int, rank)
	for i, p := range perm {
		newShape[i] = a.Shape[p]
		permStrides[i] = srcStrides[p]
	}

	out := make([]float64, len(a.Data))
	dstStrides := newShape.ComputeStrides()
	for di := range out {
		rem := di
		src := 0
		for ax := 0; ax < rank; ax++ {
			idx := rem / dstStrides[ax]
			rem -= idx * dstStrides[ax]
			src += idx * permStrides[ax]
		}
		out[di] = a.Data[src]
	}
	return &Array{Data: out, Shape: newShape}, nil
}

// Moveaxis moves the axis at position from to position to, shifting the
// remaining axes accordingly (numpy moveaxis semantics).
func (a *Array) Moveaxis(from, to int) (*Array, error) {
	rank := a.Rank()
	if from < 0 {
		from += rank
	}
	if to < 0 {
		to += rank
	}
	if from < 0 || from >= rank || to < 0 || to >= rank {
		return nil, fmt.Errorf("moveaxis: axes (%d, %d) out of range for rank %d", from, to, rank)
	}
	perm := make([]int, 0, rank)
	for ax := 0; ax < rank; ax++ {
		if ax != from {
			perm = append(perm, ax)
		}
	}
	perm = append(perm[:to], append([]int{from}, perm[to:]...)...)
	return a.Transpose(perm)
}

// Vstack concatenates arrays along their first axis. All inputs must agree on
// every dimension past the leading one.
func Vstack(arrays []*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("vstack: no arrays given")
	}
	base := arrays[0].Shape
	rows := 0
	size := 0
	for _, arr := range arrays {
		if arr.Rank() != len(base) || !arr.Shape[1:].Equal(base[1:]) {
			return nil, &ShapeMismatchError{Want: base[1:], Got: arr.Shape[1:]}
		}
		rows += arr.Shape[0]
		size += len(arr.Data)
	}
	out := make([]float64, 0, size)
	for _, arr := range arrays {
		out = append(out, arr.Data...)
	}
	shape := append(Shape{rows}, base[1:].Clone()...)
	return &Array{Data: out, Shape: shape}, nil
}
