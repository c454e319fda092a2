package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/neuroimg/mriset/internal/volume"
)

// FlattenMapper converts volumes of a fixed spatial shape into flat feature
// vectors and back. An optional feature selection (set via Narrow, e.g. after
// masking) restricts the forward output to a subset of voxels; reverse
// mapping scatters those features back into a zero-filled volume.
//
// Feature order is the row-major order of the spatial shape, so for
// (x, y, z) volumes the z coordinate varies fastest.
type FlattenMapper struct {
	shape    volume.Shape
	space    string
	selected []int // nil selects every voxel
}

// NewFlattenMapper creates a mapper for volumes of the given spatial shape.
// space is the attribute name under which feature coordinates are stored
// ("" when spatial attributes are disabled).
func NewFlattenMapper(shape volume.Shape, space string) *FlattenMapper {
	return &FlattenMapper{shape: shape.Clone(), space: space}
}

// Shape returns the spatial shape this mapper flattens.
func (m *FlattenMapper) Shape() volume.Shape { return m.shape }

// Space returns the configured coordinate attribute name.
func (m *FlattenMapper) Space() string { return m.space }

// NumFeatures returns the flat feature count after selection.
func (m *FlattenMapper) NumFeatures() int {
	if m.selected != nil {
		return len(m.selected)
	}
	return m.shape.NumElements()
}

// Narrow returns a mapper restricted to the given feature positions
// (indices into the current feature space). Narrowing composes.
func (m *FlattenMapper) Narrow(keep []int) *FlattenMapper {
	selected := make([]int, len(keep))
	if m.selected == nil {
		copy(selected, keep)
	} else {
		for i, idx := range keep {
			selected[i] = m.selected[idx]
		}
	}
	return &FlattenMapper{shape: m.shape, space: m.space, selected: selected}
}

// Forward1 flattens a single volume into a feature vector. The volume's
// shape must equal the mapper's spatial shape.
func (m *FlattenMapper) Forward1(arr *volume.Array) ([]float64, error) {
	if !arr.Shape.Equal(m.shape) {
		return nil, &volume.ShapeMismatchError{Want: m.shape, Got: arr.Shape}
	}
	if m.selected == nil {
		out := make([]float64, len(arr.Data))
		copy(out, arr.Data)
		return out, nil
	}
	out := make([]float64, len(m.selected))
	for i, idx := range m.selected {
		out[i] = arr.Data[idx]
	}
	return out, nil
}

// Forward flattens a batch: the leading axis indexes samples and the
// remaining axes must equal the mapper's spatial shape.
func (m *FlattenMapper) Forward(arr *volume.Array) (*mat.Dense, error) {
	if arr.Rank() < 1 || !arr.Shape[1:].Equal(m.shape) {
		return nil, &volume.ShapeMismatchError{Want: m.shape, Got: arr.Shape[1:]}
	}
	rows := arr.Shape[0]
	size := m.shape.NumElements()
	out := mat.NewDense(rows, m.NumFeatures(), nil)
	for i := 0; i < rows; i++ {
		row := arr.Data[i*size : (i+1)*size]
		if m.selected == nil {
			out.SetRow(i, row)
			continue
		}
		for j, idx := range m.selected {
			out.Set(i, j, row[idx])
		}
	}
	return out, nil
}

// Reverse1 maps a single feature vector back into a volume. Positions not
// covered by the selection are zero.
func (m *FlattenMapper) Reverse1(row []float64) (*volume.Array, error) {
	if len(row) != m.NumFeatures() {
		return nil, fmt.Errorf("feature vector has %d entries, mapper expects %d",
			len(row), m.NumFeatures())
	}
	out := volume.Zeros(m.shape)
	if m.selected == nil {
		copy(out.Data, row)
		return out, nil
	}
	for i, idx := range m.selected {
		out.Data[idx] = row[i]
	}
	return out, nil
}

// Reverse maps a samples-by-features matrix back into a volume batch with a
// leading sample axis.
func (m *FlattenMapper) Reverse(data *mat.Dense) (*volume.Array, error) {
	rows, cols := data.Dims()
	if cols != m.NumFeatures() {
		return nil, fmt.Errorf("matrix has %d feature columns, mapper expects %d",
			cols, m.NumFeatures())
	}
	size := m.shape.NumElements()
	shape := append(volume.Shape{rows}, m.shape.Clone()...)
	out := volume.Zeros(shape)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, data)
		dst := out.Data[i*size : (i+1)*size]
		if m.selected == nil {
			copy(dst, row)
			continue
		}
		for j, idx := range m.selected {
			dst[idx] = row[j]
		}
	}
	return out, nil
}

// FeatureIndices returns the spatial coordinates of every (selected)
// feature, in feature order.
func (m *FlattenMapper) FeatureIndices() IntTuples {
	strides := m.shape.ComputeStrides()
	coords := func(flat int) []int {
		out := make([]int, len(m.shape))
		for ax, stride := range strides {
			out[ax] = flat / stride
			flat -= out[ax] * stride
		}
		return out
	}

	if m.selected == nil {
		n := m.shape.NumElements()
		out := make(IntTuples, n)
		for i := 0; i < n; i++ {
			out[i] = coords(i)
		}
		return out
	}
	out := make(IntTuples, len(m.selected))
	for i, idx := range m.selected {
		out[i] = coords(idx)
	}
	return out
}
