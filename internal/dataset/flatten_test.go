package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/neuroimg/mriset/internal/volume"
)

func seqArray(t *testing.T, shape volume.Shape) *volume.Array {
	t.Helper()
	data := make([]float64, shape.NumElements())
	for i := range data {
		data[i] = float64(i)
	}
	arr, err := volume.New(data, shape)
	require.NoError(t, err)
	return arr
}

func TestForward1RoundTrip(t *testing.T) {
	m := NewFlattenMapper(volume.Shape{2, 3, 4}, "voxel_indices")
	arr := seqArray(t, volume.Shape{2, 3, 4})

	flat, err := m.Forward1(arr)
	require.NoError(t, err)
	require.Len(t, flat, 24)

	back, err := m.Reverse1(flat)
	require.NoError(t, err)
	assert.Equal(t, arr.Shape, back.Shape)
	assert.Equal(t, arr.Data, back.Data)
}

func TestForward1ShapeMismatch(t *testing.T) {
	m := NewFlattenMapper(volume.Shape{2, 3, 4}, "voxel_indices")
	arr := seqArray(t, volume.Shape{4, 3, 2})

	_, err := m.Forward1(arr)
	var shapeErr *volume.ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, volume.Shape{2, 3, 4}, shapeErr.Want)
}

func TestForwardReverseBatch(t *testing.T) {
	m := NewFlattenMapper(volume.Shape{2, 2, 2}, "voxel_indices")
	batch := seqArray(t, volume.Shape{3, 2, 2, 2})

	flat, err := m.Forward(batch)
	require.NoError(t, err)
	rows, cols := flat.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 8, cols)

	back, err := m.Reverse(flat)
	require.NoError(t, err)
	assert.Equal(t, batch.Shape, back.Shape)
	assert.Equal(t, batch.Data, back.Data)
}

func TestNarrowSelectsAndScattersBack(t *testing.T) {
	m := NewFlattenMapper(volume.Shape{2, 2}, "voxel_indices")
	narrowed := m.Narrow([]int{1, 3})
	assert.Equal(t, 2, narrowed.NumFeatures())

	arr := seqArray(t, volume.Shape{2, 2}) // [[0 1] [2 3]]
	flat, err := narrowed.Forward1(arr)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3}, flat)

	back, err := narrowed.Reverse1(flat)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 0, 3}, back.Data)
}

func TestNarrowComposes(t *testing.T) {
	m := NewFlattenMapper(volume.Shape{2, 3}, "voxel_indices")
	first := m.Narrow([]int{1, 3, 5})
	second := first.Narrow([]int{0, 2})

	arr := seqArray(t, volume.Shape{2, 3})
	flat, err := second.Forward1(arr)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 5}, flat)
}

func TestFeatureIndicesRowMajor(t *testing.T) {
	m := NewFlattenMapper(volume.Shape{2, 2, 2}, "voxel_indices")
	idx := m.FeatureIndices()
	require.Len(t, idx, 8)
	assert.Equal(t, []int{0, 0, 0}, idx[0])
	assert.Equal(t, []int{0, 0, 1}, idx[1])
	assert.Equal(t, []int{1, 1, 1}, idx[7])
}

func TestFeatureIndicesAfterNarrow(t *testing.T) {
	m := NewFlattenMapper(volume.Shape{2, 2}, "voxel_indices").Narrow([]int{1, 2})
	assert.Equal(t, IntTuples{{0, 1}, {1, 0}}, m.FeatureIndices())
}

func TestReverseRejectsWrongWidth(t *testing.T) {
	m := NewFlattenMapper(volume.Shape{2, 2}, "voxel_indices")
	_, err := m.Reverse(mat.NewDense(2, 3, nil))
	assert.Error(t, err)
	_, err = m.Reverse1(make([]float64, 3))
	assert.Error(t, err)
}
