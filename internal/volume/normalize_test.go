package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeMajorSpatialMajorInvolutive(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
	}{
		{"3d untouched", Shape{4, 5, 6}},
		{"4d rolled", Shape{4, 5, 6, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr, err := New(seq(tt.shape.NumElements()), tt.shape)
			require.NoError(t, err)

			back := SpatialMajor(TimeMajor(arr))
			assert.Equal(t, arr.Shape, back.Shape)
			assert.Equal(t, arr.Data, back.Data)
		})
	}
}

func TestTimeMajorMovesTimeAxisFirst(t *testing.T) {
	arr, err := New(seq(2*3*4*5), Shape{2, 3, 4, 5})
	require.NoError(t, err)

	tm := TimeMajor(arr)
	assert.Equal(t, Shape{5, 2, 3, 4}, tm.Shape)

	// volume 0 of the time-major array is the t=0 hyperslab of the source
	srcStrides := arr.Shape.ComputeStrides()
	for x := 0; x < 2; x++ {
		for y := 0; y < 3; y++ {
			for z := 0; z < 4; z++ {
				want := arr.Data[x*srcStrides[0]+y*srcStrides[1]+z*srcStrides[2]]
				got := tm.Data[(x*3+y)*4+z]
				assert.Equal(t, want, got)
			}
		}
	}
}

func TestEnforceRankPads(t *testing.T) {
	arr, err := New(seq(24), Shape{2, 3, 4})
	require.NoError(t, err)

	out, err := EnforceRank(arr, 4)
	require.NoError(t, err)
	assert.Equal(t, Shape{1, 2, 3, 4}, out.Shape)
	assert.Equal(t, arr.Data, out.Data)
}

func TestEnforceRankStripsSingletonLeading(t *testing.T) {
	arr, err := New(seq(24), Shape{1, 2, 3, 4})
	require.NoError(t, err)

	out, err := EnforceRank(arr, 3)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3, 4}, out.Shape)
}

func TestEnforceRankRejectsNonSingletonLeading(t *testing.T) {
	arr, err := New(seq(48), Shape{2, 2, 3, 4})
	require.NoError(t, err)

	_, err = EnforceRank(arr, 3)
	var dimErr *DimensionError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Rank)
	assert.Equal(t, Shape{2, 2, 3, 4}, dimErr.Shape)
}

func TestEnforceRankNoop(t *testing.T) {
	arr, err := New(seq(24), Shape{2, 3, 4})
	require.NoError(t, err)

	out, err := EnforceRank(arr, 3)
	require.NoError(t, err)
	assert.Same(t, arr, out)
}

func TestDropAxis(t *testing.T) {
	arr, err := New(seq(24), Shape{2, 3, 1, 4})
	require.NoError(t, err)

	out, err := DropAxis(arr, 2)
	require.NoError(t, err)
	assert.Equal(t, Shape{2, 3, 4}, out.Shape)
	assert.Equal(t, arr.Data, out.Data)
}
