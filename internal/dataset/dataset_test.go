package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewValidatesSampleAttributes(t *testing.T) {
	samples := mat.NewDense(3, 4, nil)

	ds, err := New(samples, map[string]Values{"targets": Strings{"a", "b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, 3, ds.NumSamples())
	assert.Equal(t, 4, ds.NumFeatures())

	_, err = New(samples, map[string]Values{"targets": Strings{"a", "b"}})
	var lenErr *LengthMismatchError
	assert.ErrorAs(t, err, &lenErr)
}

func TestSelectFeatures(t *testing.T) {
	samples := mat.NewDense(2, 4, []float64{
		0, 1, 2, 3,
		4, 5, 6, 7,
	})
	ds, err := New(samples, map[string]Values{"chunks": Ints{0, 1}})
	require.NoError(t, err)
	ds.FA["strength"] = Floats{0.1, 0.2, 0.3, 0.4}

	out, err := ds.SelectFeatures([]int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumFeatures())
	assert.Equal(t, []float64{3, 1}, out.Row(0))
	assert.Equal(t, []float64{7, 5}, out.Row(1))
	assert.Equal(t, Values(Floats{0.4, 0.2}), out.FA["strength"])
	assert.Equal(t, Values(Ints{0, 1}), out.SA["chunks"])

	_, err = ds.SelectFeatures([]int{9})
	assert.Error(t, err)
}
