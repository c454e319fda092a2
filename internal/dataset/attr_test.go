package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandScalarBroadcast(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Values
	}{
		{"string", "rest", Strings{"rest", "rest", "rest"}},
		{"int", 7, Ints{7, 7, 7}},
		{"float", 1.5, Floats{1.5, 1.5, 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.value, 3, "attr")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandScalarOverTenRows(t *testing.T) {
	got, err := Expand("A", 10, "targets")
	require.NoError(t, err)
	require.Equal(t, 10, got.Len())
	for _, v := range got.(Strings) {
		assert.Equal(t, "A", v)
	}
}

func TestExpandSequencePassthrough(t *testing.T) {
	got, err := Expand([]int{1, 2, 3}, 3, "chunks")
	require.NoError(t, err)
	assert.Equal(t, Ints{1, 2, 3}, got)
}

func TestExpandLengthMismatch(t *testing.T) {
	_, err := Expand([]string{"a", "b", "c", "d", "e"}, 10, "targets")
	var lenErr *LengthMismatchError
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, "targets", lenErr.Name)
	assert.Equal(t, 10, lenErr.Want)
	assert.Equal(t, 5, lenErr.Got)
}

func TestExpandUnsupportedType(t *testing.T) {
	_, err := Expand(struct{}{}, 3, "attr")
	assert.Error(t, err)
}

func TestValuesSelect(t *testing.T) {
	assert.Equal(t, Values(Strings{"c", "a"}), Strings{"a", "b", "c"}.Select([]int{2, 0}))
	assert.Equal(t, Values(Ints{3, 1}), Ints{1, 2, 3}.Select([]int{2, 0}))
	assert.Equal(t, Values(Floats{0.3, 0.1}), Floats{0.1, 0.2, 0.3}.Select([]int{2, 0}))
	assert.Equal(t,
		Values(IntTuples{{1, 0}, {0, 0}}),
		IntTuples{{0, 0}, {0, 1}, {1, 0}}.Select([]int{2, 0}))
}
