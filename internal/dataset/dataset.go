// Package dataset provides the samples-by-features table that volumetric
// data is flattened into, with per-sample, per-feature and dataset-level
// attribute namespaces, plus the flatten mapper that makes the transform
// invertible.
package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Dataset is a 2D samples-by-features table. SA holds per-row (sample)
// attributes, FA per-column (feature) attributes, and A dataset-global
// attributes such as the image affine and header snapshot. Mapper, when set,
// records how feature columns map back into a spatial volume.
type Dataset struct {
	Samples *mat.Dense
	SA      map[string]Values
	FA      map[string]Values
	A       map[string]any
	Mapper  *FlattenMapper
}

// New creates a dataset from a samples matrix and optional sample
// attributes. Every attribute column must match the row count.
func New(samples *mat.Dense, sa map[string]Values) (*Dataset, error) {
	rows, _ := samples.Dims()
	ds := &Dataset{
		Samples: samples,
		SA:      make(map[string]Values),
		FA:      make(map[string]Values),
		A:       make(map[string]any),
	}
	for name, col := range sa {
		if col.Len() != rows {
			return nil, &LengthMismatchError{Name: name, Want: rows, Got: col.Len()}
		}
		ds.SA[name] = col
	}
	return ds, nil
}

// NumSamples returns the row count.
func (ds *Dataset) NumSamples() int {
	rows, _ := ds.Samples.Dims()
	return rows
}

// NumFeatures returns the column count.
func (ds *Dataset) NumFeatures() int {
	_, cols := ds.Samples.Dims()
	return cols
}

// SelectFeatures returns a new dataset holding only the given feature
// columns, with feature attributes narrowed accordingly and the mapper (if
// any) updated so reverse mapping scatters back into the full volume.
func (ds *Dataset) SelectFeatures(keep []int) (*Dataset, error) {
	rows, cols := ds.Samples.Dims()
	for _, idx := range keep {
		if idx < 0 || idx >= cols {
			return nil, fmt.Errorf("feature index %d out of range [0, %d)", idx, cols)
		}
	}

	picked := mat.NewDense(rows, len(keep), nil)
	for j, idx := range keep {
		for i := 0; i < rows; i++ {
			picked.Set(i, j, ds.Samples.At(i, idx))
		}
	}

	out := &Dataset{
		Samples: picked,
		SA:      make(map[string]Values, len(ds.SA)),
		FA:      make(map[string]Values, len(ds.FA)),
		A:       make(map[string]any, len(ds.A)),
	}
	for name, col := range ds.SA {
		out.SA[name] = col
	}
	for name, col := range ds.FA {
		out.FA[name] = col.Select(keep)
	}
	for name, val := range ds.A {
		out.A[name] = val
	}
	if ds.Mapper != nil {
		out.Mapper = ds.Mapper.Narrow(keep)
	}
	return out, nil
}

// Row returns a copy of one sample row.
func (ds *Dataset) Row(i int) []float64 {
	_, cols := ds.Samples.Dims()
	out := make([]float64, cols)
	mat.Row(out, i, ds.Samples)
	return out
}
