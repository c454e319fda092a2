package dataset

import "fmt"

// Values is one attribute column: a typed sequence with one entry per sample
// (sample attributes) or per feature (feature attributes).
type Values interface {
	Len() int
	// Select returns a new column holding the entries at the given indices.
	Select(indices []int) Values
}

// Strings is a string-valued attribute column.
type Strings []string

func (v Strings) Len() int { return len(v) }

func (v Strings) Select(indices []int) Values {
	out := make(Strings, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out
}

// Ints is an integer-valued attribute column.
type Ints []int

func (v Ints) Len() int { return len(v) }

func (v Ints) Select(indices []int) Values {
	out := make(Ints, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out
}

// Floats is a float-valued attribute column.
type Floats []float64

func (v Floats) Len() int { return len(v) }

func (v Floats) Select(indices []int) Values {
	out := make(Floats, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out
}

// IntTuples is an attribute column of small integer tuples, e.g. per-feature
// voxel coordinates.
type IntTuples [][]int

func (v IntTuples) Len() int { return len(v) }

func (v IntTuples) Select(indices []int) Values {
	out := make(IntTuples, len(indices))
	for i, idx := range indices {
		out[i] = v[idx]
	}
	return out
}

// LengthMismatchError reports an attribute sequence whose length disagrees
// with the number of samples or features it should describe.
type LengthMismatchError struct {
	Name string
	Want int
	Got  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("attribute %q has %d entries, expected %d", e.Name, e.Got, e.Want)
}

// Expand broadcasts a scalar attribute value to a column of length n, or
// validates that a given sequence already has length n. The name is used in
// diagnostics only.
func Expand(value any, n int, name string) (Values, error) {
	switch v := value.(type) {
	case string:
		out := make(Strings, n)
		for i := range out {
			out[i] = v
		}
		return out, nil
	case int:
		out := make(Ints, n)
		for i := range out {
			out[i] = v
		}
		return out, nil
	case float64:
		out := make(Floats, n)
		for i := range out {
			out[i] = v
		}
		return out, nil
	case []string:
		return checkLen(Strings(v), n, name)
	case []int:
		return checkLen(Ints(v), n, name)
	case []float64:
		return checkLen(Floats(v), n, name)
	case Values:
		return checkLen(v, n, name)
	default:
		return nil, fmt.Errorf("unsupported attribute type %T for %q", value, name)
	}
}

func checkLen(v Values, n int, name string) (Values, error) {
	if v.Len() != n {
		return nil, &LengthMismatchError{Name: name, Want: n, Got: v.Len()}
	}
	return v, nil
}
