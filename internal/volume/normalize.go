package volume

// Conversions between the storage order of MRI volumes (x, y, z[, t], space
// first) and the analysis order ([t, ]x, y, z, time first). Both are no-ops
// for plain 3D volumes.

// TimeMajor moves the trailing time axis of a 4D array to the front. Arrays
// of any other rank are returned unchanged.
func TimeMajor(a *Array) *Array {
	if a.Rank() != 4 {
		return a
	}
	out, err := a.Moveaxis(-1, 0)
	if err != nil {
		panic(err) // rank checked above
	}
	return out
}

// SpatialMajor moves the leading time axis of a 4D array to the back, the
// inverse of TimeMajor. Arrays of any other rank are returned unchanged.
func SpatialMajor(a *Array) *Array {
	if a.Rank() != 4 {
		return a
	}
	out, err := a.Moveaxis(0, -1)
	if err != nil {
		panic(err)
	}
	return out
}

// EnforceRank coerces an array to the required rank. Missing dimensions are
// prepended as singletons. Extra leading dimensions are stripped only when
// they are all singleton; otherwise a DimensionError is returned. Trailing
// dimensions are never touched.
func EnforceRank(a *Array, rank int) (*Array, error) {
	cur := a.Rank()
	switch {
	case cur == rank:
		return a, nil
	case cur < rank:
		shape := make(Shape, 0, rank)
		for i := 0; i < rank-cur; i++ {
			shape = append(shape, 1)
		}
		shape = append(shape, a.Shape...)
		return a.Reshape(shape)
	default:
		extra := cur - rank
		for _, dim := range a.Shape[:extra] {
			if dim != 1 {
				return nil, &DimensionError{Rank: rank, Shape: a.Shape}
			}
		}
		return a.Reshape(a.Shape[extra:].Clone())
	}
}

// DropAxis removes a singleton axis at the given position. This is the data
// half of the compatibility fix for 5D exports whose 4th dimension is a
// spurious singleton.
func DropAxis(a *Array, axis int) (*Array, error) {
	if axis < 0 {
		axis += a.Rank()
	}
	shape := make(Shape, 0, a.Rank()-1)
	shape = append(shape, a.Shape[:axis]...)
	shape = append(shape, a.Shape[axis+1:]...)
	return a.Reshape(shape)
}
