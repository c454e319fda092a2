package volume

import "fmt"

// ShapeMismatchError reports that an array's shape disagrees with the shape
// an operation requires, e.g. a mask volume that does not match the data's
// spatial extent or a list of volumes with inconsistent shapes.
type ShapeMismatchError struct {
	Want Shape
	Got  Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: want %s, got %s", e.Want, e.Got)
}

// DimensionError reports that an array cannot be coerced to a required rank
// because it carries non-singleton extra leading dimensions.
type DimensionError struct {
	Rank  int
	Shape Shape
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("cannot enforce %dD on data with shape %s", e.Rank, e.Shape)
}
