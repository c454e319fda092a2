package nifti

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/neuroimg/mriset/internal/volume"
)

// ImageClass names the only spatial image type this codec produces. Header
// snapshots and datasets refer to image types by this name.
const ImageClass = "Nifti1Image"

// Image is a decoded spatial image: voxel data in storage order
// (x, y, z[, t], row-major), the header it was read with, and the
// voxel-to-world affine.
type Image struct {
	Data   *volume.Array
	Hdr    Header
	Affine *mat.Dense
	Class  string
}

// Shape returns the image's data shape.
func (img *Image) Shape() volume.Shape {
	return img.Data.Shape
}

// NewImage wraps a spatial-major data array into an image. A nil header gets
// a fresh default header. A nil affine is pulled from the header, so a
// caller-provided header keeps its embedded transform. The header's
// dimension fields are updated to match the data.
func NewImage(data *volume.Array, affine *mat.Dense, hdr Header) (*Image, error) {
	if data == nil {
		return nil, fmt.Errorf("nifti: image requires data")
	}
	if hdr == nil {
		hdr = NewNifti1Header()
	}
	hdr.SetDataShape(data.Shape)
	if affine == nil {
		affine = hdr.BestAffine()
	} else if h, ok := hdr.(*Nifti1Header); ok && h.SFormCode == 0 && h.QFormCode == 0 {
		h.SetSForm(affine, 2)
	}
	return &Image{Data: data, Hdr: hdr, Affine: affine, Class: ImageClass}, nil
}
