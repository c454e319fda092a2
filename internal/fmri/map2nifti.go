package fmri

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/neuroimg/mriset/internal/dataset"
	"github.com/neuroimg/mriset/internal/nifti"
	"github.com/neuroimg/mriset/internal/volume"
)

// ImageOptions overrides parts of the image produced by ToImage.
type ImageOptions struct {
	// Data replaces the dataset's samples: a samples-by-features matrix,
	// a single feature vector, or another dataset. nil uses ds.Samples.
	Data any
	// Header overrides the dataset's stored header: a live header or a
	// snapshot. nil falls back to ds.A["imghdr"], then to defaults.
	Header any
	// Class overrides the image class. Empty falls back to ds.A["imgtype"].
	Class string
}

// ToImage maps dataset samples back into a spatial image using the dataset's
// flatten mapper. Masked-out voxels come back as zero. Multi-sample data
// produces a 4D image with time as the trailing axis; a single feature
// vector produces a 3D image.
func ToImage(ds *dataset.Dataset, opts ImageOptions) (*nifti.Image, error) {
	if ds.Mapper == nil {
		return nil, fmt.Errorf("dataset has no volume mapper attached")
	}

	var arr *volume.Array
	var err error
	switch d := opts.Data.(type) {
	case nil:
		arr, err = ds.Mapper.Reverse(ds.Samples)
	case *dataset.Dataset:
		arr, err = ds.Mapper.Reverse(d.Samples)
	case *mat.Dense:
		arr, err = ds.Mapper.Reverse(d)
	case []float64:
		arr, err = ds.Mapper.Reverse1(d)
	default:
		return nil, fmt.Errorf("unsupported data source %T", opts.Data)
	}
	if err != nil {
		return nil, err
	}
	arr = volume.SpatialMajor(arr)

	hdr, err := resolveHeader(ds, opts.Header)
	if err != nil {
		return nil, err
	}

	class := opts.Class
	if class == "" {
		if t, ok := ds.A["imgtype"].(string); ok {
			class = t
		} else {
			slog.Debug("no stored image type, defaulting", "class", nifti.ImageClass)
			class = nifti.ImageClass
		}
	}
	if class != nifti.ImageClass {
		hdrName := ""
		if hdr != nil {
			hdrName = hdr.TypeName()
		}
		return nil, &HeaderIncompatibleError{Class: class, Header: hdrName}
	}

	setDisplayRange(hdr, arr)
	return nifti.NewImage(arr, nil, hdr)
}

func resolveHeader(ds *dataset.Dataset, override any) (nifti.Header, error) {
	raw := override
	if raw == nil {
		stored, ok := ds.A["imghdr"]
		if !ok {
			slog.Debug("no stored image header, using defaults")
			return nil, nil
		}
		raw = stored
	}
	switch h := raw.(type) {
	case nifti.Header:
		return h, nil
	case HeaderSnapshot:
		return DecodeHeader(h)
	case map[string]any:
		return DecodeHeader(HeaderSnapshot(h))
	default:
		return nil, fmt.Errorf("unsupported header source %T", raw)
	}
}

// setDisplayRange records the data range in the header's display fields.
// Header types without such fields simply ignore the update.
func setDisplayRange(hdr nifti.Header, arr *volume.Array) {
	if hdr == nil || len(arr.Data) == 0 {
		return
	}
	lo, hi := arr.Data[0], arr.Data[0]
	for _, v := range arr.Data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	_ = hdr.SetField("cal_max", hi)
	_ = hdr.SetField("cal_min", lo)
}
