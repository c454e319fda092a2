package fmri

import (
	"fmt"
	"log/slog"

	"github.com/neuroimg/mriset/internal/nifti"
	"github.com/neuroimg/mriset/internal/volume"
)

// source is the result of resolving one image source: voxel data in
// time-major order plus the header and image it came from. hdr and img are
// nil for sources that carry bare data only.
type source struct {
	data *volume.Array
	hdr  nifti.Header
	img  *nifti.Image
}

// loadAny resolves an image source into time-major voxel data. Accepted
// sources are file paths, decoded images, arrays, and lists of any of those
// (stacked along the sample axis). ensure makes an unresolvable source an
// error instead of a nil result. enforceRank, when positive, coerces the
// data to that rank after loading.
func loadAny(src any, ensure bool, enforceRank int) (*source, error) {
	res, err := resolve(src, ensure)
	if err != nil || res == nil {
		return res, err
	}
	if enforceRank > 0 {
		slog.Debug("enforcing data rank", "rank", enforceRank, "shape", res.data.Shape)
		data, err := volume.EnforceRank(res.data, enforceRank)
		if err != nil {
			return nil, err
		}
		res.data = data
	}
	return res, nil
}

func resolve(src any, ensure bool) (*source, error) {
	switch s := src.(type) {
	case nil:
		return notLoaded(src, ensure)
	case string:
		img, err := nifti.Load(s)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", s, err)
		}
		return fromImage(img), nil
	case *nifti.Image:
		return fromImage(s), nil
	case *volume.Array:
		// bare arrays are taken as already sample-major
		return &source{data: s}, nil
	case []string:
		items := make([]any, len(s))
		for i, p := range s {
			items[i] = p
		}
		return resolveList(items, ensure)
	case []any:
		return resolveList(s, ensure)
	default:
		return notLoaded(src, ensure)
	}
}

// resolveList loads each element, coerces it to a 4D timeseries and stacks
// them along the sample axis. Header and image of the first element
// represent the whole stack.
func resolveList(items []any, ensure bool) (*source, error) {
	if len(items) == 0 {
		return notLoaded(items, ensure)
	}
	parts := make([]*volume.Array, len(items))
	var first *source
	for i, item := range items {
		res, err := loadAny(item, ensure, 4)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, fmt.Errorf("%w: list element %d (%T)", ErrLoad, i, item)
		}
		if first == nil {
			first = res
		}
		parts[i] = res.data
	}
	stacked, err := volume.Vstack(parts)
	if err != nil {
		return nil, err
	}
	return &source{data: stacked, hdr: first.hdr, img: first.img}, nil
}

// fromImage extracts time-major data from a decoded image, squeezing the
// spurious singleton 4th dimension some AFNI exports carry in 5D files.
func fromImage(img *nifti.Image) *source {
	data := img.Data
	if data.Rank() == 5 && data.Shape[3] == 1 {
		slog.Warn("detected 5D image with singleton 4th dimension, squeezing",
			"shape", data.Shape)
		squeezed, err := volume.DropAxis(data, 3)
		if err == nil {
			data = squeezed
			img.Hdr.SetDataShape(data.Shape)
		}
	}
	return &source{data: volume.TimeMajor(data), hdr: img.Hdr, img: img}
}

func notLoaded(src any, ensure bool) (*source, error) {
	if ensure {
		return nil, fmt.Errorf("%w: unsupported source %T", ErrLoad, src)
	}
	return nil, nil
}
