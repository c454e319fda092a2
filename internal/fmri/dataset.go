// Package fmri turns volumetric MRI images into flat samples-by-features
// datasets and back. Volumes are loaded from NIfTI files, decoded images or
// plain arrays, flattened voxel-wise with an invertible mapper, optionally
// masked, and annotated with spatial and temporal attributes derived from
// the image geometry.
package fmri

import (
	"fmt"
	"log/slog"

	"github.com/neuroimg/mriset/internal/dataset"
	"github.com/neuroimg/mriset/internal/volume"
)

// Config controls dataset construction.
type Config struct {
	// Targets and Chunks become per-sample attributes. Scalars broadcast to
	// every sample; sequences must match the sample count. nil omits the
	// attribute.
	Targets any
	Chunks  any

	// Mask restricts features to the nonzero voxels of a volume with the
	// same spatial shape as the samples. Accepts any image source.
	Mask any

	// SpacePrefix and TimePrefix name the derived geometry attributes
	// (<prefix>_indices, <prefix>_dim, <prefix>_eldim, <prefix>_coords).
	// An empty prefix disables that attribute group.
	SpacePrefix string
	TimePrefix  string

	// ExtraFeatures maps attribute names to volumetric sources which are
	// flattened through the dataset's mapper into feature attributes.
	ExtraFeatures map[string]any
}

// DefaultConfig returns the conventional attribute naming.
func DefaultConfig() Config {
	return Config{SpacePrefix: "voxel", TimePrefix: "time"}
}

// NewDataset builds a samples-by-features dataset from a volumetric source.
// The source is coerced to a 4D timeseries (sample axis first) and each
// volume is flattened into one row. The returned dataset carries the source
// geometry: voxel coordinates per feature, volume dimensions and element
// sizes, acquisition time per sample, and the image affine, type and header
// snapshot as dataset attributes.
func NewDataset(samples any, cfg Config) (*dataset.Dataset, error) {
	src, err := loadAny(samples, true, 4)
	if err != nil {
		return nil, err
	}

	var maskData *volume.Array
	if cfg.Mask != nil {
		msrc, err := loadAny(cfg.Mask, false, 0)
		if err != nil {
			return nil, err
		}
		if msrc != nil {
			maskData = msrc.data
		}
	}

	rows := src.data.Shape[0]
	sa := make(map[string]dataset.Values)
	if cfg.Targets != nil {
		if sa["targets"], err = dataset.Expand(cfg.Targets, rows, "targets"); err != nil {
			return nil, err
		}
	}
	if cfg.Chunks != nil {
		if sa["chunks"], err = dataset.Expand(cfg.Chunks, rows, "chunks"); err != nil {
			return nil, err
		}
	}

	space := ""
	if cfg.SpacePrefix != "" {
		space = cfg.SpacePrefix + "_indices"
	}
	mapper := dataset.NewFlattenMapper(src.data.Shape[1:], space)
	table, err := mapper.Forward(src.data)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.New(table, sa)
	if err != nil {
		return nil, err
	}
	ds.Mapper = mapper
	if space != "" {
		ds.FA[space] = mapper.FeatureIndices()
	}

	if maskData != nil {
		flat, err := ds.Mapper.Forward1(maskData)
		if err != nil {
			return nil, err
		}
		keep := make([]int, 0, len(flat))
		for i, v := range flat {
			if v != 0 {
				keep = append(keep, i)
			}
		}
		slog.Debug("applying volume mask", "kept", len(keep), "total", len(flat))
		if ds, err = ds.SelectFeatures(keep); err != nil {
			return nil, err
		}
	}

	for name, extra := range cfg.ExtraFeatures {
		esrc, err := loadAny(extra, true, 0)
		if err != nil {
			return nil, fmt.Errorf("feature attribute %q: %w", name, err)
		}
		flat, err := ds.Mapper.Forward1(esrc.data)
		if err != nil {
			return nil, fmt.Errorf("feature attribute %q: %w", name, err)
		}
		ds.FA[name] = dataset.Floats(flat)
	}

	if src.img != nil {
		ds.A["imgaffine"] = src.img.Affine
		ds.A["imgtype"] = src.img.Class
	}
	if src.hdr != nil {
		ds.A["imghdr"] = src.hdr
		StripHeader(ds.A)
	}

	if cfg.SpacePrefix != "" {
		ds.A[cfg.SpacePrefix+"_dim"] = src.data.Shape[1:].Clone()
		if src.hdr != nil {
			zooms := src.hdr.Zooms()
			if len(zooms) > 1 {
				eldim := make([]float64, len(zooms)-1)
				copy(eldim, zooms[:len(zooms)-1])
				ds.A[cfg.SpacePrefix+"_eldim"] = eldim
			}
		}
	}

	if cfg.TimePrefix != "" {
		dt := 0.0
		if src.hdr != nil {
			if zooms := src.hdr.Zooms(); len(zooms) > 0 {
				dt = zooms[len(zooms)-1]
			}
		}
		indices := make(dataset.Ints, rows)
		coords := make(dataset.Floats, rows)
		for i := 0; i < rows; i++ {
			indices[i] = i
			coords[i] = float64(i) * dt
		}
		ds.SA[cfg.TimePrefix+"_indices"] = indices
		ds.SA[cfg.TimePrefix+"_coords"] = coords
	}

	return ds, nil
}
