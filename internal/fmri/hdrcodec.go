package fmri

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/neuroimg/mriset/internal/nifti"
)

// HeaderSnapshot is a codec-independent header representation: plain field
// values keyed by name, tagged with the concrete header type so it can be
// reconstituted later. Snapshots survive serialization (yaml, gob) where
// live header objects would not.
type HeaderSnapshot map[string]any

// hdrTypeKey tags a snapshot with the header type it was taken from.
const hdrTypeKey = "hdrtype"

var headerTypes = map[string]func() nifti.Header{}

// RegisterHeaderType makes a header implementation reconstructible from
// snapshots. The nifti package's types register themselves; additional codecs
// can hook in here.
func RegisterHeaderType(name string, ctor func() nifti.Header) {
	headerTypes[name] = ctor
}

func init() {
	RegisterHeaderType("Nifti1Header", func() nifti.Header { return nifti.NewNifti1Header() })
}

// EncodeHeader captures a header as a snapshot. Headers whose scaling fields
// are both NaN (a known bad-writer artifact) are repaired to the identity
// scaling. Fails when the header does not expose its fields.
func EncodeHeader(hdr nifti.Header) (HeaderSnapshot, error) {
	fields := hdr.Fields()
	if fields == nil {
		return nil, fmt.Errorf("header type %q does not expose fields", hdr.TypeName())
	}
	snap := make(HeaderSnapshot, len(fields)+1)
	for k, v := range fields {
		snap[k] = v
	}

	slope, sok := snap["scl_slope"].(float64)
	inter, iok := snap["scl_inter"].(float64)
	if sok && iok && math.IsNaN(slope) && math.IsNaN(inter) {
		slog.Warn("invalid (NaN) scl_ fields detected, resetting scl_slope=1 scl_inter=0")
		snap["scl_slope"] = 1.0
		snap["scl_inter"] = 0.0
	}

	snap[hdrTypeKey] = hdr.TypeName()
	return snap, nil
}

// DecodeHeader reconstitutes a header from a snapshot taken by EncodeHeader.
func DecodeHeader(snap HeaderSnapshot) (nifti.Header, error) {
	name, _ := snap[hdrTypeKey].(string)
	ctor, ok := headerTypes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHeaderType, name)
	}
	hdr := ctor()
	for k, v := range snap {
		if k == hdrTypeKey {
			continue
		}
		if err := hdr.SetField(k, v); err != nil {
			return nil, fmt.Errorf("decoding header snapshot: %w", err)
		}
	}
	return hdr, nil
}

// StripHeader replaces a live header object in a dataset attribute map with
// its snapshot, refreshing the stored affine from the header first. Headers
// that cannot be snapshotted are discarded. No-op when the attribute already
// holds a snapshot.
func StripHeader(attrs map[string]any) {
	raw, ok := attrs["imghdr"]
	if !ok {
		return
	}
	switch h := raw.(type) {
	case HeaderSnapshot:
		return
	case nifti.Header:
		attrs["imgaffine"] = h.BestAffine()
		snap, err := EncodeHeader(h)
		if err != nil {
			slog.Debug("discarding header that cannot be snapshotted",
				"type", h.TypeName(), "error", err)
			delete(attrs, "imghdr")
			return
		}
		attrs["imghdr"] = snap
	default:
		slog.Debug("discarding unrecognized header object", "type", fmt.Sprintf("%T", raw))
		delete(attrs, "imghdr")
	}
}
