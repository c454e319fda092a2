// Package nifti reads and writes NIfTI-1 images. The binary header layout
// follows the official nifti1.h definition; only single-file images
// (magic "n+1") are supported.
package nifti

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// NIfTI-1 datatype codes (DT_* in nifti1.h).
const (
	DTUint8   = 2
	DTInt16   = 4
	DTInt32   = 8
	DTFloat32 = 16
	DTFloat64 = 64
)

const (
	headerSize   = 348
	voxOffsetMin = 352
	magicSingle  = "n+1"
)

// Header is the format-independent view of an image header: a mapping-like
// object with named fields, plus the geometry accessors the dataset layer
// needs. Nifti1Header is currently the only implementation; the indirection
// keeps header snapshots decodable without committing callers to one type.
type Header interface {
	// TypeName identifies the concrete header class for snapshots.
	TypeName() string
	// Fields returns all header fields as plain scalars, strings and small
	// numeric slices. Returns nil if the header cannot be snapshotted.
	Fields() map[string]any
	// SetField sets one named field from a plain value.
	SetField(name string, value any) error
	// Zooms returns the per-axis physical sizes for the active dimensions;
	// for timeseries images the last entry is the inter-volume interval.
	Zooms() []float64
	// SetDataShape updates the dimension fields for a new data shape.
	SetDataShape(dims []int)
	// BestAffine derives the voxel-to-world transform the header encodes.
	BestAffine() *mat.Dense
	// Datatype returns the on-disk element type code (DT_*).
	Datatype() int
}

// Nifti1Header mirrors the 348-byte NIfTI-1 header. Field types match the
// wire layout so the struct can be read and written with encoding/binary.
type Nifti1Header struct {
	SizeofHdr    int32
	DataTypeStr  [10]byte // unused legacy field
	DBName       [18]byte // unused legacy field
	Extents      int32    // unused legacy field
	SessionError int16    // unused legacy field
	Regular      byte     // unused legacy field
	DimInfo      byte

	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	DataType      int16
	BitPix        int16
	SliceStart    int16
	PixDim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     int8
	XYZTUnits     int8
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	TOffset       float32
	Glmax         int32 // unused legacy field
	Glmin         int32 // unused legacy field

	Descrip [80]byte
	AuxFile [24]byte

	QFormCode int16
	SFormCode int16

	QuaternB float32
	QuaternC float32
	QuaternD float32
	QOffsetX float32
	QOffsetY float32
	QOffsetZ float32

	SRowX [4]float32
	SRowY [4]float32
	SRowZ [4]float32

	IntentName [16]byte

	Magic [4]byte
}

// NewNifti1Header returns a header with sane single-file defaults:
// float32 data, unit voxels, identity scaling.
func NewNifti1Header() *Nifti1Header {
	h := &Nifti1Header{
		SizeofHdr: headerSize,
		DataType:  DTFloat32,
		BitPix:    32,
		SclSlope:  1,
		SclInter:  0,
		VoxOffset: voxOffsetMin,
	}
	h.Dim = [8]int16{3, 1, 1, 1, 1, 1, 1, 1}
	for i := range h.PixDim {
		h.PixDim[i] = 1
	}
	copy(h.Magic[:], magicSingle)
	return h
}

// TypeName implements Header. The name intentionally matches the class name
// used by common neuroimaging toolchains so snapshots interoperate.
func (h *Nifti1Header) TypeName() string { return "Nifti1Header" }

// Datatype implements Header.
func (h *Nifti1Header) Datatype() int { return int(h.DataType) }

// NDim returns the number of active dimensions.
func (h *Nifti1Header) NDim() int {
	n := int(h.Dim[0])
	if n < 0 {
		return 0
	}
	if n > 7 {
		return 7
	}
	return n
}

// DataShape returns the active dimensions as a plain slice.
func (h *Nifti1Header) DataShape() []int {
	n := h.NDim()
	dims := make([]int, n)
	for i := 0; i < n; i++ {
		dims[i] = int(h.Dim[i+1])
	}
	return dims
}

// SetDataShape implements Header. Inactive dimensions are reset to 1.
func (h *Nifti1Header) SetDataShape(dims []int) {
	h.Dim = [8]int16{1, 1, 1, 1, 1, 1, 1, 1}
	h.Dim[0] = int16(len(dims))
	for i, d := range dims {
		h.Dim[i+1] = int16(d)
	}
}

// Zooms implements Header: pixdim for every active dimension.
func (h *Nifti1Header) Zooms() []float64 {
	n := h.NDim()
	zooms := make([]float64, n)
	for i := 0; i < n; i++ {
		zooms[i] = float64(h.PixDim[i+1])
	}
	return zooms
}

// SetZooms sets pixdim for the active dimensions.
func (h *Nifti1Header) SetZooms(zooms []float64) {
	for i, z := range zooms {
		if i+1 < len(h.PixDim) {
			h.PixDim[i+1] = float32(z)
		}
	}
}

// Descrip returns the description field as a string.
func (h *Nifti1Header) DescripString() string {
	return trimNul(h.Descrip[:])
}

func trimNul(b []byte) string {
	return strings.TrimRight(string(b), "\x00")
}

func setPadded(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, s)
}

// Fields implements Header: every meaningful header field as a plain value.
// Keys follow the conventional nifti1.h member names.
func (h *Nifti1Header) Fields() map[string]any {
	dim := make([]int, 8)
	for i, d := range h.Dim {
		dim[i] = int(d)
	}
	pixdim := make([]float64, 8)
	for i, p := range h.PixDim {
		pixdim[i] = float64(p)
	}
	return map[string]any{
		"sizeof_hdr":     int(h.SizeofHdr),
		"dim_info":       int(h.DimInfo),
		"dim":            dim,
		"intent_p1":      float64(h.IntentP1),
		"intent_p2":      float64(h.IntentP2),
		"intent_p3":      float64(h.IntentP3),
		"intent_code":    int(h.IntentCode),
		"datatype":       int(h.DataType),
		"bitpix":         int(h.BitPix),
		"slice_start":    int(h.SliceStart),
		"pixdim":         pixdim,
		"vox_offset":     float64(h.VoxOffset),
		"scl_slope":      float64(h.SclSlope),
		"scl_inter":      float64(h.SclInter),
		"slice_end":      int(h.SliceEnd),
		"slice_code":     int(h.SliceCode),
		"xyzt_units":     int(h.XYZTUnits),
		"cal_max":        float64(h.CalMax),
		"cal_min":        float64(h.CalMin),
		"slice_duration": float64(h.SliceDuration),
		"toffset":        float64(h.TOffset),
		"descrip":        trimNul(h.Descrip[:]),
		"aux_file":       trimNul(h.AuxFile[:]),
		"qform_code":     int(h.QFormCode),
		"sform_code":     int(h.SFormCode),
		"quatern_b":      float64(h.QuaternB),
		"quatern_c":      float64(h.QuaternC),
		"quatern_d":      float64(h.QuaternD),
		"qoffset_x":      float64(h.QOffsetX),
		"qoffset_y":      float64(h.QOffsetY),
		"qoffset_z":      float64(h.QOffsetZ),
		"srow_x":         []float64{float64(h.SRowX[0]), float64(h.SRowX[1]), float64(h.SRowX[2]), float64(h.SRowX[3])},
		"srow_y":         []float64{float64(h.SRowY[0]), float64(h.SRowY[1]), float64(h.SRowY[2]), float64(h.SRowY[3])},
		"srow_z":         []float64{float64(h.SRowZ[0]), float64(h.SRowZ[1]), float64(h.SRowZ[2]), float64(h.SRowZ[3])},
		"intent_name":    trimNul(h.IntentName[:]),
		"magic":          trimNul(h.Magic[:]),
	}
}

// SetField implements Header.
func (h *Nifti1Header) SetField(name string, value any) error {
	switch name {
	case "sizeof_hdr":
		h.SizeofHdr = int32(toInt(value))
	case "dim_info":
		h.DimInfo = byte(toInt(value))
	case "dim":
		ints, err := toIntSlice(value, 8)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		for i, v := range ints {
			h.Dim[i] = int16(v)
		}
	case "intent_p1":
		h.IntentP1 = float32(toFloat(value))
	case "intent_p2":
		h.IntentP2 = float32(toFloat(value))
	case "intent_p3":
		h.IntentP3 = float32(toFloat(value))
	case "intent_code":
		h.IntentCode = int16(toInt(value))
	case "datatype":
		h.DataType = int16(toInt(value))
	case "bitpix":
		h.BitPix = int16(toInt(value))
	case "slice_start":
		h.SliceStart = int16(toInt(value))
	case "pixdim":
		floats, err := toFloatSlice(value, 8)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		for i, v := range floats {
			h.PixDim[i] = float32(v)
		}
	case "vox_offset":
		h.VoxOffset = float32(toFloat(value))
	case "scl_slope":
		h.SclSlope = float32(toFloat(value))
	case "scl_inter":
		h.SclInter = float32(toFloat(value))
	case "slice_end":
		h.SliceEnd = int16(toInt(value))
	case "slice_code":
		h.SliceCode = int8(toInt(value))
	case "xyzt_units":
		h.XYZTUnits = int8(toInt(value))
	case "cal_max":
		h.CalMax = float32(toFloat(value))
	case "cal_min":
		h.CalMin = float32(toFloat(value))
	case "slice_duration":
		h.SliceDuration = float32(toFloat(value))
	case "toffset":
		h.TOffset = float32(toFloat(value))
	case "descrip":
		setPadded(h.Descrip[:], toString(value))
	case "aux_file":
		setPadded(h.AuxFile[:], toString(value))
	case "qform_code":
		h.QFormCode = int16(toInt(value))
	case "sform_code":
		h.SFormCode = int16(toInt(value))
	case "quatern_b":
		h.QuaternB = float32(toFloat(value))
	case "quatern_c":
		h.QuaternC = float32(toFloat(value))
	case "quatern_d":
		h.QuaternD = float32(toFloat(value))
	case "qoffset_x":
		h.QOffsetX = float32(toFloat(value))
	case "qoffset_y":
		h.QOffsetY = float32(toFloat(value))
	case "qoffset_z":
		h.QOffsetZ = float32(toFloat(value))
	case "srow_x", "srow_y", "srow_z":
		floats, err := toFloatSlice(value, 4)
		if err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		var row *[4]float32
		switch name {
		case "srow_x":
			row = &h.SRowX
		case "srow_y":
			row = &h.SRowY
		default:
			row = &h.SRowZ
		}
		for i, v := range floats {
			row[i] = float32(v)
		}
	case "intent_name":
		setPadded(h.IntentName[:], toString(value))
	case "magic":
		setPadded(h.Magic[:], toString(value))
	default:
		return fmt.Errorf("unknown header field %q", name)
	}
	return nil
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	return 0
}

func toInt(v any) int {
	switch x := v.(type) {
	case int:
		return x
	case int64:
		return int(x)
	case float64:
		return int(x)
	case float32:
		return int(x)
	}
	return 0
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toFloatSlice(v any, maxLen int) ([]float64, error) {
	var out []float64
	switch x := v.(type) {
	case []float64:
		out = x
	case []float32:
		out = make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
	case []int:
		out = make([]float64, len(x))
		for i, n := range x {
			out[i] = float64(n)
		}
	default:
		return nil, fmt.Errorf("expected numeric slice, got %T", v)
	}
	if len(out) > maxLen {
		return nil, fmt.Errorf("slice too long: %d > %d", len(out), maxLen)
	}
	return out, nil
}

func toIntSlice(v any, maxLen int) ([]int, error) {
	var out []int
	switch x := v.(type) {
	case []int:
		out = x
	case []int16:
		out = make([]int, len(x))
		for i, n := range x {
			out[i] = int(n)
		}
	case []float64:
		out = make([]int, len(x))
		for i, f := range x {
			out[i] = int(f)
		}
	default:
		return nil, fmt.Errorf("expected integer slice, got %T", v)
	}
	if len(out) > maxLen {
		return nil, fmt.Errorf("slice too long: %d > %d", len(out), maxLen)
	}
	return out, nil
}
