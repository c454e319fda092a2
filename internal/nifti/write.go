package nifti

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

// Save writes an image to a .nii file, gzip-compressed when the path ends
// in .gz.
func Save(img *Image, path string) error {
	f, err := os.Create(path) //nolint:gosec // writing a user-provided output path is the point
	if err != nil {
		return fmt.Errorf("nifti: create %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	bw := bufio.NewWriter(f)
	var w io.Writer = bw
	var gz *gzip.Writer
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz = gzip.NewWriter(bw)
		w = gz
	}

	if err := Encode(img, w); err != nil {
		return fmt.Errorf("nifti: encode %s: %w", path, err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("nifti: flush %s: %w", path, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("nifti: flush %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes a single-file NIfTI-1 image in little-endian byte order.
// The header's dimension fields are synchronized with the data shape.
func Encode(img *Image, w io.Writer) error {
	hdr, ok := img.Hdr.(*Nifti1Header)
	if !ok {
		return fmt.Errorf("cannot encode image with header type %T", img.Hdr)
	}

	elemSize, err := dtypeSize(int(hdr.DataType))
	if err != nil {
		return err
	}
	hdr.BitPix = int16(elemSize * 8)
	hdr.SetDataShape(img.Data.Shape)
	hdr.SizeofHdr = headerSize
	hdr.VoxOffset = voxOffsetMin
	setPadded(hdr.Magic[:], magicSingle)

	order := binary.LittleEndian
	if err := binary.Write(w, order, hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	// Pad to vox_offset; no extensions are written.
	if _, err := w.Write(make([]byte, voxOffsetMin-headerSize)); err != nil {
		return err
	}

	// Mirror of Decode: row-major (x, y, z[, t]) becomes x-fastest file order
	// via a reversal transpose.
	fileArr, err := img.Data.Transpose(reversePerm(img.Data.Rank()))
	if err != nil {
		return err
	}
	return encodeVoxels(w, fileArr.Data, int(hdr.DataType), order)
}

func encodeVoxels(w io.Writer, data []float64, code int, order binary.ByteOrder) error {
	switch code {
	case DTUint8:
		out := make([]byte, len(data))
		for i, v := range data {
			out[i] = uint8(clamp(v, 0, math.MaxUint8))
		}
		_, err := w.Write(out)
		return err
	case DTInt16:
		out := make([]int16, len(data))
		for i, v := range data {
			out[i] = int16(clamp(v, math.MinInt16, math.MaxInt16))
		}
		return binary.Write(w, order, out)
	case DTInt32:
		out := make([]int32, len(data))
		for i, v := range data {
			out[i] = int32(clamp(v, math.MinInt32, math.MaxInt32))
		}
		return binary.Write(w, order, out)
	case DTFloat32:
		out := make([]float32, len(data))
		for i, v := range data {
			out[i] = float32(v)
		}
		return binary.Write(w, order, out)
	case DTFloat64:
		return binary.Write(w, order, data)
	default:
		return fmt.Errorf("unsupported datatype code %d", code)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
