package nifti

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/neuroimg/mriset/internal/volume"
)

// Load reads a NIfTI-1 image from a .nii or .nii.gz file.
func Load(path string) (*Image, error) {
	f, err := os.Open(path) //nolint:gosec // reading a user-provided image path is the point
	if err != nil {
		return nil, fmt.Errorf("nifti: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	br := bufio.NewReader(f)
	head, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("nifti: read %s: %w", path, err)
	}

	var r io.Reader = br
	if head[0] == 0x1f && head[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("nifti: gzip %s: %w", path, err)
		}
		defer gz.Close() //nolint:errcheck
		r = gz
	}

	img, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("nifti: decode %s: %w", path, err)
	}
	return img, nil
}

// Decode reads a single-file NIfTI-1 image from a raw (uncompressed) stream.
// Byte order is inferred from the header size field.
func Decode(r io.Reader) (*Image, error) {
	hdrBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdrBytes); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	hdr := &Nifti1Header{}
	var order binary.ByteOrder = binary.LittleEndian
	if err := binary.Read(bytes.NewReader(hdrBytes), order, hdr); err != nil {
		return nil, fmt.Errorf("parsing header: %w", err)
	}
	if hdr.SizeofHdr != headerSize {
		hdr = &Nifti1Header{}
		order = binary.BigEndian
		if err := binary.Read(bytes.NewReader(hdrBytes), order, hdr); err != nil {
			return nil, fmt.Errorf("parsing header: %w", err)
		}
		if hdr.SizeofHdr != headerSize {
			return nil, fmt.Errorf("not a NIfTI-1 header (sizeof_hdr = %d)", hdr.SizeofHdr)
		}
	}

	if hdr.Dim[0] < 1 || hdr.Dim[0] > 7 {
		return nil, fmt.Errorf("invalid dimension count %d", hdr.Dim[0])
	}
	if magic := trimNul(hdr.Magic[:]); magic != magicSingle {
		return nil, fmt.Errorf("unsupported magic %q: only single-file (n+1) images are supported", magic)
	}
	elemSize, err := dtypeSize(int(hdr.DataType))
	if err != nil {
		return nil, err
	}

	// Voxel data starts at vox_offset; skip any header extensions.
	offset := int(hdr.VoxOffset)
	if offset < voxOffsetMin {
		offset = voxOffsetMin
	}
	if _, err := io.CopyN(io.Discard, r, int64(offset-headerSize)); err != nil {
		return nil, fmt.Errorf("skipping to voxel data: %w", err)
	}

	dims := hdr.DataShape()
	shape := volume.Shape(dims)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid data shape: %w", err)
	}
	n := shape.NumElements()

	voxBytes := make([]byte, n*elemSize)
	if _, err := io.ReadFull(r, voxBytes); err != nil {
		return nil, fmt.Errorf("reading %d voxels: %w", n, err)
	}
	raw, err := decodeVoxels(voxBytes, int(hdr.DataType), order, n)
	if err != nil {
		return nil, err
	}

	// The file stores voxels with the first axis varying fastest, which is a
	// row-major array over the reversed shape. Transpose back to row-major
	// storage order (x, y, z[, t]).
	fileArr, err := volume.New(raw, shape.Reversed())
	if err != nil {
		return nil, err
	}
	arr, err := fileArr.Transpose(reversePerm(len(shape)))
	if err != nil {
		return nil, err
	}

	return &Image{Data: arr, Hdr: hdr, Affine: hdr.BestAffine(), Class: ImageClass}, nil
}

func reversePerm(rank int) []int {
	perm := make([]int, rank)
	for i := range perm {
		perm[i] = rank - 1 - i
	}
	return perm
}

func dtypeSize(code int) (int, error) {
	switch code {
	case DTUint8:
		return 1, nil
	case DTInt16:
		return 2, nil
	case DTInt32, DTFloat32:
		return 4, nil
	case DTFloat64:
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported datatype code %d", code)
	}
}

func decodeVoxels(b []byte, code int, order binary.ByteOrder, n int) ([]float64, error) {
	out := make([]float64, n)
	switch code {
	case DTUint8:
		for i := 0; i < n; i++ {
			out[i] = float64(b[i])
		}
	case DTInt16:
		vals := make([]int16, n)
		if err := binary.Read(bytes.NewReader(b), order, &vals); err != nil {
			return nil, err
		}
		for i, v := range vals {
			out[i] = float64(v)
		}
	case DTInt32:
		vals := make([]int32, n)
		if err := binary.Read(bytes.NewReader(b), order, &vals); err != nil {
			return nil, err
		}
		for i, v := range vals {
			out[i] = float64(v)
		}
	case DTFloat32:
		vals := make([]float32, n)
		if err := binary.Read(bytes.NewReader(b), order, &vals); err != nil {
			return nil, err
		}
		for i, v := range vals {
			out[i] = float64(v)
		}
	case DTFloat64:
		if err := binary.Read(bytes.NewReader(b), order, &out); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported datatype code %d", code)
	}
	return out, nil
}
