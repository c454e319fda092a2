package nifti

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/neuroimg/mriset/internal/volume"
)

func testImage(t *testing.T, shape volume.Shape) *Image {
	t.Helper()
	data := make([]float64, shape.NumElements())
	for i := range data {
		data[i] = float64(i%113) * 0.5
	}
	arr, err := volume.New(data, shape)
	require.NoError(t, err)

	hdr := NewNifti1Header()
	hdr.SetZooms([]float64{2, 2, 3, 2.5})
	img, err := NewImage(arr, nil, hdr)
	require.NoError(t, err)
	return img
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		shape volume.Shape
	}{
		{"3d", volume.Shape{4, 5, 6}},
		{"4d", volume.Shape{4, 4, 4, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := testImage(t, tt.shape)

			var buf bytes.Buffer
			require.NoError(t, Encode(img, &buf))

			got, err := Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.shape, got.Data.Shape)
			assert.InDeltaSlice(t, img.Data.Data, got.Data.Data, 1e-4)
			assert.Equal(t, img.Hdr.Zooms(), got.Hdr.Zooms())
		})
	}
}

func TestEncodeDecodeIntegerDatatypes(t *testing.T) {
	for _, code := range []int{DTUint8, DTInt16, DTInt32, DTFloat64} {
		img := testImage(t, volume.Shape{3, 3, 3})
		img.Hdr.(*Nifti1Header).DataType = int16(code)
		for i := range img.Data.Data {
			img.Data.Data[i] = float64(i % 100) // integral values survive every datatype
		}

		var buf bytes.Buffer
		require.NoError(t, Encode(img, &buf))

		got, err := Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, img.Data.Data, got.Data.Data, "datatype %d", code)
	}
}

func TestSaveLoadGzip(t *testing.T) {
	dir := t.TempDir()
	img := testImage(t, volume.Shape{4, 4, 4, 2})

	for _, name := range []string{"plain.nii", "packed.nii.gz"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(img, path))

		got, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, img.Data.Shape, got.Data.Shape)
		assert.InDeltaSlice(t, img.Data.Data, got.Data.Data, 1e-4)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.nii"))
	assert.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader(make([]byte, 1024)))
	assert.Error(t, err)
}

func TestBestAffinePreference(t *testing.T) {
	hdr := NewNifti1Header()
	hdr.SetZooms([]float64{2, 3, 4})

	// no form codes: pixdim diagonal
	a := hdr.BestAffine()
	assert.Equal(t, 2.0, a.At(0, 0))
	assert.Equal(t, 3.0, a.At(1, 1))
	assert.Equal(t, 4.0, a.At(2, 2))
	assert.Equal(t, 1.0, a.At(3, 3))

	// qform with identity rotation scales by pixdim and applies offsets
	hdr.QFormCode = 1
	hdr.QOffsetX = 10
	a = hdr.BestAffine()
	assert.Equal(t, 2.0, a.At(0, 0))
	assert.Equal(t, 10.0, a.At(0, 3))

	// sform wins over qform
	s := mat.NewDense(4, 4, []float64{
		-2, 0, 0, 90,
		0, 2, 0, -126,
		0, 0, 2, -72,
		0, 0, 0, 1,
	})
	hdr.SetSForm(s, 2)
	a = hdr.BestAffine()
	assert.Equal(t, -2.0, a.At(0, 0))
	assert.Equal(t, 90.0, a.At(0, 3))
}

func TestHeaderFieldsRoundTrip(t *testing.T) {
	hdr := NewNifti1Header()
	hdr.SetDataShape([]int{4, 5, 6, 7})
	hdr.SetZooms([]float64{2, 2, 2, 2.5})
	hdr.CalMax = 100
	setPadded(hdr.Descrip[:], "synthetic scan")

	fields := hdr.Fields()
	require.NotNil(t, fields)

	clone := NewNifti1Header()
	for name, value := range fields {
		require.NoError(t, clone.SetField(name, value), "field %s", name)
	}
	assert.Equal(t, hdr.Fields(), clone.Fields())
	assert.Equal(t, []int{4, 5, 6, 7}, clone.DataShape())
}

func TestHeaderSetFieldUnknown(t *testing.T) {
	hdr := NewNifti1Header()
	assert.Error(t, hdr.SetField("no_such_field", 1))
}

func TestZoomsFollowDimensionality(t *testing.T) {
	hdr := NewNifti1Header()
	hdr.SetDataShape([]int{4, 5, 6, 7})
	hdr.SetZooms([]float64{1.5, 1.5, 3, 2})

	zooms := hdr.Zooms()
	require.Len(t, zooms, 4)
	assert.Equal(t, 2.0, zooms[3])
}

func TestNewImageKeepsHeaderTransform(t *testing.T) {
	arr := volume.Zeros(volume.Shape{2, 2, 2})
	hdr := NewNifti1Header()
	s := mat.NewDense(4, 4, []float64{
		3, 0, 0, 1,
		0, 3, 0, 2,
		0, 0, 3, 3,
		0, 0, 0, 1,
	})
	hdr.SetSForm(s, 2)

	img, err := NewImage(arr, nil, hdr)
	require.NoError(t, err)
	assert.Equal(t, 3.0, img.Affine.At(0, 0))
	assert.Equal(t, []int{2, 2, 2}, hdr.DataShape())
}
