package fmri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/neuroimg/mriset/internal/nifti"
	"github.com/neuroimg/mriset/internal/volume"
)

func TestToImageRoundTrip(t *testing.T) {
	img := testImage(t, volume.Shape{2, 3, 4, 5})
	ds, err := NewDataset(img, DefaultConfig())
	require.NoError(t, err)

	out, err := ToImage(ds, ImageOptions{})
	require.NoError(t, err)
	assert.Equal(t, img.Data.Shape, out.Data.Shape)
	assert.Equal(t, img.Data.Data, out.Data.Data)
	assert.Equal(t, nifti.ImageClass, out.Class)
}

func TestToImageSingleRowIsThreeDimensional(t *testing.T) {
	img := testImage(t, volume.Shape{2, 2, 2, 4})
	ds, err := NewDataset(img, DefaultConfig())
	require.NoError(t, err)

	out, err := ToImage(ds, ImageOptions{Data: ds.Row(2)})
	require.NoError(t, err)
	assert.Equal(t, volume.Shape{2, 2, 2}, out.Data.Shape)
}

func TestToImageMaskedVoxelsComeBackZero(t *testing.T) {
	img := testImage(t, volume.Shape{2, 2, 2, 2})
	mask, err := volume.New([]float64{1, 0, 0, 0, 0, 0, 0, 1}, volume.Shape{2, 2, 2})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Mask = mask
	ds, err := NewDataset(img, cfg)
	require.NoError(t, err)
	require.Equal(t, 2, ds.NumFeatures())

	out, err := ToImage(ds, ImageOptions{})
	require.NoError(t, err)
	require.Equal(t, volume.Shape{2, 2, 2, 2}, out.Data.Shape)
	strides := out.Data.Shape.ComputeStrides()
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			for z := 0; z < 2; z++ {
				for ti := 0; ti < 2; ti++ {
					flat := x*strides[0] + y*strides[1] + z*strides[2] + ti*strides[3]
					if (x == 0 && y == 0 && z == 0) || (x == 1 && y == 1 && z == 1) {
						assert.Equal(t, img.Data.Data[flat], out.Data.Data[flat])
					} else {
						assert.Zero(t, out.Data.Data[flat])
					}
				}
			}
		}
	}
}

func TestToImageExplicitMatrix(t *testing.T) {
	img := testImage(t, volume.Shape{2, 2, 2, 3})
	ds, err := NewDataset(img, DefaultConfig())
	require.NoError(t, err)

	data := mat.NewDense(2, 8, nil)
	data.Set(0, 0, 7)
	out, err := ToImage(ds, ImageOptions{Data: data})
	require.NoError(t, err)
	assert.Equal(t, volume.Shape{2, 2, 2, 2}, out.Data.Shape)
	assert.Equal(t, 7.0, out.Data.Data[0])

	_, err = ToImage(ds, ImageOptions{Data: mat.NewDense(2, 5, nil)})
	assert.Error(t, err)
}

func TestToImageSetsDisplayRange(t *testing.T) {
	img := testImage(t, volume.Shape{2, 2, 2, 3})
	ds, err := NewDataset(img, DefaultConfig())
	require.NoError(t, err)

	out, err := ToImage(ds, ImageOptions{})
	require.NoError(t, err)
	hdr, ok := out.Hdr.(*nifti.Nifti1Header)
	require.True(t, ok)
	assert.Equal(t, float32(23), hdr.CalMax)
	assert.Equal(t, float32(0), hdr.CalMin)
}

func TestToImageHeaderOverride(t *testing.T) {
	img := testImage(t, volume.Shape{2, 2, 2, 3})
	ds, err := NewDataset(img, DefaultConfig())
	require.NoError(t, err)

	hdr := nifti.NewNifti1Header()
	require.NoError(t, hdr.SetField("descrip", "override"))
	snap, err := EncodeHeader(hdr)
	require.NoError(t, err)

	out, err := ToImage(ds, ImageOptions{Header: snap})
	require.NoError(t, err)
	restored, ok := out.Hdr.(*nifti.Nifti1Header)
	require.True(t, ok)
	assert.Equal(t, "override", restored.DescripString())
}

func TestToImageRejectsForeignClass(t *testing.T) {
	img := testImage(t, volume.Shape{2, 2, 2, 3})
	ds, err := NewDataset(img, DefaultConfig())
	require.NoError(t, err)

	_, err = ToImage(ds, ImageOptions{Class: "Minc2Image"})
	var incompatible *HeaderIncompatibleError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, "Minc2Image", incompatible.Class)
}

func TestToImageRequiresMapper(t *testing.T) {
	img := testImage(t, volume.Shape{2, 2, 2, 3})
	ds, err := NewDataset(img, DefaultConfig())
	require.NoError(t, err)
	ds.Mapper = nil

	_, err = ToImage(ds, ImageOptions{})
	assert.Error(t, err)
}

func TestToImageUnknownSnapshotType(t *testing.T) {
	img := testImage(t, volume.Shape{2, 2, 2, 3})
	ds, err := NewDataset(img, DefaultConfig())
	require.NoError(t, err)
	ds.A["imghdr"] = HeaderSnapshot{hdrTypeKey: "MysteryHeader"}

	_, err = ToImage(ds, ImageOptions{})
	assert.ErrorIs(t, err, ErrUnknownHeaderType)
}
