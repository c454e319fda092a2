package testutil

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neuroimg/mriset/internal/nifti"
	"github.com/neuroimg/mriset/internal/volume"
)

// GradientVolume returns a volume whose voxel values equal their flat
// row-major index. Useful when a test needs to locate voxels by value.
func GradientVolume(t *testing.T, shape volume.Shape) *volume.Array {
	t.Helper()
	data := make([]float64, shape.NumElements())
	for i := range data {
		data[i] = float64(i)
	}
	arr, err := volume.New(data, shape)
	require.NoError(t, err)
	return arr
}

// SphereMask returns a binary volume that is 1 inside a sphere centered in
// the volume with the given radius (in voxels) and 0 elsewhere.
func SphereMask(t *testing.T, shape volume.Shape, radius float64) *volume.Array {
	t.Helper()
	require.Len(t, shape, 3)
	arr := volume.Zeros(shape)
	cx := float64(shape[0]-1) / 2
	cy := float64(shape[1]-1) / 2
	cz := float64(shape[2]-1) / 2
	strides := shape.ComputeStrides()
	for x := 0; x < shape[0]; x++ {
		for y := 0; y < shape[1]; y++ {
			for z := 0; z < shape[2]; z++ {
				dx, dy, dz := float64(x)-cx, float64(y)-cy, float64(z)-cz
				if math.Sqrt(dx*dx+dy*dy+dz*dz) <= radius {
					arr.Data[x*strides[0]+y*strides[1]+z*strides[2]] = 1
				}
			}
		}
	}
	return arr
}

// NoiseVolume returns a volume of deterministic pseudo-random values in
// [0, 1) seeded for reproducibility.
func NoiseVolume(t *testing.T, shape volume.Shape, seed int64) *volume.Array {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, shape.NumElements())
	for i := range data {
		data[i] = rng.Float64()
	}
	arr, err := volume.New(data, shape)
	require.NoError(t, err)
	return arr
}

// NewImage wraps a volume into an image with a default header.
func NewImage(t *testing.T, arr *volume.Array) *nifti.Image {
	t.Helper()
	img, err := nifti.NewImage(arr, nil, nil)
	require.NoError(t, err)
	return img
}

// WriteImage saves an image into a temp directory and returns its path.
// Names ending in .gz are written gzip-compressed.
func WriteImage(t *testing.T, img *nifti.Image, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, nifti.Save(img, path))
	return path
}

// WriteTimeseries saves a synthetic 4D gradient image with the given spatial
// shape and volume count and returns its path.
func WriteTimeseries(t *testing.T, spatial volume.Shape, volumes int) string {
	t.Helper()
	require.Len(t, spatial, 3)
	shape := append(spatial.Clone(), volumes)
	img := NewImage(t, GradientVolume(t, shape))
	return WriteImage(t, img, "bold.nii.gz")
}
