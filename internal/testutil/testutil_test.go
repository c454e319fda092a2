package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neuroimg/mriset/internal/nifti"
	"github.com/neuroimg/mriset/internal/volume"
)

func TestGetProjectRoot(t *testing.T) {
	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.NotEmpty(t, root)
	assert.True(t, FileExists(root+"/go.mod"))
}

func TestGetTestDataDir(t *testing.T) {
	testDataDir := GetTestDataDir(t)
	assert.NotEmpty(t, testDataDir)
	assert.Contains(t, testDataDir, "testdata")
}

func TestEnsureDir(t *testing.T) {
	testDir := t.TempDir() + "/test/nested/dir"

	err := EnsureDir(testDir)
	require.NoError(t, err)
	assert.True(t, DirExists(testDir))
}

func TestFileExists(t *testing.T) {
	assert.False(t, FileExists("/non/existent/file"))

	root, err := GetProjectRoot()
	require.NoError(t, err)
	assert.True(t, FileExists(root+"/go.mod"))
}

func TestGradientVolume(t *testing.T) {
	arr := GradientVolume(t, volume.Shape{2, 3, 4})
	assert.Equal(t, 0.0, arr.Data[0])
	assert.Equal(t, 23.0, arr.Data[23])
}

func TestSphereMask(t *testing.T) {
	mask := SphereMask(t, volume.Shape{5, 5, 5}, 1.5)
	// center voxel is inside, corners are outside
	strides := mask.Shape.ComputeStrides()
	assert.Equal(t, 1.0, mask.Data[2*strides[0]+2*strides[1]+2*strides[2]])
	assert.Equal(t, 0.0, mask.Data[0])
}

func TestNoiseVolumeDeterministic(t *testing.T) {
	a := NoiseVolume(t, volume.Shape{3, 3, 3}, 42)
	b := NoiseVolume(t, volume.Shape{3, 3, 3}, 42)
	assert.Equal(t, a.Data, b.Data)
}

func TestWriteTimeseries(t *testing.T) {
	path := WriteTimeseries(t, volume.Shape{4, 4, 3}, 2)
	img, err := nifti.Load(path)
	require.NoError(t, err)
	assert.Equal(t, volume.Shape{4, 4, 3, 2}, img.Data.Shape)
}
