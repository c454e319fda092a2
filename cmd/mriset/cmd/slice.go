package cmd

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/neuroimg/mriset/internal/nifti"
	"github.com/neuroimg/mriset/internal/volume"
)

var sliceCmd = &cobra.Command{
	Use:   "slice [flags] <image> -o <output>",
	Short: "Export one slice of a volume as a grayscale image",
	Long: `Extract a 2D slice from a volumetric image, normalize its intensities to
grayscale and write it as a regular image file (format by extension).

Examples:
  mriset slice anat.nii.gz -o slice.png
  mriset slice bold.nii.gz --axis x --index 32 --volume 5 -o slice.png
  mriset slice anat.nii.gz --scale 4 -o slice_big.png`,
	Args: cobra.ExactArgs(1),
	RunE: runSlice,
}

func init() {
	sliceCmd.Flags().StringP("output", "o", "", "output image path (required)")
	sliceCmd.Flags().String("axis", "z", "slice axis (x, y, z)")
	sliceCmd.Flags().Int("index", -1, "slice index along the axis (-1 for middle)")
	sliceCmd.Flags().Int("volume", 0, "volume index for 4D images")
	sliceCmd.Flags().Int("scale", 1, "integer upscaling factor")
	_ = sliceCmd.MarkFlagRequired("output")

	_ = viper.BindPFlag("slice.axis", sliceCmd.Flags().Lookup("axis"))
	_ = viper.BindPFlag("slice.index", sliceCmd.Flags().Lookup("index"))
	_ = viper.BindPFlag("slice.volume", sliceCmd.Flags().Lookup("volume"))
	_ = viper.BindPFlag("slice.scale", sliceCmd.Flags().Lookup("scale"))

	rootCmd.AddCommand(sliceCmd)
}

func runSlice(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")

	img, err := nifti.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading %s: %w", args[0], err)
	}

	spatial, err := selectVolume(img.Data, cfg.Slice.Volume)
	if err != nil {
		return err
	}

	axis := map[string]int{"x": 0, "y": 1, "z": 2}[cfg.Slice.Axis]
	index := cfg.Slice.Index
	if index < 0 {
		index = spatial.Shape[axis] / 2
	}
	if index >= spatial.Shape[axis] {
		return fmt.Errorf("slice index %d out of range for axis %s with %d slices",
			index, cfg.Slice.Axis, spatial.Shape[axis])
	}

	gray := renderSlice(spatial, axis, index)
	if cfg.Slice.Scale > 1 {
		bounds := gray.Bounds()
		gray = imaging.Resize(gray,
			bounds.Dx()*cfg.Slice.Scale, bounds.Dy()*cfg.Slice.Scale,
			imaging.NearestNeighbor)
	}

	if err := imaging.Save(gray, output); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	return nil
}

// selectVolume reduces a 4D image to the 3D volume at the given time index.
// 3D images pass through; the index must then be 0.
func selectVolume(arr *volume.Array, index int) (*volume.Array, error) {
	switch arr.Rank() {
	case 3:
		if index != 0 {
			return nil, fmt.Errorf("volume index %d given for a 3D image", index)
		}
		return arr, nil
	case 4:
		if index >= arr.Shape[3] {
			return nil, fmt.Errorf("volume index %d out of range for %d volumes",
				index, arr.Shape[3])
		}
		out := volume.Zeros(arr.Shape[:3].Clone())
		strides := arr.Shape.ComputeStrides()
		for i := range out.Data {
			out.Data[i] = arr.Data[flatWithTime(i, out.Shape, strides, index)]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot slice %dD image", arr.Rank())
	}
}

func flatWithTime(spatialFlat int, spatialShape volume.Shape, strides []int, t int) int {
	spatialStrides := spatialShape.ComputeStrides()
	flat := t * strides[3]
	for ax := range spatialShape {
		coord := spatialFlat / spatialStrides[ax]
		spatialFlat -= coord * spatialStrides[ax]
		flat += coord * strides[ax]
	}
	return flat
}

// renderSlice extracts one plane and maps its intensity range to 8-bit gray.
func renderSlice(arr *volume.Array, axis, index int) *image.NRGBA {
	planeAxes := [][2]int{{1, 2}, {0, 2}, {0, 1}}[axis]
	w := arr.Shape[planeAxes[0]]
	h := arr.Shape[planeAxes[1]]
	strides := arr.Shape.ComputeStrides()

	lo, hi := arr.Data[0], arr.Data[0]
	for _, v := range arr.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w; i++ {
		for j := 0; j < h; j++ {
			flat := index * strides[axis]
			flat += i * strides[planeAxes[0]]
			flat += j * strides[planeAxes[1]]
			g := uint8((arr.Data[flat] - lo) / span * 255)
			out.Set(i, j, color.NRGBA{R: g, G: g, B: g, A: 255})
		}
	}
	return out
}
