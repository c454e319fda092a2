package nifti

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// BestAffine implements Header. Preference order follows nifti1_io: the
// sform when sform_code > 0, then the qform, then a pixdim-scaled fallback
// with no rotation.
func (h *Nifti1Header) BestAffine() *mat.Dense {
	if h.SFormCode > 0 {
		return h.sformAffine()
	}
	if h.QFormCode > 0 {
		return h.qformAffine()
	}
	return h.baseAffine()
}

func (h *Nifti1Header) sformAffine() *mat.Dense {
	a := mat.NewDense(4, 4, nil)
	for j := 0; j < 4; j++ {
		a.Set(0, j, float64(h.SRowX[j]))
		a.Set(1, j, float64(h.SRowY[j]))
		a.Set(2, j, float64(h.SRowZ[j]))
	}
	a.Set(3, 3, 1)
	return a
}

// qformAffine reconstructs the rotation from the stored quaternion.
// See the "quaternion representation" notes in nifti1.h.
func (h *Nifti1Header) qformAffine() *mat.Dense {
	b := float64(h.QuaternB)
	c := float64(h.QuaternC)
	d := float64(h.QuaternD)
	aa := 1 - b*b - c*c - d*d
	if aa < 0 {
		aa = 0
	}
	a := math.Sqrt(aa)

	qfac := float64(h.PixDim[0])
	if qfac == 0 {
		qfac = 1
	}
	dx := float64(h.PixDim[1])
	dy := float64(h.PixDim[2])
	dz := float64(h.PixDim[3]) * qfac

	r := [3][3]float64{
		{a*a + b*b - c*c - d*d, 2*b*c - 2*a*d, 2*b*d + 2*a*c},
		{2*b*c + 2*a*d, a*a + c*c - b*b - d*d, 2*c*d - 2*a*b},
		{2*b*d - 2*a*c, 2*c*d + 2*a*b, a*a + d*d - b*b - c*c},
	}
	scale := []float64{dx, dy, dz}

	out := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.Set(i, j, r[i][j]*scale[j])
		}
	}
	out.Set(0, 3, float64(h.QOffsetX))
	out.Set(1, 3, float64(h.QOffsetY))
	out.Set(2, 3, float64(h.QOffsetZ))
	out.Set(3, 3, 1)
	return out
}

func (h *Nifti1Header) baseAffine() *mat.Dense {
	out := mat.NewDense(4, 4, nil)
	for i := 0; i < 3; i++ {
		z := float64(h.PixDim[i+1])
		if z == 0 {
			z = 1
		}
		out.Set(i, i, z)
	}
	out.Set(3, 3, 1)
	return out
}

// SetSForm stores a voxel-to-world transform in the sform rows and marks it
// with the given code (1 = scanner, 2 = aligned).
func (h *Nifti1Header) SetSForm(affine *mat.Dense, code int) {
	for j := 0; j < 4; j++ {
		h.SRowX[j] = float32(affine.At(0, j))
		h.SRowY[j] = float32(affine.At(1, j))
		h.SRowZ[j] = float32(affine.At(2, j))
	}
	h.SFormCode = int16(code)
}
