package stab

import "math"

// RelativeTransform is the rigid 2D motion between two consecutive frames:
// translation in pixels plus a rotation angle in radians. No scale or shear.
type RelativeTransform struct {
	Dx float64
	Dy float64
	Da float64
}

// Trajectory is the accumulated camera pose at a frame: the running sum of
// all relative transforms from frame 0. Treated as a time series; order is
// meaningful.
type Trajectory struct {
	X float64
	Y float64
	A float64
}

// Add returns the trajectory advanced by one relative transform.
func (t Trajectory) Add(r RelativeTransform) Trajectory {
	return Trajectory{X: t.X + r.Dx, Y: t.Y + r.Dy, A: t.A + r.Da}
}

// CumulativeTrajectory integrates frame-to-frame transforms into the absolute
// camera trajectory. Entry i is the sum of transforms[0..i]. The output has
// the same length and order as the input; an empty input yields an empty
// output.
func CumulativeTrajectory(transforms []RelativeTransform) []Trajectory {
	trajectory := make([]Trajectory, 0, len(transforms))
	var cur Trajectory
	for _, t := range transforms {
		cur = cur.Add(t)
		trajectory = append(trajectory, cur)
	}
	return trajectory
}

// Affine2x3 is a row-major 2x3 affine matrix:
// [m00 m01 m02; m10 m11 m12], mapping source to destination coordinates.
type Affine2x3 [6]float64

// AffineFromTransform builds the warp matrix for a corrective transform:
// rotation by Da with translation (Dx, Dy) in the last column.
func AffineFromTransform(t RelativeTransform) Affine2x3 {
	sin, cos := math.Sincos(t.Da)
	return Affine2x3{
		cos, -sin, t.Dx,
		sin, cos, t.Dy,
	}
}

// ScaleAboutCenter builds a matrix scaling by factor about (cx, cy) with no
// rotation. Equivalent to a 2D rotation matrix with angle zero.
func ScaleAboutCenter(cx, cy, factor float64) Affine2x3 {
	return Affine2x3{
		factor, 0, (1 - factor) * cx,
		0, factor, (1 - factor) * cy,
	}
}

// Apply maps a source point through the matrix.
func (m Affine2x3) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[1]*y + m[2], m[3]*x + m[4]*y + m[5]
}
