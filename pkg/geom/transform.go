package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const alignedDot = 0.999999

// AlignRotation returns the axis and angle of the shortest rotation taking
// direction from onto direction to. Both must be unit length.
func AlignRotation(from, to v3.Vec) (axis v3.Vec, angle float64) {
	dot := from.Dot(to)
	switch {
	case dot >= alignedDot:
		return V(0, 0, 1), 0
	case dot <= -alignedDot:
		// Half turn about whichever perpendicular is best conditioned.
		candidates := []v3.Vec{
			V(-to.Y, to.X, 0),
			V(-to.Z, 0, to.X),
			V(0, -to.Z, to.Y),
		}
		best := candidates[0]
		for _, c := range candidates[1:] {
			if LengthSq(c) >= LengthSq(best) {
				best = c
			}
		}
		return Normalize(best), math.Pi
	default:
		return Normalize(from.Cross(to)), math.Acos(dot)
	}
}

// AttachTransform returns the rigid transform that moves attachPoint onto
// targetPoint, turns attachNormal to face against targetNormal and then
// rolls by roll radians about the resulting normal.
func AttachTransform(attachPoint, attachNormal, targetPoint, targetNormal v3.Vec, roll float64) sdf.M44 {
	desired := targetNormal.MulScalar(-1)
	axis, angle := AlignRotation(attachNormal, desired)
	return sdf.Translate3d(targetPoint).
		Mul(sdf.Rotate3d(desired, roll)).
		Mul(sdf.Rotate3d(axis, angle)).
		Mul(sdf.Translate3d(attachPoint.MulScalar(-1)))
}
