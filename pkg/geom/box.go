package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// boxNormals are the outward normals of an axis-aligned box.
var boxNormals = [6]v3.Vec{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// BoxFromPoints returns the smallest box containing points.
func BoxFromPoints(points []v3.Vec) sdf.Box3 {
	if len(points) == 0 {
		return sdf.Box3{}
	}
	b := sdf.Box3{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = MinVec(b.Min, p)
		b.Max = MaxVec(b.Max, p)
	}
	return b
}

// CubeBox returns the box spanning -halfExtent..halfExtent on every axis.
func CubeBox(halfExtent float64) sdf.Box3 {
	return sdf.Box3{
		Min: V(-halfExtent, -halfExtent, -halfExtent),
		Max: V(halfExtent, halfExtent, halfExtent),
	}
}

// BoxCenter returns the midpoint of b.
func BoxCenter(b sdf.Box3) v3.Vec {
	return b.Min.Add(b.Max).MulScalar(0.5)
}

// MinVec returns the componentwise minimum of a and b.
func MinVec(a, b v3.Vec) v3.Vec {
	return V(math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z))
}

// MaxVec returns the componentwise maximum of a and b.
func MaxVec(a, b v3.Vec) v3.Vec {
	return V(math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z))
}

// ExpandBox grows b by s in every direction.
func ExpandBox(b sdf.Box3, s float64) sdf.Box3 {
	d := V(s, s, s)
	return sdf.Box3{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// UnionBox returns the smallest box containing a and b.
func UnionBox(a, b sdf.Box3) sdf.Box3 {
	return sdf.Box3{Min: MinVec(a.Min, b.Min), Max: MaxVec(a.Max, b.Max)}
}

// BoxesIntersect reports whether a and b touch or overlap. Boxes sharing only
// a face count as intersecting.
func BoxesIntersect(a, b sdf.Box3) bool {
	return !(b.Max.X < a.Min.X || b.Min.X > a.Max.X ||
		b.Max.Y < a.Min.Y || b.Min.Y > a.Max.Y ||
		b.Max.Z < a.Min.Z || b.Min.Z > a.Max.Z)
}

// RaycastBox clips the ray against the six faces of box, up to depth. It
// returns the entry parameter when the ray hits.
func RaycastBox(r Ray, depth float64, box sdf.Box3, tol Tolerance) (float64, bool) {
	enterT, leaveT := 0.0, depth
	half := box.Max.Sub(box.Min).MulScalar(0.5)
	center := box.Min.Add(half)
	for _, n := range boxNormals {
		d := r.Direction.Dot(n)
		facePoint := V(n.X*half.X, n.Y*half.Y, n.Z*half.Z).Add(center)
		num := facePoint.Sub(r.Origin).Dot(n)
		if math.Abs(d) < tol.RayParallel {
			if num < 0 {
				return 0, false
			}
			continue
		}
		t := num / d
		if d < 0 {
			enterT = math.Max(enterT, t)
		} else {
			leaveT = math.Min(leaveT, t)
		}
		if enterT > leaveT {
			return 0, false
		}
	}
	return enterT, true
}
