// Package geom holds the small vector, plane, ray and box vocabulary shared by
// the hull, polyhedron, octree and world packages. Vectors and boxes are the
// sdfx types so geometry can flow straight into the sdfx kernel.
package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// V is shorthand for a v3.Vec literal.
func V(x, y, z float64) v3.Vec {
	return v3.Vec{X: x, Y: y, Z: z}
}

// LengthSq returns |v|².
func LengthSq(v v3.Vec) float64 {
	return v.Dot(v)
}

// DistanceSq returns the squared distance between a and b.
func DistanceSq(a, b v3.Vec) float64 {
	return LengthSq(a.Sub(b))
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func Normalize(v v3.Vec) v3.Vec {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.DivScalar(l)
}

// Span projects every vertex onto axis and returns the covered interval.
func Span(vertices []v3.Vec, axis v3.Vec) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, v := range vertices {
		d := v.Dot(axis)
		min = math.Min(min, d)
		max = math.Max(max, d)
	}
	return min, max
}

// Plane is the set of points p with Normal·p + Constant = 0. Distance is
// positive on the side the normal points to.
type Plane struct {
	Normal   v3.Vec  `json:"normal"`
	Constant float64 `json:"constant"`
}

// PlaneFromNormalAndPoint builds the plane through p with the given normal.
func PlaneFromNormalAndPoint(normal, p v3.Vec) Plane {
	return Plane{Normal: normal, Constant: -p.Dot(normal)}
}

// Distance returns the signed distance from p to the plane.
func (pl Plane) Distance(p v3.Vec) float64 {
	return pl.Normal.Dot(p) + pl.Constant
}

// IntersectSegment returns the point where segment a-b crosses the plane.
// A segment lying in the plane reports its start point.
func (pl Plane) IntersectSegment(a, b v3.Vec) (v3.Vec, bool) {
	dir := b.Sub(a)
	denom := pl.Normal.Dot(dir)
	if denom == 0 {
		if pl.Distance(a) == 0 {
			return a, true
		}
		return v3.Vec{}, false
	}
	t := -(a.Dot(pl.Normal) + pl.Constant) / denom
	if t < 0 || t > 1 {
		return v3.Vec{}, false
	}
	return a.Add(dir.MulScalar(t)), true
}

// Ray is a half line. Direction is expected to be unit length for distances
// reported along it to be meaningful.
type Ray struct {
	Origin    v3.Vec `json:"origin"`
	Direction v3.Vec `json:"direction"`
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) v3.Vec {
	return r.Origin.Add(r.Direction.MulScalar(t))
}

// DistanceSqToPoint returns the squared distance from p to the closest point
// of the ray.
func (r Ray) DistanceSqToPoint(p v3.Vec) float64 {
	t := p.Sub(r.Origin).Dot(r.Direction)
	if t < 0 {
		return DistanceSq(r.Origin, p)
	}
	return DistanceSq(r.At(t), p)
}

// IntersectsSphere reports whether the ray passes within radius of center.
func (r Ray) IntersectsSphere(center v3.Vec, radius float64) bool {
	return r.DistanceSqToPoint(center) <= radius*radius
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center v3.Vec
	Radius float64
}

// Intersects reports whether two spheres touch or overlap.
func (s Sphere) Intersects(o Sphere) bool {
	r := s.Radius + o.Radius
	return DistanceSq(s.Center, o.Center) <= r*r
}

// BoundingSphere returns the sphere centered on the bounding box of points
// that encloses all of them.
func BoundingSphere(points []v3.Vec) Sphere {
	if len(points) == 0 {
		return Sphere{}
	}
	center := BoxCenter(BoxFromPoints(points))
	var maxSq float64
	for _, p := range points {
		maxSq = math.Max(maxSq, DistanceSq(center, p))
	}
	return Sphere{Center: center, Radius: math.Sqrt(maxSq)}
}

// Transform applies m to every point.
func Transform(points []v3.Vec, m sdf.M44) []v3.Vec {
	out := make([]v3.Vec, len(points))
	for i, p := range points {
		out[i] = m.MulPosition(p)
	}
	return out
}
