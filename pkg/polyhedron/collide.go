package polyhedron

import (
	"math"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/hull"
	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Penetration describes how deeply two polyhedra overlap along the axis of
// least overlap.
type Penetration struct {
	Axis v3.Vec
	// Displacement is the signed distance along Axis that separates the
	// pair; its magnitude is the penetration depth.
	Displacement float64
	// Overlap is the interval of Axis covered by both shapes.
	Overlap [2]float64
}

// separatingAxes calls fn with every face axis of p and other, then with
// every non-degenerate cross product of their edges. It stops when fn
// returns true and reports whether it did.
func (p *ConvexPolyhedron) separatingAxes(other *ConvexPolyhedron, normalize bool, fn func(axis v3.Vec) bool) bool {
	for _, axis := range p.Axes {
		if fn(axis) {
			return true
		}
	}
	for _, axis := range other.Axes {
		if fn(axis) {
			return true
		}
	}
	for _, ea := range p.Edges {
		for _, eb := range other.Edges {
			axis := ea.Cross(eb)
			if geom.LengthSq(axis) < p.tol.CrossDegenerateSq {
				continue
			}
			if normalize {
				axis = geom.Normalize(axis)
			}
			if fn(axis) {
				return true
			}
		}
	}
	return false
}

// Overlaps reports whether the interiors of p and other intersect by more
// than the overlap tolerance. Touching shapes do not overlap.
func (p *ConvexPolyhedron) Overlaps(other *ConvexPolyhedron) bool {
	if !p.sphere.Intersects(other.sphere) {
		return false
	}
	eps := p.tol.Overlap
	separated := p.separatingAxes(other, false, func(axis v3.Vec) bool {
		minA, maxA := geom.Span(p.Vertices, axis)
		minB, maxB := geom.Span(other.Vertices, axis)
		return maxA <= minB+eps || maxB <= minA+eps
	})
	return !separated
}

// Penetration returns the smallest displacement that would move other out
// of p, or false when they do not overlap.
func (p *ConvexPolyhedron) Penetration(other *ConvexPolyhedron) (*Penetration, bool) {
	if !p.sphere.Intersects(other.sphere) {
		return nil, false
	}
	eps := p.tol.Penetration
	var best *Penetration
	separated := p.separatingAxes(other, true, func(axis v3.Vec) bool {
		minA, maxA := geom.Span(p.Vertices, axis)
		minB, maxB := geom.Span(other.Vertices, axis)
		if maxA <= minB+eps || maxB <= minA+eps {
			return true
		}
		d1, d2 := maxA-minB, minA-maxB
		d := d2
		if math.Abs(d1) < math.Abs(d2) {
			d = d1
		}
		if best == nil || math.Abs(d) < math.Abs(best.Displacement) {
			best = &Penetration{
				Axis:         axis,
				Displacement: d,
				Overlap:      [2]float64{math.Max(minA, minB), math.Min(maxA, maxB)},
			}
		}
		return false
	})
	if separated || best == nil {
		return nil, false
	}
	return best, true
}

// HasFaceContact reports whether some face of p lies flush against some
// face of other: opposing normals, coplanar, and overlapping in the plane.
// The test is symmetric: a.HasFaceContact(b) == b.HasFaceContact(a).
func (p *ConvexPolyhedron) HasFaceContact(other *ConvexPolyhedron) bool {
	return p.faceContact(other) || other.faceContact(p)
}

// faceContact measures coplanarity and in-plane overlap against the faces
// of p, so near-parallel faces may pass in one direction only.
func (p *ConvexPolyhedron) faceContact(other *ConvexPolyhedron) bool {
	tol := p.tol
	for i, f := range p.Geometry.Faces {
		a, b, c := p.Geometry.Triangle(i)
		self := []v3.Vec{a, b, c}
	faces:
		for j, g := range other.Geometry.Faces {
			if f.Normal.Dot(g.Normal) > -tol.EdgeParallel {
				continue
			}
			oa, ob, oc := other.Geometry.Triangle(j)
			if math.Abs(a.Dot(f.Normal)-oa.Dot(f.Normal)) > tol.Coplanar {
				continue
			}
			theirs := []v3.Vec{oa, ob, oc}
			axes := append(triangleEdgeNormals(self, f.Normal), triangleEdgeNormals(theirs, f.Normal)...)
			for _, axis := range axes {
				minA, maxA := geom.Span(self, axis)
				minB, maxB := geom.Span(theirs, axis)
				if maxA <= minB+tol.FaceContact || maxB <= minA+tol.FaceContact {
					continue faces
				}
			}
			return true
		}
	}
	return false
}

// triangleEdgeNormals returns the in-plane normals of the three edges of t.
func triangleEdgeNormals(t []v3.Vec, normal v3.Vec) []v3.Vec {
	return []v3.Vec{
		geom.Normalize(t[1].Sub(t[0])).Cross(normal),
		geom.Normalize(t[2].Sub(t[1])).Cross(normal),
		geom.Normalize(t[0].Sub(t[2])).Cross(normal),
	}
}

// ContactPoint estimates where other touches p: the centroid of the
// section of p cut by the plane halfway through the penetration overlap.
// It returns false when the shapes do not overlap or the section has no
// area.
func (p *ConvexPolyhedron) ContactPoint(other *ConvexPolyhedron) (v3.Vec, bool) {
	pen, ok := p.Penetration(other)
	if !ok {
		return v3.Vec{}, false
	}
	mid := (pen.Overlap[0] + pen.Overlap[1]) / 2
	plane := geom.Plane{Normal: pen.Axis, Constant: -mid}
	section := hull.PlaneIntersections(p.Geometry, plane)
	if len(section) < 3 {
		return v3.Vec{}, false
	}
	u, v := geom.PlaneBasis(pen.Axis)
	flat := make([]v2.Vec, len(section))
	for i, s := range section {
		flat[i] = v2.Vec{X: u.Dot(s), Y: v.Dot(s)}
	}
	polygon := geom.OrderConvexPolygon(flat)
	if math.Abs(geom.PolygonArea(polygon)) < p.tol.VertexMergeSq {
		return v3.Vec{}, false
	}
	c := geom.PolygonCentroid(polygon)
	return u.MulScalar(c.X).Add(v.MulScalar(c.Y)).Add(pen.Axis.MulScalar(mid)), true
}
