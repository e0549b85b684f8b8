package hull

import (
	"github.com/chazu/hullworld/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// pointSet collects points, merging those within the vertex tolerance.
type pointSet struct {
	tol    float64
	points []v3.Vec
}

func (s *pointSet) add(p v3.Vec) {
	for _, q := range s.points {
		if geom.DistanceSq(p, q) < s.tol {
			return
		}
	}
	s.points = append(s.points, p)
}

// SplitPoints partitions the vertices of geo by plane and adds every point
// where a triangle edge crosses the plane to both sides. Vertices on the
// plane go to both sides. A side is returned only if it has at least four
// points; the negative side comes first.
func SplitPoints(geo *Geometry, plane geom.Plane, tol geom.Tolerance) [][]v3.Vec {
	left := &pointSet{tol: tol.VertexMergeSq}
	right := &pointSet{tol: tol.VertexMergeSq}
	for i := range geo.Faces {
		a, b, c := geo.Triangle(i)
		for _, p := range []v3.Vec{a, b, c} {
			d := plane.Distance(p)
			switch {
			case d < 0:
				left.add(p)
			case d > 0:
				right.add(p)
			default:
				left.add(p)
				right.add(p)
			}
		}
		for _, edge := range [][2]v3.Vec{{a, b}, {a, c}, {b, c}} {
			if p, ok := plane.IntersectSegment(edge[0], edge[1]); ok {
				left.add(p)
				right.add(p)
			}
		}
	}
	var out [][]v3.Vec
	if len(left.points) >= 4 {
		out = append(out, left.points)
	}
	if len(right.points) >= 4 {
		out = append(out, right.points)
	}
	return out
}

// Split cuts geo by plane and returns the hull of each usable side.
func Split(geo *Geometry, plane geom.Plane, tol geom.Tolerance, opts ...Option) []*Geometry {
	var out []*Geometry
	for _, pts := range SplitPoints(geo, plane, tol) {
		if g, err := Hull3D(pts, tol, opts...); err == nil {
			out = append(out, g)
		}
	}
	return out
}

// PlaneIntersections returns every point where a triangle edge of geo
// crosses plane. Shared edges contribute once per triangle.
func PlaneIntersections(geo *Geometry, plane geom.Plane) []v3.Vec {
	var out []v3.Vec
	for i := range geo.Faces {
		a, b, c := geo.Triangle(i)
		for _, edge := range [][2]v3.Vec{{a, b}, {a, c}, {b, c}} {
			if p, ok := plane.IntersectSegment(edge[0], edge[1]); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

// PlanesToVertices intersects every triple of planes and keeps the points
// that lie on the positive side of all planes. Planes therefore describe a
// convex region with inward-facing normals.
func PlanesToVertices(planes []geom.Plane, tol geom.Tolerance) []v3.Vec {
	var out []v3.Vec
	n := len(planes)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				v, ok := threePlaneVertex(planes[i], planes[j], planes[k])
				if !ok {
					continue
				}
				inside := true
				for _, pl := range planes {
					if pl.Distance(v) <= -tol.PlaneInside {
						inside = false
						break
					}
				}
				if inside {
					out = append(out, v)
				}
			}
		}
	}
	return out
}

func threePlaneVertex(a, b, c geom.Plane) (v3.Vec, bool) {
	det := a.Normal.Dot(b.Normal.Cross(c.Normal))
	if det == 0 {
		return v3.Vec{}, false
	}
	v := b.Normal.Cross(c.Normal).MulScalar(-a.Constant).
		Add(c.Normal.Cross(a.Normal).MulScalar(-b.Constant)).
		Add(a.Normal.Cross(b.Normal).MulScalar(-c.Constant))
	return v.DivScalar(det), true
}
