// Package polyhedron wraps a convex hull with the precomputed separating
// axes and edge directions needed for collision queries.
//
// A ConvexPolyhedron is immutable once built. Operations that change the
// shape return a new polyhedron.
package polyhedron

import (
	"fmt"
	"math"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/hull"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ConvexPolyhedron is a closed convex solid.
type ConvexPolyhedron struct {
	// Vertices are the hull vertices merged within the vertex tolerance.
	Vertices []v3.Vec
	Geometry *hull.Geometry
	// Axes are the face normals, deduplicated up to sign.
	Axes []v3.Vec
	// Edges are unit directions of the edges between faces that are not
	// coplanar, deduplicated up to sign.
	Edges []v3.Vec

	sphere geom.Sphere
	tol    geom.Tolerance
}

// New builds the convex hull of points. The error wraps hull.ErrDegenerate
// when no solid hull exists. Options pass through to hull construction.
func New(points []v3.Vec, tol geom.Tolerance, opts ...hull.Option) (*ConvexPolyhedron, error) {
	g, err := hull.Hull3D(points, tol, opts...)
	if err != nil {
		return nil, fmt.Errorf("polyhedron: %w", err)
	}
	p := &ConvexPolyhedron{
		Geometry: g,
		sphere:   geom.BoundingSphere(g.Vertices),
		tol:      tol,
	}

axes:
	for _, f := range g.Faces {
		for _, a := range p.Axes {
			if math.Abs(a.Dot(f.Normal)) > tol.AxisParallel {
				continue axes
			}
		}
		p.Axes = append(p.Axes, f.Normal)
	}

vertices:
	for _, v := range g.Vertices {
		for _, u := range p.Vertices {
			if geom.DistanceSq(u, v) < tol.VertexMergeSq {
				continue vertices
			}
		}
		p.Vertices = append(p.Vertices, v)
	}

	p.Edges = uniqueEdges(g, tol)
	return p, nil
}

// uniqueEdges collects the directions of edges shared by faces with
// different normals. An edge between two coplanar triangles is an artifact
// of the triangulation and carries no separating axis.
func uniqueEdges(g *hull.Geometry, tol geom.Tolerance) []v3.Vec {
	type key struct{ lo, hi int }
	firstNormal := make(map[key]v3.Vec)
	var out []v3.Vec
	add := func(a, b int, normal v3.Vec) {
		k := key{a, b}
		if a > b {
			k = key{b, a}
		}
		other, seen := firstNormal[k]
		if !seen {
			firstNormal[k] = normal
			return
		}
		if math.Abs(other.Dot(normal)) > tol.EdgeParallel {
			return
		}
		edge := geom.Normalize(g.Vertices[b].Sub(g.Vertices[a]))
		for _, e := range out {
			if math.Abs(e.Dot(edge)) > tol.EdgeParallel {
				return
			}
		}
		out = append(out, edge)
	}
	for _, f := range g.Faces {
		add(f.A, f.B, f.Normal)
		add(f.B, f.C, f.Normal)
		add(f.A, f.C, f.Normal)
	}
	return out
}

// Tolerance returns the policy the polyhedron was built with.
func (p *ConvexPolyhedron) Tolerance() geom.Tolerance { return p.tol }

// BoundingSphere returns the cached bounding sphere.
func (p *ConvexPolyhedron) BoundingSphere() geom.Sphere { return p.sphere }

// BoundingBox returns the axis-aligned box around the vertices.
func (p *ConvexPolyhedron) BoundingBox() sdf.Box3 {
	return geom.BoxFromPoints(p.Vertices)
}

// Points returns a copy of the vertices.
func (p *ConvexPolyhedron) Points() []v3.Vec {
	return append([]v3.Vec(nil), p.Vertices...)
}

// Triangles returns the hull faces as corner triples in outward winding.
func (p *ConvexPolyhedron) Triangles() [][3]v3.Vec {
	out := make([][3]v3.Vec, len(p.Geometry.Faces))
	for i := range p.Geometry.Faces {
		a, b, c := p.Geometry.Triangle(i)
		out[i] = [3]v3.Vec{a, b, c}
	}
	return out
}

// Planes returns the plane of every face with its normal pointing out.
func (p *ConvexPolyhedron) Planes() []geom.Plane {
	out := make([]geom.Plane, len(p.Geometry.Faces))
	for i, f := range p.Geometry.Faces {
		out[i] = geom.PlaneFromNormalAndPoint(f.Normal, p.Geometry.Vertices[f.A])
	}
	return out
}

// ContainsPoint reports whether point is inside or on the surface.
func (p *ConvexPolyhedron) ContainsPoint(point v3.Vec) bool {
	for _, f := range p.Geometry.Faces {
		if point.Sub(p.Geometry.Vertices[f.A]).Dot(f.Normal) > 0 {
			return false
		}
	}
	return true
}

// Volume returns the enclosed volume from the divergence theorem.
func (p *ConvexPolyhedron) Volume() float64 {
	var sum float64
	for i := range p.Geometry.Faces {
		a, b, c := p.Geometry.Triangle(i)
		sum += b.Sub(a).Cross(c.Sub(a)).Dot(a)
	}
	return sum / 6
}

// Centroid returns the center of mass assuming uniform density.
func (p *ConvexPolyhedron) Centroid() v3.Vec {
	sq := func(v v3.Vec) v3.Vec { return geom.V(v.X*v.X, v.Y*v.Y, v.Z*v.Z) }
	var sum v3.Vec
	for i := range p.Geometry.Faces {
		a, b, c := p.Geometry.Triangle(i)
		n := b.Sub(a).Cross(c.Sub(a)).DivScalar(24)
		s := sq(a.Add(b)).Add(sq(b.Add(c))).Add(sq(c.Add(a)))
		sum = sum.Add(geom.V(n.X*s.X, n.Y*s.Y, n.Z*s.Z))
	}
	return sum.DivScalar(2 * p.Volume())
}

// Transform returns the polyhedron with every vertex moved by m.
func (p *ConvexPolyhedron) Transform(m sdf.M44) (*ConvexPolyhedron, error) {
	return New(geom.Transform(p.Vertices, m), p.tol)
}

// Shatter splits the polyhedron into one tetrahedron per face, each with
// point as its apex. Faces that form a flat tetrahedron with point are
// skipped.
func (p *ConvexPolyhedron) Shatter(point v3.Vec) []*ConvexPolyhedron {
	var out []*ConvexPolyhedron
	for i := range p.Geometry.Faces {
		a, b, c := p.Geometry.Triangle(i)
		piece, err := New([]v3.Vec{point, a, b, c}, p.tol)
		if err != nil {
			continue
		}
		out = append(out, piece)
	}
	return out
}

// DistanceToPlane returns how far the polyhedron lies in front of plane,
// or 0 when any vertex is behind it.
func (p *ConvexPolyhedron) DistanceToPlane(plane geom.Plane) float64 {
	minDistance := math.Inf(1)
	for _, v := range p.Vertices {
		d := plane.Distance(v)
		if d < 0 {
			return 0
		}
		minDistance = math.Min(minDistance, d)
	}
	return minDistance
}
