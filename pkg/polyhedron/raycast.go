package polyhedron

import (
	"math"

	"github.com/chazu/hullworld/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Intersection is the part of a ray inside a polyhedron. A normal is
// absent when the ray starts inside (enter) or runs out of depth before
// leaving (leave).
type Intersection struct {
	EnterT, LeaveT           float64
	EnterNormal, LeaveNormal v3.Vec
	HasEnterNormal           bool
	HasLeaveNormal           bool
}

// EnterPoint returns the point where ray enters the polyhedron.
func (in *Intersection) EnterPoint(ray geom.Ray) v3.Vec {
	return ray.At(in.EnterT)
}

// Raycast clips ray against every face plane up to depth.
func (p *ConvexPolyhedron) Raycast(ray geom.Ray, depth float64) (*Intersection, bool) {
	if !ray.IntersectsSphere(p.sphere.Center, p.sphere.Radius) {
		return nil, false
	}
	in := &Intersection{LeaveT: depth}
	for _, f := range p.Geometry.Faces {
		d := ray.Direction.Dot(f.Normal)
		n := p.Geometry.Vertices[f.A].Sub(ray.Origin).Dot(f.Normal)
		if math.Abs(d) < p.tol.RayParallel {
			if n < 0 {
				return nil, false
			}
			continue
		}
		t := n / d
		if d < 0 {
			if t > in.EnterT {
				in.EnterT = t
				in.EnterNormal = f.Normal
				in.HasEnterNormal = true
			}
		} else if t < in.LeaveT {
			in.LeaveT = t
			in.LeaveNormal = f.Normal
			in.HasLeaveNormal = true
		}
		if in.EnterT > in.LeaveT {
			return nil, false
		}
	}
	return in, true
}
