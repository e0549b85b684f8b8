package world

import (
	"iter"
	"math"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/graph"
	"github.com/chazu/hullworld/pkg/polyhedron"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Hit is the nearest solid along a ray.
type Hit struct {
	Solid        Handle
	Intersection polyhedron.Intersection
	Point        v3.Vec
}

// Solid returns a copy of the solid at h, placed or not.
func (w *World) Solid(h Handle) (Solid, bool) {
	s, ok := w.solids[h]
	if !ok {
		return Solid{}, false
	}
	c := *s
	c.Attached = append([]Handle(nil), s.Attached...)
	return c, true
}

// Contains reports whether h is placed in the world.
func (w *World) Contains(h Handle) bool { return w.placed(h) }

// Len returns the number of placed solids.
func (w *World) Len() int { return w.index.Len() }

// Handles returns every placed solid in index order.
func (w *World) Handles() []Handle { return w.index.GetAll(nil) }

// All yields every placed solid in index order.
func (w *World) All() iter.Seq2[Handle, Solid] {
	return func(yield func(Handle, Solid) bool) {
		for _, h := range w.Handles() {
			s, _ := w.Solid(h)
			if !yield(h, s) {
				return
			}
		}
	}
}

// Get returns the placed solids whose bounding boxes intersect box.
func (w *World) Get(box sdf.Box3) []Handle { return w.index.Get(box, nil) }

// Raycast returns the placed solids whose bounding boxes ray hits within
// depth.
func (w *World) Raycast(ray geom.Ray, depth float64) []Handle {
	return w.index.Raycast(ray, depth, nil)
}

// Reachable returns h and every solid reachable from it by attachment.
func (w *World) Reachable(h Handle) []Handle {
	if _, ok := w.solids[h]; !ok {
		return nil
	}
	return graph.Reachable(h, w.neighbors)
}

// RaycastWorld returns the placed solid ray enters first within depth.
func (w *World) RaycastWorld(ray geom.Ray, depth float64) (Hit, bool) {
	h, in, ok := w.nearestHit(w.Raycast(ray, depth), ray, depth)
	if !ok {
		return Hit{}, false
	}
	return Hit{Solid: h, Intersection: *in, Point: ray.At(in.EnterT)}, true
}

// SelectSolid returns the placed solid ray enters first within depth.
func (w *World) SelectSolid(ray geom.Ray, depth float64) (Handle, bool) {
	hit, ok := w.RaycastWorld(ray, depth)
	return hit.Solid, ok
}

// SelectVertex returns the vertex of the selected solid closest to ray,
// provided it lies within distanceToRay of it.
func (w *World) SelectVertex(ray geom.Ray, depth, distanceToRay float64) (Handle, v3.Vec, bool) {
	h, ok := w.SelectSolid(ray, depth)
	if !ok {
		return 0, v3.Vec{}, false
	}
	best, bestSq := v3.Vec{}, math.Inf(1)
	for _, v := range w.solids[h].Shape.Vertices {
		if d := ray.DistanceSqToPoint(v); d < bestSq {
			best, bestSq = v, d
		}
	}
	if bestSq > distanceToRay*distanceToRay {
		return 0, v3.Vec{}, false
	}
	return h, best, true
}

// Collides reports whether shape overlaps any placed solid.
func (w *World) Collides(shape *polyhedron.ConvexPolyhedron) bool {
	for _, h := range w.index.Get(w.margin(shape.BoundingBox()), nil) {
		if w.solids[h].Shape.Overlaps(shape) {
			return true
		}
	}
	return false
}

// nearestHit raycasts every candidate and keeps the earliest entry.
func (w *World) nearestHit(candidates []Handle, ray geom.Ray, depth float64) (Handle, *polyhedron.Intersection, bool) {
	var (
		best   Handle
		bestIn *polyhedron.Intersection
	)
	for _, h := range candidates {
		in, ok := w.solids[h].Shape.Raycast(ray, depth)
		if ok && (bestIn == nil || in.EnterT < bestIn.EnterT) {
			best, bestIn = h, in
		}
	}
	return best, bestIn, bestIn != nil
}
