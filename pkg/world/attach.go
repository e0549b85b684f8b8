package world

import (
	"fmt"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/graph"
	"github.com/chazu/hullworld/pkg/polyhedron"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// AttachWith places a copy of the detached graph held at h against the
// face of the first placed solid ray hits within AttachDepth.
//
// The copy is moved so that attachPoint lands on the hit point and
// attachNormal faces against the hit face, then rolled by roll radians
// about that face's normal. It is refused when any copied solid would
// overlap the world (Denied lists the solids in the way) or when the copy
// of h does not end up in face contact with the target. With preview set
// nothing is committed; a clear preview returns a nil Err. The held graph
// itself is never changed.
func (w *World) AttachWith(h Handle, attachPoint, attachNormal v3.Vec, ray geom.Ray, roll float64, preview bool) Result {
	var r Result
	if _, err := w.get(h); err != nil {
		return r.refuse(err)
	}
	held := graph.Reachable(h, w.neighbors)
	for _, x := range held {
		if w.placed(x) {
			return r.refuse(fmt.Errorf("%w: %d", ErrInWorld, x))
		}
	}

	box := w.margin(geom.BoxFromPoints([]v3.Vec{ray.Origin, ray.At(AttachDepth)}))
	target, hit, ok := w.nearestHit(w.index.Get(box, nil), ray, AttachDepth)
	if !ok || !hit.HasEnterNormal {
		return r.refuse(ErrNoTarget)
	}
	m := geom.AttachTransform(attachPoint, attachNormal, ray.At(hit.EnterT), hit.EnterNormal, roll)

	moved := make(map[Handle]*polyhedron.ConvexPolyhedron, len(held))
	for _, x := range held {
		shape, err := w.solids[x].Shape.Transform(m)
		if err != nil {
			return r.refuse(fmt.Errorf("world: move solid %d: %w", x, err))
		}
		moved[x] = shape
		r.Preview = append(r.Preview, shape)
	}
	for _, x := range held {
		for _, o := range w.overlapping(moved[x], w.margin(moved[x].BoundingBox()), nil) {
			if !contains(r.Denied, o) {
				r.Denied = append(r.Denied, o)
			}
		}
	}
	if len(r.Denied) > 0 {
		return r.refuse(ErrOverlap)
	}
	if preview {
		return r
	}
	if !moved[h].HasFaceContact(w.solids[target].Shape) {
		w.warn(&r, "world: attachment has no face contact", "solid", h, "target", target)
		return r.refuse(ErrNoFaceContact)
	}

	ids := make(map[Handle]Handle, len(held))
	for _, x := range held {
		s := w.solids[x]
		ids[x] = w.alloc(&Solid{Shape: moved[x], Color: s.Color, IsRoot: s.IsRoot})
	}
	for _, x := range held {
		c := w.solids[ids[x]]
		for _, n := range w.solids[x].Attached {
			c.Attached = append(c.Attached, ids[n])
		}
	}
	w.link(ids[h], target)
	for _, x := range held {
		w.place(ids[x])
		r.Added = append(r.Added, ids[x])
	}
	r.Committed = true
	return r
}

// Add places the detached graph reachable from h. It is refused when any
// member overlaps a placed solid or when no member is a root.
func (w *World) Add(h Handle) Result {
	var r Result
	if _, err := w.get(h); err != nil {
		return r.refuse(err)
	}
	reach := graph.Reachable(h, w.neighbors)
	rooted := false
	for _, x := range reach {
		if w.placed(x) {
			return r.refuse(fmt.Errorf("%w: %d", ErrInWorld, x))
		}
		s := w.solids[x]
		rooted = rooted || s.IsRoot
		r.Preview = append(r.Preview, s.Shape)
		for _, o := range w.overlapping(s.Shape, w.margin(s.Shape.BoundingBox()), nil) {
			if !contains(r.Denied, o) {
				r.Denied = append(r.Denied, o)
			}
		}
	}
	if len(r.Denied) > 0 {
		return r.refuse(ErrOverlap)
	}
	if !rooted {
		return r.refuse(ErrNoRoot)
	}
	for _, x := range reach {
		w.place(x)
		r.Added = append(r.Added, x)
	}
	r.Committed = true
	return r
}

// Remove takes h out of the world and frees it, then prunes every
// neighboring component left without a root.
func (w *World) Remove(h Handle) Result {
	var r Result
	if _, err := w.get(h); err != nil {
		return r.refuse(err)
	}
	if !w.placed(h) {
		w.warn(&r, "world: cannot remove solid not in world", "solid", h)
		return r.refuse(fmt.Errorf("%w: %d", ErrNotInWorld, h))
	}
	neighbors := append([]Handle(nil), w.solids[h].Attached...)
	w.unlinkAll(h)
	w.unplace(h)
	delete(w.solids, h)
	r.Removed = append(r.Removed, h)
	w.pruneOrphans(neighbors, &r)
	r.Committed = true
	return r
}
