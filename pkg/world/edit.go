package world

import (
	"fmt"
	"math"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/graph"
	"github.com/chazu/hullworld/pkg/hull"
	"github.com/chazu/hullworld/pkg/polyhedron"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Slice cuts h by plane. Each piece gets a new color, keeps the root flag,
// inherits the attachments it still touches and is attached to the other
// piece. Neighbors that no piece touches are detached, and pruned if that
// leaves them without a root.
func (w *World) Slice(h Handle, plane geom.Plane) Result {
	var r Result
	if err := w.requirePlaced(h, &r, "slice"); err != nil {
		return r.refuse(err)
	}
	s := w.solids[h]

	var pieces []*polyhedron.ConvexPolyhedron
	for _, pts := range hull.SplitPoints(s.Shape.Geometry, plane, w.tol) {
		shape, err := w.newShape(pts)
		if err != nil {
			w.warn(&r, "world: dropped degenerate slice piece", "solid", h)
			continue
		}
		pieces = append(pieces, shape)
	}
	if len(pieces) == 0 {
		return r.refuse(fmt.Errorf("world: slice solid %d: %w", h, ErrDegenerate))
	}
	r.Preview = pieces

	neighbors := append([]Handle(nil), s.Attached...)
	w.unlinkAll(h)
	w.unplace(h)
	delete(w.solids, h)
	r.Removed = append(r.Removed, h)

	ids := make([]Handle, len(pieces))
	for i, shape := range pieces {
		ids[i] = w.alloc(&Solid{Shape: shape, Color: w.randomColor(), IsRoot: s.IsRoot})
		for _, n := range neighbors {
			if shape.HasFaceContact(w.solids[n].Shape) {
				w.link(ids[i], n)
			}
		}
	}
	if len(ids) == 2 {
		w.link(ids[0], ids[1])
	} else {
		w.warn(&r, fmt.Sprintf("world: sliced solid into %d pieces", len(ids)), "solid", h)
	}
	for _, n := range neighbors {
		claimed := false
		for _, id := range ids {
			claimed = claimed || contains(w.solids[n].Attached, id)
		}
		if !claimed {
			w.warn(&r, "world: no slice piece inherited attachment", "solid", h, "neighbor", n)
		}
	}
	for _, id := range ids {
		w.place(id)
	}
	w.pruneOrphans(append(neighbors, ids...), &r)
	r.Added = w.stillPlaced(ids)
	r.Committed = true
	return r
}

// Merge replaces a and b with the hull of both. It is refused when that
// hull would overlap any other placed solid. The merged solid is a root if
// either input was, and keeps every former neighbor it still touches.
func (w *World) Merge(a, b Handle) Result {
	var r Result
	if a == b {
		return r.refuse(fmt.Errorf("world: cannot merge solid %d with itself", a))
	}
	for _, h := range []Handle{a, b} {
		if err := w.requirePlaced(h, &r, "merge"); err != nil {
			return r.refuse(err)
		}
	}
	sa, sb := w.solids[a], w.solids[b]
	points := append(sa.Shape.Points(), sb.Shape.Points()...)
	shape, err := w.newShape(points)
	if err != nil {
		return r.refuse(fmt.Errorf("world: merge %d and %d: %w", a, b, err))
	}
	r.Preview = []*polyhedron.ConvexPolyhedron{shape}

	query := w.margin(geom.UnionBox(sa.Shape.BoundingBox(), sb.Shape.BoundingBox()))
	r.Denied = w.overlapping(shape, query, graph.SetOf(a, b))
	if len(r.Denied) > 0 {
		return r.refuse(ErrOverlap)
	}

	var toAttach []Handle
	for _, n := range append(append([]Handle(nil), sa.Attached...), sb.Attached...) {
		if n != a && n != b && !contains(toAttach, n) {
			toAttach = append(toAttach, n)
		}
	}
	root := sa.IsRoot || sb.IsRoot
	for _, h := range []Handle{a, b} {
		w.unlinkAll(h)
		w.unplace(h)
		delete(w.solids, h)
		r.Removed = append(r.Removed, h)
	}

	id := w.alloc(&Solid{Shape: shape, Color: w.randomColor(), IsRoot: root})
	for _, n := range toAttach {
		if shape.HasFaceContact(w.solids[n].Shape) {
			w.link(id, n)
		} else {
			w.warn(&r, "world: merge detached solid", "neighbor", n, "merged", id)
		}
	}
	w.place(id)
	w.pruneOrphans(append(toAttach, id), &r)
	r.Added = w.stillPlaced([]Handle{id})
	r.Committed = true
	return r
}

// AddVertex grows h to the hull of its vertices and v. It is refused when
// the grown solid would overlap another placed solid. Attachments that
// lose face contact are dropped.
func (w *World) AddVertex(h Handle, v v3.Vec) Result {
	var r Result
	if err := w.requirePlaced(h, &r, "add vertex to"); err != nil {
		return r.refuse(err)
	}
	s := w.solids[h]
	shape, err := w.newShape(append(s.Shape.Points(), v))
	if err != nil {
		return r.refuse(fmt.Errorf("world: add vertex to %d: %w", h, err))
	}
	r.Preview = []*polyhedron.ConvexPolyhedron{shape}
	r.Denied = w.overlapping(shape, w.margin(shape.BoundingBox()), graph.SetOf(h))
	if len(r.Denied) > 0 {
		return r.refuse(ErrOverlap)
	}
	w.replace(h, &Solid{Shape: shape, Color: w.randomColor(), IsRoot: s.IsRoot}, &r)
	return r
}

// DeleteVertex rebuilds h without the vertices within the vertex delete
// tolerance of v. If fewer than four vertices, or only coplanar ones,
// would remain, h is removed instead. Neighbors that lose face contact
// are detached and pruned when left without a root.
func (w *World) DeleteVertex(h Handle, v v3.Vec) Result {
	var r Result
	if err := w.requirePlaced(h, &r, "delete vertex from"); err != nil {
		return r.refuse(err)
	}
	s := w.solids[h]
	var remaining []v3.Vec
	for _, p := range s.Shape.Vertices {
		if math.Sqrt(geom.DistanceSq(p, v)) > w.tol.VertexDelete {
			remaining = append(remaining, p)
		}
	}
	if len(remaining) == len(s.Shape.Vertices) {
		return r.refuse(fmt.Errorf("world: solid %d has no vertex at %v: %w", h, v, ErrNoTarget))
	}
	if len(remaining) < 4 {
		return w.Remove(h)
	}
	shape, err := w.newShape(remaining)
	if err != nil {
		return w.Remove(h)
	}
	r.Preview = []*polyhedron.ConvexPolyhedron{shape}
	w.replace(h, &Solid{Shape: shape, Color: s.Color, IsRoot: s.IsRoot}, &r)
	return r
}

// replace swaps placed solid h for next, carrying over the attachments
// next still touches, and commits r.
func (w *World) replace(h Handle, next *Solid, r *Result) {
	neighbors := append([]Handle(nil), w.solids[h].Attached...)
	w.unlinkAll(h)
	w.unplace(h)
	delete(w.solids, h)
	r.Removed = append(r.Removed, h)

	id := w.alloc(next)
	var detached []Handle
	for _, n := range neighbors {
		if next.Shape.HasFaceContact(w.solids[n].Shape) {
			w.link(id, n)
		} else {
			w.warn(r, "world: edit detached solid", "neighbor", n, "solid", id)
			detached = append(detached, n)
		}
	}
	w.place(id)
	w.pruneOrphans(append(detached, id), r)
	r.Added = w.stillPlaced([]Handle{id})
	r.Committed = true
}

func (w *World) requirePlaced(h Handle, r *Result, op string) error {
	if _, err := w.get(h); err != nil {
		return err
	}
	if !w.placed(h) {
		w.warn(r, fmt.Sprintf("world: cannot %s solid not in world", op), "solid", h)
		return fmt.Errorf("%w: %d", ErrNotInWorld, h)
	}
	return nil
}

func (w *World) stillPlaced(hs []Handle) []Handle {
	var out []Handle
	for _, h := range hs {
		if w.placed(h) {
			out = append(out, h)
		}
	}
	return out
}
