// Package world maintains a set of non-overlapping convex solids joined
// into attachment graphs.
//
// Solids live in an arena and are addressed by Handle. A solid is part of
// the world only while it is placed in the octree; unplaced solids are
// detached (for example pieces held by an editing tool) and can be placed
// with Add or AttachWith. Every placed solid satisfies three invariants:
// no two placed solids overlap, every placed solid reaches a root through
// attachment edges, and attachment edges are symmetric between solids in
// face contact. Mutations check these before committing and report the
// outcome as a Result.
//
// A World is not safe for concurrent use.
package world

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/graph"
	"github.com/chazu/hullworld/pkg/hull"
	"github.com/chazu/hullworld/pkg/octree"
	"github.com/chazu/hullworld/pkg/polyhedron"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

const (
	// DefaultHalfExtent is the half size of the indexed region.
	DefaultHalfExtent = 2 << 12
	// DefaultMaxDepth is the octree subdivision limit.
	DefaultMaxDepth = 6
	// AttachDepth is how far AttachWith looks along its ray for a target.
	AttachDepth = 10
)

// Handle identifies a solid. Handles are never reused; zero is never
// assigned.
type Handle uint64

// Solid is a convex shape with its place in the attachment graph.
type Solid struct {
	Shape    *polyhedron.ConvexPolyhedron
	Color    Color
	IsRoot   bool
	Attached []Handle
}

// World owns an arena of solids and the octree of those placed in the
// world.
type World struct {
	solids map[Handle]*Solid
	last   Handle
	index  *octree.Octree[Handle]
	tol    geom.Tolerance
	log    *slog.Logger
	rng    *rand.Rand
}

// Option configures a World.
type Option func(*options)

type options struct {
	halfExtent float64
	maxDepth   int
	tol        geom.Tolerance
	logger     *slog.Logger
	seed       uint64
	seeded     bool
}

// WithHalfExtent sets the half size of the cube indexed by the octree.
func WithHalfExtent(h float64) Option {
	return func(o *options) { o.halfExtent = h }
}

// WithMaxDepth sets the octree subdivision limit.
func WithMaxDepth(d int) Option {
	return func(o *options) { o.maxDepth = d }
}

// WithTolerance sets the tolerance policy for every geometric test.
func WithTolerance(t geom.Tolerance) Option {
	return func(o *options) { o.tol = t }
}

// WithLogger sets where warnings go.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithColorSeed makes the colors of new pieces reproducible.
func WithColorSeed(seed uint64) Option {
	return func(o *options) { o.seed, o.seeded = seed, true }
}

// New returns an empty world.
func New(opts ...Option) *World {
	o := options{
		halfExtent: DefaultHalfExtent,
		maxDepth:   DefaultMaxDepth,
		tol:        geom.DefaultTolerance(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if !o.seeded {
		o.seed = rand.Uint64()
	}
	return &World{
		solids: make(map[Handle]*Solid),
		index:  octree.New[Handle](geom.CubeBox(o.halfExtent), o.maxDepth, octree.WithTolerance(o.tol)),
		tol:    o.tol,
		log:    o.logger,
		rng:    rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15)),
	}
}

// Tolerance returns the world's tolerance policy.
func (w *World) Tolerance() geom.Tolerance { return w.tol }

// NewSolid builds a detached solid from the hull of points.
func (w *World) NewSolid(points []v3.Vec, color Color, root bool) (Handle, error) {
	shape, err := w.newShape(points)
	if err != nil {
		return 0, fmt.Errorf("world: new solid: %w", err)
	}
	return w.NewSolidFromShape(shape, color, root), nil
}

// newShape builds a hull under the world's tolerance, logging hull
// diagnostics through the world's logger.
func (w *World) newShape(points []v3.Vec) (*polyhedron.ConvexPolyhedron, error) {
	return polyhedron.New(points, w.tol, hull.WithLogger(w.log))
}

// NewSolidFromShape adds a detached solid with an existing shape.
func (w *World) NewSolidFromShape(shape *polyhedron.ConvexPolyhedron, color Color, root bool) Handle {
	return w.alloc(&Solid{Shape: shape, Color: color, IsRoot: root})
}

// Link joins two detached solids with an attachment edge.
func (w *World) Link(a, b Handle) error {
	if a == b {
		return fmt.Errorf("world: cannot link solid %d to itself", a)
	}
	for _, h := range []Handle{a, b} {
		if _, err := w.get(h); err != nil {
			return err
		}
		if w.placed(h) {
			return fmt.Errorf("%w: %d", ErrInWorld, h)
		}
	}
	w.link(a, b)
	return nil
}

// Paint changes the color of a solid, placed or not.
func (w *World) Paint(h Handle, c Color) Result {
	var r Result
	s, err := w.get(h)
	if err != nil {
		r.Err = err
		return r
	}
	s.Color = c
	r.Committed = true
	return r
}

// Discard frees the detached graph reachable from h.
func (w *World) Discard(h Handle) error {
	if _, err := w.get(h); err != nil {
		return err
	}
	reach := graph.Reachable(h, w.neighbors)
	for _, x := range reach {
		if w.placed(x) {
			return fmt.Errorf("%w: %d", ErrInWorld, x)
		}
	}
	for _, x := range reach {
		delete(w.solids, x)
	}
	return nil
}

// CloneWithDependents copies h into a new detached solid together with
// every neighbor subgraph that hangs off h without reaching a root by
// another path. Shapes are shared; edges are copied only between clones.
func (w *World) CloneWithDependents(h Handle) (Handle, error) {
	s, err := w.get(h)
	if err != nil {
		return 0, err
	}
	clones := map[Handle]Handle{}
	order := []Handle{h}
	clones[h] = w.alloc(&Solid{Shape: s.Shape, Color: s.Color, IsRoot: s.IsRoot})

	avoid := graph.Without(w.neighbors, graph.SetOf(h))
	for _, n := range s.Attached {
		if graph.ReachesAny(n, avoid, w.isRoot) {
			continue
		}
		for _, x := range graph.Reachable(n, avoid) {
			if _, ok := clones[x]; ok {
				continue
			}
			o := w.solids[x]
			clones[x] = w.alloc(&Solid{Shape: o.Shape, Color: o.Color, IsRoot: o.IsRoot})
			order = append(order, x)
		}
	}
	for _, x := range order {
		c := w.solids[clones[x]]
		for _, n := range w.solids[x].Attached {
			if cn, ok := clones[n]; ok {
				c.Attached = append(c.Attached, cn)
			}
		}
	}
	return clones[h], nil
}

// ---------------------------------------------------------------------------
// Arena and index helpers
// ---------------------------------------------------------------------------

func (w *World) alloc(s *Solid) Handle {
	w.last++
	w.solids[w.last] = s
	return w.last
}

func (w *World) get(h Handle) (*Solid, error) {
	s, ok := w.solids[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSolid, h)
	}
	return s, nil
}

// placed reports whether h is indexed under its own bounding box.
func (w *World) placed(h Handle) bool {
	s, ok := w.solids[h]
	return ok && w.index.Has(s.Shape.BoundingBox(), h)
}

func (w *World) place(h Handle) {
	w.index.Add(w.solids[h].Shape.BoundingBox(), h)
}

func (w *World) unplace(h Handle) {
	if !w.index.Remove(w.solids[h].Shape.BoundingBox(), h) {
		w.log.Warn("world: solid missing from index", "solid", h)
	}
}

func (w *World) neighbors(h Handle) []Handle {
	if s, ok := w.solids[h]; ok {
		return s.Attached
	}
	return nil
}

func (w *World) isRoot(h Handle) bool {
	s, ok := w.solids[h]
	return ok && s.IsRoot
}

// link adds the edge a-b in both directions unless present.
func (w *World) link(a, b Handle) {
	sa, sb := w.solids[a], w.solids[b]
	if !contains(sa.Attached, b) {
		sa.Attached = append(sa.Attached, b)
	}
	if !contains(sb.Attached, a) {
		sb.Attached = append(sb.Attached, a)
	}
}

// unlinkAll removes h from the attachment lists of its neighbors. h keeps
// its own list so callers can still see who it was attached to.
func (w *World) unlinkAll(h Handle) {
	for _, n := range w.solids[h].Attached {
		if ns, ok := w.solids[n]; ok {
			ns.Attached = without(ns.Attached, h)
		}
	}
}

// overlapping returns the placed solids that shape overlaps, skipping
// those in exclude.
func (w *World) overlapping(shape *polyhedron.ConvexPolyhedron, query sdf.Box3, exclude graph.Set[Handle]) []Handle {
	var out []Handle
	for _, h := range w.index.Get(query, nil) {
		if exclude.Has(h) || contains(out, h) {
			continue
		}
		if w.solids[h].Shape.Overlaps(shape) {
			out = append(out, h)
		}
	}
	return out
}

// margin expands a shape's bounding box for candidate queries.
func (w *World) margin(b sdf.Box3) sdf.Box3 {
	return geom.ExpandBox(b, w.tol.QueryMargin)
}

// pruneOrphans removes every placed component reachable from starts that
// holds no root, and frees its solids.
func (w *World) pruneOrphans(starts []Handle, r *Result) {
	for _, start := range starts {
		if !w.placed(start) {
			continue
		}
		if graph.ReachesAny(start, w.neighbors, w.isRoot) {
			continue
		}
		for _, x := range graph.Reachable(start, w.neighbors) {
			if w.placed(x) {
				w.unplace(x)
			}
			delete(w.solids, x)
			r.Removed = append(r.Removed, x)
		}
	}
}

func (w *World) randomColor() Color {
	return Color(w.rng.Uint32() & 0xffffff)
}

func contains(hs []Handle, h Handle) bool {
	for _, x := range hs {
		if x == h {
			return true
		}
	}
	return false
}

func without(hs []Handle, h Handle) []Handle {
	out := hs[:0]
	for _, x := range hs {
		if x != h {
			out = append(out, x)
		}
	}
	return out
}
