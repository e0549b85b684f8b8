// Package hull builds triangulated convex hulls from point clouds with an
// incremental quickhull, and splits hull point sets by planes.
//
// Diagnostics (removed colinear points, failed closure checks) are logged
// through slog.Default unless WithLogger names another logger.
package hull

import (
	"errors"
	"log/slog"
	"math"

	"github.com/chazu/hullworld/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrDegenerate is returned when the input has fewer than four usable points
// or all usable points are coplanar.
var ErrDegenerate = errors.New("hull: degenerate point set")

// Face is an outward-wound triangle referencing Geometry.Vertices.
type Face struct {
	A, B, C int
	Normal  v3.Vec
}

// Geometry is a closed triangle mesh.
type Geometry struct {
	Vertices []v3.Vec
	Faces    []Face
}

// Triangle returns the corners of face i.
func (g *Geometry) Triangle(i int) (a, b, c v3.Vec) {
	f := g.Faces[i]
	return g.Vertices[f.A], g.Vertices[f.B], g.Vertices[f.C]
}

// face is a working triangle during construction. Points index into the
// builder's point slice.
type face struct {
	points   [3]int
	normal   v3.Vec
	adjacent []*face
	canSee   []int
	removed  bool
}

func (f *face) link(o *face) {
	for _, a := range f.adjacent {
		if a == o {
			return
		}
	}
	f.adjacent = append(f.adjacent, o)
}

func (f *face) unlink(o *face) {
	for i, a := range f.adjacent {
		if a == o {
			f.adjacent = append(f.adjacent[:i], f.adjacent[i+1:]...)
			return
		}
	}
}

func (f *face) has(p int) bool {
	return f.points[0] == p || f.points[1] == p || f.points[2] == p
}

// visibleFront is how far an eye point must be in front of a face for the
// face to be replaced. It is kept near zero: a looser threshold leaves
// points of nearly spherical clouds outside the finished hull.
const visibleFront = 1e-12

type builder struct {
	pts []v3.Vec
	tol geom.Tolerance
	log *slog.Logger
}

// Option configures hull construction.
type Option func(*builder)

// WithLogger sends construction diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(b *builder) {
		if l != nil {
			b.log = l
		}
	}
}

// distance is the signed distance of point p in front of f.
func (b *builder) distance(f *face, p int) float64 {
	return b.pts[p].Sub(b.pts[f.points[0]]).Dot(f.normal)
}

// makeFace orients (p1, p2, p3) so that inside lies behind it.
func (b *builder) makeFace(p1, p2, p3, inside int) *face {
	normal := geom.Normalize(b.pts[p2].Sub(b.pts[p1]).Cross(b.pts[p3].Sub(b.pts[p1])))
	if b.pts[inside].Sub(b.pts[p1]).Dot(normal) > 0 {
		normal = normal.MulScalar(-1)
		p2, p3 = p3, p2
	}
	return &face{points: [3]int{p1, p2, p3}, normal: normal}
}

// distribute assigns each point to the face it is furthest in front of.
// Points behind every face are interior and dropped.
func (b *builder) distribute(points []int, faces []*face) {
	for _, p := range points {
		var best *face
		bestDistance := b.tol.HullFront
		for _, f := range faces {
			if d := b.distance(f, p); d > bestDistance {
				bestDistance = d
				best = f
			}
		}
		if best != nil {
			best.canSee = append(best.canSee, p)
		}
	}
}

// Hull3D returns the convex hull of points. Points lying between two other
// points are dropped first so no zero-area triangle can be produced.
func Hull3D(points []v3.Vec, tol geom.Tolerance, opts ...Option) (*Geometry, error) {
	b := &builder{pts: points, tol: tol, log: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	pool := b.removeColinear()
	if len(pool) < 4 {
		return nil, ErrDegenerate
	}

	extremes := make([]int, 0, 6)
	for _, less := range []func(a, b v3.Vec) bool{
		func(a, b v3.Vec) bool { return a.X < b.X },
		func(a, b v3.Vec) bool { return a.X > b.X },
		func(a, b v3.Vec) bool { return a.Y < b.Y },
		func(a, b v3.Vec) bool { return a.Y > b.Y },
		func(a, b v3.Vec) bool { return a.Z < b.Z },
		func(a, b v3.Vec) bool { return a.Z > b.Z },
	} {
		var e int
		var ok bool
		pool, e, ok = b.removeExtreme(pool, less)
		if ok {
			extremes = append(extremes, e)
		}
	}

	// Base edge: the two extremes furthest apart.
	bi, bj := -1, -1
	maxSq := 0.0
	for i := 0; i < len(extremes); i++ {
		for j := i + 1; j < len(extremes); j++ {
			if d := geom.DistanceSq(points[extremes[i]], points[extremes[j]]); d >= maxSq {
				bi, bj, maxSq = extremes[i], extremes[j], d
			}
		}
	}
	if bi < 0 || maxSq < tol.VertexMergeSq {
		return nil, ErrDegenerate
	}
	extremes = without(extremes, bi, bj)

	// Third corner: the extreme furthest from the base line.
	bk := -1
	maxSq = 0
	line := geom.Normalize(points[bj].Sub(points[bi]))
	for _, p := range extremes {
		rel := points[p].Sub(points[bi])
		proj := line.MulScalar(rel.Dot(line)).Add(points[bi])
		if d := geom.DistanceSq(proj, points[p]); d >= maxSq {
			bk, maxSq = p, d
		}
	}
	if bk < 0 || maxSq < tol.VertexMergeSq {
		return nil, ErrDegenerate
	}
	pool = append(pool, without(extremes, bk)...)
	if len(pool) == 0 {
		return nil, ErrDegenerate
	}

	// Apex: the remaining point furthest from the base triangle's plane.
	apex := pool[len(pool)-1]
	pool = pool[:len(pool)-1]
	normal := geom.Normalize(line.Cross(geom.Normalize(points[bk].Sub(points[bi]))))
	maxDistance := math.Abs(points[apex].Sub(points[bi]).Dot(normal))
	for i, p := range pool {
		if d := math.Abs(points[p].Sub(points[bi]).Dot(normal)); d > maxDistance {
			pool[i], apex = apex, p
			maxDistance = d
		}
	}
	if maxDistance < tol.HullFront {
		return nil, ErrDegenerate
	}

	faces := []*face{
		b.makeFace(bi, bj, bk, apex),
		b.makeFace(bi, bj, apex, bk),
		b.makeFace(bi, bk, apex, bj),
		b.makeFace(bj, bk, apex, bi),
	}
	for _, f := range faces {
		for _, o := range faces {
			if f != o {
				f.link(o)
			}
		}
	}
	b.distribute(pool, faces)

	all := append([]*face(nil), faces...)
	var stack []*face
	for _, f := range faces {
		if len(f.canSee) > 0 {
			stack = append(stack, f)
		}
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.removed || len(f.canSee) == 0 {
			continue
		}
		eye := b.furthest(f)

		light := b.lightFaces(f, eye)
		var redistribute []int
		for _, lf := range light {
			redistribute = append(redistribute, lf.canSee...)
		}
		isLight := make(map[*face]bool, len(light))
		for _, lf := range light {
			isLight[lf] = true
		}

		pointToNewFace := make(map[int]*face)
		var created []*face
		for _, lf := range light {
			lf.removed = true
			for _, neighbor := range append([]*face(nil), lf.adjacent...) {
				if isLight[neighbor] {
					continue
				}
				// Horizon edge between lf and neighbor.
				var shared []int
				inside := -1
				for _, p := range lf.points {
					if neighbor.has(p) {
						shared = append(shared, p)
					} else {
						inside = p
					}
				}
				if len(shared) != 2 || inside < 0 {
					b.log.Warn("hull: horizon faces do not share an edge", "shared", len(shared))
					continue
				}
				nf := b.makeFace(eye, shared[0], shared[1], inside)
				neighbor.unlink(lf)
				neighbor.link(nf)
				nf.link(neighbor)
				for _, sp := range shared {
					if other, ok := pointToNewFace[sp]; ok {
						other.link(nf)
						nf.link(other)
					} else {
						pointToNewFace[sp] = nf
					}
				}
				all = append(all, nf)
				created = append(created, nf)
			}
		}
		b.distribute(redistribute, created)
		for _, nf := range created {
			if len(nf.canSee) > 0 {
				stack = append(stack, nf)
			}
		}
	}

	var result []*face
	for _, f := range all {
		if !f.removed {
			result = append(result, f)
		}
	}
	b.sanityCheck(result)
	return b.toGeometry(result), nil
}

// furthest removes and returns the point of f.canSee furthest in front of f.
func (b *builder) furthest(f *face) int {
	last := len(f.canSee) - 1
	eye := f.canSee[last]
	f.canSee = f.canSee[:last]
	maxDistance := b.distance(f, eye)
	for i, p := range f.canSee {
		if d := b.distance(f, p); d > maxDistance {
			f.canSee[i], eye = eye, p
			maxDistance = d
		}
	}
	return eye
}

// lightFaces flood fills from start across adjacency and collects every face
// eye is in front of.
func (b *builder) lightFaces(start *face, eye int) []*face {
	var light []*face
	seen := map[*face]bool{}
	stack := []*face{start}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[f] {
			continue
		}
		seen[f] = true
		if b.distance(f, eye) <= visibleFront {
			continue
		}
		light = append(light, f)
		for i := len(f.adjacent) - 1; i >= 0; i-- {
			stack = append(stack, f.adjacent[i])
		}
	}
	return light
}

// removeColinear drops every point lying on the segment between two other
// points. Duplicates fall out the same way. Removal is immediate so two
// copies of a point cannot remove each other.
func (b *builder) removeColinear() []int {
	n := len(b.pts)
	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}
	removed := 0
	for i := 0; i < n; i++ {
		if !alive[i] {
			continue
		}
		a := b.pts[i]
		for j := i + 1; j < n; j++ {
			if !alive[j] {
				continue
			}
			dir := b.pts[j].Sub(a)
			length := dir.Length()
			dir = geom.Normalize(dir)
			for k := 0; k < n; k++ {
				if !alive[k] || k == i || k == j {
					continue
				}
				c := b.pts[k]
				along := c.Sub(a).Dot(dir)
				if along < 0 || along > length {
					continue
				}
				if geom.DistanceSq(a.Add(dir.MulScalar(along)), c) < b.tol.VertexMergeSq {
					alive[k] = false
					removed++
				}
			}
		}
	}
	if removed > 0 {
		b.log.Debug("hull: removed colinear points", "count", removed)
	}
	pool := make([]int, 0, n-removed)
	for i, ok := range alive {
		if ok {
			pool = append(pool, i)
		}
	}
	return pool
}

// removeExtreme pops the point that wins every less comparison. Ties keep
// the later candidate.
func (b *builder) removeExtreme(pool []int, less func(a, b v3.Vec) bool) ([]int, int, bool) {
	if len(pool) == 0 {
		return pool, 0, false
	}
	v := pool[len(pool)-1]
	pool = pool[:len(pool)-1]
	for i, p := range pool {
		if less(b.pts[p], b.pts[v]) {
			pool[i], v = v, p
		}
	}
	return pool, v, true
}

func (b *builder) sanityCheck(faces []*face) {
	for _, f := range faces {
		for _, o := range faces {
			for _, p := range o.points {
				if d := b.distance(f, p); d > b.tol.HullSanity {
					pa, pb, pc := b.pts[f.points[0]], b.pts[f.points[1]], b.pts[f.points[2]]
					b.log.Warn("hull: closure check failed",
						"point", b.pts[p], "distance", d,
						"faceArea", pb.Sub(pa).Cross(pc.Sub(pa)).Length()/2)
				}
			}
		}
	}
}

func (b *builder) toGeometry(faces []*face) *Geometry {
	index := make(map[int]int)
	g := &Geometry{}
	vertex := func(p int) int {
		if i, ok := index[p]; ok {
			return i
		}
		i := len(g.Vertices)
		g.Vertices = append(g.Vertices, b.pts[p])
		index[p] = i
		return i
	}
	for _, f := range faces {
		g.Faces = append(g.Faces, Face{
			A:      vertex(f.points[0]),
			B:      vertex(f.points[1]),
			C:      vertex(f.points[2]),
			Normal: f.normal,
		})
	}
	return g
}

func without(s []int, drop ...int) []int {
	out := s[:0:0]
	for _, v := range s {
		keep := true
		for _, d := range drop {
			if v == d {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, v)
		}
	}
	return out
}
