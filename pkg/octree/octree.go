// Package octree indexes values by axis-aligned bounding box.
//
// Each node splits its box into eight equal children, created on first
// insert. A value descends into a child only when exactly one child box
// intersects its bounds; values straddling child boundaries stay at the
// parent. Queries are conservative: they return every value whose stored
// box passes the test, and callers refine with exact geometry.
package octree

import (
	"github.com/chazu/hullworld/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
)

type entry[T comparable] struct {
	bounds sdf.Box3
	value  T
}

type node[T comparable] struct {
	bounds   sdf.Box3
	maxDepth int
	children []*node[T]
	entries  []entry[T]
}

// Octree is a bounding-box index. The zero value is not usable; call New.
type Octree[T comparable] struct {
	root *node[T]
	size int
	tol  geom.Tolerance
}

// Option configures an Octree.
type Option func(*options)

type options struct {
	tol geom.Tolerance
}

// WithTolerance sets the policy used by Raycast for near-parallel slabs.
func WithTolerance(tol geom.Tolerance) Option {
	return func(o *options) { o.tol = tol }
}

// New returns an empty octree covering bounds that subdivides at most
// maxDepth times.
func New[T comparable](bounds sdf.Box3, maxDepth int, opts ...Option) *Octree[T] {
	o := options{tol: geom.DefaultTolerance()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Octree[T]{
		root: &node[T]{bounds: bounds, maxDepth: maxDepth},
		tol:  o.tol,
	}
}

// Bounds returns the box covered by the root node.
func (o *Octree[T]) Bounds() sdf.Box3 { return o.root.bounds }

// Len returns the number of stored entries.
func (o *Octree[T]) Len() int { return o.size }

// Add stores value under bounds. Adding the same value twice stores it
// twice.
func (o *Octree[T]) Add(bounds sdf.Box3, value T) {
	o.root.add(bounds, value)
	o.size++
}

// Remove deletes value, which must have been added with bounds. It reports
// whether an entry was removed. When the entry is not on the path bounds
// selects, the whole tree is searched.
func (o *Octree[T]) Remove(bounds sdf.Box3, value T) bool {
	if o.root.remove(bounds, value) || o.root.removeAnywhere(value) {
		o.size--
		return true
	}
	return false
}

// Get appends to results every value whose bounds intersect box.
func (o *Octree[T]) Get(box sdf.Box3, results []T) []T {
	return o.root.get(box, results)
}

// Has reports whether value is stored with bounds intersecting box.
func (o *Octree[T]) Has(box sdf.Box3, value T) bool {
	for _, v := range o.Get(box, nil) {
		if v == value {
			return true
		}
	}
	return false
}

// Raycast appends to results every value whose bounds the ray hits within
// maxDistance.
func (o *Octree[T]) Raycast(ray geom.Ray, maxDistance float64, results []T) []T {
	return o.root.raycast(ray, maxDistance, o.tol, results)
}

// GetAll appends every stored value to results, parents before children.
func (o *Octree[T]) GetAll(results []T) []T {
	return o.root.getAll(results)
}

func (n *node[T]) makeChildren() {
	half := n.bounds.Max.Sub(n.bounds.Min).MulScalar(0.5)
	n.children = make([]*node[T], 0, 8)
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			for z := 0; z < 2; z++ {
				min := geom.V(float64(x)*half.X, float64(y)*half.Y, float64(z)*half.Z).Add(n.bounds.Min)
				n.children = append(n.children, &node[T]{
					bounds:   sdf.Box3{Min: min, Max: min.Add(half)},
					maxDepth: n.maxDepth - 1,
				})
			}
		}
	}
}

// soleChild returns the only child whose box intersects bounds.
func (n *node[T]) soleChild(bounds sdf.Box3) (*node[T], bool) {
	var found *node[T]
	for _, c := range n.children {
		if geom.BoxesIntersect(c.bounds, bounds) {
			if found != nil {
				return nil, false
			}
			found = c
		}
	}
	return found, found != nil
}

func (n *node[T]) add(bounds sdf.Box3, value T) {
	if n.children == nil && n.maxDepth > 0 {
		n.makeChildren()
	}
	if c, ok := n.soleChild(bounds); ok {
		c.add(bounds, value)
		return
	}
	n.entries = append(n.entries, entry[T]{bounds: bounds, value: value})
}

func (n *node[T]) remove(bounds sdf.Box3, value T) bool {
	if c, ok := n.soleChild(bounds); ok {
		found := c.remove(bounds, value)
		n.collapse()
		return found
	}
	return n.removeEntry(value)
}

func (n *node[T]) removeAnywhere(value T) bool {
	if n.removeEntry(value) {
		return true
	}
	for _, c := range n.children {
		if c.removeAnywhere(value) {
			n.collapse()
			return true
		}
	}
	return false
}

func (n *node[T]) removeEntry(value T) bool {
	for i, e := range n.entries {
		if e.value == value {
			n.entries = append(n.entries[:i], n.entries[i+1:]...)
			return true
		}
	}
	return false
}

// collapse drops the children once they are all empty leaves.
func (n *node[T]) collapse() {
	for _, c := range n.children {
		if c.children != nil || len(c.entries) > 0 {
			return
		}
	}
	n.children = nil
}

func (n *node[T]) get(box sdf.Box3, results []T) []T {
	for _, e := range n.entries {
		if geom.BoxesIntersect(e.bounds, box) {
			results = append(results, e.value)
		}
	}
	for _, c := range n.children {
		if geom.BoxesIntersect(c.bounds, box) {
			results = c.get(box, results)
		}
	}
	return results
}

func (n *node[T]) raycast(ray geom.Ray, maxDistance float64, tol geom.Tolerance, results []T) []T {
	for _, e := range n.entries {
		if _, ok := geom.RaycastBox(ray, maxDistance, e.bounds, tol); ok {
			results = append(results, e.value)
		}
	}
	for _, c := range n.children {
		if _, ok := geom.RaycastBox(ray, maxDistance, c.bounds, tol); ok {
			results = c.raycast(ray, maxDistance, tol, results)
		}
	}
	return results
}

func (n *node[T]) getAll(results []T) []T {
	for _, e := range n.entries {
		results = append(results, e.value)
	}
	for _, c := range n.children {
		results = c.getAll(results)
	}
	return results
}
