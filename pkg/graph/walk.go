package graph

import "iter"

// Neighbors returns the nodes adjacent to n.
type Neighbors[K comparable] func(n K) []K

// Set is a set of nodes.
type Set[K comparable] map[K]struct{}

// SetOf returns a set holding ks.
func SetOf[K comparable](ks ...K) Set[K] {
	s := make(Set[K], len(ks))
	for _, k := range ks {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether k is in s. A nil set is empty.
func (s Set[K]) Has(k K) bool {
	_, ok := s[k]
	return ok
}

// Add inserts k.
func (s Set[K]) Add(k K) { s[k] = struct{}{} }

// Without returns a Neighbors that never yields a node in exclude.
func Without[K comparable](next Neighbors[K], exclude Set[K]) Neighbors[K] {
	if len(exclude) == 0 {
		return next
	}
	return func(n K) []K {
		var out []K
		for _, m := range next(n) {
			if !exclude.Has(m) {
				out = append(out, m)
			}
		}
		return out
	}
}

// Walk yields start and every node reachable from it, depth first and
// each node once. Iteration may stop early.
func Walk[K comparable](start K, next Neighbors[K]) iter.Seq[K] {
	return func(yield func(K) bool) {
		seen := SetOf(start)
		stack := []K{start}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(n) {
				return
			}
			adj := next(n)
			for i := len(adj) - 1; i >= 0; i-- {
				if !seen.Has(adj[i]) {
					seen.Add(adj[i])
					stack = append(stack, adj[i])
				}
			}
		}
	}
}

// Reachable returns start and every node reachable from it in Walk order.
func Reachable[K comparable](start K, next Neighbors[K]) []K {
	var out []K
	for n := range Walk(start, next) {
		out = append(out, n)
	}
	return out
}

// ReachesAny reports whether some node reachable from start, start
// included, satisfies pred.
func ReachesAny[K comparable](start K, next Neighbors[K], pred func(K) bool) bool {
	for n := range Walk(start, next) {
		if pred(n) {
			return true
		}
	}
	return false
}

// Components partitions nodes into connected components. Neighbors outside
// nodes are followed too, so callers pass a closed node set.
func Components[K comparable](nodes []K, next Neighbors[K]) [][]K {
	seen := make(Set[K], len(nodes))
	var out [][]K
	for _, n := range nodes {
		if seen.Has(n) {
			continue
		}
		comp := Reachable(n, next)
		for _, m := range comp {
			seen.Add(m)
		}
		out = append(out, comp)
	}
	return out
}

// Asymmetric returns every edge a→b among nodes with no matching b→a.
func Asymmetric[K comparable](nodes []K, next Neighbors[K]) [][2]K {
	var out [][2]K
	for _, a := range nodes {
		for _, b := range next(a) {
			back := false
			for _, c := range next(b) {
				if c == a {
					back = true
					break
				}
			}
			if !back {
				out = append(out, [2]K{a, b})
			}
		}
	}
	return out
}
