package graph

import (
	"slices"
	"testing"
)

// adjacency builds a Neighbors from an edge list, adding both directions.
func adjacency(edges ...[2]int) Neighbors[int] {
	adj := make(map[int][]int)
	for _, e := range edges {
		adj[e[0]] = append(adj[e[0]], e[1])
		adj[e[1]] = append(adj[e[1]], e[0])
	}
	return func(n int) []int { return adj[n] }
}

func TestWalkVisitsEachNodeOnce(t *testing.T) {
	next := adjacency([2]int{1, 2}, [2]int{2, 3}, [2]int{3, 1}, [2]int{3, 4}, [2]int{5, 6})
	got := Reachable(1, next)
	if len(got) != 4 {
		t.Fatalf("Reachable(1) = %v, want 4 nodes", got)
	}
	if got[0] != 1 {
		t.Errorf("walk must start at the start node, got %d", got[0])
	}
	slices.Sort(got)
	if !slices.Equal(got, []int{1, 2, 3, 4}) {
		t.Errorf("Reachable(1) = %v, want [1 2 3 4]", got)
	}
}

func TestWalkDepthFirstOrder(t *testing.T) {
	next := adjacency([2]int{1, 2}, [2]int{2, 3}, [2]int{1, 4})
	got := Reachable(1, next)
	want := []int{1, 2, 3, 4}
	if !slices.Equal(got, want) {
		t.Errorf("Reachable(1) = %v, want %v", got, want)
	}
}

func TestWalkStopsEarly(t *testing.T) {
	next := adjacency([2]int{1, 2}, [2]int{2, 3}, [2]int{3, 4})
	count := 0
	for range Walk(1, next) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("visited %d nodes after break, want 2", count)
	}
}

func TestWithout(t *testing.T) {
	next := adjacency([2]int{1, 2}, [2]int{2, 3}, [2]int{1, 4})
	got := Reachable(1, Without(next, SetOf(2)))
	if !slices.Equal(got, []int{1, 4}) {
		t.Errorf("Reachable without 2 = %v, want [1 4]", got)
	}
}

func TestReachesAny(t *testing.T) {
	next := adjacency([2]int{1, 2}, [2]int{2, 3}, [2]int{7, 8})
	roots := SetOf(3)
	tests := []struct {
		name  string
		start int
		want  bool
	}{
		{"through a chain", 1, true},
		{"start itself", 3, true},
		{"separate component", 7, false},
		{"isolated node", 9, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReachesAny(tt.start, next, roots.Has); got != tt.want {
				t.Errorf("ReachesAny(%d) = %v, want %v", tt.start, got, tt.want)
			}
		})
	}
}

func TestComponents(t *testing.T) {
	next := adjacency([2]int{1, 2}, [2]int{3, 4}, [2]int{4, 5})
	comps := Components([]int{1, 2, 3, 4, 5, 6}, next)
	if len(comps) != 3 {
		t.Fatalf("got %d components, want 3: %v", len(comps), comps)
	}
	sizes := []int{len(comps[0]), len(comps[1]), len(comps[2])}
	if !slices.Equal(sizes, []int{2, 3, 1}) {
		t.Errorf("component sizes = %v, want [2 3 1]", sizes)
	}
}

func TestAsymmetric(t *testing.T) {
	adj := map[int][]int{1: {2}, 2: {1, 3}, 3: nil}
	next := func(n int) []int { return adj[n] }
	got := Asymmetric([]int{1, 2, 3}, next)
	if len(got) != 1 || got[0] != [2]int{2, 3} {
		t.Errorf("Asymmetric = %v, want [[2 3]]", got)
	}
}
