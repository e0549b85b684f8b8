package octree

import (
	"sort"
	"testing"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cell(x, y, z, size float64) sdf.Box3 {
	return sdf.Box3{Min: geom.V(x, y, z), Max: geom.V(x+size, y+size, z+size)}
}

func sorted(v []int) []int {
	sort.Ints(v)
	return v
}

func TestAddGetRemove(t *testing.T) {
	o := New[int](geom.CubeBox(64), 4)
	o.Add(cell(1, 1, 1, 1), 1)
	o.Add(cell(-10, -10, -10, 2), 2)
	o.Add(cell(30, 30, 30, 1), 3)
	o.Add(cell(-1, -1, -1, 2), 4) // straddles the root center
	require.Equal(t, 4, o.Len())

	assert.Equal(t, []int{1, 4}, sorted(o.Get(cell(0.5, 0.5, 0.5, 1), nil)))
	assert.Equal(t, []int{2}, o.Get(cell(-9, -9, -9, 0.5), nil))
	assert.Empty(t, o.Get(cell(10, 10, 10, 1), nil))
	assert.Equal(t, []int{1, 2, 3, 4}, sorted(o.GetAll(nil)))

	assert.True(t, o.Has(cell(1, 1, 1, 1), 1))
	assert.False(t, o.Has(cell(1, 1, 1, 1), 3))

	assert.True(t, o.Remove(cell(1, 1, 1, 1), 1))
	assert.False(t, o.Remove(cell(1, 1, 1, 1), 1), "already removed")
	assert.Equal(t, 3, o.Len())
	assert.Equal(t, []int{4}, o.Get(cell(0.5, 0.5, 0.5, 1), nil))

	assert.True(t, o.Remove(cell(-1, -1, -1, 2), 4))
	assert.Equal(t, []int{2, 3}, sorted(o.GetAll(nil)))
}

func TestStraddlingEntryStaysAtParent(t *testing.T) {
	o := New[string](geom.CubeBox(8), 3)
	o.Add(cell(-1, -1, -1, 2), "center")
	assert.Len(t, o.root.entries, 1)
	assert.Len(t, o.root.children, 8)
}

func TestRemoveWithStaleBounds(t *testing.T) {
	o := New[int](geom.CubeBox(64), 4)
	o.Add(cell(10, 10, 10, 1), 7)
	// Bounds that lead to a different branch still find the entry.
	assert.True(t, o.Remove(cell(-20, -20, -20, 1), 7))
	assert.Zero(t, o.Len())
	assert.Empty(t, o.GetAll(nil))
}

func TestRemoveCollapsesEmptyChildren(t *testing.T) {
	o := New[int](geom.CubeBox(64), 4)
	o.Add(cell(10, 10, 10, 1), 1)
	require.NotNil(t, o.root.children)
	require.True(t, o.Remove(cell(10, 10, 10, 1), 1))
	assert.Nil(t, o.root.children)
}

func TestRaycast(t *testing.T) {
	o := New[int](geom.CubeBox(64), 4)
	o.Add(cell(5, -0.5, -0.5, 1), 1)
	o.Add(cell(20, -0.5, -0.5, 1), 2)
	o.Add(cell(5, 10, 0, 1), 3)
	o.Add(cell(-6, -0.5, -0.5, 1), 4)

	ray := geom.Ray{Origin: geom.V(0, 0, 0), Direction: geom.V(1, 0, 0)}
	assert.Equal(t, []int{1}, o.Raycast(ray, 10, nil))
	assert.Equal(t, []int{1, 2}, sorted(o.Raycast(ray, 100, nil)))
}

func TestMaxDepthZeroKeepsEverythingAtRoot(t *testing.T) {
	o := New[int](geom.CubeBox(8), 0)
	o.Add(cell(1, 1, 1, 1), 1)
	o.Add(cell(-3, -3, -3, 1), 2)
	assert.Nil(t, o.root.children)
	assert.Len(t, o.root.entries, 2)
	assert.Equal(t, []int{2}, o.Get(cell(-3, -3, -3, 0.5), nil))
}
