// Package kernel defines the triangle mesh handed to renderers and the
// interface geometry kernels implement to mesh convex solids. The kernel
// abstraction allows swapping backends without changing the rest of the
// system.
package kernel

import (
	"github.com/chazu/hullworld/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Solid is a closed convex solid a kernel can mesh.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() sdf.Box3
	// Triangles returns the outward-wound boundary triangles.
	Triangles() [][3]v3.Vec
	// Planes returns the outward face planes.
	Planes() []geom.Plane
}

// Kernel turns solids into meshes.
type Kernel interface {
	ToMesh(s Solid) (*Mesh, error)
}

// Exact meshes a solid straight from its hull triangles. It is the
// default kernel: the output has one triangle per hull face and flat
// face normals.
type Exact struct{}

// Compile-time interface check.
var _ Kernel = Exact{}

// ToMesh returns the hull triangles of s as an uncolored mesh.
func (Exact) ToMesh(s Solid) (*Mesh, error) {
	tris := s.Triangles()
	m := &Mesh{
		Vertices: make([]float32, 0, len(tris)*9),
		Normals:  make([]float32, 0, len(tris)*9),
		Indices:  make([]uint32, 0, len(tris)*3),
	}
	for _, tri := range tris {
		m.AddTriangle(tri[0], tri[1], tri[2])
	}
	return m, nil
}
