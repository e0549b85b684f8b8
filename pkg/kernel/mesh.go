package kernel

import (
	"github.com/chazu/hullworld/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is a triangle mesh suitable for rendering.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, colors has 3 floats per vertex (r,g,b)
// and indices has 3 uint32s per triangle. Colors may be empty.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Colors   []float32 `json:"colors,omitempty"`
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // which solid this came from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// AddTriangle appends an unshared triangle with its flat face normal.
func (m *Mesh) AddTriangle(a, b, c v3.Vec) {
	n := geom.Normalize(b.Sub(a).Cross(c.Sub(a)))
	base := uint32(m.VertexCount())
	for i, v := range []v3.Vec{a, b, c} {
		m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
		m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		m.Indices = append(m.Indices, base+uint32(i))
	}
}

// Paint sets every vertex to one color.
func (m *Mesh) Paint(r, g, b float32) {
	m.Colors = m.Colors[:0]
	for range m.VertexCount() {
		m.Colors = append(m.Colors, r, g, b)
	}
}

// Append adds the geometry of o to m, offsetting its indices. Colors are
// kept only while both meshes carry them.
func (m *Mesh) Append(o *Mesh) {
	base := uint32(m.VertexCount())
	keepColors := len(m.Colors) == len(m.Vertices) && len(o.Colors) == len(o.Vertices)
	m.Vertices = append(m.Vertices, o.Vertices...)
	m.Normals = append(m.Normals, o.Normals...)
	for _, i := range o.Indices {
		m.Indices = append(m.Indices, base+i)
	}
	if keepColors {
		m.Colors = append(m.Colors, o.Colors...)
	} else {
		m.Colors = nil
	}
}

// Triangle returns the corners of triangle i.
func (m *Mesh) Triangle(i int) [3]v3.Vec {
	var t [3]v3.Vec
	for j := range 3 {
		k := int(m.Indices[i*3+j]) * 3
		t[j] = geom.V(float64(m.Vertices[k]), float64(m.Vertices[k+1]), float64(m.Vertices[k+2]))
	}
	return t
}
