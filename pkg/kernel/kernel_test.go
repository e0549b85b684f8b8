package kernel

import (
	"testing"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestMeshAddTriangle(t *testing.T) {
	m := &Mesh{}
	m.AddTriangle(geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(0, 1, 0))
	if m.VertexCount() != 3 || m.TriangleCount() != 1 {
		t.Fatalf("got %d vertices, %d triangles", m.VertexCount(), m.TriangleCount())
	}
	for i := 0; i < 3; i++ {
		if n := m.Normals[i*3+2]; n != 1 {
			t.Errorf("normal z of vertex %d = %v, want 1", i, n)
		}
	}
	tri := m.Triangle(0)
	if tri[1] != geom.V(1, 0, 0) {
		t.Errorf("Triangle(0)[1] = %v", tri[1])
	}
}

func TestMeshAppendAndPaint(t *testing.T) {
	a, b := &Mesh{}, &Mesh{}
	a.AddTriangle(geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(0, 1, 0))
	b.AddTriangle(geom.V(0, 0, 1), geom.V(1, 0, 1), geom.V(0, 1, 1))
	a.Paint(1, 0, 0)
	b.Paint(0, 1, 0)

	out := &Mesh{}
	out.Append(a)
	out.Append(b)
	if out.TriangleCount() != 2 {
		t.Fatalf("TriangleCount() = %d, want 2", out.TriangleCount())
	}
	if got := out.Indices[3:]; got[0] != 3 || got[2] != 5 {
		t.Errorf("appended indices = %v, want offset by 3", got)
	}
	if len(out.Colors) != len(out.Vertices) {
		t.Fatalf("colors length %d != vertices length %d", len(out.Colors), len(out.Vertices))
	}
	if out.Colors[9] != 0 || out.Colors[10] != 1 {
		t.Errorf("second triangle color = %v", out.Colors[9:12])
	}

	out.Append(&Mesh{Vertices: []float32{0, 0, 0}, Normals: []float32{0, 0, 1}})
	if out.Colors != nil {
		t.Error("colors should be dropped once an uncolored mesh is appended")
	}
}

// --- Exact kernel against a stub solid ---

// tetra is a minimal Solid: the unit corner tetrahedron.
type tetra struct{}

var tetraPoints = [4]v3.Vec{geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(0, 1, 0), geom.V(0, 0, 1)}

func (tetra) BoundingBox() sdf.Box3 { return sdf.Box3{Min: geom.V(0, 0, 0), Max: geom.V(1, 1, 1)} }

func (tetra) Triangles() [][3]v3.Vec {
	p := tetraPoints
	return [][3]v3.Vec{{p[0], p[2], p[1]}, {p[0], p[1], p[3]}, {p[0], p[3], p[2]}, {p[1], p[2], p[3]}}
}

func (tetra) Planes() []geom.Plane {
	var out []geom.Plane
	for _, tri := range (tetra{}).Triangles() {
		n := geom.Normalize(tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0])))
		out = append(out, geom.PlaneFromNormalAndPoint(n, tri[0]))
	}
	return out
}

var _ Solid = tetra{}

func TestExactToMesh(t *testing.T) {
	m, err := Exact{}.ToMesh(tetra{})
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if m.TriangleCount() != 4 {
		t.Fatalf("TriangleCount() = %d, want 4", m.TriangleCount())
	}
	if len(m.Normals) != len(m.Vertices) {
		t.Fatalf("normals length %d != vertices length %d", len(m.Normals), len(m.Vertices))
	}
	// Every face normal points away from the interior point.
	inside := geom.V(0.1, 0.1, 0.1)
	for i := 0; i < m.TriangleCount(); i++ {
		tri := m.Triangle(i)
		n := geom.V(float64(m.Normals[i*9]), float64(m.Normals[i*9+1]), float64(m.Normals[i*9+2]))
		if n.Dot(tri[0].Sub(inside)) <= 0 {
			t.Errorf("triangle %d normal %v points inward", i, n)
		}
	}
}
