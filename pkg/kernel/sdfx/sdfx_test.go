package sdfx

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/polyhedron"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

func box(t *testing.T, min, max v3.Vec) *polyhedron.ConvexPolyhedron {
	t.Helper()
	var pts []v3.Vec
	for _, x := range []float64{min.X, max.X} {
		for _, y := range []float64{min.Y, max.Y} {
			for _, z := range []float64{min.Z, max.Z} {
				pts = append(pts, geom.V(x, y, z))
			}
		}
	}
	p, err := polyhedron.New(pts, geom.DefaultTolerance())
	if err != nil {
		t.Fatalf("polyhedron.New: %v", err)
	}
	return p
}

func TestEvaluate(t *testing.T) {
	s, err := SDF3(box(t, geom.V(-1, -1, -1), geom.V(1, 1, 1)))
	if err != nil {
		t.Fatalf("SDF3: %v", err)
	}
	tests := []struct {
		name string
		p    v3.Vec
		want float64
	}{
		{"center", geom.V(0, 0, 0), -1},
		{"face", geom.V(1, 0, 0), 0},
		{"outside", geom.V(3, 0, 0), 2},
		{"near face inside", geom.V(0, 0.75, 0), -0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Evaluate(tt.p); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Evaluate(%v) = %f, want %f", tt.p, got, tt.want)
			}
		})
	}
}

func TestToMesh(t *testing.T) {
	k := New(32)
	mesh, err := k.ToMesh(box(t, geom.V(0, 0, 0), geom.V(100, 50, 25)))
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
	// Marching cubes stays within a cell of the true surface.
	const tol = 100.0 / 32
	for i := 0; i < mesh.VertexCount(); i++ {
		x, y, z := mesh.Vertices[i*3], mesh.Vertices[i*3+1], mesh.Vertices[i*3+2]
		if x < -tol || x > 100+tol || y < -tol || y > 50+tol || z < -tol || z > 25+tol {
			t.Fatalf("vertex %d (%f, %f, %f) outside the box", i, x, y, z)
		}
	}
	t.Logf("box triangle count: %d", triCount)
}

func TestNewDefaultsCells(t *testing.T) {
	if got := New(0).Cells(); got != DefaultMeshCells {
		t.Errorf("New(0).Cells() = %d, want %d", got, DefaultMeshCells)
	}
}

func TestWriteSTL(t *testing.T) {
	k := New(16)
	path := filepath.Join(t.TempDir(), "out.stl")
	err := k.WriteSTL(path,
		box(t, geom.V(0, 0, 0), geom.V(1, 1, 1)),
		box(t, geom.V(1, 0, 0), geom.V(2, 1, 1)),
	)
	if err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	// Binary STL: 80-byte header, 4-byte count, 50 bytes per triangle.
	if info.Size() <= 84 {
		t.Errorf("STL file has %d bytes, want triangles", info.Size())
	}

	if err := k.WriteSTL(path); err == nil {
		t.Error("WriteSTL with no solids should fail")
	}
}
