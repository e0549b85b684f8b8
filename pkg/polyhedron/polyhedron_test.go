package polyhedron

import (
	"math"
	"testing"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/hull"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(t *testing.T, min, max v3.Vec) *ConvexPolyhedron {
	t.Helper()
	var pts []v3.Vec
	for _, x := range []float64{min.X, max.X} {
		for _, y := range []float64{min.Y, max.Y} {
			for _, z := range []float64{min.Z, max.Z} {
				pts = append(pts, geom.V(x, y, z))
			}
		}
	}
	p, err := New(pts, geom.DefaultTolerance())
	require.NoError(t, err)
	return p
}

func unitCube(t *testing.T, dx, dy, dz float64) *ConvexPolyhedron {
	return box(t, geom.V(dx, dy, dz), geom.V(dx+1, dy+1, dz+1))
}

func assertVec(t *testing.T, want, got v3.Vec, delta float64) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, delta, "x")
	assert.InDelta(t, want.Y, got.Y, delta, "y")
	assert.InDelta(t, want.Z, got.Z, delta, "z")
}

func TestNewCube(t *testing.T) {
	p := box(t, geom.V(-1, -1, -1), geom.V(1, 1, 1))
	assert.Len(t, p.Vertices, 8)
	assert.Len(t, p.Axes, 3)
	assert.Len(t, p.Edges, 3)
	assert.InDelta(t, 8.0, p.Volume(), 1e-9)
	assertVec(t, geom.V(0, 0, 0), p.Centroid(), 1e-9)
	assert.InDelta(t, math.Sqrt(3), p.BoundingSphere().Radius, 1e-9)

	bb := p.BoundingBox()
	assertVec(t, geom.V(-1, -1, -1), bb.Min, 0)
	assertVec(t, geom.V(1, 1, 1), bb.Max, 0)

	for _, pl := range p.Planes() {
		for _, v := range p.Vertices {
			assert.LessOrEqual(t, pl.Distance(v), 1e-9)
		}
	}
	assert.Len(t, p.Triangles(), 12)
}

func TestNewDegenerate(t *testing.T) {
	_, err := New([]v3.Vec{geom.V(0, 0, 0), geom.V(1, 0, 0), geom.V(0, 1, 0), geom.V(1, 1, 0)}, geom.DefaultTolerance())
	assert.ErrorIs(t, err, hull.ErrDegenerate)
}

func TestCentroidOffCenter(t *testing.T) {
	p := box(t, geom.V(2, 0, 0), geom.V(4, 1, 3))
	assert.InDelta(t, 6.0, p.Volume(), 1e-9)
	assertVec(t, geom.V(3, 0.5, 1.5), p.Centroid(), 1e-9)
}

func TestOverlaps(t *testing.T) {
	a := unitCube(t, 0, 0, 0)
	tests := []struct {
		name  string
		other *ConvexPolyhedron
		want  bool
	}{
		{"half overlap", unitCube(t, 0.5, 0, 0), true},
		{"same place", unitCube(t, 0, 0, 0), true},
		{"face touching", unitCube(t, 1, 0, 0), false},
		{"within overlap tolerance", unitCube(t, 0.995, 0, 0), false},
		{"edge touching", unitCube(t, 1, 1, 0), false},
		{"far apart", unitCube(t, 10, 0, 0), false},
		{"diagonal gap", box(t, geom.V(1.2, 1.2, 0), geom.V(2, 2, 1)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(a))
		})
	}
}

func TestOverlapsRotated(t *testing.T) {
	a := unitCube(t, 0, 0, 0)
	// A cube turned 45 degrees about z, its corner pushed into a's face.
	m := sdf.Translate3d(geom.V(1.6, 0.5, 0)).Mul(sdf.Rotate3d(geom.V(0, 0, 1), math.Pi/4))
	turned, err := unitCube(t, -0.5, -0.5, 0).Transform(m)
	require.NoError(t, err)
	assert.True(t, a.Overlaps(turned))

	m = sdf.Translate3d(geom.V(1.8, 0.5, 0)).Mul(sdf.Rotate3d(geom.V(0, 0, 1), math.Pi/4))
	clear, err := unitCube(t, -0.5, -0.5, 0).Transform(m)
	require.NoError(t, err)
	assert.False(t, a.Overlaps(clear))
}

func TestPenetration(t *testing.T) {
	a := unitCube(t, 0, 0, 0)
	pen, ok := a.Penetration(unitCube(t, 0.5, 0, 0))
	require.True(t, ok)
	assert.InDelta(t, 0.5, math.Abs(pen.Displacement), 1e-9)
	assert.InDelta(t, 1.0, math.Abs(pen.Axis.X), 1e-9)
	assert.InDelta(t, 0.5, pen.Overlap[1]-pen.Overlap[0], 1e-9)

	_, ok = a.Penetration(unitCube(t, 1, 0, 0))
	assert.False(t, ok)
}

func TestHasFaceContactIsSymmetric(t *testing.T) {
	a := unitCube(t, 0, 0, 0)
	for _, tilt := range []float64{0, 0.0005, 0.002, 0.005, 0.02} {
		// Neighbor on +x whose touching face leans by tilt per unit of y.
		b, err := New([]v3.Vec{
			geom.V(1, 0, 0), geom.V(1+tilt, 1, 0), geom.V(1, 0, 1), geom.V(1+tilt, 1, 1),
			geom.V(2, 0, 0), geom.V(2, 1, 0), geom.V(2, 0, 1), geom.V(2, 1, 1),
		}, geom.DefaultTolerance())
		require.NoError(t, err)
		assert.Equal(t, a.HasFaceContact(b), b.HasFaceContact(a), "tilt %g", tilt)
	}
	assert.True(t, unitCube(t, 1, 0, 0).HasFaceContact(a))
}

func TestHasFaceContact(t *testing.T) {
	a := unitCube(t, 0, 0, 0)
	assert.True(t, a.HasFaceContact(unitCube(t, 1, 0, 0)))
	assert.True(t, a.HasFaceContact(unitCube(t, 0, 0, -1)))
	assert.True(t, a.HasFaceContact(unitCube(t, 1, 0.5, 0.5)), "partial face overlap")
	assert.False(t, a.HasFaceContact(unitCube(t, 1, 1, 0)), "edge only")
	assert.False(t, a.HasFaceContact(unitCube(t, 1.5, 0, 0)), "gap")
}

func TestRaycast(t *testing.T) {
	p := unitCube(t, 0, 0, 0)

	in, ok := p.Raycast(geom.Ray{Origin: geom.V(-5, 0.5, 0.5), Direction: geom.V(1, 0, 0)}, 10)
	require.True(t, ok)
	assert.InDelta(t, 5.0, in.EnterT, 1e-9)
	assert.InDelta(t, 6.0, in.LeaveT, 1e-9)
	require.True(t, in.HasEnterNormal)
	assertVec(t, geom.V(-1, 0, 0), in.EnterNormal, 1e-9)
	require.True(t, in.HasLeaveNormal)
	assertVec(t, geom.V(1, 0, 0), in.LeaveNormal, 1e-9)
	assertVec(t, geom.V(0, 0.5, 0.5), in.EnterPoint(geom.Ray{Origin: geom.V(-5, 0.5, 0.5), Direction: geom.V(1, 0, 0)}), 1e-9)

	_, ok = p.Raycast(geom.Ray{Origin: geom.V(-5, 3, 0.5), Direction: geom.V(1, 0, 0)}, 10)
	assert.False(t, ok, "passes beside")

	_, ok = p.Raycast(geom.Ray{Origin: geom.V(-5, 0.5, 0.5), Direction: geom.V(1, 0, 0)}, 2)
	assert.False(t, ok, "too short")

	in, ok = p.Raycast(geom.Ray{Origin: geom.V(0.5, 0.5, 0.5), Direction: geom.V(0, 0, 1)}, 10)
	require.True(t, ok)
	assert.Zero(t, in.EnterT)
	assert.False(t, in.HasEnterNormal)
	assert.InDelta(t, 0.5, in.LeaveT, 1e-9)
}

func TestContainsPoint(t *testing.T) {
	p := unitCube(t, 0, 0, 0)
	assert.True(t, p.ContainsPoint(geom.V(0.5, 0.5, 0.5)))
	assert.True(t, p.ContainsPoint(geom.V(1, 1, 1)), "corner")
	assert.False(t, p.ContainsPoint(geom.V(1.01, 0.5, 0.5)))
}

func TestDistanceToPlane(t *testing.T) {
	p := unitCube(t, 0, 0, 0)
	assert.InDelta(t, 1.0, p.DistanceToPlane(geom.Plane{Normal: geom.V(0, 0, 1), Constant: 1}), 1e-9)
	assert.Zero(t, p.DistanceToPlane(geom.Plane{Normal: geom.V(0, 0, 1), Constant: -0.5}))
}

func TestShatter(t *testing.T) {
	p := box(t, geom.V(-1, -1, -1), geom.V(1, 1, 1))
	pieces := p.Shatter(p.Centroid())
	require.Len(t, pieces, 12)
	var total float64
	for _, piece := range pieces {
		assert.Len(t, piece.Vertices, 4)
		total += piece.Volume()
	}
	assert.InDelta(t, p.Volume(), total, 1e-9)
}

func TestContactPoint(t *testing.T) {
	a := unitCube(t, 0, 0, 0)
	c, ok := a.ContactPoint(unitCube(t, 0.5, 0, 0))
	require.True(t, ok)
	assertVec(t, geom.V(0.75, 0.5, 0.5), c, 1e-9)

	_, ok = a.ContactPoint(unitCube(t, 3, 0, 0))
	assert.False(t, ok)
}

func TestTransform(t *testing.T) {
	p := unitCube(t, 0, 0, 0)
	moved, err := p.Transform(sdf.Translate3d(geom.V(1, 2, 3)))
	require.NoError(t, err)
	assertVec(t, geom.V(1, 2, 3), moved.BoundingBox().Min, 1e-9)
	assert.InDelta(t, p.Volume(), moved.Volume(), 1e-9)
	assert.Equal(t, p.Tolerance(), moved.Tolerance())
}
