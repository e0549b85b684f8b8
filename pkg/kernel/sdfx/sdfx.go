// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library.
package sdfx

import (
	"fmt"
	"math"

	"github.com/chazu/hullworld/pkg/geom"
	"github.com/chazu/hullworld/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// DefaultMeshCells controls marching cubes tessellation resolution.
const DefaultMeshCells = 64

// convexSDF is the signed distance bound of an intersection of half-spaces:
// the largest signed distance to any outward face plane.
type convexSDF struct {
	planes []geom.Plane
	bb     sdf.Box3
}

// Evaluate returns the SDF value at p.
func (c *convexSDF) Evaluate(p v3.Vec) float64 {
	d := math.Inf(-1)
	for _, pl := range c.planes {
		d = math.Max(d, pl.Distance(p))
	}
	return d
}

// BoundingBox returns the bounding box of the solid.
func (c *convexSDF) BoundingBox() sdf.Box3 {
	return c.bb
}

// SDF3 returns s as an sdfx signed distance function.
func SDF3(s kernel.Solid) (sdf.SDF3, error) {
	planes := s.Planes()
	if len(planes) < 4 {
		return nil, fmt.Errorf("sdfx: solid has %d face planes, need at least 4", len(planes))
	}
	return &convexSDF{planes: planes, bb: s.BoundingBox()}, nil
}

// SdfxKernel implements kernel.Kernel using sdfx marching cubes.
type SdfxKernel struct {
	cells int
}

// New returns a kernel meshing with the given number of marching cubes
// cells along the longest side. Values below 1 use DefaultMeshCells.
func New(cells int) *SdfxKernel {
	if cells < 1 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// Cells returns the marching cubes resolution.
func (k *SdfxKernel) Cells() int { return k.cells }

// ToMesh converts a solid to a triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sdf3, err := SDF3(s)
	if err != nil {
		return nil, err
	}

	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sdf3, renderer)

	numVerts := len(triangles) * 3
	m := &kernel.Mesh{
		Vertices: make([]float32, 0, numVerts*3),
		Normals:  make([]float32, 0, numVerts*3),
		Indices:  make([]uint32, 0, numVerts),
	}
	for i, tri := range triangles {
		n := tri.Normal()
		nx, ny, nz := float32(n.X), float32(n.Y), float32(n.Z)
		for j := 0; j < 3; j++ {
			v := tri[j]
			m.Vertices = append(m.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			m.Normals = append(m.Normals, nx, ny, nz)
			m.Indices = append(m.Indices, uint32(i*3+j))
		}
	}
	return m, nil
}

// WriteSTL meshes every solid with marching cubes and writes the union as
// an STL file at path.
func (k *SdfxKernel) WriteSTL(path string, solids ...kernel.Solid) error {
	if len(solids) == 0 {
		return fmt.Errorf("sdfx: nothing to write to %s", path)
	}
	var shape sdf.SDF3
	for _, s := range solids {
		s3, err := SDF3(s)
		if err != nil {
			return err
		}
		if shape == nil {
			shape = s3
			continue
		}
		shape = sdf.Union3D(shape, s3)
	}
	triangles := render.ToTriangles(shape, render.NewMarchingCubesUniform(k.cells))
	if err := render.SaveSTL(path, triangles); err != nil {
		return fmt.Errorf("sdfx: write %s: %w", path, err)
	}
	return nil
}
