// Package tessellate walks the solids of a world and produces colored
// triangle meshes using a geometry kernel. One mesh is produced per solid.
package tessellate

import (
	"fmt"

	"github.com/chazu/hullworld/pkg/kernel"
	"github.com/chazu/hullworld/pkg/world"
)

// Options controls how solids are meshed and colored.
type Options struct {
	// Kernel meshes each solid. Nil uses kernel.Exact.
	Kernel kernel.Kernel
	// HighlightRoots colors roots world.RootGreen and every other solid
	// world.LooseRed instead of their own colors.
	HighlightRoots bool
}

func (o Options) kernel() kernel.Kernel {
	if o.Kernel == nil {
		return kernel.Exact{}
	}
	return o.Kernel
}

// FromSolid meshes h and every solid reachable from it by attachment,
// placed or not. The tessellator is read-only and never mutates the world.
func FromSolid(w *world.World, h world.Handle, opt Options) ([]*kernel.Mesh, error) {
	if _, ok := w.Solid(h); !ok {
		return nil, fmt.Errorf("tessellate: %w: %d", world.ErrUnknownSolid, h)
	}
	var meshes []*kernel.Mesh
	for _, x := range w.Reachable(h) {
		s, _ := w.Solid(x)
		m, err := meshSolid(x, s, opt)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// FromWorld meshes every placed solid in index order.
func FromWorld(w *world.World, opt Options) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for h, s := range w.All() {
		m, err := meshSolid(h, s, opt)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, m)
	}
	return meshes, nil
}

// Soup joins meshes into a single triangle soup.
func Soup(meshes []*kernel.Mesh) *kernel.Mesh {
	out := &kernel.Mesh{PartName: "world"}
	for _, m := range meshes {
		out.Append(m)
	}
	return out
}

// meshSolid creates the colored geometry for one solid.
func meshSolid(h world.Handle, s world.Solid, opt Options) (*kernel.Mesh, error) {
	mesh, err := opt.kernel().ToMesh(s.Shape)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for solid %d: %w", h, err)
	}
	c := s.Color
	if opt.HighlightRoots {
		c = world.LooseRed
		if s.IsRoot {
			c = world.RootGreen
		}
	}
	mesh.Paint(c.RGB())
	mesh.PartName = PartName(h)
	return mesh, nil
}

// PartName names the mesh of solid h.
func PartName(h world.Handle) string {
	return fmt.Sprintf("solid-%d", h)
}
