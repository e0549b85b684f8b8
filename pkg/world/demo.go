package world

import (
	"math"

	"github.com/chazu/hullworld/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Box returns the eight corners of the axis-aligned box min..max.
func Box(min, max v3.Vec) []v3.Vec {
	var pts []v3.Vec
	for _, x := range []float64{min.X, max.X} {
		for _, y := range []float64{min.Y, max.Y} {
			for _, z := range []float64{min.Z, max.Z} {
				pts = append(pts, geom.V(x, y, z))
			}
		}
	}
	return pts
}

// StarterShapes is the two-cube world new sessions begin with.
func StarterShapes() []SerializedShape {
	toRecord := func(pts []v3.Vec, c Color) SerializedShape {
		rec := SerializedShape{IsRoot: true, Color: c, AttachedIndices: []int{}}
		for _, p := range pts {
			rec.Points = append(rec.Points, [3]float64{p.X, p.Y, p.Z})
		}
		return rec
	}
	return []SerializedShape{
		toRecord(Box(geom.V(5, 0, 0), geom.V(7, 2, 2)), Blue),
		toRecord(Box(geom.V(5, -4, 0), geom.V(6, -3, 1)), Yellow),
	}
}

// Starter returns a world holding the starter shapes.
func Starter(opts ...Option) (*World, error) {
	return FromSerialized(StarterShapes(), opts...)
}

// TerrainOptions shapes the generated ground.
type TerrainOptions struct {
	// TileSize and Extent lay out 2*Extent by 2*Extent ground tiles
	// centered on the origin, each TileSize deep below its surface.
	TileSize float64
	Extent   int
	// Height gives the ground surface at (x, y).
	Height func(x, y float64) float64

	FloorTileSize float64
	FloorExtent   int
	// FloorZ is the top of the checkered floor.
	FloorZ float64
}

// DefaultTerrain returns rolling hills over a checkered floor.
func DefaultTerrain() TerrainOptions {
	return TerrainOptions{
		TileSize:      20,
		Extent:        10,
		Height:        RollingHills,
		FloorTileSize: 50,
		FloorExtent:   10,
		FloorZ:        -50,
	}
}

// RollingHills is the default ground height function.
func RollingHills(x, y float64) float64 {
	return math.Cos(x/100)*math.Cos(y/100)*50 +
		math.Sin(x/10)*math.Sin(y/20)*3 -
		math.Cos(x/1000)*math.Cos(y/1200)*500 + 450
}

// Terrain adds ground tiles and a checkered floor to w, each tile its own
// root. Tiles that would overlap solids already placed are skipped. The
// result lists the tiles added and the solids that refused tiles.
func Terrain(w *World, opt TerrainOptions) Result {
	var r Result
	add := func(corners []v3.Vec, depth float64, c Color) {
		pts := append([]v3.Vec(nil), corners...)
		for _, p := range corners {
			pts = append(pts, geom.V(p.X, p.Y, p.Z-depth))
		}
		h, err := w.NewSolid(pts, c, true)
		if err != nil {
			w.warn(&r, "world: skipped degenerate terrain tile", "corner", corners[0])
			return
		}
		res := w.Add(h)
		if !res.OK() {
			_ = w.Discard(h)
			for _, d := range res.Denied {
				if !contains(r.Denied, d) {
					r.Denied = append(r.Denied, d)
				}
			}
			return
		}
		r.Added = append(r.Added, h)
	}

	if opt.Height != nil && opt.TileSize > 0 {
		s := opt.TileSize
		for i := -opt.Extent; i < opt.Extent; i++ {
			for j := -opt.Extent; j < opt.Extent; j++ {
				x, y := float64(i)*s, float64(j)*s
				corner := func(x, y float64) v3.Vec { return geom.V(x, y, opt.Height(x, y)) }
				add([]v3.Vec{corner(x, y), corner(x+s, y), corner(x, y+s), corner(x+s, y+s)}, s, Grass)
			}
		}
	}
	if opt.FloorTileSize > 0 {
		s := opt.FloorTileSize
		for i := -opt.FloorExtent; i < opt.FloorExtent; i++ {
			for j := -opt.FloorExtent; j < opt.FloorExtent; j++ {
				x, y := float64(i)*s, float64(j)*s
				c := White
				if mod2(i) == mod2(j) {
					c = Navy
				}
				z := opt.FloorZ
				add([]v3.Vec{geom.V(x, y, z), geom.V(x+s, y, z), geom.V(x, y+s, z), geom.V(x+s, y+s, z)}, s, c)
			}
		}
	}
	r.Committed = len(r.Added) > 0
	return r
}

func mod2(i int) int { return ((i % 2) + 2) % 2 }
