package world

import (
	"fmt"

	"github.com/chazu/hullworld/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// SerializedShape is one solid of a serialized world. Attachments refer to
// other shapes by position in the list.
type SerializedShape struct {
	Points          [][3]float64 `json:"points"`
	AttachedIndices []int        `json:"attachedIndices"`
	IsRoot          bool         `json:"isRoot"`
	Color           Color        `json:"color"`
}

// Serialize returns the placed solids in index order.
func (w *World) Serialize() []SerializedShape {
	handles := w.Handles()
	position := make(map[Handle]int, len(handles))
	for i, h := range handles {
		position[h] = i
	}
	out := make([]SerializedShape, len(handles))
	for i, h := range handles {
		s := w.solids[h]
		rec := SerializedShape{
			Points:          make([][3]float64, len(s.Shape.Vertices)),
			AttachedIndices: make([]int, 0, len(s.Attached)),
			IsRoot:          s.IsRoot,
			Color:           s.Color,
		}
		for j, v := range s.Shape.Vertices {
			rec.Points[j] = [3]float64{v.X, v.Y, v.Z}
		}
		for _, n := range s.Attached {
			if p, ok := position[n]; ok {
				rec.AttachedIndices = append(rec.AttachedIndices, p)
			}
		}
		out[i] = rec
	}
	return out
}

// FromSerialized rebuilds a world from shapes and places every one of them.
// Attachment indices outside the list, or pointing at the shape itself,
// are dropped with a warning. Nothing else is checked: a malformed list
// can produce a world that violates the usual invariants, which Validate
// reports.
func FromSerialized(shapes []SerializedShape, opts ...Option) (*World, error) {
	w := New(opts...)
	handles := make([]Handle, len(shapes))
	for i, rec := range shapes {
		points := make([]v3.Vec, len(rec.Points))
		for j, p := range rec.Points {
			points[j] = geom.V(p[0], p[1], p[2])
		}
		h, err := w.NewSolid(points, rec.Color&0xffffff, rec.IsRoot)
		if err != nil {
			return nil, fmt.Errorf("world: shape %d: %w", i, err)
		}
		handles[i] = h
	}
	for i, rec := range shapes {
		s := w.solids[handles[i]]
		for _, idx := range rec.AttachedIndices {
			if idx < 0 || idx >= len(shapes) || idx == i {
				w.log.Warn("world: dropped attachment index", "shape", i, "index", idx)
				continue
			}
			s.Attached = append(s.Attached, handles[idx])
		}
	}
	for _, h := range handles {
		w.place(h)
	}
	return w, nil
}
