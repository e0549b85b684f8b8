package geom

import "fmt"

// Tolerance gathers every epsilon used by hull construction, collision and
// world editing. Collision tolerances bias toward "no contact" so that solids
// sharing a face are not reported as overlapping.
type Tolerance struct {
	// VertexMergeSq is the squared distance under which two points are the
	// same vertex. Also used for colinear point removal.
	VertexMergeSq float64 `yaml:"vertex_merge_sq" json:"vertexMergeSq"`
	// HullFront is how far a point must be in front of a face to be
	// considered outside it during hull construction.
	HullFront float64 `yaml:"hull_front" json:"hullFront"`
	// HullSanity is the diagnostic threshold for the closure check after
	// hull construction. Violations are logged, not returned.
	HullSanity float64 `yaml:"hull_sanity" json:"hullSanity"`
	// AxisParallel is the |dot| above which two face normals share an axis.
	AxisParallel float64 `yaml:"axis_parallel" json:"axisParallel"`
	// EdgeParallel is the |dot| above which two edges (or two face normals
	// meeting at an edge) are treated as parallel.
	EdgeParallel      float64 `yaml:"edge_parallel" json:"edgeParallel"`
	CrossDegenerateSq float64 `yaml:"cross_degenerate_sq" json:"crossDegenerateSq"`
	Overlap           float64 `yaml:"overlap" json:"overlap"`
	Penetration       float64 `yaml:"penetration" json:"penetration"`
	FaceContact       float64 `yaml:"face_contact" json:"faceContact"`
	Coplanar          float64 `yaml:"coplanar" json:"coplanar"`
	RayParallel       float64 `yaml:"ray_parallel" json:"rayParallel"`
	VertexDelete      float64 `yaml:"vertex_delete" json:"vertexDelete"`
	// QueryMargin expands bounding boxes before octree candidate queries.
	QueryMargin float64 `yaml:"query_margin" json:"queryMargin"`
	PlaneInside float64 `yaml:"plane_inside" json:"planeInside"`
}

// DefaultTolerance returns the tolerances the world model was tuned with.
func DefaultTolerance() Tolerance {
	return Tolerance{
		VertexMergeSq:     0.0001,
		HullFront:         0.001,
		HullSanity:        0.01,
		AxisParallel:      0.9999,
		EdgeParallel:      0.98,
		CrossDegenerateSq: 0.0001,
		Overlap:           0.01,
		Penetration:       0.001,
		FaceContact:       0.001,
		Coplanar:          0.01,
		RayParallel:       0.01,
		VertexDelete:      0.001,
		QueryMargin:       0.1,
		PlaneInside:       0.001,
	}
}

// Validate checks that every tolerance is in range.
func (t Tolerance) Validate() error {
	positive := map[string]float64{
		"vertex_merge_sq":     t.VertexMergeSq,
		"hull_front":          t.HullFront,
		"hull_sanity":         t.HullSanity,
		"cross_degenerate_sq": t.CrossDegenerateSq,
		"overlap":             t.Overlap,
		"penetration":         t.Penetration,
		"face_contact":        t.FaceContact,
		"coplanar":            t.Coplanar,
		"ray_parallel":        t.RayParallel,
		"vertex_delete":       t.VertexDelete,
		"plane_inside":        t.PlaneInside,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("tolerance.%s must be positive, got %g", name, v)
		}
	}
	if t.QueryMargin < 0 {
		return fmt.Errorf("tolerance.query_margin cannot be negative, got %g", t.QueryMargin)
	}
	if t.AxisParallel <= 0 || t.AxisParallel > 1 {
		return fmt.Errorf("tolerance.axis_parallel must be in (0, 1], got %g", t.AxisParallel)
	}
	if t.EdgeParallel <= 0 || t.EdgeParallel > 1 {
		return fmt.Errorf("tolerance.edge_parallel must be in (0, 1], got %g", t.EdgeParallel)
	}
	return nil
}
