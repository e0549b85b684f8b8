package geom

import (
	"math"
	"sort"

	v2 "github.com/deadsy/sdfx/vec/v2"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Hull2D wraps points with the gift wrapping algorithm and returns the hull
// in clockwise order starting at the leftmost point. It returns nil
// when wrapping fails to close.
func Hull2D(points []v2.Vec) []v2.Vec {
	if len(points) == 0 {
		return nil
	}
	const samePointSq = 0.00001
	leftmost := points[0]
	for _, p := range points[1:] {
		if p.X < leftmost.X {
			leftmost = p
		}
	}
	out := []v2.Vec{leftmost}
	budget := len(points)
	for {
		prev := out[len(out)-1]
		var next, normish v2.Vec
		found := false
		for _, p := range points {
			dir := p.Sub(prev)
			if dir.Dot(dir) < samePointSq {
				continue
			}
			if !found || dir.Dot(normish) > 0.001 {
				next = p
				normish = normalize2(v2.Vec{X: -dir.Y, Y: dir.X})
				found = true
			}
		}
		if !found {
			break
		}
		if d := next.Sub(out[0]); d.Dot(d) < samePointSq {
			break
		}
		if budget--; budget < 0 {
			return nil
		}
		out = append(out, next)
	}
	return out
}

func normalize2(v v2.Vec) v2.Vec {
	l := math.Sqrt(v.Dot(v))
	if l == 0 {
		return v
	}
	return v2.Vec{X: v.X / l, Y: v.Y / l}
}

// OrderConvexPolygon sorts the vertices of a convex polygon by angle about
// their average.
func OrderConvexPolygon(points []v2.Vec) []v2.Vec {
	if len(points) == 0 {
		return nil
	}
	var avg v2.Vec
	for _, p := range points {
		avg = avg.Add(p)
	}
	avg = v2.Vec{X: avg.X / float64(len(points)), Y: avg.Y / float64(len(points))}
	out := append([]v2.Vec(nil), points...)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Atan2(out[i].Y-avg.Y, out[i].X-avg.X) < math.Atan2(out[j].Y-avg.Y, out[j].X-avg.X)
	})
	return out
}

// PolygonArea returns the signed area of a simple polygon; positive when
// counter-clockwise.
func PolygonArea(points []v2.Vec) float64 {
	var sum float64
	for i, a := range points {
		b := points[(i+1)%len(points)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// PolygonCentroid returns the area centroid of a simple polygon.
func PolygonCentroid(points []v2.Vec) v2.Vec {
	var cx, cy float64
	for i, a := range points {
		b := points[(i+1)%len(points)]
		c := a.X*b.Y - b.X*a.Y
		cx += (a.X + b.X) * c
		cy += (a.Y + b.Y) * c
	}
	area := PolygonArea(points)
	return v2.Vec{X: cx / (6 * area), Y: cy / (6 * area)}
}

// PlaneBasis returns two unit vectors spanning the plane with the given unit
// normal.
func PlaneBasis(normal v3.Vec) (u, v v3.Vec) {
	u = V(0, 0, 1)
	if math.Abs(u.Dot(normal)) > 0.7 {
		u = V(1, 0, 0)
	}
	v = Normalize(normal.Cross(u))
	u = Normalize(normal.Cross(v))
	return u, v
}
