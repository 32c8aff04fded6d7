package geom

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Distance returns the Euclidean distance between p and q.
func Distance(p, q r2.Vec) float64 {
	return r2.Norm(r2.Sub(p, q))
}

// ClosestOnSegment returns the point of segment ab closest to p. The
// projection parameter is clamped to [0, 1]; a degenerate segment collapses
// to a.
func ClosestOnSegment(p, a, b r2.Vec) r2.Vec {
	ab := r2.Sub(b, a)
	lenSq := r2.Dot(ab, ab)
	if lenSq == 0 {
		return a
	}
	t := r2.Dot(r2.Sub(p, a), ab) / lenSq
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}
	return r2.Add(a, r2.Scale(t, ab))
}

// SegmentDistance returns the distance from p to the clamped segment ab.
func SegmentDistance(p, a, b r2.Vec) float64 {
	return Distance(p, ClosestOnSegment(p, a, b))
}

// PolylineDistance returns the minimum distance from p to any segment of
// path. A path with fewer than two vertices has no segments and reports false.
func PolylineDistance(p r2.Vec, path []r2.Vec) (float64, bool) {
	if len(path) < 2 {
		return 0, false
	}
	best := SegmentDistance(p, path[0], path[1])
	for i := 2; i < len(path); i++ {
		if d := SegmentDistance(p, path[i-1], path[i]); d < best {
			best = d
		}
	}
	return best, true
}
