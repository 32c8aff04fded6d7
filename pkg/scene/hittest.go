package scene

import (
	"github.com/vanderheijden86/tspview/pkg/geom"
	"github.com/vanderheijden86/tspview/pkg/metrics"

	"gonum.org/v1/gonum/spatial/r2"
)

// NearestRoute returns the index of the first route, in input order, that
// passes within tol pixels of p. It is first-match, not nearest-of-all: an
// earlier route at 6px beats a later one at 1px. Returns -1 for no match.
func NearestRoute(routes []Route, p r2.Vec, tol float64) int {
	defer metrics.Timer(metrics.HitTest)()
	for i, r := range routes {
		if d, ok := geom.PolylineDistance(p, r.Path); ok && d <= tol {
			return i
		}
	}
	return -1
}

// NearestPoint returns the point closest to p when it lies within tol pixels,
// inclusive. Ties keep the earliest point.
func NearestPoint(points []Point, p r2.Vec, tol float64) (int, bool) {
	best := -1
	var bestDist float64
	for i, pt := range points {
		d := geom.Distance(p, pt.Pos)
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > tol {
		return -1, false
	}
	return best, true
}
