package scene

import (
	"github.com/vanderheijden86/tspview/pkg/geom"
	"github.com/vanderheijden86/tspview/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
)

// ResolveStop returns the domain position of stop, in order of preference:
// its own coordinates, the coordinates of the point its ID references, or the
// origin. The second result is the index of the referenced point, or -1.
func ResolveStop(stop model.Stop, points []model.Point, index map[model.ID]int) (r2.Vec, int) {
	ref := -1
	if id, ok := stop.ID.Get(); ok {
		if i, found := index[id]; found {
			ref = i
		}
	}
	if x, y, ok := stop.Coordinates(); ok {
		return r2.Vec{X: x, Y: y}, ref
	}
	if ref >= 0 {
		p := points[ref]
		return r2.Vec{X: p.X, Y: p.Y}, ref
	}
	return r2.Vec{}, -1
}

// Project converts routes into screen polylines. Output order, colors and
// vertex counts follow the input exactly.
func Project(routes []model.Route, points []model.Point, scaler geom.Scaler, palette Palette, labels *LabelResolver) []Route {
	index := model.PointIndex(points)
	out := make([]Route, len(routes))
	for ri, r := range routes {
		path := make([]r2.Vec, len(r.Stops))
		names := make([]string, len(r.Stops))
		for si, stop := range r.Stops {
			domain, ref := ResolveStop(stop, points, index)
			path[si] = scaler.Project(domain)
			if labels != nil {
				names[si] = labels.Resolve(stop, si, ref, path[si])
			}
		}
		out[ri] = Route{
			Index:    ri,
			Color:    palette.At(ri),
			Path:     path,
			Names:    names,
			Distance: r.Distance,
			Capacity: r.Capacity,
			Autonomy: r.Autonomy,
		}
	}
	return out
}
