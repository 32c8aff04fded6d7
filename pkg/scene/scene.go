// Package scene turns a point set and a routing solution into screen-space
// geometry: projected points with labels, colored route polylines, legend
// rows, and the hit-tests that run against them.
//
// A Scene is derived once per render cycle. Every coordinate in it comes from
// the same geom.Scaler, so points and route vertices always agree.
package scene

import (
	"fmt"
	"image/color"

	"github.com/vanderheijden86/tspview/pkg/geom"
	"github.com/vanderheijden86/tspview/pkg/metrics"
	"github.com/vanderheijden86/tspview/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pixel thresholds used when the caller does not configure its own.
const (
	DefaultMargin         = 40.0
	DefaultHoverTolerance = 7.0
	DefaultClickTolerance = 12.0
	// DefaultLabelRadius bounds the nearest-point label fallback. Dense
	// clusters closer than this can pick up a neighbour's name.
	DefaultLabelRadius = 20.0
)

// Options configures scene derivation and hit-testing.
type Options struct {
	Viewport       geom.Viewport
	Palette        Palette
	HoverTolerance float64
	ClickTolerance float64
	LabelRadius    float64
}

// DefaultOptions returns options for a surface of the given pixel size.
func DefaultOptions(width, height float64) Options {
	return Options{
		Viewport:       geom.Viewport{Width: width, Height: height, Margin: DefaultMargin},
		Palette:        DefaultPalette,
		HoverTolerance: DefaultHoverTolerance,
		ClickTolerance: DefaultClickTolerance,
		LabelRadius:    DefaultLabelRadius,
	}
}

// Point is a city projected onto the surface.
type Point struct {
	Pos   r2.Vec
	Label string
}

// Route is one vehicle route projected onto the surface. Path and Names are
// index-aligned with the route's stops.
type Route struct {
	Index    int
	Color    color.RGBA
	Path     []r2.Vec
	Names    []string
	Distance float64
	Capacity float64
	Autonomy float64
}

// LegendEntry is one row of the route legend. Index is 1-based.
type LegendEntry struct {
	Index    int      `json:"index"`
	Color    string   `json:"color"`
	Autonomy float64  `json:"autonomy"`
	Distance float64  `json:"distance"`
	Capacity float64  `json:"capacity"`
	Names    []string `json:"names"`
}

// Scene is the projected state of one render cycle.
type Scene struct {
	Scaler geom.Scaler
	Points []Point
	Routes []Route
	Legend []LegendEntry
	opts   Options
}

// PointLabel is the display name of points[i]: its name, or its position.
func PointLabel(p model.Point, i int) string {
	if name, ok := p.Name.Get(); ok {
		return name
	}
	return fmt.Sprintf("Point %d", i+1)
}

// Build derives the scene for points and routes. It never fails: stops that
// cannot be resolved are projected at the origin.
func Build(points []model.Point, routes []model.Route, opts Options) *Scene {
	defer metrics.Timer(metrics.SceneBuild)()

	if len(opts.Palette) == 0 {
		opts.Palette = DefaultPalette
	}

	domain := make([]r2.Vec, len(points))
	for i, p := range points {
		domain[i] = r2.Vec{X: p.X, Y: p.Y}
	}
	scaler := geom.NewScaler(domain, opts.Viewport)

	projected := make([]Point, len(points))
	for i, p := range points {
		projected[i] = Point{Pos: scaler.Project(domain[i]), Label: PointLabel(p, i)}
	}

	labels := NewLabelResolver(points, projected, opts.LabelRadius)
	out := Project(routes, points, scaler, opts.Palette, labels)

	return &Scene{
		Scaler: scaler,
		Points: projected,
		Routes: out,
		Legend: Legend(out),
		opts:   opts,
	}
}

// Options returns the options the scene was built with.
func (s *Scene) Options() Options { return s.opts }

// Empty reports whether there is nothing to draw.
func (s *Scene) Empty() bool { return s == nil || len(s.Points) == 0 }

// RouteAt returns the hovered route index for pointer p, or -1.
func (s *Scene) RouteAt(p r2.Vec) int {
	if s == nil {
		return -1
	}
	return NearestRoute(s.Routes, p, s.opts.HoverTolerance)
}

// PointAt returns the point selected by a click at p.
func (s *Scene) PointAt(p r2.Vec) (int, bool) {
	if s == nil {
		return -1, false
	}
	return NearestPoint(s.Points, p, s.opts.ClickTolerance)
}

// Legend builds the legend rows for routes, in route order.
func Legend(routes []Route) []LegendEntry {
	entries := make([]LegendEntry, len(routes))
	for i, r := range routes {
		names := make([]string, len(r.Names))
		copy(names, r.Names)
		entries[i] = LegendEntry{
			Index:    r.Index + 1,
			Color:    Hex(r.Color),
			Autonomy: r.Autonomy,
			Distance: r.Distance,
			Capacity: r.Capacity,
			Names:    names,
		}
	}
	return entries
}
