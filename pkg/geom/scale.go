// Package geom maps domain coordinates onto a fixed-size drawing surface and
// provides the distance primitives used for hit-testing.
package geom

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Viewport is the destination surface: pixel width and height plus the margin
// kept free on every side.
type Viewport struct {
	Width  float64
	Height float64
	Margin float64
}

// Bounds is the axis-aligned extent of a point set.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// SpanX returns the x extent, never less than 1.
func (b Bounds) SpanX() float64 { return span(b.MinX, b.MaxX) }

// SpanY returns the y extent, never less than 1.
func (b Bounds) SpanY() float64 { return span(b.MinY, b.MaxY) }

func span(lo, hi float64) float64 {
	if d := hi - lo; d > 1 {
		return d
	}
	return 1
}

// BoundsOf computes the extent of pts. It reports false for an empty set.
func BoundsOf(pts []r2.Vec) (Bounds, bool) {
	if len(pts) == 0 {
		return Bounds{}, false
	}
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return Bounds{
		MinX: floats.Min(xs), MaxX: floats.Max(xs),
		MinY: floats.Min(ys), MaxY: floats.Max(ys),
	}, true
}

// Scaler projects domain coordinates into surface pixels. The bounds are
// fixed at construction, so every projection made through one Scaler is
// mutually consistent.
type Scaler struct {
	bounds Bounds
	vp     Viewport
}

// NewScaler derives the projection for pts on vp. An empty set yields zero
// bounds with unit spans.
func NewScaler(pts []r2.Vec, vp Viewport) Scaler {
	b, _ := BoundsOf(pts)
	return Scaler{bounds: b, vp: vp}
}

// Bounds returns the domain extent the scaler was built from.
func (s Scaler) Bounds() Bounds { return s.bounds }

// Viewport returns the destination surface.
func (s Scaler) Viewport() Viewport { return s.vp }

// X maps a domain x into [Margin, Width-Margin] for x within the bounds.
func (s Scaler) X(x float64) float64 {
	return s.vp.Margin + (x-s.bounds.MinX)/s.bounds.SpanX()*(s.vp.Width-2*s.vp.Margin)
}

// Y maps a domain y into [Margin, Height-Margin] for y within the bounds.
func (s Scaler) Y(y float64) float64 {
	return s.vp.Margin + (y-s.bounds.MinY)/s.bounds.SpanY()*(s.vp.Height-2*s.vp.Margin)
}

// Project maps a domain point into pixel space.
func (s Scaler) Project(p r2.Vec) r2.Vec {
	return r2.Vec{X: s.X(p.X), Y: s.Y(p.Y)}
}
