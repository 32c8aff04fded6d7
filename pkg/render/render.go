// Package render paints a scene onto a drawing surface.
//
// Draw is the whole render loop: a read-only projection of the scene and the
// interaction state onto a Surface. The same procedure drives the terminal
// canvas, the PNG raster and the SVG document, so every target shows exactly
// the same picture.
package render

import (
	"image/color"

	"github.com/vanderheijden86/tspview/pkg/interact"
	"github.com/vanderheijden86/tspview/pkg/metrics"
	"github.com/vanderheijden86/tspview/pkg/scene"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// Surface is a fixed-size 2-D drawing target in pixel coordinates.
// Implementations discard everything drawn so far on Clear.
type Surface interface {
	Size() (width, height float64)
	Clear(bg color.Color)
	Disc(center r2.Vec, radius float64, fill color.Color)
	Polyline(path []r2.Vec, width float64, stroke color.Color)
	Box(min r2.Vec, width, height float64, fill, border color.Color)
	// Text draws s with its top-left corner at pos.
	Text(pos r2.Vec, s string, c color.Color)
	MeasureText(s string) (width, height float64)
}

// Style holds the visual constants of the render loop.
type Style struct {
	Background    color.Color
	PointColor    color.Color
	PointRadius   float64
	LineWidth     float64
	HoverWidth    float64
	VertexRadius  float64
	TooltipFill   color.Color
	TooltipBorder color.Color
	TooltipText   color.Color
	TooltipPad    float64
	TooltipOffset r2.Vec
}

// DefaultStyle suits the raster and vector surfaces.
func DefaultStyle() Style {
	return Style{
		Background:    color.RGBA{0xf9, 0xfa, 0xfb, 0xff},
		PointColor:    color.RGBA{0x37, 0x41, 0x51, 0xff},
		PointRadius:   4,
		LineWidth:     2,
		HoverWidth:    5,
		VertexRadius:  3,
		TooltipFill:   color.RGBA{0x11, 0x18, 0x27, 0xe6},
		TooltipBorder: color.RGBA{0x4b, 0x55, 0x63, 0xff},
		TooltipText:   color.RGBA{0xff, 0xff, 0xff, 0xff},
		TooltipPad:    6,
		TooltipOffset: r2.Vec{X: 10, Y: -10},
	}
}

// TerminalStyle suits the braille canvas, where a pixel is one dot.
func TerminalStyle() Style {
	s := DefaultStyle()
	s.PointColor = color.RGBA{0xd1, 0xd5, 0xdb, 0xff}
	s.PointRadius = 1
	s.LineWidth = 1
	s.HoverWidth = 3
	s.VertexRadius = 0
	s.TooltipPad = 0
	s.TooltipOffset = r2.Vec{X: 4, Y: -4}
	return s
}

// Draw renders sc with interaction state st onto s. It never mutates its
// inputs, so calling it twice with the same arguments paints the same frame.
func Draw(s Surface, sc *scene.Scene, st interact.State, style Style) {
	defer metrics.Timer(metrics.Render)()

	s.Clear(style.Background)
	if sc.Empty() {
		return
	}

	for _, p := range sc.Points {
		s.Disc(p.Pos, style.PointRadius, style.PointColor)
	}

	for i, r := range sc.Routes {
		width := style.LineWidth
		if i == st.HoveredRoute {
			width = style.HoverWidth
		}
		s.Polyline(r.Path, width, r.Color)
	}

	for _, r := range sc.Routes {
		for _, v := range r.Path {
			s.Disc(v, style.VertexRadius, r.Color)
		}
	}

	if st.Selection != nil {
		drawTooltip(s, st.Selection, style)
	}
}

func drawTooltip(s Surface, sel *interact.Selection, style Style) {
	tw, th := s.MeasureText(sel.Text)
	bw, bh := tw+2*style.TooltipPad, th+2*style.TooltipPad
	sw, sh := s.Size()

	anchor := r2.Add(sel.Pos, style.TooltipOffset)
	anchor.Y -= bh
	origin := clampTooltip(anchor, bw, bh, sw, sh)

	s.Box(origin, bw, bh, style.TooltipFill, style.TooltipBorder)
	s.Text(r2.Add(origin, r2.Vec{X: style.TooltipPad, Y: style.TooltipPad}), sel.Text, style.TooltipText)
}

// clampTooltip moves a w x h box at pos so that it lies inside a surface of
// sw x sh. A box larger than the surface is pinned to the top-left corner.
func clampTooltip(pos r2.Vec, w, h, sw, sh float64) r2.Vec {
	pos.X = clamp(pos.X, 0, sw-w)
	pos.Y = clamp(pos.Y, 0, sh-h)
	return pos
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// toRGBA flattens any color.Color for backends that need byte channels.
func toRGBA(c color.Color) color.RGBA {
	if c == nil {
		return color.RGBA{}
	}
	if rgba, ok := c.(color.RGBA); ok {
		return rgba
	}
	r, g, b, a := c.RGBA()
	return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
}

// hex renders c as #rrggbb, ignoring alpha.
func hex(c color.Color) string {
	cf, _ := colorful.MakeColor(opaque(c))
	return cf.Hex()
}

func opaque(c color.Color) color.Color {
	rgba := toRGBA(c)
	rgba.A = 0xff
	return rgba
}
