package render

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/ajstarks/svgo"
	"github.com/mattn/go-runewidth"
	"gonum.org/v1/gonum/spatial/r2"
)

// Monospace cell metrics for SVG text, matching basicfont.Face7x13 so the
// raster and vector tooltips have the same footprint.
const (
	svgGlyphWidth  = 7
	svgGlyphHeight = 13
)

// Vector is a Surface that records draw operations and serializes them as an
// SVG document on WriteTo.
type Vector struct {
	width, height int
	ops           []func(*svg.SVG)
}

// NewVector returns a width x height vector surface.
func NewVector(width, height int) *Vector {
	return &Vector{width: width, height: height}
}

func (v *Vector) Size() (float64, float64) {
	return float64(v.width), float64(v.height)
}

func (v *Vector) Clear(bg color.Color) {
	v.ops = v.ops[:0]
	v.ops = append(v.ops, func(c *svg.SVG) {
		c.Rect(0, 0, v.width, v.height, "fill:"+css(bg))
	})
}

func (v *Vector) Disc(center r2.Vec, radius float64, fill color.Color) {
	if radius <= 0 {
		return
	}
	x, y, r := px(center.X), px(center.Y), int(math.Max(1, math.Round(radius)))
	v.ops = append(v.ops, func(c *svg.SVG) {
		c.Circle(x, y, r, "fill:"+css(fill))
	})
}

func (v *Vector) Polyline(path []r2.Vec, width float64, stroke color.Color) {
	if len(path) < 2 {
		return
	}
	xs := make([]int, len(path))
	ys := make([]int, len(path))
	for i, p := range path {
		xs[i], ys[i] = px(p.X), px(p.Y)
	}
	style := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%g;stroke-linejoin:round;stroke-linecap:round", css(stroke), width)
	v.ops = append(v.ops, func(c *svg.SVG) {
		c.Polyline(xs, ys, style)
	})
}

func (v *Vector) Box(min r2.Vec, width, height float64, fill, border color.Color) {
	x, y, w, h := px(min.X), px(min.Y), px(width), px(height)
	style := "fill:" + css(fill) + fillOpacity(fill)
	if border != nil {
		style += ";stroke:" + css(border) + ";stroke-width:1"
	}
	v.ops = append(v.ops, func(c *svg.SVG) {
		c.Roundrect(x, y, w, h, 4, 4, style)
	})
}

func (v *Vector) Text(pos r2.Vec, s string, col color.Color) {
	// svg text is positioned by baseline
	x, y := px(pos.X), px(pos.Y)+svgGlyphHeight-3
	style := fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(col))
	v.ops = append(v.ops, func(c *svg.SVG) {
		c.Text(x, y, s, style)
	})
}

func (v *Vector) MeasureText(s string) (float64, float64) {
	return float64(runewidth.StringWidth(s) * svgGlyphWidth), svgGlyphHeight
}

// Append queues a raw svgo operation, for decorations drawn after Draw.
func (v *Vector) Append(op func(*svg.SVG)) {
	v.ops = append(v.ops, op)
}

// WriteTo writes the recorded frame as a complete SVG document.
func (v *Vector) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(v.width, v.height)
	for _, op := range v.ops {
		op(canvas)
	}
	canvas.End()
	return buf.WriteTo(w)
}

func px(f float64) int { return int(math.Round(f)) }

// css renders c as a CSS hex color.
func css(c color.Color) string { return hex(c) }

func fillOpacity(c color.Color) string {
	a := toRGBA(c).A
	if a == 0xff {
		return ""
	}
	return fmt.Sprintf(";fill-opacity:%.2f", float64(a)/255)
}
