package render

import (
	"image"
	"image/color"
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
	"gonum.org/v1/gonum/spatial/r2"
)

// Raster is a Surface backed by a gg context.
type Raster struct {
	dc *gg.Context
}

// NewRaster returns a width x height raster surface.
func NewRaster(width, height int) *Raster {
	dc := gg.NewContext(width, height)
	dc.SetFontFace(basicfont.Face7x13)
	return &Raster{dc: dc}
}

// Context exposes the gg context for decorations drawn after Draw.
func (r *Raster) Context() *gg.Context { return r.dc }

func (r *Raster) Size() (float64, float64) {
	return float64(r.dc.Width()), float64(r.dc.Height())
}

func (r *Raster) Clear(bg color.Color) {
	r.dc.ClearPath()
	r.dc.SetColor(opaque(bg))
	r.dc.Clear()
}

func (r *Raster) Disc(center r2.Vec, radius float64, fill color.Color) {
	if radius <= 0 {
		return
	}
	r.dc.SetColor(fill)
	r.dc.DrawCircle(center.X, center.Y, radius)
	r.dc.Fill()
}

func (r *Raster) Polyline(path []r2.Vec, width float64, stroke color.Color) {
	if len(path) < 2 {
		return
	}
	r.dc.SetColor(stroke)
	r.dc.SetLineWidth(width)
	r.dc.SetLineJoin(gg.LineJoinRound)
	r.dc.SetLineCap(gg.LineCapRound)
	r.dc.NewSubPath()
	r.dc.MoveTo(path[0].X, path[0].Y)
	for _, v := range path[1:] {
		r.dc.LineTo(v.X, v.Y)
	}
	r.dc.Stroke()
}

func (r *Raster) Box(min r2.Vec, width, height float64, fill, border color.Color) {
	r.dc.SetColor(fill)
	r.dc.DrawRoundedRectangle(min.X, min.Y, width, height, 4)
	r.dc.Fill()
	if border != nil {
		r.dc.SetColor(border)
		r.dc.SetLineWidth(1)
		r.dc.DrawRoundedRectangle(min.X, min.Y, width, height, 4)
		r.dc.Stroke()
	}
}

func (r *Raster) Text(pos r2.Vec, s string, c color.Color) {
	r.dc.SetColor(c)
	r.dc.DrawStringAnchored(s, pos.X, pos.Y, 0, 1)
}

func (r *Raster) MeasureText(s string) (float64, float64) {
	w, _ := r.dc.MeasureString(s)
	return w, float64(basicfont.Face7x13.Height)
}

// Image returns the rendered frame.
func (r *Raster) Image() image.Image { return r.dc.Image() }

// EncodePNG writes the frame as PNG.
func (r *Raster) EncodePNG(w io.Writer) error { return r.dc.EncodePNG(w) }

// SavePNG writes the frame to path.
func (r *Raster) SavePNG(path string) error { return r.dc.SavePNG(path) }
