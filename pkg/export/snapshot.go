package export

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/tspview/pkg/interact"
	"github.com/vanderheijden86/tspview/pkg/metrics"
	"github.com/vanderheijden86/tspview/pkg/render"
	"github.com/vanderheijden86/tspview/pkg/scene"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
)

// Legend panel geometry, in pixels.
const (
	legendWidth  = 280
	legendTop    = 24
	legendRowH   = 36
	legendInset  = 16
	maxNameChars = 34
)

// SnapshotOptions controls snapshot export.
type SnapshotOptions struct {
	Path   string // Output path; format inferred from extension when Format empty
	Format string // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title  string // Optional title above the legend
	Scene  *scene.Scene
	State  interact.State
	Style  *render.Style // nil means render.DefaultStyle()
}

// SaveSnapshot renders the scene with a legend panel to the right of the
// plot and writes it as SVG or PNG.
func SaveSnapshot(opts SnapshotOptions) error {
	defer metrics.Timer(metrics.SnapshotExport)()

	if opts.Scene == nil {
		return fmt.Errorf("no scene to export")
	}
	format, path, err := ResolveFormat(opts.Format, opts.Path)
	if err != nil {
		return err
	}
	opts.Path = path

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	style := render.DefaultStyle()
	if opts.Style != nil {
		style = *opts.Style
	}
	l := newLayout(opts)

	switch format {
	case "svg":
		v := render.NewVector(l.width, l.height)
		render.Draw(v, opts.Scene, opts.State, style)
		v.Append(func(c *svg.SVG) { drawLegendSVG(c, l) })

		var buf bytes.Buffer
		if _, err := v.WriteTo(&buf); err != nil {
			return err
		}
		return os.WriteFile(opts.Path, buf.Bytes(), 0o644)
	case "png":
		r := render.NewRaster(l.width, l.height)
		render.Draw(r, opts.Scene, opts.State, style)
		drawLegend(r.Context(), l)
		return r.SavePNG(opts.Path)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// ResolveFormat returns the format and final path of a snapshot. An explicit
// format wins, then .svg/.png, and a path with no extension gets .svg
// appended.
func ResolveFormat(format, path string) (string, string, error) {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if path != "" && filepath.Ext(path) == "" {
				path += ".svg"
			}
		}
	}
	if format != "svg" && format != "png" {
		return "", "", fmt.Errorf("unsupported format %q (want svg or png)", format)
	}
	if path == "" {
		return "", "", fmt.Errorf("output path is required")
	}
	return format, path, nil
}

type legendRow struct {
	color   color.RGBA
	heading string
	names   string
}

type layout struct {
	width, height int
	plotWidth     int
	title         string
	rows          []legendRow
}

func newLayout(opts SnapshotOptions) layout {
	vp := opts.Scene.Scaler.Viewport()
	l := layout{
		plotWidth: int(vp.Width),
		width:     int(vp.Width) + legendWidth,
		title:     strings.TrimSpace(opts.Title),
	}
	if l.title == "" {
		l.title = "Routes"
	}
	for i, e := range opts.Scene.Legend {
		l.rows = append(l.rows, legendRow{
			color:   opts.Scene.Routes[i].Color,
			heading: fmt.Sprintf("Route %d  dist %.2f  cap %g  aut %g", e.Index, e.Distance, e.Capacity, e.Autonomy),
			names:   truncate(strings.Join(e.Names, " > "), maxNameChars),
		})
	}
	l.height = max(int(vp.Height), legendTop+24+len(l.rows)*legendRowH+legendInset)
	return l
}

var (
	colorStroke   = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorText     = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle   = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorLegendBG = color.RGBA{0xee, 0xee, 0xee, 0xff}
)

func drawLegend(dc *gg.Context, l layout) {
	x := float64(l.plotWidth + 8)
	y := float64(legendTop)
	boxW := float64(legendWidth - 24)
	boxH := float64(24 + len(l.rows)*legendRowH)

	dc.SetColor(colorLegendBG)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x, y, boxW, boxH, 10)
	dc.Stroke()

	dc.SetColor(colorText)
	dc.DrawStringAnchored(l.title, x+12, y+16, 0, 0.5)
	for i, row := range l.rows {
		ry := y + 36 + float64(i*legendRowH)
		dc.SetColor(row.color)
		dc.DrawRoundedRectangle(x+12, ry-8, 14, 14, 3)
		dc.Fill()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(row.heading, x+32, ry, 0, 0.5)
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(row.names, x+32, ry+14, 0, 0.5)
	}
}

func drawLegendSVG(canvas *svg.SVG, l layout) {
	x := l.plotWidth + 8
	y := legendTop
	boxW := legendWidth - 24
	boxH := 24 + len(l.rows)*legendRowH

	canvas.Roundrect(x, y, boxW, boxH, 10, 10, fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(colorLegendBG), css(colorStroke)))
	canvas.Text(x+12, y+20, l.title, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorText)))
	for i, row := range l.rows {
		ry := y + 36 + i*legendRowH
		canvas.Roundrect(x+12, ry-8, 14, 14, 3, 3, fmt.Sprintf("fill:%s", css(row.color)))
		canvas.Text(x+32, ry+4, row.heading, fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorText)))
		canvas.Text(x+32, ry+18, row.names, fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
