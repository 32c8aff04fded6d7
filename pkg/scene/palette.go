package scene

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette is the ordered set of route colors. Route i is drawn with
// palette[i mod len(palette)].
type Palette []color.RGBA

// DefaultPalette is used when no palette is configured.
var DefaultPalette = Palette{
	{0x3b, 0x82, 0xf6, 0xff}, // blue
	{0xef, 0x44, 0x44, 0xff}, // red
	{0x10, 0xb9, 0x81, 0xff}, // green
	{0xf5, 0x9e, 0x0b, 0xff}, // amber
	{0x8b, 0x5c, 0xf6, 0xff}, // violet
	{0xec, 0x48, 0x99, 0xff}, // pink
}

// At returns the color for route index i.
func (p Palette) At(i int) color.RGBA {
	if len(p) == 0 {
		p = DefaultPalette
	}
	i %= len(p)
	if i < 0 {
		i += len(p)
	}
	return p[i]
}

// ParsePalette parses "#rrggbb" strings. An empty list yields DefaultPalette.
func ParsePalette(hexes []string) (Palette, error) {
	if len(hexes) == 0 {
		return DefaultPalette, nil
	}
	out := make(Palette, 0, len(hexes))
	for _, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("palette color %q: %w", h, err)
		}
		r, g, b := c.RGB255()
		out = append(out, color.RGBA{R: r, G: g, B: b, A: 0xff})
	}
	return out, nil
}

// Hex formats c as "#rrggbb".
func Hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
