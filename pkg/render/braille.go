package render

import (
	"image/color"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"gonum.org/v1/gonum/spatial/r2"
)

// Each terminal cell is a 2x4 braille dot matrix; a dot is one pixel.
const (
	DotsX = 2
	DotsY = 4
)

const brailleBase = 0x2800

// dotBits[y][x] is the braille bit for the dot at column x, row y of a cell.
var dotBits = [DotsY][DotsX]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

type cell struct {
	dots rune
	fg   string
	text rune
	wide bool // trailing half of a double-width rune
	bg   string
}

// Braille is a terminal Surface. Its pixel size is cols*DotsX by rows*DotsY.
// Text and boxes snap to whole cells. The terminal keeps its own background,
// so Clear only resets the canvas.
type Braille struct {
	cols, rows int
	cells      []cell
}

// NewBraille returns a canvas of cols x rows terminal cells.
func NewBraille(cols, rows int) *Braille {
	cols, rows = max(cols, 1), max(rows, 1)
	return &Braille{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
}

// Cells returns the canvas size in terminal cells.
func (b *Braille) Cells() (cols, rows int) { return b.cols, b.rows }

// CellToPixel maps a terminal cell to the pixel at its center.
func CellToPixel(col, row int) r2.Vec {
	return r2.Vec{X: float64(col*DotsX + DotsX/2), Y: float64(row*DotsY + DotsY/2)}
}

func (b *Braille) Size() (float64, float64) {
	return float64(b.cols * DotsX), float64(b.rows * DotsY)
}

func (b *Braille) Clear(color.Color) {
	clear(b.cells)
}

func (b *Braille) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= b.cols || row >= b.rows {
		return nil
	}
	return &b.cells[row*b.cols+col]
}

func (b *Braille) set(x, y int, fg string) {
	if x < 0 || y < 0 {
		return
	}
	c := b.at(x/DotsX, y/DotsY)
	if c == nil {
		return
	}
	c.dots |= dotBits[y%DotsY][x%DotsX]
	c.fg = fg
}

func (b *Braille) Disc(center r2.Vec, radius float64, fill color.Color) {
	fg := hex(fill)
	cx, cy := px(center.X), px(center.Y)
	r := int(math.Round(radius))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				b.set(cx+dx, cy+dy, fg)
			}
		}
	}
}

func (b *Braille) Polyline(path []r2.Vec, width float64, stroke color.Color) {
	if len(path) < 2 {
		return
	}
	fg := hex(stroke)
	thick := max(1, int(math.Round(width)))
	for i := 1; i < len(path); i++ {
		b.line(px(path[i-1].X), px(path[i-1].Y), px(path[i].X), px(path[i].Y), thick, fg)
	}
}

// line plots a Bresenham segment, widened to a thick x thick brush.
func (b *Braille) line(x0, y0, x1, y1, thick int, fg string) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	lo := -(thick - 1) / 2
	hi := thick / 2
	err := dx + dy
	for {
		for oy := lo; oy <= hi; oy++ {
			for ox := lo; ox <= hi; ox++ {
				b.set(x0+ox, y0+oy, fg)
			}
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (b *Braille) Box(min r2.Vec, width, height float64, fill, _ color.Color) {
	bg := hex(fill)
	c0, r0 := int(min.X)/DotsX, int(min.Y)/DotsY
	c1 := int(math.Ceil((min.X+width)/DotsX)) - 1
	r1 := int(math.Ceil((min.Y+height)/DotsY)) - 1
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			if c := b.at(col, row); c != nil {
				*c = cell{bg: bg}
			}
		}
	}
}

func (b *Braille) Text(pos r2.Vec, s string, col color.Color) {
	fg := hex(col)
	x, row := int(pos.X)/DotsX, int(pos.Y)/DotsY
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x+w > b.cols {
			return
		}
		if c := b.at(x, row); c != nil {
			c.text, c.fg = r, fg
		}
		if w == 2 {
			if c := b.at(x+1, row); c != nil {
				c.wide = true
			}
		}
		x += w
	}
}

func (b *Braille) MeasureText(s string) (float64, float64) {
	return float64(runewidth.StringWidth(s) * DotsX), DotsY
}

// String renders the canvas as rows of styled terminal text. Adjacent cells
// with the same colors are emitted as one styled run.
func (b *Braille) String() string {
	var out strings.Builder
	for row := 0; row < b.rows; row++ {
		if row > 0 {
			out.WriteByte('\n')
		}
		var run strings.Builder
		var runFg, runBg string
		flush := func() {
			if run.Len() == 0 {
				return
			}
			out.WriteString(paint(run.String(), runFg, runBg))
			run.Reset()
		}
		for col := 0; col < b.cols; col++ {
			c := b.cells[row*b.cols+col]
			if c.wide {
				continue
			}
			ch, fg := ' ', ""
			switch {
			case c.text != 0:
				ch, fg = c.text, c.fg
			case c.dots != 0:
				ch, fg = brailleBase+c.dots, c.fg
			}
			if fg != runFg || c.bg != runBg {
				flush()
				runFg, runBg = fg, c.bg
			}
			run.WriteRune(ch)
		}
		flush()
	}
	return out.String()
}

// Rune returns the glyph at a cell, for tests and debugging.
func (b *Braille) Rune(col, row int) rune {
	c := b.at(col, row)
	switch {
	case c == nil:
		return 0
	case c.text != 0:
		return c.text
	case c.dots != 0:
		return brailleBase + c.dots
	}
	return ' '
}

func paint(s, fg, bg string) string {
	if fg == "" && bg == "" {
		return s
	}
	st := lipgloss.NewStyle()
	if fg != "" {
		st = st.Foreground(lipgloss.Color(fg))
	}
	if bg != "" {
		st = st.Background(lipgloss.Color(bg))
	}
	return st.Render(s)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
