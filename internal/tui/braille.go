package tui

import (
	"fmt"
	"image/color"
	"math"

	"github.com/charmbracelet/lipgloss"
)

type brailleBuf struct {
	w, h   int       // in cells
	m      [][]uint8 // per-cell 8-bit mask
	col    [][]color.RGBA
	weight [][]float64
}

func newBrailleBuf(w, h int) *brailleBuf {
	w, h = max(0, w), max(0, h)
	b := &brailleBuf{w: w, h: h}
	b.m = make([][]uint8, h)
	b.col = make([][]color.RGBA, h)
	b.weight = make([][]float64, h)
	for i := 0; i < h; i++ {
		b.m[i] = make([]uint8, w)
		b.col[i] = make([]color.RGBA, w)
		b.weight[i] = make([]float64, w)
	}
	return b
}

func (b *brailleBuf) reset() {
	for y := 0; y < b.h; y++ {
		clear(b.m[y])
		clear(b.col[y])
		clear(b.weight[y])
	}
}

// dotBits[column][row] is the braille bit of a micro-pixel inside its cell.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// plot sets a micro-pixel at micro coords (2x4 per cell). The cell keeps
// the color of the heaviest dot drawn into it.
func (b *brailleBuf) plot(mx, my int, c color.RGBA, weight float64) {
	if mx < 0 || my < 0 {
		return
	}
	cx, rx := mx/2, mx%2
	cy, ry := my/4, my%4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= dotBits[rx][ry]
	if weight >= b.weight[cy][cx] {
		b.weight[cy][cx] = weight
		b.col[cy][cx] = c
	}
}

// drawLine draws a line on the microgrid using Bresenham. Endpoints are
// clipped to the grid first so far off-screen vertices stay cheap.
func (b *brailleBuf) drawLine(x0, y0, x1, y1 float64, c color.RGBA, weight float64) {
	x0, y0, x1, y1, ok := clipLine(x0, y0, x1, y1, float64(b.w*2-1), float64(b.h*4-1))
	if !ok {
		return
	}
	ix0, iy0 := int(math.Round(x0)), int(math.Round(y0))
	ix1, iy1 := int(math.Round(x1)), int(math.Round(y1))
	dx := abs(ix1 - ix0)
	sx := -1
	if ix0 < ix1 {
		sx = 1
	}
	dy := -abs(iy1 - iy0)
	sy := -1
	if iy0 < iy1 {
		sy = 1
	}
	err := dx + dy
	for {
		b.plot(ix0, iy0, c, weight)
		if ix0 == ix1 && iy0 == iy1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			ix0 += sx
		}
		if e2 <= dx {
			err += dx
			iy0 += sy
		}
	}
}

// clipLine is Liang-Barsky against [0,maxX]x[0,maxY].
func clipLine(x0, y0, x1, y1, maxX, maxY float64) (float64, float64, float64, float64, bool) {
	if maxX < 0 || maxY < 0 {
		return 0, 0, 0, 0, false
	}
	for _, v := range []float64{x0, y0, x1, y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, 0, false
		}
	}
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x0},
		{dx, maxX - x0},
		{-dy, y0},
		{dy, maxY - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, r)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

// cells renders every cell to a styled string. Empty cells are a plain
// space so callers can overlay glyphs cell by cell.
func (b *brailleBuf) cells() [][]string {
	styles := map[color.RGBA]lipgloss.Style{}
	out := make([][]string, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]string, b.w)
		for x := 0; x < b.w; x++ {
			mask := b.m[y][x]
			if mask == 0 {
				row[x] = " "
				continue
			}
			c := b.col[y][x]
			st, ok := styles[c]
			if !ok {
				st = lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor(c)))
				styles[c] = st
			}
			row[x] = st.Render(string(rune(0x2800 + int(mask))))
		}
		out[y] = row
	}
	return out
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
