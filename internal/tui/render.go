package tui

import (
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"latentmap/internal/scatter"
)

// maxLabels bounds how many labels are drawn per frame.
const maxLabels = 24

// renderMap draws the point cloud and overlays into a w x h cell canvas.
func (m Model) renderMap(w, h int) string {
	if m.data == nil || m.eng.Points().Len() == 0 {
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center,
			dimStyle.Render("no data: Tab opens the file list"))
	}
	if !m.eng.Draw() {
		m.surf.Clear(scatter.ClearColor(m.eng.ColorMode()))
	}
	buf := m.surf.buf
	mp := m.eng.Mapper()

	if m.showCrosshair {
		cx, cy := mp.Crosshair()
		right, bottom := float64(buf.w*2-1), float64(buf.h*4-1)
		buf.drawLine(0, cy, right, cy, crosshairColor, crosshairWeight)
		buf.drawLine(cx, 0, cx, bottom, crosshairColor, crosshairWeight)
	}
	if m.showHulls && len(m.hulls) > 0 {
		ps := m.eng.Points()
		ids := make([]int, 0, len(m.hulls))
		for c := range m.hulls {
			ids = append(ids, c)
		}
		sort.Ints(ids)
		for _, c := range ids {
			poly := mp.Hull(ps, m.hulls[c])
			if len(poly) < 2 {
				continue
			}
			for i := range poly {
				a, b := poly[i], poly[(i+1)%len(poly)]
				buf.drawLine(a[0], a[1], b[0], b[1], hullColor, hullWeight)
			}
		}
	}

	cells := buf.cells()
	if m.showLabels {
		m.drawLabels(cells, mp)
	}
	// Hover highlight: an orange circle on the hovered row's cell
	if m.st.hovering && m.st.hover >= 0 && m.st.hover < m.data.Len() {
		p := m.data.Points[m.st.hover]
		sx, sy := mp.Map(p[0], p[1])
		if cx, cy, ok := cellOf(sx, sy, buf.w, buf.h); ok {
			cells[cy][cx] = hoverStyle.Render("◯")
		}
	}

	lines := make([]string, len(cells))
	for y, row := range cells {
		lines[y] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}

// drawLabels writes labels of selected and centered rows to the right of
// their dot. The label length follows the zoom-scaled font size.
func (m Model) drawLabels(cells [][]string, mp scatter.Mapper) {
	if len(cells) == 0 {
		return
	}
	rows := append(append([]int(nil), m.st.selected...), m.st.centered...)
	seen := map[int]bool{}
	n := int(mp.FontSize(m.st.t.K, m.eng.Config().MaxZoom))
	drawn := 0
	for _, i := range rows {
		if drawn == maxLabels {
			return
		}
		if seen[i] || i < 0 || i >= m.data.Len() || m.data.Deleted[i] {
			continue
		}
		seen[i] = true
		text := m.data.Label[i]
		if text == "" {
			text = "#" + strconv.Itoa(i)
		}
		p := m.data.Points[i]
		sx, sy := mp.Map(p[0], p[1])
		cx, cy, ok := cellOf(sx, sy, len(cells[0]), len(cells))
		if !ok {
			continue
		}
		x := cx + 1
		for _, r := range truncate(text, n) {
			rw := runewidth.RuneWidth(r)
			if rw == 0 || x+rw > len(cells[cy]) {
				break
			}
			cells[cy][x] = labelStyle.Render(string(r))
			for k := 1; k < rw; k++ {
				cells[cy][x+k] = ""
			}
			x += rw
		}
		drawn++
	}
}

// cellOf maps micro-pixel view coordinates to a cell.
func cellOf(sx, sy float64, w, h int) (int, int, bool) {
	if !(sx >= 0) || !(sy >= 0) || sx >= float64(w*2) || sy >= float64(h*4) {
		return 0, 0, false
	}
	return int(sx) / 2, int(sy) / 4, true
}
