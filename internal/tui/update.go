package tui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"latentmap/internal/geom"
	"latentmap/internal/scatter"
)

const (
	sidebarWidth = 28
	headerHeight = 1
	footerHeight = 2

	zoomStep   = 1.2
	pinchStep  = 1.1
	wheelDelta = 100
)

type layout struct {
	contentW, contentH int
	mapX, mapY         int
	mapW, mapH         int
}

func (m Model) layout() layout {
	sidebarW := 0
	if m.showSidebar {
		sidebarW = sidebarWidth
	}
	lay := layout{
		contentW: max(10, m.width),
		contentH: max(4, m.height-headerHeight-footerHeight),
		mapY:     headerHeight,
	}
	lay.mapW = max(10, lay.contentW-sidebarW-1)
	lay.mapH = lay.contentH
	if m.showSidebar {
		lay.mapX = sidebarW + 1
	}
	return lay
}

// syncSize resizes the list and, when the map area changed, the engine
// viewport. Resizing re-centers the view.
func (m *Model) syncSize() {
	lay := m.layout()
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, lay.contentH-2)
	}
	if lay.mapW == m.mapW && lay.mapH == m.mapH {
		return
	}
	m.mapW, m.mapH = lay.mapW, lay.mapH
	m.eng.Resize(lay.mapW*2, lay.mapH*4)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	return next, tea.Batch(cmd, next.sched.flush())
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.syncSize()
	case fireMsg:
		msg.fn()
		if m.showRows {
			m.refreshRows()
		}
		return m, nil
	case tea.KeyMsg:
		return m.updateKey(msg)
	case tea.MouseMsg:
		m.updateMouse(msg)
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// If list is visible and filtering, send keys to list and ignore global commands
	if m.showSidebar && m.l.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	if m.queryMode || m.pasteMode {
		switch msg.String() {
		case "esc":
			m.queryMode, m.pasteMode = false, false
			m.ta.Blur()
			m.status = "view mode"
			return m, nil
		case "enter":
			if m.pasteMode {
				m.pasteWKT(m.ta.Value())
			} else {
				m.runQuery(m.ta.Value())
			}
			m.queryMode, m.pasteMode = false, false
			m.ta.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.ta, cmd = m.ta.Update(msg)
		return m, cmd
	}
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "1":
		m.showHulls = !m.showHulls
		m.status = fmt.Sprintf("hulls: %v", m.showHulls)
	case "2":
		m.showCrosshair = !m.showCrosshair
		m.status = fmt.Sprintf("crosshair: %v", m.showCrosshair)
	case "3":
		m.showLabels = !m.showLabels
		m.status = fmt.Sprintf("labels: %v", m.showLabels)
	case "l":
		// toggle all overlays
		all := m.showHulls && m.showCrosshair && m.showLabels
		m.showHulls = !all
		m.showCrosshair = !all
		m.showLabels = !all
		m.status = fmt.Sprintf("overlays: hulls=%v crosshair=%v labels=%v", m.showHulls, m.showCrosshair, m.showLabels)
	case "+", "=":
		m.eng.ZoomAtCenter(zoomStep)
		m.status = fmt.Sprintf("zoom: %.2fx", m.eng.Transform().K)
	case "-", "_":
		m.eng.ZoomAtCenter(1 / zoomStep)
		m.status = fmt.Sprintf("zoom: %.2fx", m.eng.Transform().K)
	case "0":
		m.eng.ResetView()
		m.status = "view reset"
	case "up":
		m.eng.PanBy(0, -4)
	case "down":
		m.eng.PanBy(0, 4)
	case "left":
		m.eng.PanBy(-4, 0)
	case "right":
		m.eng.PanBy(4, 0)
	case "tab":
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.refreshDir()
		}
		m.syncSize()
	case "/":
		m.queryMode = true
		m.ta.Placeholder = queryPlaceholder
		m.ta.SetValue("")
		m.ta.Focus()
		m.status = "query mode"
	case "p":
		m.pasteMode = true
		m.ta.Placeholder = pastePlaceholder
		m.ta.SetValue("")
		m.ta.Focus()
		m.status = "paste mode"
	case "h":
		m.helpVisible = !m.helpVisible
	case "a":
		m.showRows = !m.showRows
		if m.showRows && m.refreshRows() == 0 {
			m.showRows = false
			m.status = "no rows to list: hover, select or pan first"
		}
	case "i":
		if m.inspectPopup != "" {
			m.inspectPopup = ""
			break
		}
		m.inspect()
	case "c":
		mode := scatter.Dark
		if m.eng.ColorMode() == scatter.Dark {
			mode = scatter.Light
		}
		m.eng.SetColorMode(mode)
		m.status = "color mode: " + mode.String()
	case "f":
		if err := m.eng.SetFeatureHighlight(!m.highlight); err != nil {
			m.status = "highlight error: " + err.Error()
			break
		}
		m.highlight = !m.highlight
		m.status = fmt.Sprintf("feature highlight: %v", m.highlight)
	case "r":
		m.restrict = !m.restrict
		m.applyRestriction()
		switch {
		case !m.restrict:
			m.status = "restricted picking: off"
		case len(m.st.selected) == 0:
			m.status = "restricted picking: on (select rows to scope it)"
		default:
			m.status = fmt.Sprintf("restricted picking: %d rows", len(m.st.selected))
		}
	case "n":
		m.cfg.IgnoreNotSelected = !m.cfg.IgnoreNotSelected
		m.eng.SetIgnoreNotSelected(m.cfg.IgnoreNotSelected)
		m.status = fmt.Sprintf("pick selected only: %v", m.cfg.IgnoreNotSelected)
	case "w":
		m.writeSnapshot()
	case "esc":
		switch {
		case m.inspectPopup != "":
			m.inspectPopup = ""
		case m.showRows:
			m.showRows = false
		case len(m.st.selected) > 0:
			m.selectRows(nil)
		}
	case "enter":
		if m.showSidebar {
			if it, ok := m.l.SelectedItem().(fileItem); ok {
				m.loadPath(it.path)
			}
		}
	}
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

// runQuery selects rows by index list or label substring. An empty query
// clears the selection.
func (m *Model) runQuery(q string) {
	q = strings.TrimSpace(q)
	if m.data == nil {
		m.status = "query: no dataset loaded"
		return
	}
	if q == "" {
		m.selectRows(nil)
		return
	}
	idx := m.data.Query(q)
	if len(idx) == 0 {
		m.status = "query: no rows match " + strconv.Quote(q)
		return
	}
	m.selectRows(idx)
}

// pasteWKT replaces the dataset with pasted WKT geometry.
func (m *Model) pasteWKT(w string) {
	w = strings.TrimSpace(w)
	if w == "" {
		m.status = "paste: empty"
		return
	}
	d, err := geom.ParseWKT(w)
	if err != nil {
		m.status = "wkt error: " + err.Error()
		return
	}
	m.selPath = ""
	m.setDataset(d)
	m.status = fmt.Sprintf("rendered WKT  rows=%d", m.data.Len())
}

// updateMouse routes terminal mouse events inside the map to the engine
// as view coordinates at the cell's micro-pixel center.
func (m *Model) updateMouse(msg tea.MouseMsg) {
	lay := m.layout()
	cx, cy := msg.X-lay.mapX, msg.Y-lay.mapY
	covered := m.queryMode || m.pasteMode || m.showRows || m.inspectPopup != ""
	if covered || cx < 0 || cx >= lay.mapW || cy < 0 || cy >= lay.mapH {
		m.eng.PointerLeave()
		return
	}
	x, y := float64(cx*2+1), float64(cy*4+2)
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if msg.Ctrl {
			m.eng.Pinch(x, y, pinchStep)
		} else {
			m.eng.Wheel(x, y, -wheelDelta)
		}
	case msg.Button == tea.MouseButtonWheelDown:
		if msg.Ctrl {
			m.eng.Pinch(x, y, 1/pinchStep)
		} else {
			m.eng.Wheel(x, y, wheelDelta)
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.eng.PointerDown(x, y)
	case msg.Action == tea.MouseActionMotion:
		m.eng.PointerMove(x, y)
	case msg.Action == tea.MouseActionRelease:
		m.eng.PointerUp(x, y)
	}
	if m.st.clickPending {
		m.st.clickPending = false
		m.selectRows(m.st.clicked)
	}
}

// inspect opens a popup for the hovered row, or the row nearest the view
// center.
func (m *Model) inspect() {
	if m.data == nil {
		m.status = "no dataset loaded"
		return
	}
	i := -1
	if m.st.hovering {
		i = m.st.hover
	} else if d, ok := m.eng.Domain(); ok {
		x, y := d.Center()
		if near := m.eng.NearestN(x, y, 1); len(near) > 0 {
			i = near[0]
		}
	}
	if i < 0 {
		m.inspectPopup = ""
		m.status = "no row near the view center"
		return
	}
	name := filepath.Base(m.selPath)
	if m.selPath == "" {
		name = "<unsaved>"
	}
	p := m.data.Points[i]
	field := func(k, v string) string { return padRight(k+":", 9-len(k)) + v }
	meta := []string{
		field("file", name),
		field("row", strconv.Itoa(i)),
		field("label", m.data.Label[i]),
		field("cluster", strconv.Itoa(m.data.Cluster[i])),
		field("x", fmt.Sprintf("%.5f", p[0])),
		field("y", fmt.Sprintf("%.5f", p[1])),
		field("act", fmt.Sprintf("%g", m.data.Activation[i])),
		field("rows", strconv.Itoa(m.data.Len())),
	}
	m.inspectPopup = strings.Join(meta, "\n")
	m.status = "inspect popup"
}
