package tui

import (
	"fmt"
	"math"
	"strconv"

	table "github.com/charmbracelet/bubbles/table"
)

var rowColumns = []table.Column{
	{Title: "#", Width: 6},
	{Title: "why", Width: 8},
	{Title: "label", Width: 18},
	{Title: "cluster", Width: 7},
	{Title: "x", Width: 7},
	{Title: "y", Width: 7},
	{Title: "act", Width: 5},
}

// listedRows returns the rows worth showing, hovered first, then selected,
// then the ones nearest the view center. Each row appears once.
func (m *Model) listedRows() ([]int, []string) {
	var idx []int
	var why []string
	seen := map[int]bool{}
	add := func(i int, reason string) {
		if seen[i] || m.data == nil || i < 0 || i >= m.data.Len() {
			return
		}
		seen[i] = true
		idx = append(idx, i)
		why = append(why, reason)
	}
	if m.st.hovering {
		add(m.st.hover, "hover")
	}
	for _, i := range m.st.selected {
		add(i, "selected")
	}
	for _, i := range m.st.centered {
		add(i, "center")
	}
	return idx, why
}

// refreshRows rebuilds the table rows from the current hover, selection
// and center query and returns how many there are.
func (m *Model) refreshRows() int {
	idx, why := m.listedRows()
	rows := make([]table.Row, 0, len(idx))
	for k, i := range idx {
		cluster := ""
		if c := m.data.Cluster[i]; c >= 0 {
			cluster = strconv.Itoa(c)
		}
		act := ""
		if a := m.data.Activation[i]; !math.IsNaN(a) {
			act = fmt.Sprintf("%.2f", a)
		}
		p := m.data.Points[i]
		rows = append(rows, table.Row{
			strconv.Itoa(i),
			why[k],
			m.data.Label[i],
			cluster,
			fmt.Sprintf("%.3f", p[0]),
			fmt.Sprintf("%.3f", p[1]),
			act,
		})
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(rowColumns)
	m.tbl.SetRows(rows)
	return len(rows)
}
