package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"

	"latentmap/internal/geom"
	"latentmap/internal/scatter"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !geom.Supported(name) {
			continue
		}
		items = append(items, fileItem{
			title: name,
			desc:  strings.ToLower(filepath.Ext(name)),
			path:  filepath.Join(m.cwd, name),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no supported files in current directory"
	}
}

// loadPath loads any supported format into the engine.
func (m *Model) loadPath(p string) {
	d, err := geom.Load(p)
	if err != nil {
		m.log.Warn().Err(err).Str("path", p).Msg("load failed")
		m.status = "load error: " + err.Error()
		return
	}
	m.selPath = p
	m.setDataset(d)
	m.status = "loaded: " + filepath.Base(p) +
		fmt.Sprintf("  rows=%d clusters=%d", m.data.Len(), len(m.data.Clusters()))
}

// setDataset installs d normalized into [-1,1] and resets the view and
// every per-dataset selection.
func (m *Model) setDataset(d *geom.Dataset) {
	m.data = d.Normalized()
	m.hulls = m.data.Hulls()
	m.st.selected = nil
	m.st.centered = nil
	m.inspectPopup = ""
	if err := m.applySelection(); err != nil {
		m.status = "upload error: " + err.Error()
		return
	}
	if m.cfg.PointScale <= 0 {
		m.eng.SetPointScale(presetScale(m.data.Len()))
	}
	m.eng.ResetView()
	m.log.Info().Int("rows", m.data.Len()).Str("path", m.selPath).Msg("dataset loaded")
	if m.showRows {
		m.refreshRows()
	}
}

// presetScale picks a dot size for the row count.
func presetScale(n int) float64 {
	switch {
	case n <= 1_000:
		return 2.25
	case n <= 10_000:
		return 1.25
	case n <= 100_000:
		return 0.75
	default:
		return 0.5
	}
}

// categories derives per-row categories: deleted rows are hidden, and
// once anything is selected every other row is "not selected".
func categories(d *geom.Dataset, selected []int) []scatter.Category {
	sel := make(map[int]bool, len(selected))
	for _, i := range selected {
		sel[i] = true
	}
	cats := make([]scatter.Category, d.Len())
	for i := range cats {
		switch {
		case d.Deleted[i]:
			cats[i] = scatter.Hidden
		case len(sel) == 0:
			cats[i] = scatter.Normal
		case sel[i]:
			cats[i] = scatter.Selected
		default:
			cats[i] = scatter.NotSelected
		}
	}
	return cats
}

// applySelection rebuilds the point set from the dataset and the current
// selection, and rescopes restricted picking.
func (m *Model) applySelection() error {
	if m.data == nil {
		return nil
	}
	if _, err := m.eng.LoadPoints(m.data.Points, categories(m.data, m.st.selected), m.data.Activation); err != nil {
		return err
	}
	m.applyRestriction()
	return nil
}

func (m *Model) applyRestriction() {
	if m.restrict && len(m.st.selected) > 0 {
		m.eng.SetRestriction(m.st.selected)
		return
	}
	m.eng.SetRestriction(nil)
}

// selectRows replaces the selection. Deleted rows never become selected.
func (m *Model) selectRows(idx []int) {
	var keep []int
	for _, i := range idx {
		if m.data != nil && i >= 0 && i < m.data.Len() && !m.data.Deleted[i] {
			keep = append(keep, i)
		}
	}
	m.st.selected = keep
	if err := m.applySelection(); err != nil {
		m.status = "upload error: " + err.Error()
		return
	}
	if len(keep) == 0 {
		m.status = "selection cleared"
	} else {
		m.status = fmt.Sprintf("selected %d rows", len(keep))
	}
	if m.showRows {
		m.refreshRows()
	}
}

// snapshotPath is where "w" writes: next to the loaded file, or in the
// listed directory.
func (m Model) snapshotPath() string {
	if m.selPath != "" {
		base := strings.TrimSuffix(m.selPath, filepath.Ext(m.selPath))
		if strings.EqualFold(filepath.Ext(m.selPath), geom.SnapshotExt) {
			base += "-copy"
		}
		return base + geom.SnapshotExt
	}
	return filepath.Join(m.cwd, "latentmap"+geom.SnapshotExt)
}

func (m *Model) writeSnapshot() {
	if m.data == nil {
		m.status = "nothing to write"
		return
	}
	p := m.snapshotPath()
	if err := geom.SaveSnapshot(p, m.data); err != nil {
		m.log.Error().Err(err).Str("path", p).Msg("snapshot failed")
		m.status = "write error: " + err.Error()
		return
	}
	m.status = "wrote " + filepath.Base(p)
	m.refreshDir()
}
