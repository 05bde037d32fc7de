// Package tui is the terminal host for the scatter engine: a braille
// canvas, mouse and keyboard gestures, overlays, a file sidebar and a
// query box.
package tui

import (
	"os"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"latentmap/internal/config"
	"latentmap/internal/geom"
	"latentmap/internal/scatter"
)

// Options configure New.
type Options struct {
	Config config.Config
	// Dark resolves the "auto" color mode, usually from
	// lipgloss.HasDarkBackground.
	Dark    bool
	Logger  zerolog.Logger
	Metrics *scatter.Metrics
	// Dir is the directory listed in the sidebar; empty means the working
	// directory.
	Dir string
}

// viewState is written by engine callbacks. Models are copied on every
// Update, so callbacks share it through a pointer.
type viewState struct {
	xDomain, yDomain [2]float64
	t                scatter.Transform

	hover    int
	hovering bool

	selected []int
	centered []int

	clicked      []int
	clickPending bool
}

const (
	queryPlaceholder = "Row indices (1, 2, 3) or a label substring. Enter selects; empty clears; Esc cancels."
	pastePlaceholder = "Paste WKT here (POINT, MULTIPOINT, LINESTRING, POLYGON). Press Enter to render; Esc to cancel."
)

type Model struct {
	width  int
	height int

	showSidebar bool
	helpVisible bool

	status string

	// File explorer
	cwd     string
	l       list.Model
	items   []list.Item
	selPath string

	// Engine
	cfg   config.Config
	eng   *scatter.Engine
	surf  *brailleSurface
	sched *tickScheduler
	st    *viewState
	log   zerolog.Logger

	// Data, normalized into the engine's [-1,1] domain
	data  *geom.Dataset
	hulls map[int][]int

	// last synced map size in cells
	mapW int
	mapH int

	// query and paste modes share the textarea
	queryMode bool
	pasteMode bool
	ta        textarea.Model

	// overlays
	showHulls     bool
	showCrosshair bool
	showLabels    bool

	highlight bool
	restrict  bool

	// inspect popup
	inspectPopup string

	// rows table
	showRows bool
	tbl      table.Model
}

func New(opts Options) Model {
	st := &viewState{hover: -1}
	m := Model{
		helpVisible: true,
		status:      "latentmap ready",
		cfg:         opts.Config,
		surf:        newBrailleSurface(0, 0),
		sched:       &tickScheduler{},
		st:          st,
		log:         opts.Logger,
		showHulls:   true,
		showLabels:  true,
	}
	m.cwd = opts.Dir
	if m.cwd == "" {
		m.cwd, _ = os.Getwd()
	}
	cb := scatter.Callbacks{
		OnView: func(x, y [2]float64, t scatter.Transform) {
			st.xDomain, st.yDomain, st.t = x, y, t
		},
		OnHover: func(i int, ok bool) {
			st.hover, st.hovering = i, ok
		},
		OnSelect: func(idx []int) {
			st.clicked, st.clickPending = idx, true
		},
		OnCenteredIndices: func(idx []int) {
			st.centered = idx
		},
	}
	eng, err := scatter.Initialize(m.surf, 0, 0, opts.Config.Scatter(opts.Dark), cb,
		scatter.WithLogger(opts.Logger),
		scatter.WithMetrics(opts.Metrics),
		scatter.WithScheduler(m.sched),
	)
	if err != nil {
		m.status = "engine error: " + err.Error()
	}
	m.eng = eng
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Files"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = queryPlaceholder
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	// rows table setup
	m.tbl = table.New(table.WithColumns(rowColumns), table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()
	return m
}

// NewWithPath preloads a file's data at launch.
func NewWithPath(opts Options, path string) Model {
	m := New(opts)
	m.loadPath(path)
	return m
}

func (m Model) Init() tea.Cmd { return m.sched.flush() }

// Engine exposes the engine for headless callers.
func (m Model) Engine() *scatter.Engine { return m.eng }

// Status is the current status line.
func (m Model) Status() string { return m.status }
