package scatter

import (
	"github.com/rs/zerolog"
)

// Callbacks receive engine output. Any of them may be nil.
type Callbacks struct {
	OnView            func(xDomain, yDomain [2]float64, t Transform)
	OnHover           func(index int, ok bool)
	OnSelect          func(indices []int)
	OnCenteredIndices func(indices []int)
}

type options struct {
	log     zerolog.Logger
	metrics *Metrics
	sched   Scheduler
}

// Option customizes Initialize.
type Option func(*options)

func WithLogger(l zerolog.Logger) Option { return func(o *options) { o.log = l } }

func WithMetrics(m *Metrics) Option { return func(o *options) { o.metrics = m } }

// WithScheduler enables the viewport-center query. Without a scheduler
// OnCenteredIndices is never called.
func WithScheduler(s Scheduler) Option { return func(o *options) { o.sched = s } }

// resizer is implemented by surfaces backed by a fixed-size frame.
type resizer interface {
	Resize(w, h int)
}

// Engine is the handle for one scatter view. It is not safe for concurrent
// use; every method runs on the host's event goroutine.
type Engine struct {
	cfg      Config
	surface  Surface
	renderer *Renderer
	picker   *Picker
	ctrl     *Controller
	center   *CenterTracker
	set      *PointSet
	cb       Callbacks

	hover    int
	hovering bool
	unsub    func()

	log     zerolog.Logger
	metrics *Metrics
}

// Initialize creates an engine drawing to surface. The initial view is
// emitted through OnView before Initialize returns.
func Initialize(surface Surface, width, height int, cfg Config, cb Callbacks, opts ...Option) (*Engine, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	cfg = cfg.withDefaults()
	r, err := NewRenderer(surface, cfg, o.log, o.metrics)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		surface:  surface,
		renderer: r,
		picker:   NewPicker(cfg, o.log, o.metrics),
		ctrl:     NewController(Viewport{Width: float64(width), Height: float64(height)}, cfg),
		cb:       cb,
		hover:    -1,
		log:      o.log,
		metrics:  o.metrics,
	}
	e.center = NewCenterTracker(cfg, o.sched, e.picker, e.current, cb.OnCenteredIndices, o.log, o.metrics)
	e.unsub = e.ctrl.Subscribe(e.onView)
	e.ctrl.Reset()
	return e, nil
}

func (e *Engine) current() (*PointSet, Domain, bool) {
	d, ok := e.ctrl.Domain()
	return e.set, d, ok
}

func (e *Engine) onView(d Domain, t Transform) {
	if e.cb.OnView != nil {
		e.cb.OnView(d.X, d.Y, t)
	}
	e.center.Notify()
}

// Close detaches the engine from its controller and drops pending work.
func (e *Engine) Close() {
	if e.unsub != nil {
		e.unsub()
		e.unsub = nil
	}
	e.center.Cancel()
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Points returns the current point set.
func (e *Engine) Points() *PointSet { return e.set }

// SetPoints replaces the point set. Buffers and the spatial index are
// rebuilt only when the identity differs from the current one.
func (e *Engine) SetPoints(ps *PointSet) error {
	if ps == e.set {
		return nil
	}
	e.set = ps
	e.picker.SetPoints(ps)
	if e.hovering && e.hover >= ps.Len() {
		e.setHover(-1, false)
	}
	if err := e.renderer.SetPoints(ps); err != nil {
		e.log.Error().Err(err).Int("points", ps.Len()).Msg("point upload failed")
		return err
	}
	e.center.Notify()
	return nil
}

// LoadPoints assembles parallel arrays into a new point set and installs
// it. Length mismatches fail only in strict mode.
func (e *Engine) LoadPoints(coords [][2]float64, cats []Category, acts []float64) (*PointSet, error) {
	points, err := Assembler{Strict: e.cfg.Strict, Logger: e.log}.Assemble(coords, cats, acts)
	if err != nil {
		return nil, err
	}
	ps := NewPointSet(points)
	return ps, e.SetPoints(ps)
}

// Draw renders the current frame. It is a no-op for empty sets and
// degenerate viewports.
func (e *Engine) Draw() bool {
	return e.renderer.Draw(e.ctrl.Viewport(), e.ctrl.Transform())
}

// Uniforms returns the parameters the next Draw will use.
func (e *Engine) Uniforms() Uniforms {
	return e.renderer.Uniforms(e.ctrl.Viewport(), e.ctrl.Transform())
}

// Resize changes the viewport and re-centers the view.
func (e *Engine) Resize(w, h int) {
	if rs, ok := e.surface.(resizer); ok {
		rs.Resize(w, h)
	}
	e.ctrl.Resize(Viewport{Width: float64(w), Height: float64(h)})
}

func (e *Engine) SetColorMode(m ColorMode) { e.renderer.SetColorMode(m) }

func (e *Engine) ColorMode() ColorMode { return e.renderer.ColorMode() }

func (e *Engine) SetFeatureHighlight(on bool) error { return e.renderer.SetFeatureHighlight(on) }

func (e *Engine) SetPointScale(s float64) { e.renderer.SetPointScale(s) }

// SetRestriction scopes picking to the given rows; nil turns it off.
func (e *Engine) SetRestriction(indices []int) { e.picker.SetRestriction(indices) }

func (e *Engine) Restricted() bool { return e.picker.Restricted() }

func (e *Engine) SetIgnoreNotSelected(on bool) { e.picker.SetIgnoreNotSelected(on) }

// PointerDown starts a press at view coordinate (x, y).
func (e *Engine) PointerDown(x, y float64) { e.ctrl.PointerDown(x, y) }

// PointerMove pans during a press and hovers otherwise. OnHover fires only
// when the hovered row changes.
func (e *Engine) PointerMove(x, y float64) {
	if e.ctrl.PointerMove(x, y) {
		return
	}
	i, ok := e.Pick(x, y)
	e.setHover(i, ok)
}

// PointerUp ends a press. A press that stayed inside the dead zone is a
// click and selects the row under the pointer, if any.
func (e *Engine) PointerUp(x, y float64) {
	if !e.ctrl.PointerUp(x, y) {
		return
	}
	i, ok := e.Pick(x, y)
	if ok && e.cb.OnSelect != nil {
		e.cb.OnSelect([]int{i})
	}
}

// PointerLeave cancels any press and clears the hover.
func (e *Engine) PointerLeave() {
	e.ctrl.Cancel()
	e.setHover(-1, false)
}

func (e *Engine) setHover(i int, ok bool) {
	if !ok {
		i = -1
	}
	if ok == e.hovering && i == e.hover {
		return
	}
	e.hover, e.hovering = i, ok
	if e.cb.OnHover != nil {
		e.cb.OnHover(i, ok)
	}
}

// Hovered returns the row last reported through OnHover.
func (e *Engine) Hovered() (int, bool) { return e.hover, e.hovering }

func (e *Engine) Wheel(x, y, deltaY float64) { e.ctrl.Wheel(x, y, deltaY) }

func (e *Engine) Pinch(x, y, scale float64) { e.ctrl.Pinch(x, y, scale) }

func (e *Engine) PanBy(dx, dy float64) { e.ctrl.PanBy(dx, dy) }

func (e *Engine) ZoomBy(factor, x, y float64) { e.ctrl.ZoomBy(factor, x, y) }

func (e *Engine) ZoomAtCenter(factor float64) { e.ctrl.ZoomAtCenter(factor) }

func (e *Engine) ResetView() { e.ctrl.Reset() }

// Pick returns the row nearest the view coordinate within the pick radius.
func (e *Engine) Pick(x, y float64) (int, bool) {
	return e.picker.Pick(e.ctrl.Viewport(), e.ctrl.Transform(), x, y)
}

// NearestN returns up to n rows near the data coordinate, nearest first.
func (e *Engine) NearestN(x, y float64, n int) []int { return e.picker.NearestN(x, y, n) }

func (e *Engine) Transform() Transform { return e.ctrl.Transform() }

func (e *Engine) Viewport() Viewport { return e.ctrl.Viewport() }

func (e *Engine) Domain() (Domain, bool) { return e.ctrl.Domain() }

// Mapper returns the overlay mapping for the current frame.
func (e *Engine) Mapper() Mapper {
	d, _ := e.ctrl.Domain()
	vp := e.ctrl.Viewport()
	return NewMapper(d, vp.Width, vp.Height)
}

// IndexState reports the spatial index lifecycle.
func (e *Engine) IndexState() IndexState { return e.picker.State() }
