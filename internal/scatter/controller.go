package scatter

import "math"

// ViewFunc receives the visible domain and transform after every change.
type ViewFunc func(d Domain, t Transform)

type viewSub struct {
	id int
	fn ViewFunc
}

// Controller turns pointer and wheel gestures into transform updates. It is
// the only writer of the transform.
type Controller struct {
	t  Transform
	vp Viewport

	minZoom, maxZoom float64
	zoomOut          float64
	deadZone         float64

	subs   []viewSub
	nextID int

	down         bool
	lastX, lastY float64
	travel       float64
}

// NewController creates a controller with the initial centered transform.
// Subscribers added later are not notified of it; call Reset to emit.
func NewController(vp Viewport, cfg Config) *Controller {
	cfg = cfg.withDefaults()
	c := &Controller{
		vp:       vp,
		minZoom:  cfg.MinZoom,
		maxZoom:  cfg.MaxZoom,
		zoomOut:  cfg.ZoomOutFactor,
		deadZone: cfg.ClickDeadZone,
	}
	c.t = c.initial()
	return c
}

func (c *Controller) initial() Transform {
	t := CenteredTransform(c.vp, c.zoomOut)
	t.K = clamp(t.K, c.minZoom, c.maxZoom)
	return t
}

// Transform returns the current transform by value.
func (c *Controller) Transform() Transform { return c.t }

// Viewport returns the current viewport size.
func (c *Controller) Viewport() Viewport { return c.vp }

// Domain returns the visible data domain. ok is false for a degenerate
// viewport.
func (c *Controller) Domain() (Domain, bool) { return DomainOf(c.vp, c.t) }

// Subscribe registers fn for view changes and returns a function that
// removes it.
func (c *Controller) Subscribe(fn ViewFunc) (cancel func()) {
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, viewSub{id: id, fn: fn})
	return func() {
		for i, s := range c.subs {
			if s.id == id {
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				return
			}
		}
	}
}

// Reset restores the initial centered transform.
func (c *Controller) Reset() { c.set(c.initial()) }

// Resize changes the viewport and re-centers the view.
func (c *Controller) Resize(vp Viewport) {
	c.vp = vp
	c.down = false
	c.Reset()
}

// PointerDown starts a potential drag.
func (c *Controller) PointerDown(x, y float64) {
	c.down = true
	c.lastX, c.lastY = x, y
	c.travel = 0
}

// Dragging reports whether a press is in progress.
func (c *Controller) Dragging() bool { return c.down }

// PointerMove pans while a press is in progress and reports whether it did.
func (c *Controller) PointerMove(x, y float64) bool {
	if !c.down {
		return false
	}
	dx, dy := x-c.lastX, y-c.lastY
	c.lastX, c.lastY = x, y
	c.travel += math.Hypot(dx, dy)
	if dx == 0 && dy == 0 {
		return true
	}
	c.PanBy(dx, dy)
	return true
}

// PointerUp ends a press. It reports true when the pointer stayed within
// the dead zone, i.e. the gesture was a click rather than a drag.
func (c *Controller) PointerUp(x, y float64) bool {
	if !c.down {
		return false
	}
	c.PointerMove(x, y)
	c.down = false
	return c.travel <= c.deadZone
}

// Cancel drops an in-progress press without panning further.
func (c *Controller) Cancel() { c.down = false }

// PanBy translates the view by (dx, dy) screen pixels.
func (c *Controller) PanBy(dx, dy float64) {
	if !finite(dx) || !finite(dy) {
		return
	}
	t := c.t
	t.X += dx
	t.Y += dy
	c.set(t)
}

// Wheel zooms around (x, y). deltaY follows the DOM convention: positive
// scrolls down and zooms out.
func (c *Controller) Wheel(x, y, deltaY float64) {
	c.ZoomBy(math.Pow(2, -deltaY*0.002), x, y)
}

// Pinch zooms around (x, y) by the relative scale of a two-finger gesture.
func (c *Controller) Pinch(x, y, scale float64) { c.ZoomBy(scale, x, y) }

// ZoomBy multiplies the zoom factor, keeping the data point under (x, y)
// fixed on screen.
func (c *Controller) ZoomBy(factor, x, y float64) {
	if !(factor > 0) || !finite(factor) || !finite(x) || !finite(y) || !c.t.Valid() {
		return
	}
	k := clamp(c.t.K*factor, c.minZoom, c.maxZoom)
	ux, uy := c.t.Invert(x, y)
	c.set(Transform{K: k, X: x - ux*k, Y: y - uy*k})
}

// ZoomAtCenter zooms around the viewport center.
func (c *Controller) ZoomAtCenter(factor float64) {
	c.ZoomBy(factor, c.vp.Width/2, c.vp.Height/2)
}

// set is the single write path: clamp, store, notify.
func (c *Controller) set(t Transform) {
	if !t.Valid() {
		return
	}
	t.K = clamp(t.K, c.minZoom, c.maxZoom)
	c.t = t
	d, ok := DomainOf(c.vp, c.t)
	if !ok {
		return
	}
	for _, s := range c.subs {
		s.fn(d, c.t)
	}
}
