// Package scatter is the interactive point-cloud engine behind the scatter
// view: point buffers, the pan/zoom transform, the spatial index used for
// picking, and the coordinate mapping shared with overlay layers.
//
// Everything in this package runs on the caller's goroutine. The only
// deferred work is the viewport-center query, which is handed to a
// Scheduler supplied by the host.
package scatter

import "math"

// Transform is the pan/zoom state applied in screen space:
// screen' = screen*K + (X, Y).
type Transform struct {
	K float64
	X float64
	Y float64
}

// Identity is the transform that leaves screen coordinates unchanged.
var Identity = Transform{K: 1}

// Apply maps an untransformed screen point into the zoomed view.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps a view coordinate back to untransformed screen space.
func (t Transform) Invert(x, y float64) (float64, float64) {
	return t.InvertX(x), t.InvertY(y)
}

func (t Transform) InvertX(x float64) float64 { return (x - t.X) / t.K }
func (t Transform) InvertY(y float64) float64 { return (y - t.Y) / t.K }

// Translate returns t followed by a translation of (x, y) in the
// transform's own (scaled) units.
func (t Transform) Translate(x, y float64) Transform {
	return Transform{K: t.K, X: t.X + t.K*x, Y: t.Y + t.K*y}
}

// Scale multiplies the zoom factor, keeping the translation.
func (t Transform) Scale(k float64) Transform {
	return Transform{K: t.K * k, X: t.X, Y: t.Y}
}

// Valid reports whether t can be inverted.
func (t Transform) Valid() bool {
	return finite(t.K) && t.K > 0 && finite(t.X) && finite(t.Y)
}

// CenteredTransform zooms out around the viewport center by factor so the
// whole normalized domain, edge points included, stays visible.
func CenteredTransform(vp Viewport, factor float64) Transform {
	if !(factor > 0) || !finite(factor) {
		factor = 1
	}
	cx, cy := vp.Width/2, vp.Height/2
	return Identity.Translate(cx, cy).Scale(factor).Translate(-cx, -cy)
}

// Viewport is the drawing surface size in pixels.
type Viewport struct {
	Width  float64
	Height float64
}

// Valid reports whether the viewport has a positive, finite area.
func (v Viewport) Valid() bool {
	return v.Width > 0 && v.Height > 0 && finite(v.Width) && finite(v.Height)
}

// ToScreen maps a normalized data coordinate ([-1,1] on both axes) to
// untransformed screen space. The y axis is flipped.
func (v Viewport) ToScreen(x, y float64) (float64, float64) {
	return (x + 1) * 0.5 * v.Width, (1 - y) * 0.5 * v.Height
}

// ToData is the inverse of ToScreen.
func (v Viewport) ToData(sx, sy float64) (float64, float64) {
	return sx/v.Width*2 - 1, 1 - sy/v.Height*2
}

// Domain is the visible data-space extent of the viewport.
type Domain struct {
	X [2]float64
	Y [2]float64
}

// FullDomain is the normalized domain with no pan or zoom applied.
var FullDomain = Domain{X: [2]float64{-1, 1}, Y: [2]float64{-1, 1}}

// Center returns the data coordinate at the middle of the domain.
func (d Domain) Center() (float64, float64) {
	return (d.X[0] + d.X[1]) / 2, (d.Y[0] + d.Y[1]) / 2
}

// DomainOf inverse-maps the viewport corners through t. ok is false for a
// degenerate viewport or a non-invertible transform.
func DomainOf(vp Viewport, t Transform) (Domain, bool) {
	if !vp.Valid() || !t.Valid() {
		return Domain{}, false
	}
	x0, y1 := vp.ToData(t.InvertX(0), t.InvertY(0))
	x1, y0 := vp.ToData(t.InvertX(vp.Width), t.InvertY(vp.Height))
	return Domain{X: [2]float64{x0, x1}, Y: [2]float64{y0, y1}}, true
}

// ScreenToData converts a view coordinate into data space through t.
func ScreenToData(vp Viewport, t Transform, sx, sy float64) (float64, float64, bool) {
	if !vp.Valid() || !t.Valid() || !finite(sx) || !finite(sy) {
		return 0, 0, false
	}
	x, y := vp.ToData(t.Invert(sx, sy))
	return x, y, true
}

// DataToScreen converts a data coordinate into view space through t.
func DataToScreen(vp Viewport, t Transform, x, y float64) (float64, float64) {
	sx, sy := vp.ToScreen(x, y)
	return t.Apply(sx, sy)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
