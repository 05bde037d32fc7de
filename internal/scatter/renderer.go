package scatter

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoSurface  = errors.New("scatter: nil surface")
	ErrBufferSize = errors.New("scatter: buffer length does not match allocation")
)

// Attributes are the per-point buffers uploaded to a Surface. Positions
// holds x,y pairs, Colors r,g,b triples in [0,1].
type Attributes struct {
	Positions []float32
	Colors    []float32
	Opacity   []float32
	Size      []float32
}

// Len is the number of points described.
func (a Attributes) Len() int { return len(a.Opacity) }

func (a Attributes) consistent() bool {
	n := len(a.Opacity)
	return len(a.Positions) == 2*n && len(a.Colors) == 3*n && len(a.Size) == n
}

// BlendMode is the alpha blend function used when compositing points.
type BlendMode int

const (
	// BlendPremultiplied: rgb = src + dst*(1-a). Used on light backgrounds.
	BlendPremultiplied BlendMode = iota
	// BlendAdditive: rgb = src*a + dst. Used on dark backgrounds.
	BlendAdditive
)

// Uniforms are the per-draw parameters handed to a Surface.
type Uniforms struct {
	Transform  Transform
	Viewport   Viewport
	PointScale float64
	DotScale   float64
	Blend      BlendMode
	Mode       ColorMode
	Count      int

	m [6]float64 // row-major affine data -> view screen
}

// Project maps a data coordinate to view-space pixels.
func (u Uniforms) Project(x, y float64) (float64, float64) {
	return u.m[0]*x + u.m[1]*y + u.m[2], u.m[3]*x + u.m[4]*y + u.m[5]
}

// Clip maps a data coordinate to clip space ([-1,1], y up).
func (u Uniforms) Clip(x, y float64) (float64, float64) {
	sx, sy := u.Project(x, y)
	return sx/u.Viewport.Width*2 - 1, -(sy/u.Viewport.Height)*2 + 1
}

// PointSize is the rendered diameter in pixels for a buffer size value.
func (u Uniforms) PointSize(size float32) float64 {
	return float64(size) * u.PointScale * u.DotScale
}

// screenMatrix composes data -> screen (y flipped) -> zoom transform.
func screenMatrix(vp Viewport, t Transform) [6]float64 {
	toScreen := mat.NewDense(3, 3, []float64{
		vp.Width / 2, 0, vp.Width / 2,
		0, -vp.Height / 2, vp.Height / 2,
		0, 0, 1,
	})
	zoom := mat.NewDense(3, 3, []float64{
		t.K, 0, t.X,
		0, t.K, t.Y,
		0, 0, 1,
	})
	var m mat.Dense
	m.Mul(zoom, toScreen)
	return [6]float64{
		m.At(0, 0), m.At(0, 1), m.At(0, 2),
		m.At(1, 0), m.At(1, 1), m.At(1, 2),
	}
}

// NewUniforms builds uniforms for a frame.
func NewUniforms(vp Viewport, t Transform) Uniforms {
	return Uniforms{Transform: t, Viewport: vp, PointScale: 1, DotScale: 1, m: screenMatrix(vp, t)}
}

// Surface is the drawing target. It exclusively holds the point buffers;
// only the Renderer writes to it.
type Surface interface {
	// Allocate discards the buffers and reserves room for n points.
	Allocate(n int) error
	// Upload replaces buffer contents in place. a.Len() must equal the
	// allocated count.
	Upload(a Attributes) error
	Clear(c color.RGBA)
	DrawPoints(u Uniforms)
}

// Category tables, indexed by Category.
var (
	categoryColors = [...]color.RGBA{
		{0xb8, 0x73, 0x33, 0xff}, // normal
		{0xb8, 0x73, 0x33, 0xff}, // selected
		{0xb8, 0x73, 0x33, 0xff}, // not selected
		{0xfc, 0xfb, 0xfd, 0xff}, // hidden
	}
	categoryOpacity = [...]float32{0.75, 1, 0.75, 0}
	categorySize    = [...]float32{3, 3.5, 2, 0}

	clearLight = color.RGBA{0xfa, 0xfa, 0xfa, 0xff}
	clearDark  = color.RGBA{0x11, 0x11, 0x11, 0xff}
)

// CategoryColor returns the base color for c.
func CategoryColor(c Category) color.RGBA {
	if int(c) >= len(categoryColors) {
		c = Normal
	}
	return categoryColors[c]
}

// ClearColor returns the background for a color mode.
func ClearColor(m ColorMode) color.RGBA {
	if m == Dark {
		return clearDark
	}
	return clearLight
}

// DotScaleFactor grows sub-linearly with zoom so apparent dot size stays
// stable without re-uploading the size buffer.
func DotScaleFactor(k, maxZoom float64) float64 {
	if !(maxZoom > 0) || !(k > 0) || !finite(k) {
		return 1.25
	}
	return clamp(1.25+4*math.Sqrt(k/maxZoom), 1.25, 5.25)
}

// DynamicPointScale derives a base dot size from point density.
func DynamicPointScale(n int, width, height float64) float64 {
	if n <= 0 || !(width > 0) || !(height > 0) {
		return 1
	}
	base := math.Sqrt(width * height / float64(n))
	return clamp(math.Pow(base, 0.9)*0.3, 1, 10)
}

// Renderer owns the point buffers on a Surface and draws the cloud.
type Renderer struct {
	surface   Surface
	set       *PointSet
	attrs     Attributes
	allocated int

	maxZoom       float64
	pointScale    float64
	mode          ColorMode
	highlight     bool
	maxActivation float64

	log     zerolog.Logger
	metrics *Metrics
}

func NewRenderer(s Surface, cfg Config, log zerolog.Logger, m *Metrics) (*Renderer, error) {
	if s == nil {
		return nil, ErrNoSurface
	}
	cfg = cfg.withDefaults()
	return &Renderer{
		surface:    s,
		maxZoom:    cfg.MaxZoom,
		pointScale: cfg.PointScale,
		mode:       cfg.ColorMode,
		log:        log,
		metrics:    m,
	}, nil
}

// SetPoints rebuilds the buffers for a new point set. The surface is only
// reallocated when the point count changes.
func (r *Renderer) SetPoints(ps *PointSet) error {
	if ps == r.set && ps != nil {
		return nil
	}
	r.set = ps
	return r.upload()
}

func (r *Renderer) upload() error {
	n := r.set.Len()
	if n != r.allocated || r.attrs.Len() != n {
		if err := r.surface.Allocate(n); err != nil {
			return fmt.Errorf("allocate %d points: %w", n, err)
		}
		r.allocated = n
		r.attrs = Attributes{
			Positions: make([]float32, 2*n),
			Colors:    make([]float32, 3*n),
			Opacity:   make([]float32, n),
			Size:      make([]float32, n),
		}
		r.metrics.IncReallocation()
		r.log.Debug().Int("points", n).Msg("point buffers reallocated")
	}
	r.maxActivation = maxActivation(r.set)
	for i, p := range r.set.Points() {
		c := p.Category
		if int(c) >= len(categoryOpacity) {
			c = Normal
		}
		x, y := p.Position()
		if !finite(x) || !finite(y) {
			x, y = SentinelX, SentinelY
		}
		r.attrs.Positions[2*i] = float32(x)
		r.attrs.Positions[2*i+1] = float32(y)
		col := categoryColors[c]
		r.attrs.Colors[3*i] = float32(col.R) / 255
		r.attrs.Colors[3*i+1] = float32(col.G) / 255
		r.attrs.Colors[3*i+2] = float32(col.B) / 255
		r.attrs.Opacity[i] = r.opacity(p, c)
		r.attrs.Size[i] = categorySize[c]
	}
	if err := r.surface.Upload(r.attrs); err != nil {
		return fmt.Errorf("upload %d points: %w", n, err)
	}
	return nil
}

// opacity uses the category table, except that in feature-highlight mode
// selected points take their activation, normalized by the largest one.
func (r *Renderer) opacity(p Point, c Category) float32 {
	if r.highlight && c == Selected && p.HasActivation && finite(p.Activation) {
		a := p.Activation
		if r.maxActivation > 0 {
			a /= r.maxActivation
		}
		return float32(clamp(a+0.5, 0, 1))
	}
	return categoryOpacity[c]
}

func maxActivation(ps *PointSet) float64 {
	m := 0.0
	for _, p := range ps.Points() {
		if p.Category == Selected && p.HasActivation && finite(p.Activation) && p.Activation > m {
			m = p.Activation
		}
	}
	return m
}

// SetFeatureHighlight toggles activation-driven opacity for selected points.
// Buffers are re-uploaded in place.
func (r *Renderer) SetFeatureHighlight(on bool) error {
	if r.highlight == on {
		return nil
	}
	r.highlight = on
	if r.set.Len() == 0 {
		return nil
	}
	return r.upload()
}

// SetColorMode switches clear color and blending. Buffers are untouched.
func (r *Renderer) SetColorMode(m ColorMode) { r.mode = m }

func (r *Renderer) ColorMode() ColorMode { return r.mode }

// SetPointScale changes the user point scale multiplier.
func (r *Renderer) SetPointScale(s float64) {
	if s > 0 && finite(s) {
		r.pointScale = s
	}
}

// Uniforms computes the draw parameters for t on vp.
func (r *Renderer) Uniforms(vp Viewport, t Transform) Uniforms {
	u := NewUniforms(vp, t)
	u.PointScale = DynamicPointScale(r.set.Len(), vp.Width, vp.Height) * r.pointScale
	u.DotScale = DotScaleFactor(t.K, r.maxZoom)
	u.Mode = r.mode
	u.Blend = BlendPremultiplied
	if r.mode == Dark {
		u.Blend = BlendAdditive
	}
	u.Count = r.set.Len()
	return u
}

// Draw clears the surface and submits the cloud. Empty sets, degenerate
// viewports and non-invertible transforms are skipped.
func (r *Renderer) Draw(vp Viewport, t Transform) bool {
	if r.set.Len() == 0 || !vp.Valid() || !t.Valid() {
		return false
	}
	start := time.Now()
	r.surface.Clear(ClearColor(r.mode))
	r.surface.DrawPoints(r.Uniforms(vp, t))
	r.metrics.ObserveDraw(time.Since(start))
	return true
}
