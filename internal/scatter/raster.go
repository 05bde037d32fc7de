package scatter

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"
)

// RasterSurface is a software Surface drawing into an RGBA image. It is
// used for headless snapshots and in tests.
type RasterSurface struct {
	img   *image.RGBA
	attrs Attributes
	n     int
	discs map[int]*image.Alpha
}

func NewRasterSurface(w, h int) *RasterSurface {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &RasterSurface{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		discs: make(map[int]*image.Alpha),
	}
}

// Image returns the current frame.
func (s *RasterSurface) Image() *image.RGBA { return s.img }

// Resize reallocates the frame; point buffers are kept.
func (s *RasterSurface) Resize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
}

func (s *RasterSurface) Allocate(n int) error {
	s.n = n
	s.attrs = Attributes{
		Positions: make([]float32, 2*n),
		Colors:    make([]float32, 3*n),
		Opacity:   make([]float32, n),
		Size:      make([]float32, n),
	}
	return nil
}

func (s *RasterSurface) Upload(a Attributes) error {
	if a.Len() != s.n || !a.consistent() {
		return ErrBufferSize
	}
	copy(s.attrs.Positions, a.Positions)
	copy(s.attrs.Colors, a.Colors)
	copy(s.attrs.Opacity, a.Opacity)
	copy(s.attrs.Size, a.Size)
	return nil
}

func (s *RasterSurface) Clear(c color.RGBA) {
	p := s.img.Pix
	for i := 0; i+3 < len(p); i += 4 {
		p[i], p[i+1], p[i+2], p[i+3] = c.R, c.G, c.B, c.A
	}
}

// disc returns an anti-aliased coverage mask for a dot of diameter d/4 px.
func (s *RasterSurface) disc(quarterPx int) *image.Alpha {
	if m, ok := s.discs[quarterPx]; ok {
		return m
	}
	d := float32(quarterPx) / 4
	side := int(math.Ceil(float64(d))) + 2
	r := vector.NewRasterizer(side, side)
	c := float32(side) / 2
	rad := d / 2
	// four cubic arcs approximating a circle
	const kappa = 0.5522847498
	k := rad * kappa
	r.MoveTo(c+rad, c)
	r.CubeTo(c+rad, c+k, c+k, c+rad, c, c+rad)
	r.CubeTo(c-k, c+rad, c-rad, c+k, c-rad, c)
	r.CubeTo(c-rad, c-k, c-k, c-rad, c, c-rad)
	r.CubeTo(c+k, c-rad, c+rad, c-k, c+rad, c)
	r.ClosePath()
	m := image.NewAlpha(image.Rect(0, 0, side, side))
	r.Draw(m, m.Bounds(), image.Opaque, image.Point{})
	s.discs[quarterPx] = m
	return m
}

// DrawPoints rasterizes every point with non-zero opacity. Alpha falls off
// towards the dot edge, more steeply on light backgrounds.
func (s *RasterSurface) DrawPoints(u Uniforms) {
	b := s.img.Bounds()
	if b.Empty() {
		return
	}
	exp := u.Transform.K * u.DotScale
	if u.Mode == Light {
		exp *= 2
	}
	for i := 0; i < s.n; i++ {
		op := float64(s.attrs.Opacity[i])
		if op <= 0 {
			continue
		}
		d := u.PointSize(s.attrs.Size[i])
		if !(d > 0) || !finite(d) {
			continue
		}
		cx, cy := u.Project(float64(s.attrs.Positions[2*i]), float64(s.attrs.Positions[2*i+1]))
		if !finite(cx) || !finite(cy) {
			continue
		}
		mask := s.disc(int(math.Max(1, math.Round(d*4))))
		side := mask.Bounds().Dx()
		ox := int(math.Floor(cx - float64(side)/2))
		oy := int(math.Floor(cy - float64(side)/2))
		if ox >= b.Max.X || oy >= b.Max.Y || ox+side <= b.Min.X || oy+side <= b.Min.Y {
			continue
		}
		rad := d / 2
		cr := float64(s.attrs.Colors[3*i]) * 0.95
		cg := float64(s.attrs.Colors[3*i+1]) * 0.95
		cb := float64(s.attrs.Colors[3*i+2]) * 0.95
		for my := 0; my < side; my++ {
			py := oy + my
			if py < b.Min.Y || py >= b.Max.Y {
				continue
			}
			for mx := 0; mx < side; mx++ {
				px := ox + mx
				if px < b.Min.X || px >= b.Max.X {
					continue
				}
				cov := float64(mask.AlphaAt(mx, my).A) / 255
				if cov == 0 {
					continue
				}
				dist := math.Hypot(float64(px)+0.5-cx, float64(py)+0.5-cy) / rad
				if dist > 1 {
					dist = 1
				}
				a := op * (1 - math.Pow(dist, exp)) * cov
				if a <= 0 {
					continue
				}
				s.blend(px, py, cr*a*1.25, cg*a*1.25, cb*a*1.25, a, u.Blend)
			}
		}
	}
}

func (s *RasterSurface) blend(x, y int, r, g, b, a float64, mode BlendMode) {
	off := s.img.PixOffset(x, y)
	p := s.img.Pix[off : off+4 : off+4]
	dr, dg, db, da := float64(p[0])/255, float64(p[1])/255, float64(p[2])/255, float64(p[3])/255
	switch mode {
	case BlendAdditive:
		dr, dg, db, da = r*a+dr, g*a+dg, b*a+db, a*a+da
	default:
		inv := 1 - a
		dr, dg, db, da = r+dr*inv, g+dg*inv, b+db*inv, a+da*inv
	}
	p[0] = unit8(dr)
	p[1] = unit8(dg)
	p[2] = unit8(db)
	p[3] = unit8(da)
}

func unit8(v float64) uint8 {
	return uint8(clamp(v, 0, 1)*255 + 0.5)
}

// StrokeHull outlines the closed polygon through rows idx of ps. width is
// in data units, as returned by Mapper.StrokeWidth, so the outline keeps
// its apparent thickness at every zoom. Hidden rows are skipped.
func (s *RasterSurface) StrokeHull(u Uniforms, ps *PointSet, idx []int, width float64, c color.RGBA) {
	b := s.img.Bounds()
	if b.Empty() || !(width > 0) || !finite(width) {
		return
	}
	var pts [][2]float64
	for _, i := range idx {
		if i < 0 || i >= ps.Len() || !ps.At(i).Pickable() {
			continue
		}
		p := ps.At(i)
		pts = append(pts, [2]float64{p.X, p.Y})
	}
	if len(pts) < 2 {
		return
	}
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	half := width / 2
	for k := range pts {
		p0, p1 := pts[k], pts[(k+1)%len(pts)]
		dx, dy := p1[0]-p0[0], p1[1]-p0[1]
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		quad := [4][2]float64{
			{p0[0] + nx, p0[1] + ny},
			{p1[0] + nx, p1[1] + ny},
			{p1[0] - nx, p1[1] - ny},
			{p0[0] - nx, p0[1] - ny},
		}
		for j, q := range quad {
			x, y := u.Project(q[0], q[1])
			if j == 0 {
				r.MoveTo(float32(x), float32(y))
			} else {
				r.LineTo(float32(x), float32(y))
			}
		}
		r.ClosePath()
	}
	mask := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	cr, cg, cb := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
	ca := float64(c.A) / 255
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			a := float64(mask.AlphaAt(x, y).A) / 255 * ca
			if a == 0 {
				continue
			}
			s.blend(b.Min.X+x, b.Min.Y+y, cr*a, cg*a, cb*a, a, BlendPremultiplied)
		}
	}
}
