package tui

import (
	"image/color"
	"math"

	"latentmap/internal/scatter"
)

// brailleSurface is a scatter.Surface drawing into terminal cells. The
// engine sees a viewport of 2x4 micro-pixels per cell.
type brailleSurface struct {
	buf   *brailleBuf
	attrs scatter.Attributes
	n     int
	bg    color.RGBA
}

func newBrailleSurface(cols, rows int) *brailleSurface {
	return &brailleSurface{buf: newBrailleBuf(cols, rows)}
}

// Resize takes micro-pixel dimensions.
func (s *brailleSurface) Resize(w, h int) {
	s.buf = newBrailleBuf(w/2, h/4)
}

func (s *brailleSurface) Allocate(n int) error {
	s.n = n
	s.attrs = scatter.Attributes{
		Positions: make([]float32, 2*n),
		Colors:    make([]float32, 3*n),
		Opacity:   make([]float32, n),
		Size:      make([]float32, n),
	}
	return nil
}

func (s *brailleSurface) Upload(a scatter.Attributes) error {
	n := s.n
	if a.Len() != n || len(a.Positions) != 2*n || len(a.Colors) != 3*n || len(a.Size) != n {
		return scatter.ErrBufferSize
	}
	copy(s.attrs.Positions, a.Positions)
	copy(s.attrs.Colors, a.Colors)
	copy(s.attrs.Opacity, a.Opacity)
	copy(s.attrs.Size, a.Size)
	return nil
}

func (s *brailleSurface) Clear(c color.RGBA) {
	s.buf.reset()
	s.bg = c
}

// DrawPoints plots every visible point. Dots grow with the rendered point
// size, one micro-pixel of radius per 32px of diameter.
func (s *brailleSurface) DrawPoints(u scatter.Uniforms) {
	for i := 0; i < s.n; i++ {
		op := float64(s.attrs.Opacity[i])
		if op <= 0 {
			continue
		}
		sx, sy := u.Project(float64(s.attrs.Positions[2*i]), float64(s.attrs.Positions[2*i+1]))
		if math.IsNaN(sx) || math.IsNaN(sy) || math.IsInf(sx, 0) || math.IsInf(sy, 0) {
			continue
		}
		c := color.RGBA{
			R: channel(s.attrs.Colors[3*i]),
			G: channel(s.attrs.Colors[3*i+1]),
			B: channel(s.attrs.Colors[3*i+2]),
			A: 0xff,
		}
		cx, cy := int(math.Floor(sx)), int(math.Floor(sy))
		r := int(u.PointSize(s.attrs.Size[i]) / 32)
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx*dx+dy*dy <= r*r {
					s.buf.plot(cx+dx, cy+dy, c, op)
				}
			}
		}
	}
}

func channel(v float32) uint8 {
	return uint8(math.Max(0, math.Min(1, float64(v)))*255 + 0.5)
}
