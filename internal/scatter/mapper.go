package scatter

import "math"

// domainEpsilon is the narrowest domain extent the mapper divides by.
const domainEpsilon = 1e-9

// MapPoint maps a data coordinate to view pixels given the visible domain
// and viewport size. It agrees with the renderer's own placement for the
// same frame.
func MapPoint(x, y float64, xDomain, yDomain [2]float64, width, height float64) (float64, float64) {
	return NewMapper(Domain{X: xDomain, Y: yDomain}, width, height).Map(x, y)
}

// Mapper is the data-to-screen affine for one frame, shared by overlay
// layers so outlines and labels stay aligned with the points.
type Mapper struct {
	XScale, YScale   float64
	XOffset, YOffset float64
	Width, Height    float64
}

func NewMapper(d Domain, width, height float64) Mapper {
	xs := width / span(d.X)
	ys := height / span(d.Y)
	return Mapper{
		XScale:  xs,
		YScale:  ys,
		XOffset: width/2 - xs*(d.X[1]+d.X[0])/2,
		YOffset: height/2 + ys*(d.Y[1]+d.Y[0])/2,
		Width:   width,
		Height:  height,
	}
}

func span(r [2]float64) float64 {
	s := r[1] - r[0]
	if !finite(s) || math.Abs(s) < domainEpsilon {
		return domainEpsilon
	}
	return s
}

// Map returns screen coordinates for a data point.
func (m Mapper) Map(x, y float64) (float64, float64) {
	return x*m.XScale + m.XOffset, -y*m.YScale + m.YOffset
}

// ScaleFactor is the combined scale, sqrt(xs*ys).
func (m Mapper) ScaleFactor() float64 {
	s := math.Sqrt(math.Abs(m.XScale * m.YScale))
	if !finite(s) || s < domainEpsilon {
		return domainEpsilon
	}
	return s
}

// StrokeWidth scales w so outlines keep a constant apparent thickness.
func (m Mapper) StrokeWidth(w float64) float64 {
	return w / m.ScaleFactor() / 2
}

// FontSize is the label size for zoom k.
func (m Mapper) FontSize(k, maxZoom float64) float64 {
	base := math.Max(2*math.Min(m.Width, m.Height)/900, 8)
	return base * DotScaleFactor(k, maxZoom)
}

// Hull projects a closed outline given as row indices into screen points.
// Rows that are hidden or out of range are skipped.
func (m Mapper) Hull(ps *PointSet, indices []int) [][2]float64 {
	out := make([][2]float64, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= ps.Len() {
			continue
		}
		p := ps.At(i)
		if !p.Pickable() {
			continue
		}
		sx, sy := m.Map(p.X, p.Y)
		out = append(out, [2]float64{sx, sy})
	}
	return out
}

// Crosshair returns the screen position of the data origin as a vertical
// x and horizontal y line.
func (m Mapper) Crosshair() (x, y float64) {
	return m.Map(0, 0)
}
