package scatter

import "time"

// ColorMode selects the clear color and blend function.
type ColorMode int

const (
	Light ColorMode = iota
	Dark
)

func (m ColorMode) String() string {
	if m == Dark {
		return "dark"
	}
	return "light"
}

// Config holds the engine tunables. Zero fields take the defaults.
type Config struct {
	MinZoom float64
	MaxZoom float64
	// PointScale multiplies the density-derived dot size.
	PointScale float64
	// QuadtreeRadius is the base pick radius in pixels at zoom 1.
	QuadtreeRadius float64
	MinPickRadius  float64
	MaxPickRadius  float64
	// CenterRadius is the data-space search radius of NearestN.
	CenterRadius   float64
	CenterCount    int
	CenterDebounce time.Duration
	ZoomOutFactor  float64
	// ClickDeadZone is how far (px) the pointer may travel between press
	// and release and still count as a click.
	ClickDeadZone     float64
	ColorMode         ColorMode
	IgnoreNotSelected bool
	Strict            bool
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MinZoom:        0.75,
		MaxZoom:        40,
		PointScale:     1,
		QuadtreeRadius: 10,
		MinPickRadius:  2,
		MaxPickRadius:  64,
		CenterRadius:   0.05,
		CenterCount:    10,
		CenterDebounce: 50 * time.Millisecond,
		ZoomOutFactor:  0.8,
		ClickDeadZone:  3,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if !(c.MinZoom > 0) {
		c.MinZoom = d.MinZoom
	}
	if !(c.MaxZoom > 0) {
		c.MaxZoom = d.MaxZoom
	}
	if c.MaxZoom < c.MinZoom {
		c.MaxZoom = c.MinZoom
	}
	if !(c.PointScale > 0) {
		c.PointScale = d.PointScale
	}
	if !(c.QuadtreeRadius > 0) {
		c.QuadtreeRadius = d.QuadtreeRadius
	}
	if !(c.MinPickRadius > 0) {
		c.MinPickRadius = d.MinPickRadius
	}
	if !(c.MaxPickRadius > 0) {
		c.MaxPickRadius = d.MaxPickRadius
	}
	if !(c.CenterRadius > 0) {
		c.CenterRadius = d.CenterRadius
	}
	if c.CenterCount <= 0 {
		c.CenterCount = d.CenterCount
	}
	if c.CenterDebounce <= 0 {
		c.CenterDebounce = d.CenterDebounce
	}
	if !(c.ZoomOutFactor > 0) {
		c.ZoomOutFactor = d.ZoomOutFactor
	}
	if !(c.ClickDeadZone > 0) {
		c.ClickDeadZone = d.ClickDeadZone
	}
	return c
}
