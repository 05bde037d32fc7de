// Package config loads latentmap settings from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"latentmap/internal/scatter"
)

// Color modes accepted in the file and environment.
const (
	ColorAuto  = "auto"
	ColorLight = "light"
	ColorDark  = "dark"
)

var (
	ErrZoom      = errors.New("config: zoom bounds must be positive with min_zoom <= max_zoom")
	ErrColorMode = errors.New("config: color_mode must be auto, light or dark")
	ErrRadius    = errors.New("config: pick radii must be positive with min_pick_radius <= max_pick_radius")
)

type Config struct {
	MinZoom           float64       `yaml:"min_zoom"`
	MaxZoom           float64       `yaml:"max_zoom"`
	PointScale        float64       `yaml:"point_scale"` // zero picks a preset from the row count
	QuadtreeRadius    float64       `yaml:"quadtree_radius"`
	MinPickRadius     float64       `yaml:"min_pick_radius"`
	MaxPickRadius     float64       `yaml:"max_pick_radius"`
	CenterRadius      float64       `yaml:"center_radius"`
	CenterCount       int           `yaml:"center_count"`
	CenterDebounce    time.Duration `yaml:"center_debounce"`
	ZoomOutFactor     float64       `yaml:"zoom_out_factor"`
	ColorMode         string        `yaml:"color_mode"`
	IgnoreNotSelected bool          `yaml:"ignore_not_selected"`
	Strict            bool          `yaml:"strict"`

	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default mirrors scatter.DefaultConfig plus host settings. PointScale is
// left at zero (automatic).
func Default() Config {
	d := scatter.DefaultConfig()
	return Config{
		MinZoom:        d.MinZoom,
		MaxZoom:        d.MaxZoom,
		QuadtreeRadius: d.QuadtreeRadius,
		MinPickRadius:  d.MinPickRadius,
		MaxPickRadius:  d.MaxPickRadius,
		CenterRadius:   d.CenterRadius,
		CenterCount:    d.CenterCount,
		CenterDebounce: d.CenterDebounce,
		ZoomOutFactor:  d.ZoomOutFactor,
		ColorMode:      ColorAuto,
		LogLevel:       "info",
	}
}

// Load applies defaults, then the YAML file at path (skipped when empty),
// then LATENTMAP_* environment variables, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("LATENTMAP_LOG_LEVEL", &c.LogLevel)
	set("LATENTMAP_LOG_FILE", &c.LogFile)
	set("LATENTMAP_METRICS_ADDR", &c.MetricsAddr)
	set("LATENTMAP_COLOR_MODE", &c.ColorMode)
}

// Validate rejects settings the engine cannot work with.
func (c Config) Validate() error {
	if !(c.MinZoom > 0) || !(c.MaxZoom > 0) || c.MinZoom > c.MaxZoom {
		return fmt.Errorf("%w: got [%g, %g]", ErrZoom, c.MinZoom, c.MaxZoom)
	}
	if !(c.MinPickRadius > 0) || c.MinPickRadius > c.MaxPickRadius {
		return fmt.Errorf("%w: got [%g, %g]", ErrRadius, c.MinPickRadius, c.MaxPickRadius)
	}
	switch strings.ToLower(c.ColorMode) {
	case ColorAuto, ColorLight, ColorDark, "":
	default:
		return fmt.Errorf("%w: got %q", ErrColorMode, c.ColorMode)
	}
	return nil
}

// Scatter converts to engine settings. dark decides the auto color mode.
func (c Config) Scatter(dark bool) scatter.Config {
	mode := scatter.Light
	switch strings.ToLower(c.ColorMode) {
	case ColorDark:
		mode = scatter.Dark
	case ColorLight:
	default:
		if dark {
			mode = scatter.Dark
		}
	}
	return scatter.Config{
		MinZoom:           c.MinZoom,
		MaxZoom:           c.MaxZoom,
		PointScale:        c.PointScale,
		QuadtreeRadius:    c.QuadtreeRadius,
		MinPickRadius:     c.MinPickRadius,
		MaxPickRadius:     c.MaxPickRadius,
		CenterRadius:      c.CenterRadius,
		CenterCount:       c.CenterCount,
		CenterDebounce:    c.CenterDebounce,
		ZoomOutFactor:     c.ZoomOutFactor,
		ColorMode:         mode,
		IgnoreNotSelected: c.IgnoreNotSelected,
		Strict:            c.Strict,
	}
}
