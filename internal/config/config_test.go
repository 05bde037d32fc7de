package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"latentmap/internal/scatter"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "latentmap.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_defaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxZoom != 40 || cfg.CenterCount != 10 || cfg.CenterDebounce != 50*time.Millisecond {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_fileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
max_zoom: 12
quadtree_radius: 15
center_debounce: 120ms
color_mode: dark
ignore_not_selected: true
log_file: /tmp/latentmap.log
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxZoom != 12 || cfg.QuadtreeRadius != 15 || cfg.CenterDebounce != 120*time.Millisecond {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.MinZoom != 0.75 {
		t.Fatalf("expected untouched default min_zoom, got %f", cfg.MinZoom)
	}
	sc := cfg.Scatter(false)
	if sc.ColorMode != scatter.Dark || !sc.IgnoreNotSelected || sc.MaxZoom != 12 {
		t.Fatalf("unexpected engine config %+v", sc)
	}
}

func TestLoad_envOverridesFile(t *testing.T) {
	path := writeFile(t, "log_level: debug\ncolor_mode: dark\n")
	t.Setenv("LATENTMAP_LOG_LEVEL", "error")
	t.Setenv("LATENTMAP_COLOR_MODE", "light")
	t.Setenv("LATENTMAP_METRICS_ADDR", "127.0.0.1:9109")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "error" || cfg.ColorMode != "light" || cfg.MetricsAddr != "127.0.0.1:9109" {
		t.Fatalf("expected env values, got %+v", cfg)
	}
	if cfg.Scatter(true).ColorMode != scatter.Light {
		t.Fatalf("expected explicit light mode to win over terminal detection")
	}
}

func TestLoad_rejectsInvalid(t *testing.T) {
	cases := map[string]error{
		"min_zoom: 0\n":              ErrZoom,
		"min_zoom: 5\nmax_zoom: 2\n": ErrZoom,
		"color_mode: sepia\n":        ErrColorMode,
		"min_pick_radius: 80\n":      ErrRadius,
		"max_pick_radius: -1\n":      ErrRadius,
	}
	for body, want := range cases {
		if _, err := Load(writeFile(t, body)); !errors.Is(err, want) {
			t.Fatalf("%q: expected %v, got %v", body, want, err)
		}
	}
}

func TestLoad_missingAndMalformedFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for a missing file")
	}
	if _, err := Load(writeFile(t, "max_zoom: [oops")); err == nil {
		t.Fatalf("expected error for malformed YAML")
	}
}

func TestScatter_autoFollowsTerminal(t *testing.T) {
	cfg := Default()
	if cfg.Scatter(true).ColorMode != scatter.Dark {
		t.Fatalf("expected dark on a dark terminal")
	}
	if cfg.Scatter(false).ColorMode != scatter.Light {
		t.Fatalf("expected light on a light terminal")
	}
}
