package scatter

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

type fakeSurface struct {
	allocs  []int
	uploads int
	clears  []color.RGBA
	draws   []Uniforms
	last    Attributes
	failOn  error
}

func (f *fakeSurface) Allocate(n int) error {
	if f.failOn != nil {
		return f.failOn
	}
	f.allocs = append(f.allocs, n)
	return nil
}

func (f *fakeSurface) Upload(a Attributes) error {
	f.uploads++
	f.last = a
	return nil
}

func (f *fakeSurface) Clear(c color.RGBA)    { f.clears = append(f.clears, c) }
func (f *fakeSurface) DrawPoints(u Uniforms) { f.draws = append(f.draws, u) }

func newTestRenderer(t *testing.T, s Surface) *Renderer {
	t.Helper()
	r, err := NewRenderer(s, DefaultConfig(), zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestNewRenderer_nilSurface(t *testing.T) {
	if _, err := NewRenderer(nil, DefaultConfig(), zerolog.Nop(), nil); !errors.Is(err, ErrNoSurface) {
		t.Fatalf("expected ErrNoSurface, got %v", err)
	}
}

func TestRenderer_reallocatesOnlyWhenCountChanges(t *testing.T) {
	s := &fakeSurface{}
	r := newTestRenderer(t, s)

	if err := r.SetPoints(NewPointSet(make([]Point, 3))); err != nil {
		t.Fatalf("SetPoints: %v", err)
	}
	if err := r.SetPoints(NewPointSet(make([]Point, 3))); err != nil {
		t.Fatalf("SetPoints: %v", err)
	}
	if len(s.allocs) != 1 || s.allocs[0] != 3 {
		t.Fatalf("expected a single allocation of 3, got %v", s.allocs)
	}
	if s.uploads != 2 {
		t.Fatalf("expected 2 uploads, got %d", s.uploads)
	}

	if err := r.SetPoints(NewPointSet(make([]Point, 5))); err != nil {
		t.Fatalf("SetPoints: %v", err)
	}
	if len(s.allocs) != 2 || s.allocs[1] != 5 {
		t.Fatalf("expected reallocation to 5, got %v", s.allocs)
	}
}

func TestRenderer_sameSetIsNoop(t *testing.T) {
	s := &fakeSurface{}
	r := newTestRenderer(t, s)
	ps := NewPointSet(make([]Point, 2))
	_ = r.SetPoints(ps)
	_ = r.SetPoints(ps)
	if s.uploads != 1 {
		t.Fatalf("expected 1 upload for the same identity, got %d", s.uploads)
	}
}

func TestRenderer_allocationErrorIsWrapped(t *testing.T) {
	boom := errors.New("out of memory")
	r := newTestRenderer(t, &fakeSurface{failOn: boom})
	if err := r.SetPoints(NewPointSet(make([]Point, 4))); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped allocation error, got %v", err)
	}
}

func TestRenderer_categoryTables(t *testing.T) {
	s := &fakeSurface{}
	r := newTestRenderer(t, s)
	_ = r.SetPoints(NewPointSet([]Point{
		{X: 0.1, Y: 0.2, Category: Normal},
		{X: 0.3, Y: 0.4, Category: Selected},
		{X: 0.5, Y: 0.6, Category: NotSelected},
		{X: 0.7, Y: 0.8, Category: Hidden},
	}))
	a := s.last
	if a.Opacity[0] != 0.75 || a.Opacity[1] != 1 || a.Opacity[2] != 0.75 || a.Opacity[3] != 0 {
		t.Fatalf("unexpected opacity %v", a.Opacity)
	}
	if a.Size[1] != 3.5 || a.Size[2] != 2 || a.Size[3] != 0 {
		t.Fatalf("unexpected size %v", a.Size)
	}
	if a.Positions[6] != SentinelX || a.Positions[7] != SentinelY {
		t.Fatalf("expected hidden row at the sentinel, got (%f, %f)", a.Positions[6], a.Positions[7])
	}
	if a.Positions[2] != float32(0.3) {
		t.Fatalf("expected row 1 x of 0.3, got %f", a.Positions[2])
	}
}

func TestRenderer_colorModeLeavesBuffersAlone(t *testing.T) {
	s := &fakeSurface{}
	r := newTestRenderer(t, s)
	_ = r.SetPoints(NewPointSet(make([]Point, 3)))
	uploads := s.uploads

	r.SetColorMode(Dark)
	if s.uploads != uploads || len(s.allocs) != 1 {
		t.Fatalf("expected no buffer traffic on color mode change")
	}
	r.Draw(square, Identity)
	if s.clears[0] != ClearColor(Dark) {
		t.Fatalf("expected dark clear color, got %v", s.clears[0])
	}
	if s.draws[0].Blend != BlendAdditive {
		t.Fatalf("expected additive blending in dark mode")
	}

	r.SetColorMode(Light)
	r.Draw(square, Identity)
	if s.clears[1] != (color.RGBA{0xfa, 0xfa, 0xfa, 0xff}) || s.draws[1].Blend != BlendPremultiplied {
		t.Fatalf("expected light clear color with premultiplied blending")
	}
}

func TestRenderer_skipsEmptyAndDegenerate(t *testing.T) {
	s := &fakeSurface{}
	r := newTestRenderer(t, s)
	if r.Draw(square, Identity) {
		t.Fatalf("expected empty set to skip drawing")
	}
	_ = r.SetPoints(NewPointSet(make([]Point, 1)))
	if r.Draw(Viewport{Width: 0, Height: 10}, Identity) {
		t.Fatalf("expected zero-width viewport to skip drawing")
	}
	if r.Draw(square, Transform{K: math.NaN()}) {
		t.Fatalf("expected NaN transform to skip drawing")
	}
	if len(s.draws) != 0 || len(s.clears) != 0 {
		t.Fatalf("expected no surface calls, got %d draws", len(s.draws))
	}
}

func TestRenderer_featureHighlightOnlyAffectsSelected(t *testing.T) {
	s := &fakeSurface{}
	r := newTestRenderer(t, s)
	_ = r.SetPoints(NewPointSet([]Point{
		{Category: Selected, Activation: 0.2, HasActivation: true},
		{Category: Selected, Activation: 0.4, HasActivation: true},
		{Category: Normal, Activation: 0.9, HasActivation: true},
		{Category: Selected},
	}))
	allocs := len(s.allocs)
	if err := r.SetFeatureHighlight(true); err != nil {
		t.Fatalf("SetFeatureHighlight: %v", err)
	}
	if len(s.allocs) != allocs {
		t.Fatalf("expected in-place upload")
	}
	a := s.last
	// activations are normalized by the largest selected one (0.4)
	if !near(float64(a.Opacity[0]), 1) {
		t.Fatalf("expected 0.2/0.4+0.5 clamped to 1, got %f", a.Opacity[0])
	}
	if a.Opacity[1] != 1 {
		t.Fatalf("expected strongest activation at full opacity, got %f", a.Opacity[1])
	}
	if a.Opacity[2] != 0.75 {
		t.Fatalf("expected normal row to keep table opacity, got %f", a.Opacity[2])
	}
	if a.Opacity[3] != 1 {
		t.Fatalf("expected selected row without activation to keep table opacity, got %f", a.Opacity[3])
	}
	if a.Size[0] != 3.5 {
		t.Fatalf("expected size untouched, got %f", a.Size[0])
	}
}

func TestDotScaleFactor_boundsAndGrowth(t *testing.T) {
	if got := DotScaleFactor(0, 40); got != 1.25 {
		t.Fatalf("expected floor 1.25, got %f", got)
	}
	if got := DotScaleFactor(40, 40); got != 5.25 {
		t.Fatalf("expected ceiling 5.25, got %f", got)
	}
	if DotScaleFactor(4, 40) <= DotScaleFactor(1, 40) {
		t.Fatalf("expected dot scale to grow with zoom")
	}
}

func TestDynamicPointScale(t *testing.T) {
	if got := DynamicPointScale(0, 100, 100); got != 1 {
		t.Fatalf("expected 1 for no points, got %f", got)
	}
	if got := DynamicPointScale(1, 4000, 4000); got != 10 {
		t.Fatalf("expected ceiling 10 for a sparse canvas, got %f", got)
	}
	if got := DynamicPointScale(1_000_000, 100, 100); got != 1 {
		t.Fatalf("expected floor 1 for a dense canvas, got %f", got)
	}
}

func TestRenderer_unhiddenRowDrawsAtSource(t *testing.T) {
	s := &fakeSurface{}
	r := newTestRenderer(t, s)
	ps := NewPointSet([]Point{{X: 0.1, Y: 0.2}, {X: 0.3, Y: 0.4}})
	_ = r.SetPoints(ps.WithCategory(1, Hidden))
	if s.last.Positions[2] != SentinelX {
		t.Fatalf("expected hidden row at the sentinel, got %f", s.last.Positions[2])
	}
	_ = r.SetPoints(ps.WithCategory(1, Hidden).WithCategory(1, Normal))
	if s.last.Positions[2] != float32(0.3) || s.last.Positions[3] != float32(0.4) {
		t.Fatalf("expected row 1 back at (0.3, 0.4), got (%f, %f)", s.last.Positions[2], s.last.Positions[3])
	}
}
