package scatter

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
)

var square = Viewport{Width: 512, Height: 512}

func newTestPicker(cfg Config, pts ...Point) (*Picker, *PointSet) {
	p := NewPicker(cfg, zerolog.Nop(), nil)
	ps := NewPointSet(pts)
	p.SetPoints(ps)
	return p, ps
}

func TestPicker_threePointsOnAxis(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QuadtreeRadius = 15
	p, _ := newTestPicker(cfg,
		Point{X: 0, Y: 0},
		Point{X: 0.5, Y: 0},
		Point{X: -0.5, Y: 0},
	)

	if i, ok := p.Pick(square, Identity, 256, 256); !ok || i != 0 {
		t.Fatalf("expected row 0 at the center, got %d (%v)", i, ok)
	}
	if i, ok := p.Pick(square, Identity, 356, 256); !ok || i != 1 {
		t.Fatalf("expected row 1 at center+100px, got %d (%v)", i, ok)
	}
	if p.State() != IndexBuilt {
		t.Fatalf("expected built index, got %s", p.State())
	}
}

func TestPicker_randomCloudNeverPanics(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pts := make([]Point, 10000)
	for i := range pts {
		pts[i] = Point{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1}
	}
	p, _ := newTestPicker(DefaultConfig(), pts...)
	for i := 0; i < 100; i++ {
		idx, ok := p.Pick(square, Identity, rng.Float64()*512, rng.Float64()*512)
		if ok && (idx < 0 || idx > 9999) {
			t.Fatalf("expected index in [0,9999], got %d", idx)
		}
		if !ok && idx != -1 {
			t.Fatalf("expected -1 on miss, got %d", idx)
		}
	}
}

func TestPicker_hiddenRowLeavesResultsButKeepsAlignment(t *testing.T) {
	p, ps := newTestPicker(DefaultConfig(),
		Point{X: 0, Y: 0},
		Point{X: 0.5, Y: 0},
		Point{X: -0.5, Y: 0},
	)
	sx, sy := DataToScreen(square, Identity, 0.5, 0)
	if i, ok := p.Pick(square, Identity, sx, sy); !ok || i != 1 {
		t.Fatalf("expected row 1 before hiding, got %d (%v)", i, ok)
	}

	hidden := ps.WithCategory(1, Hidden)
	p.SetPoints(hidden)
	if p.State() != IndexStale {
		t.Fatalf("expected stale index after a new set, got %s", p.State())
	}
	if _, ok := p.Pick(square, Identity, sx, sy); ok {
		t.Fatalf("expected hidden row to be unpickable")
	}
	if hidden.Len() != 3 {
		t.Fatalf("expected length 3, got %d", hidden.Len())
	}
	if x, y := hidden.At(1).Position(); x != SentinelX || y != SentinelY {
		t.Fatalf("expected sentinel coordinate, got (%f, %f)", x, y)
	}
	if got := hidden.At(2); got.X != -0.5 {
		t.Fatalf("expected row 2 untouched, got %+v", got)
	}
	if hidden.ID() == ps.ID() {
		t.Fatalf("expected a new identity")
	}
}

func TestPicker_roundTripIdentity(t *testing.T) {
	var pts []Point
	for gx := 0; gx < 20; gx++ {
		for gy := 0; gy < 20; gy++ {
			pts = append(pts, Point{X: -0.95 + float64(gx)*0.1, Y: -0.95 + float64(gy)*0.1})
		}
	}
	p, _ := newTestPicker(DefaultConfig(), pts...)
	for i, pt := range pts {
		sx, sy := DataToScreen(square, Identity, pt.X, pt.Y)
		if got, ok := p.Pick(square, Identity, sx, sy); !ok || got != i {
			t.Fatalf("expected row %d, got %d (%v)", i, got, ok)
		}
	}
}

func TestPicker_rebuildIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	pts := make([]Point, 3000)
	for i := range pts {
		// coarse grid forces duplicates
		pts[i] = Point{X: math.Round((rng.Float64()*2-1)*20) / 20, Y: math.Round((rng.Float64()*2-1)*20) / 20}
	}
	a, _ := newTestPicker(DefaultConfig(), pts...)
	b, _ := newTestPicker(DefaultConfig(), pts...)
	for i := 0; i < 200; i++ {
		x, y := rng.Float64()*512, rng.Float64()*512
		ia, oka := a.Pick(square, Identity, x, y)
		ib, okb := b.Pick(square, Identity, x, y)
		if ia != ib || oka != okb {
			t.Fatalf("expected identical picks at (%f, %f), got %d and %d", x, y, ia, ib)
		}
	}
}

func TestPickRadius_nonIncreasingInZoom(t *testing.T) {
	cfg := DefaultConfig()
	prev := math.Inf(1)
	for k := cfg.MinZoom; k <= cfg.MaxZoom; k += 0.05 {
		r := PickRadius(k, cfg.QuadtreeRadius, cfg.MinPickRadius, cfg.MaxPickRadius)
		if r > prev {
			t.Fatalf("radius grew at k=%f: %f > %f", k, r, prev)
		}
		if r < cfg.MinPickRadius || r > cfg.MaxPickRadius {
			t.Fatalf("radius %f outside [%f, %f]", r, cfg.MinPickRadius, cfg.MaxPickRadius)
		}
		prev = r
	}
}

func TestPickRadius_nonFiniteClampsToFloor(t *testing.T) {
	for _, k := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if r := PickRadius(k, 10, 2, 64); r != 2 {
			t.Fatalf("expected floor radius for k=%v, got %f", k, r)
		}
	}
	if r := PickRadius(1, 10, 0, 64); !(r > 0) {
		t.Fatalf("expected positive radius, got %f", r)
	}
}

func TestPicker_restrictedMode(t *testing.T) {
	p, _ := newTestPicker(DefaultConfig(),
		Point{X: 0, Y: 0},
		Point{X: 0.5, Y: 0},
		Point{X: -0.5, Y: 0},
	)
	p.SetRestriction([]int{2})
	if !p.Restricted() {
		t.Fatalf("expected restricted mode")
	}
	if _, ok := p.Pick(square, Identity, 256, 256); ok {
		t.Fatalf("expected row 0 to be out of scope")
	}
	if i, ok := p.Pick(square, Identity, 128, 256); !ok || i != 2 {
		t.Fatalf("expected row 2, got %d (%v)", i, ok)
	}
	p.SetRestriction(nil)
	if i, ok := p.Pick(square, Identity, 256, 256); !ok || i != 0 {
		t.Fatalf("expected row 0 after lifting restriction, got %d (%v)", i, ok)
	}
}

func TestPicker_ignoreNotSelected(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IgnoreNotSelected = true
	p, _ := newTestPicker(cfg,
		Point{X: 0, Y: 0, Category: NotSelected},
		Point{X: 0.02, Y: 0, Category: Selected},
	)
	if i, ok := p.Pick(square, Identity, 256, 256); !ok || i != 1 {
		t.Fatalf("expected the selected row, got %d (%v)", i, ok)
	}
	p.SetIgnoreNotSelected(false)
	if i, ok := p.Pick(square, Identity, 256, 256); !ok || i != 0 {
		t.Fatalf("expected row 0 once all rows are in scope, got %d (%v)", i, ok)
	}
}

func TestPicker_staleBuildIsDiscarded(t *testing.T) {
	m := NewMetrics()
	p := NewPicker(DefaultConfig(), zerolog.Nop(), m)
	first := NewPointSet([]Point{{X: 0, Y: 0}})
	second := NewPointSet([]Point{{X: 0.5, Y: 0.5}})

	p.SetPoints(first)
	build := p.Build(first)
	p.SetPoints(second)
	if p.Apply(build) {
		t.Fatalf("expected build for a replaced set to be discarded")
	}
	if p.State() != IndexStale {
		t.Fatalf("expected index to stay stale, got %s", p.State())
	}

	build = p.Build(second)
	p.SetRestriction([]int{0})
	if p.Apply(build) {
		t.Fatalf("expected build from before a scope change to be discarded")
	}

	if !p.Apply(p.Build(second)) {
		t.Fatalf("expected current build to apply")
	}
	if p.State() != IndexBuilt {
		t.Fatalf("expected built, got %s", p.State())
	}
}

func TestPicker_emptyAndDegenerate(t *testing.T) {
	p := NewPicker(DefaultConfig(), zerolog.Nop(), nil)
	if p.State() != IndexEmpty {
		t.Fatalf("expected empty, got %s", p.State())
	}
	if _, ok := p.Pick(square, Identity, 10, 10); ok {
		t.Fatalf("expected no hit without points")
	}
	p.SetPoints(NewPointSet([]Point{{X: 0, Y: 0}}))
	if _, ok := p.Pick(Viewport{}, Identity, 0, 0); ok {
		t.Fatalf("expected no hit on a zero-size viewport")
	}
	if _, ok := p.Pick(square, Identity, math.NaN(), 0); ok {
		t.Fatalf("expected no hit for NaN input")
	}
	p.SetPoints(NewPointSet([]Point{{X: math.NaN(), Y: 0}}))
	if _, ok := p.Pick(square, Identity, 256, 256); ok {
		t.Fatalf("expected NaN points to be skipped")
	}
}

func TestPicker_nearestNAroundSymmetricCloud(t *testing.T) {
	pts := []Point{{X: 0, Y: 0}}
	for i := 1; i <= 4; i++ {
		d := 0.01 * float64(i)
		pts = append(pts, Point{X: d}, Point{X: -d}, Point{Y: d}, Point{Y: -d})
	}
	p, _ := newTestPicker(DefaultConfig(), pts...)
	got := p.NearestN(0, 0, 5)
	if len(got) != 5 {
		t.Fatalf("expected 5 rows, got %v", got)
	}
	if got[0] != 0 {
		t.Fatalf("expected the center row first, got %d", got[0])
	}
	ring := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, i := range got[1:] {
		if !ring[i] {
			t.Fatalf("expected only the innermost ring after the center, got %v", got)
		}
		delete(ring, i)
	}
}

func TestPicker_unhiddenRowIsPickableWhereItWas(t *testing.T) {
	p, ps := newTestPicker(DefaultConfig(),
		Point{X: 0, Y: 0},
		Point{X: 0.5, Y: 0},
	)
	shown := ps.WithCategory(1, Hidden).WithCategory(1, Normal)
	if got := shown.At(1); got.X != 0.5 || got.Y != 0 || got.Category != Normal {
		t.Fatalf("expected row 1 back at (0.5, 0), got %+v", got)
	}
	p.SetPoints(shown)
	sx, sy := DataToScreen(square, Identity, 0.5, 0)
	if i, ok := p.Pick(square, Identity, sx, sy); !ok || i != 1 {
		t.Fatalf("expected row 1 pickable again, got %d (%v)", i, ok)
	}
}
