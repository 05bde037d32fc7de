package scatter

import (
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// IndexState is the lifecycle of the spatial index.
type IndexState int

const (
	IndexEmpty IndexState = iota
	IndexBuilt
	IndexStale
)

func (s IndexState) String() string {
	switch s {
	case IndexBuilt:
		return "built"
	case IndexStale:
		return "stale"
	default:
		return "empty"
	}
}

// minRadius keeps radius math away from zero and NaN.
const minRadius = 1e-6

// PickRadius is the hover/click search radius in untransformed screen
// pixels at zoom k. It shrinks as k grows and is clamped to [minR, maxR].
func PickRadius(k, base, minR, maxR float64) float64 {
	if !(minR > 0) {
		minR = minRadius
	}
	if maxR < minR {
		maxR = minR
	}
	if !(k > 0) || !finite(k) {
		return minR
	}
	r := base * (1 + math.Sqrt(k)) / k
	if !finite(r) {
		return minR
	}
	return clamp(r, minR, maxR)
}

// IndexBuild is the result of indexing one point set. It only applies to
// the picker if the set is still current.
type IndexBuild struct {
	id   uuid.UUID
	gen  uint64
	tree *Quadtree
}

// Picker owns the spatial index and answers pick and nearest-N queries.
type Picker struct {
	cfg      Config
	set      *PointSet
	tree     *Quadtree
	state    IndexState
	gen      uint64 // bumped whenever the index scope changes
	restrict map[int]struct{}

	log     zerolog.Logger
	metrics *Metrics
}

func NewPicker(cfg Config, log zerolog.Logger, m *Metrics) *Picker {
	return &Picker{cfg: cfg.withDefaults(), log: log, metrics: m}
}

// State returns the index lifecycle state.
func (p *Picker) State() IndexState { return p.state }

// SetPoints marks the index stale for a new point set. A nil or empty set
// empties the index.
func (p *Picker) SetPoints(ps *PointSet) {
	if ps != nil && ps == p.set {
		return
	}
	p.set = ps
	p.invalidate()
}

// SetIgnoreNotSelected scopes the index to Selected points only.
func (p *Picker) SetIgnoreNotSelected(on bool) {
	if p.cfg.IgnoreNotSelected == on {
		return
	}
	p.cfg.IgnoreNotSelected = on
	p.invalidate()
}

// SetRestriction builds the index over only the given rows. A nil slice
// turns restricted mode off.
func (p *Picker) SetRestriction(indices []int) {
	if indices == nil {
		if p.restrict == nil {
			return
		}
		p.restrict = nil
	} else {
		p.restrict = make(map[int]struct{}, len(indices))
		for _, i := range indices {
			p.restrict[i] = struct{}{}
		}
	}
	p.invalidate()
}

// Restricted reports whether restricted mode is on.
func (p *Picker) Restricted() bool { return p.restrict != nil }

func (p *Picker) invalidate() {
	p.gen++
	p.tree = nil
	if p.set.Len() == 0 {
		p.state = IndexEmpty
		return
	}
	p.state = IndexStale
}

// Build indexes ps with the picker's current scope. It does not touch the
// picker; pass the result to Apply.
func (p *Picker) Build(ps *PointSet) IndexBuild {
	entries := make([]Entry, 0, ps.Len())
	for i, pt := range ps.Points() {
		if !pt.Pickable() {
			continue
		}
		if p.cfg.IgnoreNotSelected && pt.Category != Selected {
			continue
		}
		if p.restrict != nil {
			if _, ok := p.restrict[i]; !ok {
				continue
			}
		}
		entries = append(entries, Entry{X: pt.X, Y: pt.Y, Index: i})
	}
	return IndexBuild{id: ps.ID(), gen: p.gen, tree: NewQuadtree(entries)}
}

// Apply installs b if it was built for the current set and scope, and
// reports whether it did. Stale builds are dropped.
func (p *Picker) Apply(b IndexBuild) bool {
	if p.set == nil || b.id != p.set.ID() || b.gen != p.gen {
		p.metrics.IncStaleDiscard("index")
		p.log.Debug().Str("set", b.id.String()).Msg("discarding stale index build")
		return false
	}
	p.tree = b.tree
	p.state = IndexBuilt
	p.metrics.IncIndexRebuild()
	p.log.Debug().
		Str("set", b.id.String()).
		Int("entries", b.tree.Len()).
		Bool("restricted", p.restrict != nil).
		Msg("spatial index rebuilt")
	return true
}

func (p *Picker) ensure() bool {
	switch p.state {
	case IndexBuilt:
		return true
	case IndexStale:
		return p.Apply(p.Build(p.set))
	default:
		return false
	}
}

// Pick returns the row closest to the view coordinate (sx, sy) within the
// zoom-dependent pick radius.
func (p *Picker) Pick(vp Viewport, t Transform, sx, sy float64) (int, bool) {
	x, y, ok := ScreenToData(vp, t, sx, sy)
	if !ok || !p.ensure() {
		p.metrics.ObservePick(false)
		return -1, false
	}
	r := PickRadius(t.K, p.cfg.QuadtreeRadius, p.cfg.MinPickRadius, p.cfg.MaxPickRadius)
	// base pixels to data units; the normalized domain is 2 wide
	dataR := r * 2 / vp.Width
	if !finite(dataR) || dataR <= 0 {
		dataR = minRadius
	}
	e, hit := p.tree.Nearest(x, y, dataR)
	p.metrics.ObservePick(hit)
	if !hit {
		return -1, false
	}
	return e.Index, true
}

// NearestN returns up to n rows closest to the data coordinate (x, y)
// within the fixed center radius, nearest first.
func (p *Picker) NearestN(x, y float64, n int) []int {
	if !p.ensure() {
		return nil
	}
	entries := p.tree.NearestN(x, y, p.cfg.CenterRadius, n)
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Index
	}
	return out
}
