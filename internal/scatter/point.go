package scatter

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Category controls how a point is drawn and whether it can be picked.
type Category uint8

const (
	Normal Category = iota
	Selected
	NotSelected
	Hidden
)

func (c Category) String() string {
	switch c {
	case Normal:
		return "normal"
	case Selected:
		return "selected"
	case NotSelected:
		return "not-selected"
	case Hidden:
		return "hidden"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// Hidden points are parked off canvas instead of being removed, so the
// array position keeps matching the external row index.
const (
	SentinelX = -10.0
	SentinelY = -10.0
)

// Point is one row of the cloud. Position i always refers to row i. X and Y
// keep the source coordinates even while the row is hidden, so a hidden row
// can be shown again where it was.
type Point struct {
	X, Y          float64
	Category      Category
	Activation    float64
	HasActivation bool
}

// Position is where the point is drawn: the sentinel for hidden rows,
// the source coordinates otherwise.
func (p Point) Position() (float64, float64) {
	if p.Category == Hidden {
		return SentinelX, SentinelY
	}
	return p.X, p.Y
}

// Pickable reports whether the point may enter the spatial index.
func (p Point) Pickable() bool {
	return p.Category != Hidden && finite(p.X) && finite(p.Y)
}

// PointSet is an immutable, index-aligned point array with an identity.
// Buffers and the spatial index are rebuilt only when the identity changes.
type PointSet struct {
	id     uuid.UUID
	points []Point
}

// NewPointSet copies points into a new set with a fresh identity.
func NewPointSet(points []Point) *PointSet {
	ps := &PointSet{id: uuid.New(), points: make([]Point, len(points))}
	copy(ps.points, points)
	return ps
}

func (ps *PointSet) ID() uuid.UUID {
	if ps == nil {
		return uuid.Nil
	}
	return ps.id
}

func (ps *PointSet) Len() int {
	if ps == nil {
		return 0
	}
	return len(ps.points)
}

func (ps *PointSet) At(i int) Point { return ps.points[i] }

// Points exposes the backing array. Callers must not modify it.
func (ps *PointSet) Points() []Point {
	if ps == nil {
		return nil
	}
	return ps.points
}

// WithCategory returns a new set where row i has category c. Length and
// index alignment are unchanged.
func (ps *PointSet) WithCategory(i int, c Category) *PointSet {
	next := NewPointSet(ps.points)
	if i >= 0 && i < len(next.points) {
		next.points[i].Category = c
	}
	return next
}

// ErrLengthMismatch is returned in strict mode when a parallel array does
// not match the coordinate array.
var ErrLengthMismatch = errors.New("scatter: parallel array length mismatch")

// Assembler zips coordinates with per-row categories and activations.
type Assembler struct {
	// Strict turns length mismatches into errors. Outside strict mode
	// missing entries default to Normal with no activation.
	Strict bool
	Logger zerolog.Logger
}

// Assemble builds index-aligned points. cats and acts may be nil. A NaN
// activation means the row has none.
func (a Assembler) Assemble(coords [][2]float64, cats []Category, acts []float64) ([]Point, error) {
	mismatch := (cats != nil && len(cats) != len(coords)) || (acts != nil && len(acts) != len(coords))
	if mismatch {
		if a.Strict {
			return nil, fmt.Errorf("%w: coords=%d categories=%d activations=%d",
				ErrLengthMismatch, len(coords), len(cats), len(acts))
		}
		a.Logger.Warn().
			Int("coords", len(coords)).
			Int("categories", len(cats)).
			Int("activations", len(acts)).
			Msg("parallel array length mismatch, defaulting missing rows")
	}
	out := make([]Point, len(coords))
	for i, c := range coords {
		p := Point{X: c[0], Y: c[1], Category: Normal}
		if i < len(cats) {
			p.Category = cats[i]
		}
		if i < len(acts) && !math.IsNaN(acts[i]) {
			p.Activation = acts[i]
			p.HasActivation = true
		}
		if p.Category > Hidden {
			p.Category = Normal
		}
		out[i] = p
	}
	return out, nil
}
