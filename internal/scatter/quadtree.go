package scatter

import (
	"math"
	"sort"
)

// Entry is a point stored in the quadtree. Index is the row index in the
// point set; it is carried as payload and never recovered by coordinate.
type Entry struct {
	X, Y  float64
	Index int
}

const (
	leafCapacity = 8
	maxDepth     = 20
)

type box struct{ minX, minY, maxX, maxY float64 }

func (b box) contains(x, y float64) bool {
	return x >= b.minX && x <= b.maxX && y >= b.minY && y <= b.maxY
}

// outside reports whether b lies entirely outside the square of half-size
// r around (x, y).
func (b box) outside(x, y, r float64) bool {
	return b.minX > x+r || b.maxX < x-r || b.minY > y+r || b.maxY < y-r
}

// dist2 is the squared distance from (x, y) to the closest point of b.
func (b box) dist2(x, y float64) float64 {
	dx := math.Max(0, math.Max(b.minX-x, x-b.maxX))
	dy := math.Max(0, math.Max(b.minY-y, y-b.maxY))
	return dx*dx + dy*dy
}

type quadNode struct {
	box
	entries  []Entry
	children *[4]*quadNode
	depth    int
}

// Quadtree is a bucketed region quadtree over a fixed entry set. Query
// results are deterministic for a given insertion order.
type Quadtree struct {
	root *quadNode
	size int
}

// NewQuadtree indexes entries in order. Entries with non-finite coordinates
// are skipped.
func NewQuadtree(entries []Entry) *Quadtree {
	b, ok := boundsOf(entries)
	q := &Quadtree{}
	if !ok {
		return q
	}
	q.root = &quadNode{box: b}
	for _, e := range entries {
		if !finite(e.X) || !finite(e.Y) {
			continue
		}
		q.root.insert(e)
		q.size++
	}
	return q
}

// boundsOf returns a square covering all finite entries.
func boundsOf(entries []Entry) (box, bool) {
	b := box{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	n := 0
	for _, e := range entries {
		if !finite(e.X) || !finite(e.Y) {
			continue
		}
		b.minX = math.Min(b.minX, e.X)
		b.minY = math.Min(b.minY, e.Y)
		b.maxX = math.Max(b.maxX, e.X)
		b.maxY = math.Max(b.maxY, e.Y)
		n++
	}
	if n == 0 {
		return box{}, false
	}
	side := math.Max(b.maxX-b.minX, b.maxY-b.minY)
	if side <= 0 {
		side = 1e-9
	}
	b.maxX = b.minX + side
	b.maxY = b.minY + side
	return b, true
}

func (n *quadNode) insert(e Entry) {
	if n.children == nil {
		if len(n.entries) < leafCapacity || n.depth >= maxDepth {
			n.entries = append(n.entries, e)
			return
		}
		n.split()
	}
	n.children[n.quadrant(e.X, e.Y)].insert(e)
}

func (n *quadNode) split() {
	mx, my := (n.minX+n.maxX)/2, (n.minY+n.maxY)/2
	d := n.depth + 1
	n.children = &[4]*quadNode{
		{box: box{n.minX, n.minY, mx, my}, depth: d},
		{box: box{mx, n.minY, n.maxX, my}, depth: d},
		{box: box{n.minX, my, mx, n.maxY}, depth: d},
		{box: box{mx, my, n.maxX, n.maxY}, depth: d},
	}
	entries := n.entries
	n.entries = nil
	for _, e := range entries {
		n.children[n.quadrant(e.X, e.Y)].insert(e)
	}
}

func (n *quadNode) quadrant(x, y float64) int {
	mx, my := (n.minX+n.maxX)/2, (n.minY+n.maxY)/2
	i := 0
	if x >= mx {
		i |= 1
	}
	if y >= my {
		i |= 2
	}
	return i
}

// Len is the number of indexed entries.
func (q *Quadtree) Len() int {
	if q == nil {
		return 0
	}
	return q.size
}

// Nearest returns the closest entry within radius r of (x, y). When several
// entries are equally close the first one met in traversal order wins.
func (q *Quadtree) Nearest(x, y, r float64) (Entry, bool) {
	if q.Len() == 0 || !finite(x) || !finite(y) || !(r > 0) {
		return Entry{}, false
	}
	best := Entry{}
	bestD := math.Inf(1)
	found := false
	var walk func(n *quadNode)
	walk = func(n *quadNode) {
		if n.outside(x, y, r) || n.dist2(x, y) > bestD {
			return
		}
		for _, e := range n.entries {
			dx, dy := e.X-x, e.Y-y
			if d := dx*dx + dy*dy; d < bestD {
				best, bestD, found = e, d, true
			}
		}
		if n.children != nil {
			for _, c := range n.children {
				walk(c)
			}
		}
	}
	walk(q.root)
	if !found || math.Sqrt(bestD) > r {
		return Entry{}, false
	}
	return best, true
}

type ranked struct {
	e Entry
	d float64
}

// NearestN collects up to n entries within the square of half-size r around
// (x, y), ordered by increasing distance.
func (q *Quadtree) NearestN(x, y, r float64, n int) []Entry {
	if q.Len() == 0 || n <= 0 || !finite(x) || !finite(y) || !(r > 0) {
		return nil
	}
	list := make([]ranked, 0, n)
	var walk func(nd *quadNode)
	walk = func(nd *quadNode) {
		if nd.outside(x, y, r) {
			return
		}
		if len(list) == n && nd.dist2(x, y) >= list[n-1].d {
			return
		}
		for _, e := range nd.entries {
			dx, dy := e.X-x, e.Y-y
			if math.Abs(dx) > r || math.Abs(dy) > r {
				continue
			}
			d := dx*dx + dy*dy
			if len(list) == n && d >= list[n-1].d {
				continue
			}
			// insert after equal distances so earlier entries keep their place
			at := sort.Search(len(list), func(i int) bool { return list[i].d > d })
			if len(list) < n {
				list = append(list, ranked{})
			}
			copy(list[at+1:], list[at:len(list)-1])
			list[at] = ranked{e, d}
		}
		if nd.children != nil {
			for _, c := range nd.children {
				walk(c)
			}
		}
	}
	walk(q.root)
	out := make([]Entry, len(list))
	for i, r := range list {
		out[i] = r.e
	}
	return out
}
