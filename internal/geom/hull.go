package geom

import (
	"math"
	"sort"
)

// Hulls returns, per cluster id, the row indices of the cluster's convex
// hull in counter-clockwise order. Deleted rows and rows with non-finite
// coordinates are ignored; clusters with fewer than three usable rows get
// no hull.
func (d *Dataset) Hulls() map[int][]int {
	members := map[int][]int{}
	for i, c := range d.Cluster {
		if c < 0 || d.Deleted[i] {
			continue
		}
		p := d.Points[i]
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			continue
		}
		members[c] = append(members[c], i)
	}
	out := make(map[int][]int, len(members))
	for c, idx := range members {
		if h := convexHull(d.Points, idx); len(h) >= 3 {
			out[c] = h
		}
	}
	return out
}

// convexHull is Andrew's monotone chain over the rows in idx.
func convexHull(pts [][2]float64, idx []int) []int {
	if len(idx) < 3 {
		return nil
	}
	s := append([]int(nil), idx...)
	sort.Slice(s, func(a, b int) bool {
		pa, pb := pts[s[a]], pts[s[b]]
		if pa[0] != pb[0] {
			return pa[0] < pb[0]
		}
		if pa[1] != pb[1] {
			return pa[1] < pb[1]
		}
		return s[a] < s[b]
	})
	cross := func(o, a, b int) float64 {
		po, pa, pb := pts[o], pts[a], pts[b]
		return (pa[0]-po[0])*(pb[1]-po[1]) - (pa[1]-po[1])*(pb[0]-po[0])
	}
	hull := make([]int, 0, 2*len(s))
	for _, i := range s {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], i) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	lower := len(hull) + 1
	for k := len(s) - 2; k >= 0; k-- {
		i := s[k]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], i) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	return hull[:len(hull)-1]
}
