// Package geom loads point clouds from disk and prepares them for the
// scatter engine: bounding box, normalization and per-cluster outlines.
package geom

import (
	"errors"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrNoPoints    = errors.New("no points found")
	ErrUnsupported = errors.New("unsupported file type")
)

type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

func (b BBox) Width() float64  { return b.MaxX - b.MinX }
func (b BBox) Height() float64 { return b.MaxY - b.MinY }

// Dataset is a row-aligned point cloud. Row i of every column belongs to
// point i; rows are never dropped once added.
type Dataset struct {
	Points     [][2]float64
	Cluster    []int // -1 when unassigned
	Deleted    []bool
	Label      []string
	Activation []float64 // NaN when absent
	BBox       BBox

	finite int
}

// Row is one record handed to Add.
type Row struct {
	X, Y       float64
	Cluster    int
	Deleted    bool
	Label      string
	Activation float64
}

// NewRow returns a row with no cluster and no activation.
func NewRow(x, y float64) Row {
	return Row{X: x, Y: y, Cluster: -1, Activation: math.NaN()}
}

func (d *Dataset) Len() int { return len(d.Points) }

// Add appends a row and grows the bounding box over finite coordinates.
func (d *Dataset) Add(r Row) {
	d.Points = append(d.Points, [2]float64{r.X, r.Y})
	d.Cluster = append(d.Cluster, r.Cluster)
	d.Deleted = append(d.Deleted, r.Deleted)
	d.Label = append(d.Label, r.Label)
	d.Activation = append(d.Activation, r.Activation)
	if math.IsNaN(r.X) || math.IsNaN(r.Y) || math.IsInf(r.X, 0) || math.IsInf(r.Y, 0) {
		return
	}
	if d.finite == 0 {
		d.BBox = BBox{MinX: r.X, MinY: r.Y, MaxX: r.X, MaxY: r.Y}
	} else {
		if r.X < d.BBox.MinX {
			d.BBox.MinX = r.X
		}
		if r.Y < d.BBox.MinY {
			d.BBox.MinY = r.Y
		}
		if r.X > d.BBox.MaxX {
			d.BBox.MaxX = r.X
		}
		if r.Y > d.BBox.MaxY {
			d.BBox.MaxY = r.Y
		}
	}
	d.finite++
}

// Normalized returns a copy scaled into [-1,1] around the bounding box
// center. The longer side spans the full range so aspect is preserved.
func (d *Dataset) Normalized() *Dataset {
	out := &Dataset{}
	cx := (d.BBox.MinX + d.BBox.MaxX) / 2
	cy := (d.BBox.MinY + d.BBox.MaxY) / 2
	half := math.Max(d.BBox.Width(), d.BBox.Height()) / 2
	if !(half > 0) {
		half = 1
	}
	for i, p := range d.Points {
		out.Add(Row{
			X:          (p[0] - cx) / half,
			Y:          (p[1] - cy) / half,
			Cluster:    d.Cluster[i],
			Deleted:    d.Deleted[i],
			Label:      d.Label[i],
			Activation: d.Activation[i],
		})
	}
	return out
}

// Clusters lists the distinct assigned cluster ids in ascending order.
func (d *Dataset) Clusters() []int {
	seen := map[int]bool{}
	var ids []int
	for _, c := range d.Cluster {
		if c >= 0 && !seen[c] {
			seen[c] = true
			ids = append(ids, c)
		}
	}
	sort.Ints(ids)
	return ids
}

// Query resolves a selection string into row indices. A comma-separated
// list of integers selects those rows; anything else matches labels by
// case-insensitive substring. An empty query selects nothing.
func (d *Dataset) Query(q string) []int {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	var idx []int
	numeric := true
	for _, part := range strings.Split(q, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			numeric = false
			break
		}
		if n >= 0 && n < d.Len() {
			idx = append(idx, n)
		}
	}
	if numeric {
		return idx
	}
	idx = idx[:0]
	needle := strings.ToLower(q)
	for i, l := range d.Label {
		if l != "" && strings.Contains(strings.ToLower(l), needle) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Load reads any supported format, chosen by file extension.
func Load(path string) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".geojson", ".json":
		return LoadGeoJSON(path)
	case ".kml":
		return LoadKML(path)
	case ".wkt":
		return LoadWKT(path)
	case SnapshotExt:
		return LoadSnapshot(path)
	default:
		return nil, ErrUnsupported
	}
}

// Supported reports whether Load understands the file's extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".geojson", ".json", ".kml", ".wkt", SnapshotExt:
		return true
	}
	return false
}

func nan() float64 { return math.NaN() }
