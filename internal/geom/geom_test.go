package geom

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestLoadCSV_columnsAndAlignment(t *testing.T) {
	p := write(t, "cloud.csv", `Label,X,Y,cluster,deleted,activation
alpha,1,2,0,false,0.5
beta,oops,3,0,,
gamma,5,6,1,true,
`)
	d, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d.Len() != 3 {
		t.Fatalf("expected 3 rows including the bad one, got %d", d.Len())
	}
	if !math.IsNaN(d.Points[1][0]) {
		t.Fatalf("expected unparseable x to be NaN, got %v", d.Points[1])
	}
	if d.Label[2] != "gamma" || d.Cluster[2] != 1 || !d.Deleted[2] {
		t.Fatalf("unexpected row 2: label=%q cluster=%d deleted=%v", d.Label[2], d.Cluster[2], d.Deleted[2])
	}
	if d.Activation[0] != 0.5 || !math.IsNaN(d.Activation[2]) {
		t.Fatalf("unexpected activations %v", d.Activation)
	}
	want := BBox{MinX: 1, MinY: 2, MaxX: 5, MaxY: 6}
	if d.BBox != want {
		t.Fatalf("expected bbox %+v, got %+v", want, d.BBox)
	}
}

func TestLoadCSV_errors(t *testing.T) {
	if _, err := LoadCSV(write(t, "a.csv", "a,b\n1,2\n")); err == nil {
		t.Fatalf("expected error for missing coordinate columns")
	}
	if _, err := LoadCSV(write(t, "b.csv", "x,y\nfoo,bar\n")); !errors.Is(err, ErrNoPoints) {
		t.Fatalf("expected ErrNoPoints, got %v", err)
	}
}

func TestParseGeoJSON_featureProperties(t *testing.T) {
	d, err := ParseGeoJSON([]byte(`{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]},
     "properties": {"name": "origin", "cluster": 2, "activation": 0.9}},
    {"type": "Feature", "geometry": {"type": "MultiPoint", "coordinates": [[1, 1], [2, 2]]},
     "properties": {"deleted": true}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[5, 5], [6, 6]]}}
  ]
}`))
	if err != nil {
		t.Fatalf("ParseGeoJSON: %v", err)
	}
	if d.Len() != 3 {
		t.Fatalf("expected 3 point rows, got %d", d.Len())
	}
	if d.Label[0] != "origin" || d.Cluster[0] != 2 || d.Activation[0] != 0.9 {
		t.Fatalf("unexpected row 0 metadata")
	}
	if !d.Deleted[1] || !d.Deleted[2] || d.Cluster[1] != -1 {
		t.Fatalf("expected multipoint rows to share properties")
	}
	if _, err := ParseGeoJSON([]byte(`{"type":"Polygon","coordinates":[]}`)); err == nil {
		t.Fatalf("expected unsupported top-level type to fail")
	}
}

func TestLoadKML_foldersBecomeClusters(t *testing.T) {
	p := write(t, "pins.kml", `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark><name>loose</name><Point><coordinates>1,2,0</coordinates></Point></Placemark>
    <Folder>
      <Placemark><name>a</name><Point><coordinates>3,4</coordinates></Point></Placemark>
      <Placemark><name>b</name><Point><coordinates>5,6</coordinates></Point></Placemark>
    </Folder>
  </Document>
</kml>`)
	d, err := LoadKML(p)
	if err != nil {
		t.Fatalf("LoadKML: %v", err)
	}
	if d.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", d.Len())
	}
	if d.Label[0] != "loose" || d.Cluster[0] != -1 {
		t.Fatalf("unexpected loose placemark: %q %d", d.Label[0], d.Cluster[0])
	}
	if d.Cluster[1] != 0 || d.Cluster[2] != 0 || d.Label[2] != "b" {
		t.Fatalf("expected folder rows in cluster 0")
	}
}

func TestParseWKT(t *testing.T) {
	d, err := ParseWKT("MULTIPOINT ((1 2), (3 4), (5 6))")
	if err != nil {
		t.Fatalf("ParseWKT: %v", err)
	}
	if d.Len() != 3 || d.Points[2] != [2]float64{5, 6} {
		t.Fatalf("unexpected points %v", d.Points)
	}
	d, err = ParseWKT("POLYGON((0 0, 4 0, 4 4, 0 4, 0 0))")
	if err != nil {
		t.Fatalf("ParseWKT polygon: %v", err)
	}
	if d.Len() != 4 {
		t.Fatalf("expected closing vertex dropped, got %d rows", d.Len())
	}
	if _, err := ParseWKT("CIRCLE(1 2)"); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	if _, err := ParseWKT("POINT(a b)"); !errors.Is(err, ErrNoPoints) {
		t.Fatalf("expected ErrNoPoints, got %v", err)
	}
}

func TestLoadWKT_linesBecomeClusters(t *testing.T) {
	p := write(t, "shapes.wkt", "POINT(0 0)\n\nMULTIPOINT(1 1, 2 2)\n")
	d, err := LoadWKT(p)
	if err != nil {
		t.Fatalf("LoadWKT: %v", err)
	}
	if d.Len() != 3 || d.Cluster[0] != 0 || d.Cluster[2] != 1 {
		t.Fatalf("unexpected clusters %v", d.Cluster)
	}
}

func TestNormalized_preservesAspectAndRows(t *testing.T) {
	d := &Dataset{}
	d.Add(NewRow(10, 100))
	d.Add(NewRow(30, 110))
	d.Add(NewRow(math.NaN(), 0))
	n := d.Normalized()
	if n.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", n.Len())
	}
	if n.Points[0] != [2]float64{-1, -0.5} || n.Points[1] != [2]float64{1, 0.5} {
		t.Fatalf("unexpected normalized points %v", n.Points)
	}
	if !math.IsNaN(n.Points[2][0]) {
		t.Fatalf("expected NaN row to stay NaN")
	}

	single := &Dataset{}
	single.Add(NewRow(7, 7))
	if got := single.Normalized().Points[0]; got != [2]float64{0, 0} {
		t.Fatalf("expected a single point at the origin, got %v", got)
	}
}

func TestHulls(t *testing.T) {
	d := &Dataset{}
	for _, p := range [][2]float64{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {1, 1}} {
		r := NewRow(p[0], p[1])
		r.Cluster = 4
		d.Add(r)
	}
	gone := NewRow(9, 9)
	gone.Cluster, gone.Deleted = 4, true
	d.Add(gone)
	line := NewRow(0, 0)
	line.Cluster = 7
	d.Add(line)

	h := d.Hulls()
	if len(h) != 1 {
		t.Fatalf("expected one hull, got %v", h)
	}
	want := []int{0, 1, 2, 3}
	got := h[4]
	if len(got) != len(want) {
		t.Fatalf("expected hull %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected hull %v, got %v", want, got)
		}
	}
	if ids := d.Clusters(); len(ids) != 2 || ids[0] != 4 || ids[1] != 7 {
		t.Fatalf("expected clusters [4 7], got %v", ids)
	}
}

func TestQuery(t *testing.T) {
	d := &Dataset{}
	for _, l := range []string{"Apple pie", "banana", "PINEAPPLE", ""} {
		r := NewRow(0, 0)
		r.Label = l
		d.Add(r)
	}
	if got := d.Query(" 1, 3 ,99"); len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("expected [1 3], got %v", got)
	}
	if got := d.Query("apple"); len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Fatalf("expected [0 2], got %v", got)
	}
	if got := d.Query("  "); got != nil {
		t.Fatalf("expected nil for empty query, got %v", got)
	}
}

func TestSnapshot_roundTrip(t *testing.T) {
	d := &Dataset{}
	r := NewRow(0.25, -0.5)
	r.Cluster, r.Label, r.Activation = 3, "héllo", 0.7
	d.Add(r)
	gone := NewRow(math.NaN(), 1)
	gone.Deleted = true
	d.Add(gone)

	p := filepath.Join(t.TempDir(), "cloud"+SnapshotExt)
	if err := SaveSnapshot(p, d); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != 2 || got.Points[0] != d.Points[0] || got.Label[0] != "héllo" || got.Cluster[0] != 3 {
		t.Fatalf("unexpected row 0 after round trip")
	}
	if !got.Deleted[1] || !math.IsNaN(got.Points[1][0]) || !math.IsNaN(got.Activation[1]) {
		t.Fatalf("unexpected row 1 after round trip")
	}
	if got.BBox != d.BBox {
		t.Fatalf("expected bbox %+v, got %+v", d.BBox, got.BBox)
	}
}

func TestLoadSnapshot_rejectsOtherFiles(t *testing.T) {
	if _, err := LoadSnapshot(write(t, "x.lsz", "definitely not zstd")); err == nil {
		t.Fatalf("expected error for a non-snapshot file")
	}
	if _, err := Load(write(t, "x.shp", "")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if Supported("a.txt") || !Supported("A.CSV") {
		t.Fatalf("unexpected Supported result")
	}
}
