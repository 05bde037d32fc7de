package geom

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// LoadGeoJSON reads point rows from a GeoJSON file. Point and MultiPoint
// geometries become rows; line and polygon vertices are skipped. Feature
// properties cluster, deleted, label (or name) and activation fill the row
// metadata.
func LoadGeoJSON(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return ParseGeoJSON(data)
}

// ParseGeoJSON is LoadGeoJSON over an in-memory document.
func ParseGeoJSON(data []byte) (*Dataset, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	t, _ := raw["type"].(string)
	if t == "" {
		return nil, errors.New("invalid geojson: missing type")
	}

	d := &Dataset{}
	parsePoint := func(v any) (pt [2]float64, ok bool) {
		if a, ok := v.([]any); ok && len(a) >= 2 {
			x, xok := a[0].(float64)
			y, yok := a[1].(float64)
			if xok && yok {
				return [2]float64{x, y}, true
			}
		}
		return [2]float64{}, false
	}
	parseMulti := func(v any) (pts [][2]float64) {
		arr, _ := v.([]any)
		for _, el := range arr {
			if pt, ok := parsePoint(el); ok {
				pts = append(pts, pt)
			}
		}
		return pts
	}
	walkGeom := func(g map[string]any, props map[string]any) {
		add := func(pt [2]float64) {
			r := rowFromProps(pt, props)
			d.Add(r)
		}
		gt, _ := g["type"].(string)
		switch gt {
		case "Point":
			if pt, ok := parsePoint(g["coordinates"]); ok {
				add(pt)
			}
		case "MultiPoint":
			for _, p := range parseMulti(g["coordinates"]) {
				add(p)
			}
		}
	}

	switch t {
	case "Point", "MultiPoint":
		walkGeom(raw, nil)
	case "Feature":
		if g, ok := raw["geometry"].(map[string]any); ok {
			props, _ := raw["properties"].(map[string]any)
			walkGeom(g, props)
		}
	case "FeatureCollection":
		fs, _ := raw["features"].([]any)
		for _, f := range fs {
			fm, _ := f.(map[string]any)
			if g, ok := fm["geometry"].(map[string]any); ok {
				props, _ := fm["properties"].(map[string]any)
				walkGeom(g, props)
			}
		}
	default:
		return nil, errors.New("unsupported geojson type: " + t)
	}

	if d.Len() == 0 {
		return nil, fmt.Errorf("geojson: %w", ErrNoPoints)
	}
	return d, nil
}

func rowFromProps(pt [2]float64, props map[string]any) Row {
	r := NewRow(pt[0], pt[1])
	if props == nil {
		return r
	}
	if c, ok := props["cluster"].(float64); ok {
		r.Cluster = int(c)
	}
	switch v := props["deleted"].(type) {
	case bool:
		r.Deleted = v
	case float64:
		r.Deleted = v != 0
	}
	if s, ok := props["label"].(string); ok {
		r.Label = s
	} else if s, ok := props["name"].(string); ok {
		r.Label = s
	}
	if a, ok := props["activation"].(float64); ok {
		r.Activation = a
	}
	return r
}
