package geom

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadCSV reads a CSV with coordinate columns and optional row metadata.
// Column detection is case-insensitive:
//
//	x:          x|lon|lng|long|longitude
//	y:          y|lat|latitude
//	cluster:    cluster|cluster_id
//	deleted:    deleted|hidden
//	label:      label|name|text
//	activation: activation|score
//
// Rows with unparseable coordinates are kept with NaN so row indices match
// the file; they are never drawn or picked.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("empty csv")
	}
	col := map[string]int{"x": -1, "y": -1, "cluster": -1, "deleted": -1, "label": -1, "activation": -1}
	claim := func(name string, i int) {
		if col[name] == -1 {
			col[name] = i
		}
	}
	for i, h := range recs[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "x", "lon", "lng", "long", "longitude":
			claim("x", i)
		case "y", "lat", "latitude":
			claim("y", i)
		case "cluster", "cluster_id":
			claim("cluster", i)
		case "deleted", "hidden":
			claim("deleted", i)
		case "label", "name", "text":
			claim("label", i)
		case "activation", "score":
			claim("activation", i)
		}
	}
	if col["x"] == -1 || col["y"] == -1 {
		return nil, errors.New("csv: x/y columns not found")
	}
	field := func(row []string, name string) (string, bool) {
		i := col[name]
		if i < 0 || i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}
	d := &Dataset{}
	for _, row := range recs[1:] {
		rec := NewRow(nan(), nan())
		if s, ok := field(row, "x"); ok {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				rec.X = v
			}
		}
		if s, ok := field(row, "y"); ok {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				rec.Y = v
			}
		}
		if s, ok := field(row, "cluster"); ok && s != "" {
			if v, err := strconv.Atoi(s); err == nil {
				rec.Cluster = v
			}
		}
		if s, ok := field(row, "deleted"); ok {
			rec.Deleted, _ = strconv.ParseBool(s)
		}
		if s, ok := field(row, "label"); ok {
			rec.Label = s
		}
		if s, ok := field(row, "activation"); ok && s != "" {
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				rec.Activation = v
			}
		}
		d.Add(rec)
	}
	if d.finite == 0 {
		return nil, fmt.Errorf("csv: %w", ErrNoPoints)
	}
	return d, nil
}
