package geom

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseWKT parses a subset of WKT into point rows.
// Supported: POINT(x y), MULTIPOINT(x y, ...), MULTIPOINT((x y), ...),
// LINESTRING(x y, ...) and POLYGON((x y, ...)). Line and ring vertices
// become rows; a ring's closing vertex is not repeated.
func ParseWKT(wkt string) (*Dataset, error) {
	d := &Dataset{}
	if err := parseWKTInto(d, wkt, -1); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadWKT reads one geometry per line. With more than one geometry, each
// line's rows form their own cluster.
func LoadWKT(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			lines = append(lines, s)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.New("empty wkt")
	}
	d := &Dataset{}
	for i, line := range lines {
		cluster := -1
		if len(lines) > 1 {
			cluster = i
		}
		if err := parseWKTInto(d, line, cluster); err != nil {
			return nil, fmt.Errorf("wkt line %d: %w", i+1, err)
		}
	}
	return d, nil
}

func parseWKTInto(d *Dataset, wkt string, cluster int) error {
	s := strings.TrimSpace(wkt)
	if s == "" {
		return errors.New("empty wkt")
	}
	before := d.Len()
	parseCoords := func(block string, ring bool) {
		// tuples "x y" separated by commas; MULTIPOINT may wrap each in parens
		block = strings.NewReplacer("(", " ", ")", " ").Replace(block)
		var pts [][2]float64
		for _, tup := range strings.Split(block, ",") {
			parts := strings.Fields(strings.TrimSpace(tup))
			if len(parts) < 2 {
				continue
			}
			x, err1 := strconv.ParseFloat(parts[0], 64)
			y, err2 := strconv.ParseFloat(parts[1], 64)
			if err1 != nil || err2 != nil {
				continue
			}
			pts = append(pts, [2]float64{x, y})
		}
		if ring && len(pts) > 1 && pts[0] == pts[len(pts)-1] {
			pts = pts[:len(pts)-1]
		}
		for _, p := range pts {
			r := NewRow(p[0], p[1])
			r.Cluster = cluster
			d.Add(r)
		}
	}
	up := strings.ToUpper(s)
	switch {
	case strings.HasPrefix(up, "POLYGON"):
		i := strings.Index(s, "((")
		j := strings.LastIndex(s, "))")
		if i < 0 || j <= i {
			return errors.New("wkt polygon: invalid")
		}
		rings := strings.ReplaceAll(s[i+2:j], "), (", "),(")
		for _, rp := range strings.Split(rings, "),(") {
			parseCoords(rp, true)
		}
	case strings.HasPrefix(up, "MULTIPOINT"), strings.HasPrefix(up, "POINT"), strings.HasPrefix(up, "LINESTRING"):
		i := strings.Index(s, "(")
		j := strings.LastIndex(s, ")")
		if i < 0 || j <= i {
			return errors.New("wkt: unbalanced parentheses")
		}
		parseCoords(s[i+1:j], false)
	default:
		return errors.New("unsupported wkt type")
	}
	if d.Len() == before {
		return fmt.Errorf("wkt: %w", ErrNoPoints)
	}
	return nil
}
