package geom

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadKML extracts Placemark points from a KML file. Coordinates are
// "x,y[,z]"; z is ignored. The placemark name becomes the row label and
// each Folder is its own cluster.
func LoadKML(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	type kmlPoint struct {
		Coordinates string `xml:"coordinates"`
	}
	type kmlPlacemark struct {
		Name  string    `xml:"name"`
		Point *kmlPoint `xml:"Point"`
	}
	type kmlFolder struct {
		Placemarks []kmlPlacemark `xml:"Placemark"`
	}
	type kmlDoc struct {
		Placemarks []kmlPlacemark `xml:"Document>Placemark"`
		Folders    []kmlFolder    `xml:"Document>Folder"`
		Loose      []kmlPlacemark `xml:"Placemark"`
	}

	var doc kmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	d := &Dataset{}
	addAll := func(pms []kmlPlacemark, cluster int) {
		for _, pm := range pms {
			if pm.Point == nil {
				continue
			}
			// coordinates may contain multiple tuples separated by spaces
			for _, tuple := range strings.Fields(pm.Point.Coordinates) {
				vals := strings.Split(tuple, ",")
				if len(vals) < 2 {
					continue
				}
				x, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
				y, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
				if err1 != nil || err2 != nil {
					continue
				}
				r := NewRow(x, y)
				r.Cluster = cluster
				r.Label = strings.TrimSpace(pm.Name)
				d.Add(r)
			}
		}
	}
	addAll(doc.Loose, -1)
	addAll(doc.Placemarks, -1)
	for i, folder := range doc.Folders {
		addAll(folder.Placemarks, i)
	}
	if d.Len() == 0 {
		return nil, fmt.Errorf("kml: %w", ErrNoPoints)
	}
	return d, nil
}
