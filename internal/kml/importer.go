// Package kml imports field boundaries from KMZ and KML files and exports
// stored fields back to those formats.
package kml

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/woozymasta/farmgeo/internal/geo"
)

// Candidate is one parsed field awaiting review before it is persisted.
type Candidate struct {
	Name         string       `json:"name" yaml:"name"`
	Polygon      [][2]float64 `json:"polygon" yaml:"polygon"` // [lat, lng]
	Center       geo.Point    `json:"center" yaml:"center"`
	AreaHectares float64      `json:"areaHectares" yaml:"areaHectares"`
	FieldType    string       `json:"fieldType,omitempty" yaml:"fieldType,omitempty"`
	Selected     bool         `json:"selected" yaml:"selected"`
	Overlaps     []string     `json:"overlaps,omitempty" yaml:"overlaps,omitempty"`
}

// Ring returns the candidate polygon as a geo ring.
func (c Candidate) Ring() geo.Polygon {
	return geo.FromPairs(c.Polygon)
}

// ParseGeofenceFile converts an uploaded KMZ or KML buffer into candidates.
//
// Archive and XML failures are returned as *FormatError. Placemarks without
// coordinates or with fewer than three valid points are skipped silently,
// so a readable file may yield an empty slice and a nil error.
func ParseGeofenceFile(data []byte) ([]Candidate, error) {
	_, doc, err := document(data)
	if err != nil {
		return nil, err
	}

	marks, err := decodePlacemarks(doc)
	if err != nil {
		return nil, &FormatError{Reason: ReasonMalformedXML, Err: err}
	}

	candidates := make([]Candidate, 0, len(marks))
	for i, pm := range marks {
		if !pm.HasCoords {
			continue
		}

		ring := ParseCoordinates(pm.Coordinates)
		if !ring.Valid() {
			continue
		}

		candidates = append(candidates, Candidate{
			Name:         displayName(pm, i),
			Polygon:      ring.Pairs(),
			Center:       ring.Center(),
			AreaHectares: geo.Round1(geo.Hectares(ring)),
		})
	}

	return candidates, nil
}

// ParseCoordinates parses a KML coordinate list of whitespace separated
// "lon,lat[,alt]" tuples. Tuples that do not yield two finite numbers are
// dropped, altitude is ignored.
func ParseCoordinates(s string) geo.Polygon {
	tuples := strings.Fields(s)
	ring := make(geo.Polygon, 0, len(tuples))

	for _, tuple := range tuples {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}

		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil || !finite(lon) || !finite(lat) {
			continue
		}

		ring = append(ring, geo.Point{Lat: lat, Lng: lon})
	}

	return ring
}

// Review prepares candidates for the review step: every candidate is
// selected and receives the default field type unless it already has one.
func Review(candidates []Candidate, defaultType string) []Candidate {
	for i := range candidates {
		candidates[i].Selected = true
		if candidates[i].FieldType == "" {
			candidates[i].FieldType = defaultType
		}
	}
	return candidates
}

// FlagOverlaps records the names of indexed fields whose bounds intersect
// each candidate.
func FlagOverlaps(candidates []Candidate, idx *geo.Index) {
	if idx == nil || idx.Len() == 0 {
		return
	}
	for i := range candidates {
		hits := idx.Intersecting(candidates[i].Ring().Bound())
		if len(hits) > 0 {
			candidates[i].Overlaps = hits
		}
	}
}

func displayName(pm placemark, index int) string {
	name := StripExtension(pm.Name)
	if !pm.HasName || name == "" {
		return fmt.Sprintf("Feld %d", index+1)
	}
	return name
}

// StripExtension removes a trailing .kmz or .kml suffix, ignoring case.
func StripExtension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range []string{".kmz", ".kml"} {
		if strings.HasSuffix(lower, ext) {
			return strings.TrimSpace(name[:len(name)-len(ext)])
		}
	}
	return name
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
