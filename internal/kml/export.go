package kml

import (
	"archive/zip"
	"io"

	gokml "github.com/twpayne/go-kml/v3"

	"github.com/woozymasta/farmgeo/internal/geo"
)

// Shape is a named ring written by Export.
type Shape struct {
	Name        string
	Description string
	Ring        geo.Polygon
}

// Export writes shapes as a KML document. Rings are closed on output.
func Export(w io.Writer, title string, shapes []Shape) error {
	doc := gokml.Document(gokml.Name(title))

	for _, s := range shapes {
		if !s.Ring.Valid() {
			continue
		}

		coords := make([]gokml.Coordinate, 0, len(s.Ring)+1)
		for _, pt := range s.Ring {
			coords = append(coords, gokml.Coordinate{Lon: pt.Lng, Lat: pt.Lat})
		}
		if first, last := s.Ring[0], s.Ring[len(s.Ring)-1]; first != last {
			coords = append(coords, gokml.Coordinate{Lon: first.Lng, Lat: first.Lat})
		}

		doc.Add(
			gokml.Placemark(
				gokml.Name(s.Name),
				gokml.Description(s.Description),
				gokml.Polygon(
					gokml.OuterBoundaryIs(
						gokml.LinearRing(
							gokml.Coordinates(coords...),
						),
					),
				),
			),
		)
	}

	return gokml.KML(doc).WriteIndent(w, "", "  ")
}

// ExportKMZ writes shapes as a KMZ archive with a single doc.kml member.
func ExportKMZ(w io.Writer, title string, shapes []Shape) error {
	zw := zip.NewWriter(w)

	f, err := zw.Create("doc.kml")
	if err != nil {
		return err
	}
	if err := Export(f, title, shapes); err != nil {
		return err
	}

	return zw.Close()
}
