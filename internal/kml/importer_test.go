package kml

import (
	"archive/zip"
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/woozymasta/farmgeo/internal/geo"
)

const twoFields = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>Estancia.kmz</name>
    <Folder>
      <Placemark>
        <name>Potrero Norte.kmz</name>
        <Polygon><outerBoundaryIs><LinearRing>
          <coordinates>
            0,0,0 0.01,0,0 0.01,0.01,0 0,0.01,0 0,0,0
          </coordinates>
        </LinearRing></outerBoundaryIs></Polygon>
      </Placemark>
      <Placemark>
        <name>Punto</name>
        <Point><coordinates>-60.1,-22.3,0</coordinates></Point>
      </Placemark>
      <Placemark>
        <Polygon><outerBoundaryIs><LinearRing>
          <coordinates>-60.12,-22.34 -60.11,-22.34 -60.11,-22.35 -60.12,-22.35</coordinates>
        </LinearRing></outerBoundaryIs></Polygon>
      </Placemark>
      <Placemark>
        <name>Sin coordenadas</name>
      </Placemark>
    </Folder>
  </Document>
</kml>`

func buildKMZ(t *testing.T, members map[string]string, order []string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(members[name])); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestParsePlainKML(t *testing.T) {
	got, err := ParseGeofenceFile([]byte(twoFields))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(got), got)
	}

	first := got[0]
	if first.Name != "Potrero Norte" {
		t.Errorf("expected suffix stripped name, got %q", first.Name)
	}
	if first.AreaHectares != 123.9 {
		t.Errorf("expected 123.9 ha, got %g", first.AreaHectares)
	}
	if first.Center.Lat != 0.005 || first.Center.Lng != 0.005 {
		t.Errorf("unexpected center %+v", first.Center)
	}
	if first.Polygon[1] != [2]float64{0, 0.01} {
		t.Errorf("expected [lat, lng] order, got %v", first.Polygon[1])
	}
	if len(first.Polygon) != 5 {
		t.Errorf("expected source points kept as-is, got %d", len(first.Polygon))
	}

	// third placemark (0-based index 2) has no name
	if got[1].Name != "Feld 3" {
		t.Errorf("expected placeholder name Feld 3, got %q", got[1].Name)
	}
	if got[1].Selected || got[1].FieldType != "" {
		t.Errorf("parsing must not assign review flags: %+v", got[1])
	}
}

func TestParseKMZUsesFirstKMLMember(t *testing.T) {
	other := strings.Replace(twoFields, "Potrero Norte.kmz", "Second", 1)
	data := buildKMZ(t, map[string]string{
		"images/icon.png": "png",
		"doc.KML":         twoFields,
		"other.kml":       other,
	}, []string{"images/icon.png", "doc.KML", "other.kml"})

	if Detect(data) != SourceZip {
		t.Fatalf("expected zip detection")
	}

	got, err := ParseGeofenceFile(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Potrero Norte" {
		t.Errorf("expected candidates from first member, got %+v", got)
	}
}

func TestParseKMZWithoutKML(t *testing.T) {
	data := buildKMZ(t, map[string]string{"readme.txt": "nothing"}, []string{"readme.txt"})

	_, err := ParseGeofenceFile(data)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if fe.Reason != ReasonNoKML {
		t.Errorf("expected reason %q, got %q", ReasonNoKML, fe.Reason)
	}
}

func TestParseCorruptArchive(t *testing.T) {
	_, err := ParseGeofenceFile([]byte{0x50, 0x4B, 0x03, 0x04, 0xFF})
	if !IsFormatError(err) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestParseMalformedXML(t *testing.T) {
	tests := map[string]string{
		"truncated":  twoFields[:len(twoFields)/2],
		"mismatched": `<kml><Placemark><name>x</Placemark></kml>`,
		"not xml":    `just some text`,
		"empty":      ``,
	}

	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGeofenceFile([]byte(input))
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if fe.Reason != ReasonMalformedXML {
				t.Errorf("expected reason %q, got %q", ReasonMalformedXML, fe.Reason)
			}
		})
	}
}

func TestParseNoPlacemarksIsEmptyNotError(t *testing.T) {
	got, err := ParseGeofenceFile([]byte(`<kml><Document><name>empty</name></Document></kml>`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no candidates, got %d", len(got))
	}
	if !errors.Is(CheckEmpty(got), ErrNoPolygons) {
		t.Errorf("expected ErrNoPolygons warning")
	}
}

func TestParseDropsInvalidTuples(t *testing.T) {
	doc := `<kml><Placemark><name>Campo</name><LineString><coordinates>
		1,1 bogus 2,NaN 2,1,100 x,y 2,2 Inf,3 1,2
	</coordinates></LineString></Placemark>
	<Placemark><name>Dos</name><LineString><coordinates>1,1 2,2 abc,1</coordinates></LineString></Placemark></kml>`

	got, err := ParseGeofenceFile([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	want := [][2]float64{{1, 1}, {1, 2}, {2, 2}, {2, 1}}
	if len(got[0].Polygon) != len(want) {
		t.Fatalf("expected %d points, got %v", len(want), got[0].Polygon)
	}
	for i := range want {
		if got[0].Polygon[i] != want[i] {
			t.Errorf("point %d: expected %v, got %v", i, want[i], got[0].Polygon[i])
		}
	}
}

func TestParseDocumentOrderAcrossFolders(t *testing.T) {
	ring := `<coordinates>0,0 1,0 1,1</coordinates>`
	doc := `<kml><Document>
		<Folder><Placemark><name>A</name>` + ring + `</Placemark></Folder>
		<Placemark><name>B</name>` + ring + `</Placemark>
		<Folder><Folder><Placemark><name>C</name>` + ring + `</Placemark></Folder></Folder>
	</Document></kml>`

	got, err := ParseGeofenceFile([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "A,B,C" {
		t.Errorf("expected document order A,B,C, got %v", names)
	}
}

func TestParseIgnoresNestedNames(t *testing.T) {
	doc := `<kml><Placemark>
		<ExtendedData><Data><name>inner</name></Data></ExtendedData>
		<name>  Outer  </name>
		<coordinates>0,0 1,0 1,1</coordinates>
	</Placemark></kml>`

	got, err := ParseGeofenceFile([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Outer" {
		t.Errorf("expected trimmed direct child name Outer, got %+v", got)
	}
}

func TestParseCharsets(t *testing.T) {
	latin1 := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><kml><Placemark><name>Ca\xf1ada</name><coordinates>0,0 1,0 1,1</coordinates></Placemark></kml>")
	got, err := ParseGeofenceFile(latin1)
	if err != nil {
		t.Fatalf("latin1: unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Cañada" {
		t.Errorf("latin1: expected Cañada, got %+v", got)
	}

	bom := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`<kml><Placemark><name>BOM</name><coordinates>0,0 1,0 1,1</coordinates></Placemark></kml>`)...)
	got, err = ParseGeofenceFile(bom)
	if err != nil {
		t.Fatalf("bom: unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Name != "BOM" {
		t.Errorf("bom: expected BOM, got %+v", got)
	}
}

func TestAreaRoundTripOnOutputPairs(t *testing.T) {
	got, err := ParseGeofenceFile([]byte(twoFields))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, c := range got {
		recomputed := geo.Round1(geo.Hectares(c.Ring()))
		if recomputed != c.AreaHectares {
			t.Errorf("%s: expected %g, recomputed %g", c.Name, c.AreaHectares, recomputed)
		}
		if center := c.Ring().Center(); center != c.Center {
			t.Errorf("%s: expected center %+v, got %+v", c.Name, c.Center, center)
		}
	}
}

func TestStripExtension(t *testing.T) {
	tests := map[string]string{
		"Potrero Norte.kmz": "Potrero Norte",
		"Campo 3.KML":       "Campo 3",
		"Weide.kml.txt":     "Weide.kml.txt",
		"Lote":              "Lote",
	}
	for in, want := range tests {
		if got := StripExtension(in); got != want {
			t.Errorf("StripExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReviewAndOverlaps(t *testing.T) {
	got, err := ParseGeofenceFile([]byte(twoFields))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got[1].FieldType = "Wald"
	Review(got, "Weide")
	if !got[0].Selected || got[0].FieldType != "Weide" {
		t.Errorf("expected default type and selection, got %+v", got[0])
	}
	if got[1].FieldType != "Wald" {
		t.Errorf("expected existing type kept, got %q", got[1].FieldType)
	}

	idx := geo.NewIndex()
	idx.Insert("Alt", geo.Polygon{{Lat: 0.001, Lng: 0.001}, {Lat: 0.002, Lng: 0.001}, {Lat: 0.002, Lng: 0.002}})
	FlagOverlaps(got, idx)

	if len(got[0].Overlaps) != 1 || got[0].Overlaps[0] != "Alt" {
		t.Errorf("expected overlap with Alt, got %v", got[0].Overlaps)
	}
	if len(got[1].Overlaps) != 0 {
		t.Errorf("expected no overlap, got %v", got[1].Overlaps)
	}
}

func TestExportRoundTrip(t *testing.T) {
	shapes := []Shape{
		{
			Name:        "Potrero Norte",
			Description: "Weide",
			Ring: geo.Polygon{
				{Lat: -22.3456, Lng: -60.1234},
				{Lat: -22.3401, Lng: -60.1180},
				{Lat: -22.3502, Lng: -60.1099},
			},
		},
		{Name: "broken", Ring: geo.Polygon{{Lat: 1, Lng: 1}}},
	}

	var kmlBuf, kmzBuf bytes.Buffer
	if err := Export(&kmlBuf, "Estancia", shapes); err != nil {
		t.Fatalf("export kml: %v", err)
	}
	if err := ExportKMZ(&kmzBuf, "Estancia", shapes); err != nil {
		t.Fatalf("export kmz: %v", err)
	}

	want := geo.Round1(geo.Hectares(shapes[0].Ring))
	for name, data := range map[string][]byte{"kml": kmlBuf.Bytes(), "kmz": kmzBuf.Bytes()} {
		got, err := ParseGeofenceFile(data)
		if err != nil {
			t.Fatalf("%s: reparse: %v", name, err)
		}
		if len(got) != 1 {
			t.Fatalf("%s: expected 1 candidate, got %d", name, len(got))
		}
		if got[0].Name != "Potrero Norte" {
			t.Errorf("%s: unexpected name %q", name, got[0].Name)
		}
		if math.Abs(got[0].AreaHectares-want) > 0.05 {
			t.Errorf("%s: expected %g ha, got %g", name, want, got[0].AreaHectares)
		}
	}
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "Estancia.kml")
	if err := os.WriteFile(plain, []byte(twoFields), 0o644); err != nil {
		t.Fatal(err)
	}
	packed := filepath.Join(dir, "Campo.KMZ")
	kmz := buildKMZ(t, map[string]string{"doc.kml": twoFields}, []string{"doc.kml"})
	if err := os.WriteFile(packed, kmz, 0o644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "vacio.kml")
	if err := os.WriteFile(empty, []byte("<kml><Document/></kml>"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.kml")

	results := ParseFiles([]string{plain, packed, empty, missing}, 3)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	if results[0].Err != nil || results[0].Kind != SourceXML || len(results[0].Candidates) != 2 {
		t.Errorf("unexpected plain result %+v", results[0])
	}
	if results[1].Err != nil || results[1].Kind != SourceZip || len(results[1].Candidates) != 2 {
		t.Errorf("unexpected kmz result %+v", results[1])
	}
	if !errors.Is(results[2].Err, ErrNoPolygons) {
		t.Errorf("expected ErrNoPolygons, got %v", results[2].Err)
	}
	if !errors.Is(results[3].Err, os.ErrNotExist) {
		t.Errorf("expected missing file error, got %v", results[3].Err)
	}

	if got := FileLabel(packed); got != "Campo" {
		t.Errorf("FileLabel = %q", got)
	}
}
