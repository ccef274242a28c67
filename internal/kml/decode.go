package kml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// placemark is the raw text extracted from one Placemark element.
type placemark struct {
	Name        string
	Coordinates string
	HasName     bool
	HasCoords   bool
}

// decodePlacemarks walks the document and collects every Placemark in
// document order. The name is taken from a direct child element, the
// coordinates from the first descendant so rings nested in Polygon,
// LinearRing or MultiGeometry are found.
func decodePlacemarks(doc []byte) ([]placemark, error) {
	dec := xml.NewDecoder(textReader(doc))
	dec.CharsetReader = charsetReader

	var (
		out      []placemark
		cur      *placemark
		depth    int
		capture  string
		capDepth int
		text     strings.Builder
		rooted   bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			rooted = true
			if cur == nil {
				if t.Name.Local == "Placemark" {
					cur = &placemark{}
					depth = 0
				}
				continue
			}

			depth++
			if capture != "" {
				continue
			}
			switch {
			case t.Name.Local == "name" && depth == 1 && !cur.HasName:
				capture, capDepth = "name", depth
				text.Reset()
			case t.Name.Local == "coordinates" && !cur.HasCoords:
				capture, capDepth = "coordinates", depth
				text.Reset()
			}

		case xml.CharData:
			if capture != "" {
				text.Write(t)
			}

		case xml.EndElement:
			if cur == nil {
				continue
			}
			if depth == 0 {
				out = append(out, *cur)
				cur = nil
				continue
			}
			if capture != "" && depth == capDepth {
				switch capture {
				case "name":
					cur.Name, cur.HasName = strings.TrimSpace(text.String()), true
				case "coordinates":
					cur.Coordinates, cur.HasCoords = text.String(), true
				}
				capture = ""
			}
			depth--
		}
	}

	if !rooted {
		return nil, errors.New("no root element")
	}

	return out, nil
}

// textReader strips a UTF-8 byte order mark and transcodes UTF-16 input
// announced by its BOM.
func textReader(doc []byte) io.Reader {
	switch {
	case bytes.HasPrefix(doc, bomUTF8):
		return bytes.NewReader(doc[len(bomUTF8):])
	case bytes.HasPrefix(doc, bomUTF16BE), bytes.HasPrefix(doc, bomUTF16LE):
		dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
		return transform.NewReader(bytes.NewReader(doc), dec)
	default:
		return bytes.NewReader(doc)
	}
}

// charsetReader resolves the encoding declared in the XML prolog.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}

	name, _ := htmlindex.Name(enc)
	// utf-16 input was already transcoded by textReader
	if name == "utf-8" || strings.HasPrefix(name, "utf-16") {
		return input, nil
	}

	return enc.NewDecoder().Reader(input), nil
}
