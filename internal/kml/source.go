package kml

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
)

// SourceKind identifies how an uploaded buffer carries its KML document.
type SourceKind int

const (
	// SourceXML is a plain KML text document.
	SourceXML SourceKind = iota
	// SourceZip is a KMZ archive holding at least one .kml member.
	SourceZip
)

func (k SourceKind) String() string {
	switch k {
	case SourceXML:
		return "kml"
	case SourceZip:
		return "kmz"
	default:
		return "unknown"
	}
}

var zipSignature = []byte{0x50, 0x4B}

// Detect inspects the leading bytes of data and returns its variant.
func Detect(data []byte) SourceKind {
	if bytes.HasPrefix(data, zipSignature) {
		return SourceZip
	}
	return SourceXML
}

// unwrapFunc extracts the raw KML document from one input variant.
type unwrapFunc func(data []byte) ([]byte, error)

var unwrappers = map[SourceKind]unwrapFunc{
	SourceXML: func(data []byte) ([]byte, error) { return data, nil },
	SourceZip: unwrapZip,
}

// document returns the detected variant and its KML document bytes.
func document(data []byte) (SourceKind, []byte, error) {
	kind := Detect(data)

	unwrap, ok := unwrappers[kind]
	if !ok {
		return kind, nil, &FormatError{Reason: "unsupported source " + kind.String()}
	}

	doc, err := unwrap(data)
	return kind, doc, err
}

// unwrapZip returns the first .kml member in archive order.
func unwrapZip(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &FormatError{Reason: ReasonBadArchive, Err: err}
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, &FormatError{Reason: ReasonBadArchive, Err: err}
		}
		doc, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, &FormatError{Reason: ReasonBadArchive, Err: err}
		}

		return doc, nil
	}

	return nil, &FormatError{Reason: ReasonNoKML}
}
