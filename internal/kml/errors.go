package kml

import (
	"errors"
	"fmt"
)

// Reasons reported by FormatError.
const (
	ReasonNoKML        = "no KML found in archive"
	ReasonBadArchive   = "unreadable archive"
	ReasonMalformedXML = "malformed XML"
)

// ErrNoPolygons marks a readable file that contained nothing importable.
// It is a warning for the user, not a failure of the import.
var ErrNoPolygons = errors.New("no polygons found in file")

// FormatError reports input that is not a recognizable KMZ or KML payload.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// IsFormatError reports whether err is or wraps a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// CheckEmpty returns ErrNoPolygons for an empty candidate list.
func CheckEmpty(candidates []Candidate) error {
	if len(candidates) == 0 {
		return ErrNoPolygons
	}
	return nil
}
