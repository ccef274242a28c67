// Package render draws named field polygons onto map surfaces.
package render

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	"github.com/woozymasta/farmgeo/internal/geo"
)

// DefaultColor is used for field types missing from the palette.
const DefaultColor = "#9ca3af"

// Overlay is one polygon to draw.
type Overlay struct {
	Name   string       `json:"name"`
	Color  string       `json:"color"`
	Points [][2]float64 `json:"points"` // [lat, lng]
	Popup  string       `json:"popup,omitempty"`
}

// Ring returns the overlay points as a geo ring.
func (o Overlay) Ring() geo.Polygon {
	return geo.FromPairs(o.Points)
}

// Surface is a polygon rendering target supplied by the caller.
type Surface interface {
	Draw(ctx context.Context, overlays []Overlay) error
}

// Palette maps field types to CSS hex colors.
type Palette map[string]string

// Color returns the color for a field type.
func (p Palette) Color(fieldType string) string {
	if c, ok := p[fieldType]; ok && c != "" {
		return c
	}
	return DefaultColor
}

// parseHex parses #rgb and #rrggbb colors.
func parseHex(s string, alpha uint8) (color.NRGBA, error) {
	c := color.NRGBA{A: alpha}
	s = strings.TrimPrefix(s, "#")

	var err error
	switch len(s) {
	case 6:
		_, err = fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 3:
		_, err = fmt.Sscanf(s, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	default:
		err = fmt.Errorf("invalid color %q", s)
	}

	return c, err
}

// drawable drops overlays that cannot enclose an area.
func drawable(overlays []Overlay) []Overlay {
	out := make([]Overlay, 0, len(overlays))
	for _, o := range overlays {
		if o.Ring().Valid() {
			out = append(out, o)
		}
	}
	return out
}
