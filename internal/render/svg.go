package render

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"math"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"

	"github.com/woozymasta/farmgeo/internal/geo"
)

const svgMime = "image/svg+xml"

// SVGSurface writes overlays as a minified SVG document.
// Coordinates use an equirectangular projection around the overlays' center.
type SVGSurface struct {
	W     io.Writer
	Width int
}

// Draw implements Surface.
func (s SVGSurface) Draw(_ context.Context, overlays []Overlay) error {
	width := s.Width
	if width <= 0 {
		width = 800
	}

	var buf bytes.Buffer
	writeSVG(&buf, drawable(overlays), float64(width))

	m := minify.New()
	m.AddFunc(svgMime, svg.Minify)

	return m.Minify(svgMime, s.W, &buf)
}

func writeSVG(w *bytes.Buffer, overlays []Overlay, width float64) {
	var all geo.Polygon
	for _, o := range overlays {
		all = append(all, o.Ring()...)
	}

	min, max := all.Extent()
	scaleX := math.Cos(all.Center().Lat * math.Pi / 180)
	spanX := (max.Lng - min.Lng) * scaleX
	spanY := max.Lat - min.Lat
	if spanX <= 0 || spanY <= 0 {
		spanX, spanY = 1, 1
	}
	k := width / spanX
	height := math.Ceil(spanY * k)

	fmt.Fprintf(w, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`,
		width, height, width, height)

	for _, o := range overlays {
		w.WriteString(`<path d="`)
		for i, pt := range o.Ring() {
			x := (pt.Lng - min.Lng) * scaleX * k
			y := (max.Lat - pt.Lat) * k
			if i == 0 {
				fmt.Fprintf(w, "M%.2f %.2f", x, y)
			} else {
				fmt.Fprintf(w, " L%.2f %.2f", x, y)
			}
		}
		fmt.Fprintf(w, ` Z" fill="%s" fill-opacity="0.45" stroke="%s" stroke-width="1.5">`,
			attr(o.Color), attr(o.Color))

		if o.Popup != "" {
			w.WriteString("<title>")
			_ = xml.EscapeText(w, []byte(o.Popup))
			w.WriteString("</title>")
		}
		w.WriteString("</path>")
	}

	w.WriteString("</svg>")
}

func attr(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
