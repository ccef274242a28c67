package server

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/woozymasta/farmgeo/internal/fields"
	"github.com/woozymasta/farmgeo/internal/kml"
	"github.com/woozymasta/farmgeo/internal/metrics"
	"github.com/woozymasta/farmgeo/internal/render"
)

// HandleOverlayGeoJSON serves stored field outlines as a FeatureCollection.
func (s *ServerContext) HandleOverlayGeoJSON(w http.ResponseWriter, r *http.Request) {
	s.drawOverlay(w, r, "application/geo+json", func(buf *bytes.Buffer) render.Surface {
		return render.GeoJSONSurface{W: buf}
	})
}

// HandleOverlaySVG serves stored field outlines as an SVG preview.
func (s *ServerContext) HandleOverlaySVG(w http.ResponseWriter, r *http.Request) {
	width := 0
	if v := r.URL.Query().Get("width"); v != "" {
		width, _ = strconv.Atoi(v)
	}
	s.drawOverlay(w, r, "image/svg+xml", func(buf *bytes.Buffer) render.Surface {
		return render.SVGSurface{W: buf, Width: width}
	})
}

// HandleTile serves a WebP raster tile of the stored field outlines.
func (s *ServerContext) HandleTile(w http.ResponseWriter, r *http.Request) {
	var c render.TileCoordinate
	var err1, err2, err3 error
	c.Z, err1 = strconv.Atoi(chi.URLParam(r, "z"))
	c.X, err2 = strconv.Atoi(chi.URLParam(r, "x"))
	c.Y, err3 = strconv.Atoi(chi.URLParam(r, "y"))
	if err1 != nil || err2 != nil || err3 != nil || !c.Valid(s.Tiles.ZoomLimit) {
		http.NotFound(w, r)
		return
	}

	overlays, err := s.Store.Overlays(r.Context(), farmID(r), s.Palette)
	if err != nil {
		serverError(w, r, err, "Failed to load overlays")
		return
	}

	var buf bytes.Buffer
	drawn, err := s.Tiles.Render(&buf, c, overlays)
	if err != nil {
		serverError(w, r, err, "Failed to render tile")
		return
	}

	state := "drawn"
	if drawn == 0 {
		state = "empty"
	}
	metrics.TilesRenderedTotal.WithLabelValues(state).Inc()

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(buf.Bytes())
}

// HandleExportKML serves stored fields as a KML document.
func (s *ServerContext) HandleExportKML(w http.ResponseWriter, r *http.Request) {
	s.exportShapes(w, r, "application/vnd.google-earth.kml+xml", ".kml", kml.Export)
}

// HandleExportKMZ serves stored fields as a KMZ archive.
func (s *ServerContext) HandleExportKMZ(w http.ResponseWriter, r *http.Request) {
	s.exportShapes(w, r, "application/vnd.google-earth.kmz", ".kmz", kml.ExportKMZ)
}

// HandleExportXLSX serves the field list as a spreadsheet.
func (s *ServerContext) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	farm := farmID(r)
	list, err := s.Store.All(r.Context(), farm)
	if err != nil {
		serverError(w, r, err, "Failed to load fields")
		return
	}

	var buf bytes.Buffer
	if err := fields.ExportXLSX(&buf, list); err != nil {
		serverError(w, r, err, "Failed to build spreadsheet")
		return
	}

	attachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", farm+".xlsx")
	_, _ = w.Write(buf.Bytes())
}

// drawOverlay buffers the surface output before any header is written.
func (s *ServerContext) drawOverlay(w http.ResponseWriter, r *http.Request, contentType string, surface func(*bytes.Buffer) render.Surface) {
	overlays, err := s.Store.Overlays(r.Context(), farmID(r), s.Palette)
	if err != nil {
		serverError(w, r, err, "Failed to load overlays")
		return
	}

	var buf bytes.Buffer
	if err := surface(&buf).Draw(r.Context(), overlays); err != nil {
		serverError(w, r, err, "Failed to draw overlay")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(buf.Bytes())
}

func (s *ServerContext) exportShapes(w http.ResponseWriter, r *http.Request, contentType, ext string, export func(w io.Writer, title string, shapes []kml.Shape) error) {
	farm := farmID(r)
	shapes, err := s.Store.Shapes(r.Context(), farm)
	if err != nil {
		serverError(w, r, err, "Failed to load fields")
		return
	}

	var buf bytes.Buffer
	if err := export(&buf, farm, shapes); err != nil {
		serverError(w, r, err, "Failed to export fields")
		return
	}

	attachment(w, contentType, farm+ext)
	_, _ = w.Write(buf.Bytes())
}
