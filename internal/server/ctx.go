package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/farmgeo/assets"
	"github.com/woozymasta/farmgeo/internal/config"
	"github.com/woozymasta/farmgeo/internal/fields"
	"github.com/woozymasta/farmgeo/internal/metrics"
	"github.com/woozymasta/farmgeo/internal/render"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config    *config.Config
	Store     *fields.Store
	Tiles     *render.TileRenderer
	Palette   render.Palette
	IndexHTML []byte
	Favicon   []byte
}

// NewServerContext wires the field store and renderers for the handlers.
func NewServerContext(cfg *config.Config, store *fields.Store) *ServerContext {
	palette := render.Palette(cfg.Palette())

	log.Info().
		Int("field_types", len(cfg.FieldTypes)).
		Str("default_type", cfg.Import.DefaultFieldType).
		Int64("max_upload_mb", cfg.Import.MaxUploadMB).
		Int("tile_size", cfg.Tiles.TileSize).
		Int("zoom_limit", cfg.Tiles.ZoomLimit).
		Msg("Server context initialized")

	return &ServerContext{
		Config:    cfg,
		Store:     store,
		Tiles:     render.NewTileRenderer(cfg.Tiles.TileSize, cfg.Tiles.ZoomLimit, cfg.Tiles.Quality),
		Palette:   palette,
		IndexHTML: assets.Index,
		Favicon:   assets.Favicon,
	}
}

// Routes builds the HTTP handler tree.
func (s *ServerContext) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)

	r.Get("/", s.HandleIndex)
	r.Get("/favicon.svg", s.HandleFavicon)
	r.Get("/healthz", s.HandleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/field-types", s.HandleFieldTypes)

		r.Route("/farms/{farm}", func(r chi.Router) {
			r.Post("/import", s.HandleImport)
			r.Post("/import/commit", s.HandleImportCommit)

			r.Get("/fields", s.HandleFieldsList)
			r.Post("/fields", s.HandleFieldCreate)
			r.Get("/fields/stats", s.HandleFieldStats)
			r.Get("/fields/{id}", s.HandleFieldGet)
			r.Put("/fields/{id}", s.HandleFieldUpdate)
			r.Delete("/fields/{id}", s.HandleFieldDelete)

			r.Get("/overlay.geojson", s.HandleOverlayGeoJSON)
			r.Get("/overlay.svg", s.HandleOverlaySVG)
			r.Get("/tiles/{z}/{x}/{y}.webp", s.HandleTile)

			r.Get("/export.kml", s.HandleExportKML)
			r.Get("/export.kmz", s.HandleExportKMZ)
			r.Get("/export.xlsx", s.HandleExportXLSX)
		})
	})

	return r
}
