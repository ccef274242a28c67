package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/chai2010/webp"
	"github.com/paulmach/orb/maptile"
	"github.com/rs/zerolog/log"
	"golang.org/x/image/vector"

	"github.com/woozymasta/farmgeo/internal/geo"
)

// fillAlpha is the opacity of polygon fills on raster tiles.
const fillAlpha = 110

// TileCoordinate represents a specific XYZ tile.
type TileCoordinate struct {
	Z, X, Y int
}

// Valid reports whether the tile exists at its zoom level.
func (c TileCoordinate) Valid(zoomLimit int) bool {
	if c.Z < 0 || c.Z > zoomLimit {
		return false
	}
	n := 1 << c.Z
	return c.X >= 0 && c.X < n && c.Y >= 0 && c.Y < n
}

// TileRenderer rasterizes overlays into web mercator WebP tiles.
type TileRenderer struct {
	Size      int
	Quality   float32
	ZoomLimit int

	once        sync.Once
	transparent []byte
	err         error
}

// NewTileRenderer creates a renderer with the given tile size and quality.
func NewTileRenderer(size, zoomLimit int, quality float32) *TileRenderer {
	return &TileRenderer{Size: size, ZoomLimit: zoomLimit, Quality: quality}
}

// Render writes tile c to w and returns how many overlays were drawn.
// Tiles that no overlay touches are served from a cached transparent tile.
func (r *TileRenderer) Render(w io.Writer, c TileCoordinate, overlays []Overlay) (int, error) {
	if !c.Valid(r.ZoomLimit) {
		return 0, fmt.Errorf("tile %d/%d/%d out of range", c.Z, c.X, c.Y)
	}

	tb := maptile.New(uint32(c.X), uint32(c.Y), maptile.Zoom(c.Z)).Bound()
	img := image.NewNRGBA(image.Rect(0, 0, r.Size, r.Size))
	originX, originY := float64(c.X*r.Size), float64(c.Y*r.Size)

	drawn := 0
	for _, o := range drawable(overlays) {
		ring := o.Ring()
		if !ring.Bound().Intersects(tb) {
			continue
		}

		fill, err := parseHex(o.Color, fillAlpha)
		if err != nil {
			log.Debug().Err(err).Str("overlay", o.Name).Msg("Invalid overlay color, using default")
			fill, _ = parseHex(DefaultColor, fillAlpha)
		}

		rasterizePolygon(img, ring, c.Z, r.Size, originX, originY, image.NewUniform(fill))
		drawn++
	}

	if drawn == 0 {
		data, err := r.transparentTile()
		if err != nil {
			return 0, err
		}
		_, err = w.Write(data)
		return 0, err
	}

	return drawn, webp.Encode(w, img, &webp.Options{Lossless: false, Quality: r.Quality})
}

// Surface returns a Surface that renders tile c into w.
func (r *TileRenderer) Surface(w io.Writer, c TileCoordinate) Surface {
	return tileSurface{r: r, w: w, c: c}
}

func (r *TileRenderer) transparentTile() ([]byte, error) {
	r.once.Do(func() {
		var buf bytes.Buffer
		img := image.NewNRGBA(image.Rect(0, 0, r.Size, r.Size))
		r.err = webp.Encode(&buf, img, &webp.Options{Lossless: true})
		r.transparent = buf.Bytes()
	})
	return r.transparent, r.err
}

func rasterizePolygon(dst *image.NRGBA, ring geo.Polygon, zoom, size int, originX, originY float64, fill image.Image) {
	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())

	for i, pt := range ring {
		x, y := geo.LonLatToPixel(pt.Lng, pt.Lat, zoom, size)
		px, py := float32(x-originX), float32(y-originY)
		if i == 0 {
			z.MoveTo(px, py)
		} else {
			z.LineTo(px, py)
		}
	}
	z.ClosePath()
	z.Draw(dst, b, fill, image.Point{})
}

type tileSurface struct {
	r *TileRenderer
	w io.Writer
	c TileCoordinate
}

func (s tileSurface) Draw(_ context.Context, overlays []Overlay) error {
	_, err := s.r.Render(s.w, s.c, overlays)
	return err
}
