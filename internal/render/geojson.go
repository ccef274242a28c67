package render

import (
	"context"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSONSurface writes overlays as a GeoJSON FeatureCollection.
type GeoJSONSurface struct {
	W io.Writer
}

// Draw implements Surface.
func (s GeoJSONSurface) Draw(_ context.Context, overlays []Overlay) error {
	fc := FeatureCollection(overlays)

	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}

	_, err = s.W.Write(data)
	return err
}

// FeatureCollection converts overlays to polygon features in [lon, lat] order.
func FeatureCollection(overlays []Overlay) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, o := range drawable(overlays) {
		f := geojson.NewFeature(orb.Polygon{o.Ring().Ring()})
		f.Properties["name"] = o.Name
		f.Properties["color"] = o.Color
		if o.Popup != "" {
			f.Properties["popup"] = o.Popup
		}
		fc.Append(f)
	}

	return fc
}
