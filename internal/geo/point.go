// Package geo handles geographic primitives, polygon measurement and map projections.
package geo

import (
	"github.com/paulmach/orb"
)

// MinRingPoints is the smallest vertex count that still encloses an area.
const MinRingPoints = 3

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Polygon is an ordered ring of points. Closure is implied, the last point
// does not have to repeat the first one.
type Polygon []Point

// Valid reports whether the ring has enough vertices to be imported.
func (p Polygon) Valid() bool {
	return len(p) >= MinRingPoints
}

// Extent returns the south-west and north-east corners of the ring.
func (p Polygon) Extent() (min, max Point) {
	if len(p) == 0 {
		return Point{}, Point{}
	}

	min, max = p[0], p[0]
	for _, pt := range p[1:] {
		if pt.Lat < min.Lat {
			min.Lat = pt.Lat
		}
		if pt.Lat > max.Lat {
			max.Lat = pt.Lat
		}
		if pt.Lng < min.Lng {
			min.Lng = pt.Lng
		}
		if pt.Lng > max.Lng {
			max.Lng = pt.Lng
		}
	}

	return min, max
}

// Center returns the midpoint of the bounding box.
// This is not the area centroid nor the vertex average.
func (p Polygon) Center() Point {
	min, max := p.Extent()
	return Point{
		Lat: (min.Lat + max.Lat) / 2,
		Lng: (min.Lng + max.Lng) / 2,
	}
}

// Pairs returns the ring as [lat, lng] pairs in source order.
func (p Polygon) Pairs() [][2]float64 {
	out := make([][2]float64, len(p))
	for i, pt := range p {
		out[i] = [2]float64{pt.Lat, pt.Lng}
	}
	return out
}

// FromPairs builds a ring from [lat, lng] pairs.
func FromPairs(pairs [][2]float64) Polygon {
	out := make(Polygon, len(pairs))
	for i, pair := range pairs {
		out[i] = Point{Lat: pair[0], Lng: pair[1]}
	}
	return out
}

// Ring converts to an orb ring in [lon, lat] order, closing it if needed.
func (p Polygon) Ring() orb.Ring {
	ring := make(orb.Ring, 0, len(p)+1)
	for _, pt := range p {
		ring = append(ring, orb.Point{pt.Lng, pt.Lat})
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

// Bound returns the orb bounding box in [lon, lat] order.
func (p Polygon) Bound() orb.Bound {
	min, max := p.Extent()
	return orb.Bound{
		Min: orb.Point{min.Lng, min.Lat},
		Max: orb.Point{max.Lng, max.Lat},
	}
}
