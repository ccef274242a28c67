package geo

import "math"

const (
	// MetersPerDegree is the equirectangular length of one degree of latitude.
	MetersPerDegree = 111320.0

	// SquareMetersPerHectare converts m² to ha.
	SquareMetersPerHectare = 10000.0

	// MaxLat is the web mercator latitude limit.
	MaxLat = 85.05112878
)

// ShoelaceDegrees returns the unsigned planar area of the ring in degree².
//
// Consecutive pairs are summed in source order and the ring is closed
// implicitly, so a ring that already repeats its first vertex contributes
// a zero closing term.
func ShoelaceDegrees(p Polygon) float64 {
	n := len(p)
	if n < MinRingPoints {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		a := p[i]
		b := p[(i+1)%n]
		sum += a.Lng*b.Lat - b.Lng*a.Lat
	}

	return math.Abs(sum) / 2
}

// Hectares converts the ring area to hectares with an equirectangular
// approximation scaled by the cosine of the bounding-box center latitude.
// Error grows for very large or near-polar rings.
func Hectares(p Polygon) float64 {
	deg2 := ShoelaceDegrees(p)
	if deg2 == 0 {
		return 0
	}

	center := p.Center()
	m2 := deg2 * MetersPerDegree * MetersPerDegree * math.Cos(center.Lat*math.Pi/180)

	return m2 / SquareMetersPerHectare
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// LonLatToPixel projects WGS84 to web mercator world pixels at the given zoom.
//
// Longitude [-180..180] maps to x [0..worldSize], latitude is clamped to
// MaxLat and mapped through the forward mercator projection, with y growing
// southwards as in XYZ tiles.
func LonLatToPixel(lon, lat float64, zoom, tileSize int) (x, y float64) {
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	worldSize := float64(tileSize) * math.Exp2(float64(zoom))

	x = (lon + 180.0) / 360.0 * worldSize

	latRad := lat * (math.Pi / 180.0)
	mercatorY := math.Log(math.Tan(math.Pi/4 + latRad/2))
	y = (1 - mercatorY/math.Pi) / 2 * worldSize

	return x, y
}
