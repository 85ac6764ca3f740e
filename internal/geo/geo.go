// Package geo measures short distances between GPS fixes.
//
// Distances use the haversine formula on a spherical earth. The game area is a
// few hundred feet across, so the approximation is far below GPS noise.
package geo

import "math"

const (
	earthRadiusKm = 6371
	feetPerKm     = 3280.84
)

// Point is a latitude/longitude pair in degrees. It encodes as [lat, long].
type Point [2]float64

func P(lat, long float64) Point { return Point{lat, long} }

func (p Point) Lat() float64  { return p[0] }
func (p Point) Long() float64 { return p[1] }

// DistanceFeet returns the great-circle distance between a and b in feet.
func DistanceFeet(a, b Point) float64 {
	dLat := radians(b.Lat() - a.Lat())
	dLong := radians(b.Long() - a.Long())

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.Lat()))*math.Cos(radians(b.Lat()))*
			math.Sin(dLong/2)*math.Sin(dLong/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c * feetPerKm
}

// Within reports whether a and b are at most radius feet apart.
func Within(a, b Point, radius float64) bool {
	return DistanceFeet(a, b) <= radius
}

// Scale holds the constants a map renderer needs for an equirectangular
// projection around a reference latitude.
type Scale struct {
	FeetPerDegLong    float64 `json:"feetPerDegLong"`
	DegLongPerFoot    float64 `json:"degLongPerFoot"`
	DegLongPerDegLat  float64 `json:"degLongPerDegLat"`
	ReferenceLatitude float64 `json:"referenceLatitude"`
}

// ScaleAt derives projection constants at the given latitude.
func ScaleAt(lat float64) Scale {
	feetPerDegLong := DistanceFeet(P(lat, 0), P(lat, 1))
	feetPerDegLat := DistanceFeet(P(0, 0), P(1, 0))
	return Scale{
		FeetPerDegLong:    feetPerDegLong,
		DegLongPerFoot:    1 / feetPerDegLong,
		DegLongPerDegLat:  feetPerDegLong / feetPerDegLat,
		ReferenceLatitude: lat,
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
