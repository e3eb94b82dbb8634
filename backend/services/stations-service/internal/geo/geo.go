// Package geo implements great-circle distance and radius search over stations.
package geo

import (
	"math"
	"sort"

	"chargemap/backend/services/stations-service/internal/models"
)

const (
	// EarthRadiusKm is the mean Earth radius used by Distance.
	EarthRadiusKm = 6371.0
	// MaxRadiusKm bounds nearby searches.
	MaxRadiusKm = 100.0
	// DefaultRadiusKm applies when a caller omits the radius.
	DefaultRadiusKm = 10.0
)

// Point is a coordinate pair in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Query describes a nearby search.
type Query struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

// Origin returns the query point.
func (q Query) Origin() Point {
	return Point{Lat: q.Latitude, Lng: q.Longitude}
}

// Validate rejects out-of-range coordinates and radii.
func (q Query) Validate() error {
	if math.IsNaN(q.Latitude) || q.Latitude < -90 || q.Latitude > 90 ||
		math.IsNaN(q.Longitude) || q.Longitude < -180 || q.Longitude > 180 {
		return models.NewValidationError(models.ErrInvalidQuery, "Invalid coordinates")
	}
	if math.IsNaN(q.RadiusKm) || q.RadiusKm <= 0 || q.RadiusKm > MaxRadiusKm {
		return models.NewValidationError(models.ErrInvalidQuery, "Invalid radius (must be between 0 and 100 km)")
	}
	return nil
}

// Distance returns the haversine distance between a and b in kilometers.
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLng/2), 2)
	// rounding can push h marginally past 1 for antipodal points
	h = math.Min(1, h)
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Round2 rounds v to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Hit is an item found within the search radius.
type Hit[T any] struct {
	Item     T
	Distance float64
}

// Within keeps the items whose distance from origin is at most radiusKm and sorts
// them nearest first. Ties keep input order. Distances are not rounded.
func Within[T any](origin Point, radiusKm float64, items []T, locate func(T) Point) []Hit[T] {
	hits := make([]Hit[T], 0, len(items))
	for _, item := range items {
		d := Distance(origin, locate(item))
		if d <= radiusKm {
			hits = append(hits, Hit[T]{Item: item, Distance: d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	return hits
}
