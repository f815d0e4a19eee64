package domain

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	EarthRadiusKm  = 6371.0088
	MinDiscoverAge = 18
	MaxDiscoverAge = 99
	MaxDistanceKm  = 20000
)

type DiscoveryFilter struct {
	StudyField    StudyField
	StudyYear     *int
	MinAge        *int
	MaxAge        *int
	City          string
	School        string
	Interest      string
	MaxDistanceKm *float64
}

// BoundingBox is a lat/lng rectangle used to prefilter distance queries.
// LonUnbounded is set when the box crosses the antimeridian or a pole.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
	LonUnbounded   bool
}

type DiscoveryQuery struct {
	ViewerID uuid.UUID
	Filter   DiscoveryFilter
	Seed     string
	// BornAfter/BornBefore are derived from the age filter.
	BornAfter  *time.Time
	BornBefore *time.Time
	Box        *BoundingBox
	// Limit <= 0 returns every matching row.
	Limit  int
	Offset int
}

type DiscoveryCandidate struct {
	Profile    Profile
	Username   string
	FirstName  string
	IsStudent  bool
	LikesGiven int
	IsMatched  bool
}

type DiscoveryResult struct {
	DiscoveryCandidate
	Age        *int
	DistanceKm *float64
}

type DiscoveryRepository interface {
	Candidates(ctx context.Context, q DiscoveryQuery) ([]DiscoveryCandidate, error)
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// HaversineKm is the great-circle distance between two points.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

// BoundingBoxAround returns a box containing every point within km of (lat, lon).
func BoundingBoxAround(lat, lon, km float64) BoundingBox {
	dLat := km / EarthRadiusKm * 180 / math.Pi
	box := BoundingBox{
		MinLat: math.Max(-90, lat-dLat),
		MaxLat: math.Min(90, lat+dLat),
	}

	if box.MinLat <= -90 || box.MaxLat >= 90 {
		box.LonUnbounded = true
		return box
	}

	dLon := dLat / math.Cos(toRad(lat))
	box.MinLon = lon - dLon
	box.MaxLon = lon + dLon
	if box.MinLon < -180 || box.MaxLon > 180 {
		box.LonUnbounded = true
	}
	return box
}

// RoundTenth rounds to one decimal place.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
