// Package geo computes great-circle distances and proximity bands.
package geo

import (
	"math"
	"sort"

	"caregiver-matching/internal/models"
)

const EarthRadiusKm = 6371.0

// Distance returns the haversine distance in km, or +Inf when either point is missing.
func Distance(a, b *models.Coordinate) float64 {
	if a == nil || b == nil {
		return math.Inf(1)
	}
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

var proximityBands = []struct {
	maxKm float64
	score float64
}{
	{1, 1.0},
	{5, 0.9},
	{10, 0.7},
	{25, 0.5},
	{50, 0.3},
	{100, 0.1},
}

// ProximityScore maps a distance onto the fixed bands. Upper bounds are inclusive.
func ProximityScore(distanceKm float64) float64 {
	if math.IsNaN(distanceKm) {
		return 0
	}
	for _, b := range proximityBands {
		if distanceKm <= b.maxKm {
			return b.score
		}
	}
	return 0
}

// SortByDistance sorts items in place by ascending distance from center, keeping the
// original order for equal distances. Items without a coordinate sort last.
func SortByDistance[T any](items []T, center *models.Coordinate, coordOf func(T) *models.Coordinate) {
	dist := make(map[int]float64, len(items))
	idx := make([]int, len(items))
	for i := range items {
		idx[i] = i
		dist[i] = Distance(center, coordOf(items[i]))
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return dist[idx[i]] < dist[idx[j]]
	})
	sorted := make([]T, len(items))
	for i, k := range idx {
		sorted[i] = items[k]
	}
	copy(items, sorted)
}
