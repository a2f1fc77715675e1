// Package scoring combines five independent factors into one explainable match score.
package scoring

import (
	"math"
	"strings"

	"caregiver-matching/internal/geo"
	"caregiver-matching/internal/models"
	"caregiver-matching/internal/textentity"
)

const (
	NeutralScore          = 0.5
	UnmatchedLocation     = 0.3
	WindowedAvailability  = 0.7
	minRating             = 3.0
	ratingSpan            = 2.0
	reviewsForConfidence  = 100.0
	servicesForExperience = 10.0
	reviewsForExperience  = 200.0
)

// ServiceMatchScore is the share of requested labels offered by the candidate, where a
// label matches when either string contains the other (case-sensitive).
func ServiceMatchScore(requested, offered []string) float64 {
	if len(requested) == 0 {
		return NeutralScore
	}
	if len(offered) == 0 {
		return 0
	}
	matches := 0
	for _, r := range requested {
		for _, o := range offered {
			if o == r || strings.Contains(o, r) || strings.Contains(r, o) {
				matches++
				break
			}
		}
	}
	return float64(matches) / float64(len(requested))
}

// LocalityMatches reports whether any candidate locality contains the requested one or
// the other way round, ignoring case. Hebrew names are mapped to English first.
func LocalityMatches(requested string, localities []string) bool {
	req := strings.ToLower(strings.TrimSpace(textentity.CanonicalLocality(requested)))
	if req == "" {
		return false
	}
	for _, l := range localities {
		loc := strings.ToLower(strings.TrimSpace(textentity.CanonicalLocality(l)))
		if loc == "" {
			continue
		}
		if strings.Contains(loc, req) || strings.Contains(req, loc) {
			return true
		}
	}
	return false
}

// LocationScore prefers a locality name match, then proximity bands, then a low default.
func LocationScore(locality string, coord *models.Coordinate, c *models.Candidate) float64 {
	if locality == "" && coord == nil {
		return NeutralScore
	}
	if locality != "" && LocalityMatches(locality, c.AllLocalities()) {
		return 1.0
	}
	if coord != nil && c.Coordinate != nil {
		return geo.ProximityScore(geo.Distance(coord, c.Coordinate))
	}
	return UnmatchedLocation
}

// ReputationScore blends the rating (3..5 mapped to 0..1) with review volume.
func ReputationScore(rating *float64, reviews int) float64 {
	if rating == nil || *rating == 0 {
		return NeutralScore
	}
	normalized := clamp01((*rating - minRating) / ratingSpan)
	volume := math.Min(float64(max(reviews, 0))/reviewsForConfidence, 1.0)
	return 0.7*normalized + 0.3*volume
}

// AvailabilityScore gives urgent requests full credit and otherwise a constant.
func AvailabilityScore(urgent bool, window *models.TimeWindow) float64 {
	if urgent {
		return 1.0
	}
	if window == nil {
		return NeutralScore
	}
	return WindowedAvailability
}

// ExperienceScore averages the clamped service count and review count ratios.
func ExperienceScore(serviceCount, reviews int) float64 {
	services := math.Min(float64(max(serviceCount, 0))/servicesForExperience, 1.0)
	cases := math.Min(float64(max(reviews, 0))/reviewsForExperience, 1.0)
	return (services + cases) / 2
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
