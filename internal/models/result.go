// internal/models/result.go
package models

// Factor is one named scoring dimension of a breakdown.
type Factor struct {
	Weight      float64 `json:"weight"`
	Score       float64 `json:"score"`
	Weighted    float64 `json:"weighted"`
	Explanation string  `json:"explanation"`
}

// ScoreBreakdown always carries exactly five factors.
type ScoreBreakdown struct {
	ServiceMatch Factor `json:"serviceMatch"`
	Location     Factor `json:"location"`
	Rating       Factor `json:"rating"`
	Availability Factor `json:"availability"`
	Experience   Factor `json:"experience"`
}

// Factors returns the factors in their fixed order.
func (b *ScoreBreakdown) Factors() [5]Factor {
	return [5]Factor{b.ServiceMatch, b.Location, b.Rating, b.Availability, b.Experience}
}

// Total is the sum of the weighted contributions.
func (b *ScoreBreakdown) Total() float64 {
	total := 0.0
	for _, f := range b.Factors() {
		total += f.Weighted
	}
	return total
}

type ResultMeta struct {
	DistanceKm        *float64 `json:"distanceKm,omitempty"`
	AvailabilityRatio *float64 `json:"availabilityRatio,omitempty"`
	Rating            *float64 `json:"rating,omitempty"`
	ReviewsCount      int      `json:"reviewsCount"`
	Locality          string   `json:"city,omitempty"`
	Services          []string `json:"services,omitempty"`
}

// MatchResult is an immutable snapshot of one candidate's scoring pass.
type MatchResult struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Score              float64         `json:"score"`
	Breakdown          *ScoreBreakdown `json:"scoreBreakdown,omitempty"`
	Reason             string          `json:"reason"`
	Rank               int             `json:"rank"`
	CalculationFormula string          `json:"calculationFormula,omitempty"`
	Meta               ResultMeta      `json:"meta"`
}

// MatchStatistics reports stage counts for engines that run a filter pipeline.
type MatchStatistics struct {
	PoolSize         int  `json:"poolSize"`
	LocationMatches  int  `json:"locationMatches"`
	ServiceMatches   int  `json:"serviceMatches"`
	AvailableMatches int  `json:"availableMatches"`
	Filtered         bool `json:"filtered"`
}
