// internal/engines/externalranker/models.go
package externalranker

import (
	"time"

	"caregiver-matching/internal/models"
)

// RankRequest is the reduced payload sent to the ranker.
type RankRequest struct {
	Query      RankQuery       `json:"query"`
	Candidates []RankCandidate `json:"candidates"`
}

type RankQuery struct {
	City           string             `json:"city,omitempty"`
	ServicesQuery  []string           `json:"servicesQuery"`
	ExpertiseQuery []string           `json:"expertiseQuery"`
	TimeWindow     *RankWindow        `json:"timeWindow"`
	Location       *models.Coordinate `json:"location"`
	Urgent         bool               `json:"urgent"`
	TopK           int                `json:"topK"`
}

type RankWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type RankCandidate struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	City         string              `json:"city"`
	Rating       *float64            `json:"rating,omitempty"`
	ReviewsCount int                 `json:"reviewsCount"`
	Services     []string            `json:"services"`
	Expertise    []string            `json:"expertiseTags,omitempty"`
	Location     *models.Coordinate  `json:"location,omitempty"`
	Availability models.Availability `json:"availability"`
}

// RankedItem is one validated entry of the ranker's answer.
type RankedItem struct {
	ID     string
	Score  float64
	Reason string
}

// responseSchema is the only response shape accepted from the ranker.
const responseSchema = `{
	"type": "object",
	"required": ["results"],
	"properties": {
		"results": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "score"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"score": {"type": "number", "minimum": 0, "maximum": 1},
					"reason": {"type": "string"}
				}
			}
		}
	}
}`
