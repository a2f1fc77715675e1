// Package engines defines the contract shared by every matching strategy.
package engines

import (
	"context"
	"sort"
	"time"

	"caregiver-matching/internal/models"
	"caregiver-matching/internal/textentity"
)

// Options carries per-call limits set by the gateway.
type Options struct {
	Timeout time.Duration
}

// Result is one engine's answer to one query.
type Result struct {
	Results    []models.MatchResult    `json:"results"`
	Count      int                     `json:"count"`
	Statistics *models.MatchStatistics `json:"statistics,omitempty"`
}

type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

type Health struct {
	Status  HealthStatus           `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Healthy is the health of an engine with no external dependencies.
func Healthy() Health {
	return Health{Status: StatusHealthy}
}

// MatchingEngine ranks a read-only candidate pool for a query. Implementations must not
// mutate pool, must truncate to query.TopK without padding, and must return an error
// rather than an empty result when they cannot rank.
type MatchingEngine interface {
	Name() string
	Match(ctx context.Context, query *models.Query, pool []models.Candidate, opts Options) (*Result, error)
	Health(ctx context.Context) Health
}

// TieBreak orders two results with equal scores. It returns true when a ranks before b.
type TieBreak func(a, b *models.MatchResult) bool

// RankAndTruncate sorts results by score descending, truncates to topK and assigns
// 1-based ranks. Equal scores keep their input order unless tieBreak says otherwise.
func RankAndTruncate(results []models.MatchResult, topK int, tieBreak TieBreak) []models.MatchResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if tieBreak != nil {
			return tieBreak(&results[i], &results[j])
		}
		return false
	})

	if topK >= 0 && len(results) > topK {
		results = results[:topK]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// NewResult wraps ranked results.
func NewResult(results []models.MatchResult, stats *models.MatchStatistics) *Result {
	if results == nil {
		results = []models.MatchResult{}
	}
	return &Result{Results: results, Count: len(results), Statistics: stats}
}

// ResolveQuery returns a copy of q in which free text fills the structured fields, but
// only when the caller supplied no structured field at all. Urgency from text is OR-ed in.
func ResolveQuery(q *models.Query) models.Query {
	resolved := *q
	if q.Text == "" || q.HasStructuredFields() {
		return resolved
	}

	entities := textentity.Extract(q.Text)
	resolved.Services = entities.Services
	resolved.Locality = entities.Locality
	resolved.Urgent = q.Urgent || entities.Urgent
	return resolved
}

// Float returns a pointer to v, for optional meta fields.
func Float(v float64) *float64 {
	return &v
}
