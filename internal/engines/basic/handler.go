// internal/engines/basic/handler.go
package basic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"caregiver-matching/internal/common/logger"
	"caregiver-matching/internal/engines"
	"caregiver-matching/internal/geo"
	"caregiver-matching/internal/models"
	"caregiver-matching/internal/scoring"
)

const (
	EngineName = "basic"

	reviewConfidenceRate = 0.05
	specsForExperience   = 5.0
	casesForExperience   = 200.0
)

var (
	ErrNilQuery = errors.New("QUERY_REQUIRED")
	ErrCanceled = errors.New("MATCH_CANCELED")
)

// Handler runs hard filters (name, locality, service, availability, radius) and scores
// the survivors. It may return fewer than topK results and always reports stage counts.
type Handler struct {
	config *Config
	scorer *scoring.Engine
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config: config,
		scorer: scoring.NewEngine(
			scoring.WithServiceScorer(func(r *scoring.Request, c *models.Candidate) float64 {
				return bestServiceScore(r.Services, c.Services)
			}),
			scoring.WithLocationScorer(locationScore),
			scoring.WithReputationScorer(func(_ *scoring.Request, c *models.Candidate) float64 {
				return ratingScore(c.Rating, c.ReviewsCount)
			}),
			scoring.WithAvailabilityScorer(func(r *scoring.Request, c *models.Candidate) float64 {
				return scoring.AvailabilityOverlap(r.Window, c.Availability)
			}),
			scoring.WithExperienceScorer(func(_ *scoring.Request, c *models.Candidate) float64 {
				return experienceScore(len(c.Services), c.ReviewsCount)
			}),
		),
		logger: log.WithFields(map[string]interface{}{"engine": EngineName}),
	}
}

func (h *Handler) Name() string {
	return EngineName
}

func (h *Handler) Health(context.Context) engines.Health {
	return engines.Healthy()
}

func (h *Handler) Match(ctx context.Context, query *models.Query, pool []models.Candidate, opts engines.Options) (*engines.Result, error) {
	if query == nil {
		return nil, ErrNilQuery
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = h.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return h.execute(ctx, query, pool)
}

// candidateView is a candidate that passed every filter, with its derived values.
type candidateView struct {
	candidate    *models.Candidate
	distanceKm   *float64
	availability float64
}

func (h *Handler) execute(ctx context.Context, query *models.Query, pool []models.Candidate) (*engines.Result, error) {
	start := time.Now()

	resolved := engines.ResolveQuery(query)
	if resolved.RadiusKm <= 0 {
		resolved.RadiusKm = h.config.DefaultRadiusKm
	}
	req := scoring.NewRequest(&resolved)

	stats := &models.MatchStatistics{PoolSize: len(pool), Filtered: true}
	kept := make([]candidateView, 0, len(pool))

	for i := range pool {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w after %d of %d candidates: %w", ErrCanceled, i, len(pool), err)
		}
		c := &pool[i]

		if !matchesName(resolved.CandidateName, c) {
			continue
		}
		if resolved.Locality != "" && !scoring.LocalityMatches(resolved.Locality, c.AllLocalities()) {
			continue
		}
		stats.LocationMatches++

		if !offersService(resolved.Services, c.Services) {
			continue
		}
		stats.ServiceMatches++

		view := candidateView{
			candidate:    c,
			availability: scoring.AvailabilityOverlap(resolved.Window, c.Availability),
		}
		if resolved.Coordinate != nil && c.Coordinate != nil {
			view.distanceKm = engines.Float(geo.Distance(resolved.Coordinate, c.Coordinate))
		}
		if view.availability <= 0 {
			continue
		}
		if view.distanceKm != nil && *view.distanceKm > resolved.RadiusKm {
			continue
		}
		stats.AvailableMatches++
		kept = append(kept, view)
	}

	results := make([]models.MatchResult, 0, len(kept))
	for _, v := range kept {
		breakdown := h.scorer.Score(&req, v.candidate)
		results = append(results, toResult(v, &resolved, breakdown))
	}

	topK := resolved.TopK
	if topK <= 0 {
		topK = h.config.DefaultTopK
	}
	ranked := engines.RankAndTruncate(results, topK, tieBreak)

	h.logger.Debug("candidates filtered and ranked", map[string]interface{}{
		"poolSize":         stats.PoolSize,
		"locationMatches":  stats.LocationMatches,
		"serviceMatches":   stats.ServiceMatches,
		"availableMatches": stats.AvailableMatches,
		"returned":         len(ranked),
		"durationMs":       time.Since(start).Milliseconds(),
	})

	return engines.NewResult(ranked, stats), nil
}

func matchesName(name string, c *models.Candidate) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), name)
}

// locationScore decays linearly to zero at the search radius. Without coordinates on
// both sides the candidate already passed the locality filter and gets full credit.
func locationScore(r *scoring.Request, c *models.Candidate) float64 {
	if r.Coordinate == nil || c.Coordinate == nil || r.RadiusKm <= 0 {
		return 1.0
	}
	return math.Max(0, 1-geo.Distance(r.Coordinate, c.Coordinate)/r.RadiusKm)
}

// ratingScore scales the rating by a review-count confidence that reaches ~86% at 40
// reviews and ~99% at 100.
func ratingScore(rating *float64, reviews int) float64 {
	if rating == nil || reviews <= 0 {
		return 0
	}
	confidence := 1 - math.Exp(-reviewConfidenceRate*float64(reviews))
	return (*rating / 5.0) * confidence
}

func experienceScore(specializations, reviews int) float64 {
	specs := math.Min(1, float64(specializations)/specsForExperience)
	cases := math.Min(1, float64(max(reviews, 0))/casesForExperience)
	return 0.5*specs + 0.5*cases
}

// tieBreak orders equal scores by rating, then review count, then distance.
func tieBreak(a, b *models.MatchResult) bool {
	ra, rb := deref(a.Meta.Rating, 0), deref(b.Meta.Rating, 0)
	if ra != rb {
		return ra > rb
	}
	if a.Meta.ReviewsCount != b.Meta.ReviewsCount {
		return a.Meta.ReviewsCount > b.Meta.ReviewsCount
	}
	return deref(a.Meta.DistanceKm, math.MaxFloat64) < deref(b.Meta.DistanceKm, math.MaxFloat64)
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func toResult(v candidateView, q *models.Query, b models.ScoreBreakdown) models.MatchResult {
	c := v.candidate
	meta := models.ResultMeta{
		DistanceKm:        v.distanceKm,
		AvailabilityRatio: engines.Float(v.availability),
		ReviewsCount:      c.ReviewsCount,
		Locality:          c.Locality,
		Services:          append([]string(nil), c.Services...),
	}
	if c.Rating != nil {
		meta.Rating = engines.Float(*c.Rating)
	}

	formula := scoring.Formula(&b)
	return models.MatchResult{
		ID:                 c.ID,
		Name:               c.DisplayName(),
		Score:              b.Total(),
		Breakdown:          &b,
		Reason:             fmt.Sprintf("Match score %.1f%%: %s", b.Total()*100, scoring.Reason(&b, q.Urgent)),
		CalculationFormula: formula,
		Meta:               meta,
	}
}
