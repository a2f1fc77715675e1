// internal/engines/fuzzy/handler.go
package fuzzy

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
	"caregiver-matching/internal/textentity"
)

const (
	EngineName = "fuzzy"
)

var (
	ErrNilQuery = errors.New("QUERY_REQUIRED")
	ErrCanceled = errors.New("MATCH_CANCELED")
)

// Handler prefilters by locality, scores with fuzzy service similarity and expertise
// overlap, and drops candidates that score zero.
type Handler struct {
	config *Config
	scorer *scoring.Engine
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	h := &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"engine": EngineName}),
	}
	h.scorer = scoring.NewEngine(
		scoring.WithServiceScorer(h.serviceScore),
		scoring.WithLocationScorer(h.locationScore),
		scoring.WithAvailabilityScorer(availabilityScore),
		scoring.WithExperienceScorer(expertiseScore),
	)
	return h
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

func (h *Handler) execute(ctx context.Context, query *models.Query, pool []models.Candidate) (*engines.Result, error) {
	start := time.Now()

	resolved := engines.ResolveQuery(query)
	req := scoring.NewRequest(&resolved)
	// A named locality without a coordinate is located through the city table so
	// proximity still counts for candidates whose locality is spelled differently.
	if req.Coordinate == nil && req.Locality != "" {
		req.Coordinate = geo.CityCoordinates(textentity.CanonicalLocality(req.Locality))
	}

	stats := &models.MatchStatistics{PoolSize: len(pool), Filtered: true}
	results := make([]models.MatchResult, 0, len(pool))

	for i := range pool {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w after %d of %d candidates: %w", ErrCanceled, i, len(pool), err)
		}
		c := &pool[i]

		if !h.nearLocality(&req, c) {
			continue
		}
		stats.LocationMatches++

		b := h.scorer.Score(&req, c)
		if len(req.Services) > 0 && b.ServiceMatch.Score == 0 {
			continue
		}
		stats.ServiceMatches++

		if b.Total() <= 0 {
			continue
		}
		stats.AvailableMatches++
		results = append(results, toResult(c, &req, b))
	}

	topK := resolved.TopK
	if topK <= 0 {
		topK = h.config.DefaultTopK
	}
	ranked := engines.RankAndTruncate(results, topK, func(a, b *models.MatchResult) bool {
		return a.ID < b.ID
	})

	h.logger.Debug("candidates ranked", map[string]interface{}{
		"poolSize":      stats.PoolSize,
		"afterLocality": stats.LocationMatches,
		"afterServices": stats.ServiceMatches,
		"returned":      len(ranked),
		"durationMs":    time.Since(start).Milliseconds(),
	})

	return engines.NewResult(ranked, stats), nil
}

// nearLocality keeps candidates whose locality names the requested one, or whose
// coordinate lies within the distance limit of the requested point.
func (h *Handler) nearLocality(r *scoring.Request, c *models.Candidate) bool {
	if r.Locality == "" {
		return true
	}
	if sameLocality(r.Locality, c.AllLocalities()) {
		return true
	}
	if r.Coordinate != nil && c.Coordinate != nil {
		return geo.Distance(r.Coordinate, c.Coordinate) <= h.config.MaxDistanceKm
	}
	return false
}

func sameLocality(requested string, localities []string) bool {
	want := strings.ToLower(textentity.CanonicalLocality(strings.TrimSpace(requested)))
	for _, l := range localities {
		if strings.ToLower(textentity.CanonicalLocality(l)) == want {
			return true
		}
	}
	return false
}

func (h *Handler) serviceScore(r *scoring.Request, c *models.Candidate) float64 {
	if len(r.Services) == 0 {
		return scoring.NeutralScore
	}
	return serviceSimilarity(r.Services, c.Services, h.config.Threshold)
}

// locationScore decays linearly over MaxDistanceKm. Without a distance a name match
// counts fully and no location at all is neutral.
func (h *Handler) locationScore(r *scoring.Request, c *models.Candidate) float64 {
	if r.Coordinate != nil && c.Coordinate != nil {
		return math.Max(0, 1-geo.Distance(r.Coordinate, c.Coordinate)/h.config.MaxDistanceKm)
	}
	if r.Locality != "" && sameLocality(r.Locality, c.AllLocalities()) {
		return 1.0
	}
	return scoring.NeutralScore
}

func availabilityScore(r *scoring.Request, c *models.Candidate) float64 {
	if r.Urgent {
		return 1.0
	}
	return scoring.AvailabilityOverlap(r.Window, c.Availability)
}

func expertiseScore(r *scoring.Request, c *models.Candidate) float64 {
	if len(r.Expertise) == 0 {
		return scoring.NeutralScore
	}
	return jaccard(r.Expertise, c.Expertise)
}

func toResult(c *models.Candidate, r *scoring.Request, b models.ScoreBreakdown) models.MatchResult {
	meta := models.ResultMeta{
		ReviewsCount: c.ReviewsCount,
		Locality:     c.Locality,
		Services:     append([]string(nil), c.Services...),
	}
	if c.Rating != nil {
		meta.Rating = engines.Float(*c.Rating)
	}
	if r.Coordinate != nil && c.Coordinate != nil {
		meta.DistanceKm = engines.Float(geo.Distance(r.Coordinate, c.Coordinate))
	}
	if !r.Urgent {
		meta.AvailabilityRatio = engines.Float(b.Availability.Score)
	}

	return models.MatchResult{
		ID:                 c.ID,
		Name:               c.DisplayName(),
		Score:              b.Total(),
		Breakdown:          &b,
		Reason:             reason(&b, meta.DistanceKm, r.Urgent),
		CalculationFormula: scoring.Formula(&b),
		Meta:               meta,
	}
}

// reason lists the non-zero signals, e.g. "services ≈ 95% · distance ≈ 3.2 km".
func reason(b *models.ScoreBreakdown, distanceKm *float64, urgent bool) string {
	var parts []string
	if b.ServiceMatch.Score > 0 {
		parts = append(parts, fmt.Sprintf("services ≈ %d%%", int(b.ServiceMatch.Score*100)))
	}
	if b.Experience.Score > 0 {
		parts = append(parts, fmt.Sprintf("expertise ≈ %d%%", int(b.Experience.Score*100)))
	}
	if b.Availability.Score > 0 {
		parts = append(parts, fmt.Sprintf("availability ≈ %d%%", int(b.Availability.Score*100)))
	}
	if distanceKm != nil {
		parts = append(parts, fmt.Sprintf("distance ≈ %.1f km", *distanceKm))
	}
	if urgent {
		parts = append(parts, "urgent")
	}
	if len(parts) == 0 {
		return scoring.Reason(b, urgent)
	}
	return strings.Join(parts, " · ")
}
