// internal/engines/rulebased/handler.go
package rulebased

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caregiver-matching/internal/common/logger"
	"caregiver-matching/internal/engines"
	"caregiver-matching/internal/geo"
	"caregiver-matching/internal/models"
	"caregiver-matching/internal/scoring"
)

const (
	EngineName = "rule-based"
)

var (
	ErrNilQuery = errors.New("QUERY_REQUIRED")
	ErrCanceled = errors.New("MATCH_CANCELED")
)

// Handler scores every candidate with the five-factor scoring engine. It always returns
// min(topK, len(pool)) results, zero-score candidates included.
type Handler struct {
	config *Config
	scorer *scoring.Engine
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	cfg := *config
	if cfg.CheckEvery <= 0 {
		cfg.CheckEvery = 1
	}
	return &Handler{
		config: &cfg,
		scorer: scoring.NewEngine(),
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

func (h *Handler) execute(ctx context.Context, query *models.Query, pool []models.Candidate) (*engines.Result, error) {
	start := time.Now()

	resolved := engines.ResolveQuery(query)
	req := scoring.NewRequest(&resolved)

	results := make([]models.MatchResult, 0, len(pool))
	for i := range pool {
		if i%h.config.CheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("%w after %d of %d candidates: %w", ErrCanceled, i, len(pool), err)
			}
		}
		c := &pool[i]
		breakdown := h.scorer.Score(&req, c)
		results = append(results, toResult(c, &resolved, breakdown))
	}

	topK := resolved.TopK
	if topK <= 0 {
		topK = h.config.DefaultTopK
	}
	ranked := engines.RankAndTruncate(results, topK, nil)

	h.logger.Debug("candidates ranked", map[string]interface{}{
		"poolSize":     len(pool),
		"returned":     len(ranked),
		"fromFreeText": query.Text != "" && !query.HasStructuredFields(),
		"durationMs":   time.Since(start).Milliseconds(),
	})

	return engines.NewResult(ranked, nil), nil
}

func toResult(c *models.Candidate, q *models.Query, b models.ScoreBreakdown) models.MatchResult {
	meta := models.ResultMeta{
		ReviewsCount: c.ReviewsCount,
		Locality:     c.Locality,
		Services:     append([]string(nil), c.Services...),
	}
	if c.Rating != nil {
		meta.Rating = engines.Float(*c.Rating)
	}
	if q.Coordinate != nil && c.Coordinate != nil {
		meta.DistanceKm = engines.Float(geo.Distance(q.Coordinate, c.Coordinate))
	}

	return models.MatchResult{
		ID:                 c.ID,
		Name:               c.DisplayName(),
		Score:              b.Total(),
		Breakdown:          &b,
		Reason:             scoring.Reason(&b, q.Urgent),
		CalculationFormula: scoring.Formula(&b),
		Meta:               meta,
	}
}
