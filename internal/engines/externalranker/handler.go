// internal/engines/externalranker/handler.go
package externalranker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	commonerrors "caregiver-matching/internal/common/errors"
	httpclient "caregiver-matching/internal/common/http"
	"caregiver-matching/internal/common/logger"
	"caregiver-matching/internal/engines"
	"caregiver-matching/internal/models"
	"caregiver-matching/internal/scoring"

	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

const (
	EngineName = "external-ranker"
)

var (
	ErrNilQuery      = errors.New("QUERY_REQUIRED")
	ErrRankerTimeout = errors.New("RANKER_TIMEOUT")
)

var schemaLoader = gojsonschema.NewStringLoader(responseSchema)

// Handler forwards a reduced pool to an external ranking service and trusts its order.
// Any transport failure, non-2xx answer or malformed body fails the call.
type Handler struct {
	config  *Config
	client  *httpclient.Client
	preRank *scoring.Engine
	logger  logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"engine": EngineName})
	return &Handler{
		config: config,
		client: httpclient.NewClient(config.BaseURL, config.Timeout, httpclient.RetryPolicy{
			MaxAttempts: config.MaxAttempts,
			BaseBackoff: config.BaseBackoff,
			MaxBackoff:  config.MaxBackoff,
		}, log),
		preRank: scoring.NewEngine(),
		logger:  log,
	}
}

func (h *Handler) Name() string {
	return EngineName
}

// Health probes the ranker's health endpoint within ctx.
func (h *Handler) Health(ctx context.Context) engines.Health {
	start := time.Now()
	resp, err := h.client.Get(ctx, h.config.HealthPath)
	if err != nil {
		return engines.Health{
			Status:  engines.StatusUnhealthy,
			Message: logger.Mask(err.Error()),
		}
	}
	details := map[string]interface{}{
		"status":    resp.StatusCode,
		"latencyMs": time.Since(start).Milliseconds(),
	}
	if !resp.IsSuccess() {
		return engines.Health{
			Status:  engines.StatusDegraded,
			Message: fmt.Sprintf("ranker health returned %d", resp.StatusCode),
			Details: details,
		}
	}
	return engines.Health{Status: engines.StatusHealthy, Details: details}
}

func (h *Handler) Match(ctx context.Context, query *models.Query, pool []models.Candidate, opts engines.Options) (*engines.Result, error) {
	if query == nil {
		return nil, ErrNilQuery
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	return h.execute(ctx, query, pool)
}

func (h *Handler) execute(ctx context.Context, query *models.Query, pool []models.Candidate) (*engines.Result, error) {
	start := time.Now()

	resolved := engines.ResolveQuery(query)
	topK := resolved.TopK
	if topK <= 0 {
		topK = h.config.DefaultTopK
	}

	payload := h.buildRequest(&resolved, topK, pool)
	headers := map[string]string{}
	if h.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + h.config.APIKey
	}

	resp, err := h.client.PostJSON(ctx, h.config.Path, payload, headers)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrRankerTimeout, ctxErr)
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("%w: %w", ErrRankerTimeout, context.DeadlineExceeded)
		}
		return nil, commonerrors.NewRankerUnavailableError(h.config.MaxAttempts, err)
	}
	if !resp.IsSuccess() {
		return nil, commonerrors.NewRankerUnavailableError(resp.Attempts,
			fmt.Errorf("ranker returned status %d", resp.StatusCode))
	}

	items, err := parseResponse(resp.Body)
	if err != nil {
		h.logger.Warn("malformed ranker response", map[string]interface{}{
			"error": err.Error(),
			"body":  logger.Mask(string(resp.Body)),
		})
		return nil, err
	}

	results := h.attachNames(items, pool)
	ranked := engines.RankAndTruncate(results, topK, nil)

	h.logger.Info("ranker call completed", map[string]interface{}{
		"poolSize":   len(pool),
		"sent":       len(payload.Candidates),
		"received":   len(items),
		"returned":   len(ranked),
		"attempts":   resp.Attempts,
		"durationMs": time.Since(start).Milliseconds(),
	})

	return engines.NewResult(ranked, nil), nil
}

// buildRequest keeps at most MaxCandidates candidates, chosen by the local five-factor
// score when the pool is larger.
func (h *Handler) buildRequest(q *models.Query, topK int, pool []models.Candidate) *RankRequest {
	req := &RankRequest{
		Query: RankQuery{
			City:           q.Locality,
			ServicesQuery:  nonNil(q.Services),
			ExpertiseQuery: nonNil(q.Expertise),
			Location:       q.Coordinate,
			Urgent:         q.Urgent,
			TopK:           topK,
		},
	}
	if q.Window != nil {
		req.Query.TimeWindow = &RankWindow{Start: q.Window.Start, End: q.Window.End}
	}

	req.Candidates = make([]RankCandidate, 0, min(len(pool), h.config.MaxCandidates))
	for _, c := range h.selectCandidates(q, pool) {
		req.Candidates = append(req.Candidates, RankCandidate{
			ID:           c.ID,
			Name:         c.DisplayName(),
			City:         c.Locality,
			Rating:       c.Rating,
			ReviewsCount: c.ReviewsCount,
			Services:     nonNil(c.Services),
			Expertise:    c.Expertise,
			Location:     c.Coordinate,
			Availability: c.Availability,
		})
	}
	return req
}

func (h *Handler) selectCandidates(q *models.Query, pool []models.Candidate) []*models.Candidate {
	selected := make([]*models.Candidate, 0, min(len(pool), h.config.MaxCandidates))
	if len(pool) <= h.config.MaxCandidates {
		for i := range pool {
			selected = append(selected, &pool[i])
		}
		return selected
	}

	type scored struct {
		index int
		score float64
	}
	scoreReq := scoring.NewRequest(q)
	all := make([]scored, len(pool))
	for i := range pool {
		b := h.preRank.Score(&scoreReq, &pool[i])
		all[i] = scored{index: i, score: b.Total()}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	for _, s := range all[:h.config.MaxCandidates] {
		selected = append(selected, &pool[s.index])
	}
	return selected
}

// parseResponse validates the body against the response schema and extracts the items.
func parseResponse(body []byte) ([]RankedItem, error) {
	if !gjson.ValidBytes(body) {
		return nil, commonerrors.NewRankerResponseInvalidError("response is not valid JSON")
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, commonerrors.NewRankerResponseInvalidError(fmt.Sprintf("schema check: %v", err))
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			errs[i] = e.String()
		}
		return nil, commonerrors.NewRankerResponseInvalidError(strings.Join(errs, "; "))
	}

	var items []RankedItem
	var duplicate string
	seen := make(map[string]bool)
	gjson.GetBytes(body, "results").ForEach(func(_, value gjson.Result) bool {
		id := value.Get("id").String()
		if seen[id] {
			duplicate = id
			return false
		}
		seen[id] = true
		items = append(items, RankedItem{
			ID:     id,
			Score:  value.Get("score").Float(),
			Reason: value.Get("reason").String(),
		})
		return true
	})
	if duplicate != "" {
		return nil, commonerrors.NewRankerResponseInvalidError(fmt.Sprintf("duplicate id %q", duplicate))
	}
	return items, nil
}

// attachNames restores display names from the local pool. Unknown ids keep the id as
// their name.
func (h *Handler) attachNames(items []RankedItem, pool []models.Candidate) []models.MatchResult {
	byID := make(map[string]*models.Candidate, len(pool))
	for i := range pool {
		byID[pool[i].ID] = &pool[i]
	}

	results := make([]models.MatchResult, 0, len(items))
	var unknown []string
	for _, item := range items {
		r := models.MatchResult{ID: item.ID, Name: item.ID, Score: item.Score, Reason: item.Reason}
		if c, ok := byID[item.ID]; ok {
			r.Name = c.DisplayName()
			r.Meta = models.ResultMeta{
				ReviewsCount: c.ReviewsCount,
				Locality:     c.Locality,
				Services:     append([]string(nil), c.Services...),
			}
			if c.Rating != nil {
				r.Meta.Rating = engines.Float(*c.Rating)
			}
		} else {
			unknown = append(unknown, item.ID)
		}
		results = append(results, r)
	}

	if len(unknown) > 0 {
		h.logger.Warn("ranker returned ids not in the pool", map[string]interface{}{
			"ids": unknown,
		})
	}
	return results
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
