// internal/engines/rulebased/handler_test.go
package rulebased

import (
	"context"
	"fmt"
	"testing"
	"time"

	"caregiver-matching/internal/common/logger"
	"caregiver-matching/internal/engines"
	"caregiver-matching/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func rating(v float64) *float64 { return &v }

func createTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func scenarioPool() []models.Candidate {
	return []models.Candidate{
		{
			ID:       "haifa-1",
			Name:     "Noa",
			Locality: "Haifa",
			Services: []string{"GENERAL"},
		},
		{
			ID:           "ta-1",
			Name:         "Dana",
			Locality:     "Tel Aviv",
			Services:     []string{"WOUND_CARE"},
			Rating:       rating(4.8),
			ReviewsCount: 50,
		},
	}
}

func largePool(n int) []models.Candidate {
	cities := []string{"Tel Aviv", "Haifa", "Jerusalem", "Netanya"}
	services := [][]string{{"WOUND_CARE"}, {"MEDICATION"}, {"GENERAL"}, {"WOUND_CARE", "MEDICATION"}}
	pool := make([]models.Candidate, n)
	for i := range pool {
		pool[i] = models.Candidate{
			ID:           fmt.Sprintf("c-%03d", i),
			Locality:     cities[i%len(cities)],
			Services:     services[i%len(services)],
			Rating:       rating(3 + float64(i%5)*0.5),
			ReviewsCount: i * 3,
			Coordinate:   &models.Coordinate{Lat: 31.5 + float64(i%10)*0.1, Lng: 34.8},
		}
	}
	return pool
}

// ==========================
// Match
// ==========================

func TestMatch_ScenarioAlwaysFills(t *testing.T) {
	h := createTestHandler(t)
	q := &models.Query{Locality: "Tel Aviv", Services: []string{"WOUND_CARE"}, TopK: 2}

	res, err := h.Match(context.Background(), q, scenarioPool(), engines.Options{})

	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	assert.Equal(t, "ta-1", res.Results[0].ID)
	assert.Equal(t, "haifa-1", res.Results[1].ID)
	assert.Equal(t, 1, res.Results[0].Rank)
	assert.Equal(t, 2, res.Results[1].Rank)
	assert.Nil(t, res.Statistics)

	top := res.Results[0]
	require.NotNil(t, top.Breakdown)
	assert.Equal(t, 1.0, top.Breakdown.ServiceMatch.Score)
	assert.Equal(t, 1.0, top.Breakdown.Location.Score)
	assert.InDelta(t, top.Breakdown.Total(), top.Score, 1e-12)
	assert.NotEmpty(t, top.Reason)
	assert.Contains(t, top.CalculationFormula, "Score = ")
}

func TestMatch_ReturnsExactlyTopK(t *testing.T) {
	h := createTestHandler(t)
	pool := largePool(40)

	for _, n := range []int{1, 5, 17, 40} {
		res, err := h.Match(context.Background(), &models.Query{Locality: "Haifa", TopK: n}, pool, engines.Options{})
		require.NoError(t, err)
		require.Len(t, res.Results, n)
		for i, r := range res.Results {
			assert.Equal(t, i+1, r.Rank)
			if i > 0 {
				assert.GreaterOrEqual(t, res.Results[i-1].Score, r.Score)
			}
		}
	}
}

func TestMatch_TopKLargerThanPool(t *testing.T) {
	h := createTestHandler(t)

	res, err := h.Match(context.Background(), &models.Query{Locality: "Haifa", TopK: 10}, scenarioPool(), engines.Options{})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
}

func TestMatch_Idempotent(t *testing.T) {
	h := createTestHandler(t)
	pool := largePool(25)
	q := &models.Query{
		Coordinate: &models.Coordinate{Lat: 32.0, Lng: 34.8},
		Services:   []string{"WOUND_CARE"},
		TopK:       10,
	}

	first, err := h.Match(context.Background(), q, pool, engines.Options{})
	require.NoError(t, err)
	second, err := h.Match(context.Background(), q, pool, engines.Options{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestMatch_DoesNotMutatePool(t *testing.T) {
	h := createTestHandler(t)
	pool := largePool(12)
	snapshot := make([]models.Candidate, len(pool))
	copy(snapshot, pool)

	res, err := h.Match(context.Background(), &models.Query{Locality: "Tel Aviv", TopK: 12}, pool, engines.Options{})
	require.NoError(t, err)
	res.Results[0].Meta.Services[0] = "CHANGED"

	assert.Equal(t, snapshot, pool)
}

func TestMatch_FreeTextOnlyWhenNoStructuredFields(t *testing.T) {
	h := createTestHandler(t)

	res, err := h.Match(context.Background(), &models.Query{
		Text: "need wound care nurse in Tel Aviv urgently",
		TopK: 1,
	}, scenarioPool(), engines.Options{})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "ta-1", res.Results[0].ID)
	assert.Equal(t, 1.0, res.Results[0].Breakdown.Availability.Score, "urgency comes from the text")

	res, err = h.Match(context.Background(), &models.Query{
		Text:     "need wound care nurse in Tel Aviv urgently",
		Locality: "Haifa",
		TopK:     1,
	}, scenarioPool(), engines.Options{})
	require.NoError(t, err)
	assert.Equal(t, "haifa-1", res.Results[0].ID)
	assert.Equal(t, 0.5, res.Results[0].Breakdown.Availability.Score)
}

func TestMatch_UrgentGetsFullAvailability(t *testing.T) {
	h := createTestHandler(t)
	pool := scenarioPool()
	pool[1].Availability = models.Availability{Never: true}

	res, err := h.Match(context.Background(), &models.Query{Locality: "Tel Aviv", Urgent: true, TopK: 2}, pool, engines.Options{})

	require.NoError(t, err)
	for _, r := range res.Results {
		assert.Equal(t, 1.0, r.Breakdown.Availability.Score)
	}
}

func TestMatch_NoLocationIsNeutral(t *testing.T) {
	h := createTestHandler(t)

	res, err := h.Match(context.Background(), &models.Query{Services: []string{"WOUND_CARE"}, TopK: 2}, scenarioPool(), engines.Options{})

	require.NoError(t, err)
	for _, r := range res.Results {
		assert.Equal(t, 0.5, r.Breakdown.Location.Score)
	}
}

func TestMatch_DefaultTopK(t *testing.T) {
	h := createTestHandler(t)

	res, err := h.Match(context.Background(), &models.Query{Locality: "Haifa"}, largePool(20), engines.Options{})

	require.NoError(t, err)
	assert.Len(t, res.Results, 5)
}

func TestMatch_Errors(t *testing.T) {
	h := createTestHandler(t)

	_, err := h.Match(context.Background(), nil, scenarioPool(), engines.Options{})
	assert.ErrorIs(t, err, ErrNilQuery)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Match(ctx, &models.Query{Locality: "Haifa"}, largePool(3), engines.Options{Timeout: time.Second})
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHealth(t *testing.T) {
	h := createTestHandler(t)
	assert.Equal(t, EngineName, h.Name())
	assert.Equal(t, engines.StatusHealthy, h.Health(context.Background()).Status)
}

func TestNewHandler_DoesNotMutateConfig(t *testing.T) {
	cfg := &Config{DefaultTopK: 3, Timeout: time.Second}
	h := NewHandler(cfg, logger.NewTestLogger(t))

	assert.Equal(t, 0, cfg.CheckEvery, "caller config untouched")
	assert.Equal(t, 1, h.config.CheckEvery)
	assert.NotSame(t, cfg, h.config)
}
