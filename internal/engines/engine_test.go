// internal/engines/engine_test.go
package engines

import (
	"testing"

	"caregiver-matching/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func results(scores ...float64) []models.MatchResult {
	out := make([]models.MatchResult, len(scores))
	for i, s := range scores {
		out[i] = models.MatchResult{ID: string(rune('a' + i)), Score: s}
	}
	return out
}

func TestRankAndTruncate_StableDescending(t *testing.T) {
	ranked := RankAndTruncate(results(0.2, 0.9, 0.5, 0.9, 0.1), 4, nil)

	require.Len(t, ranked, 4)
	assert.Equal(t, []string{"b", "d", "c", "a"}, []string{ranked[0].ID, ranked[1].ID, ranked[2].ID, ranked[3].ID})
	for i, r := range ranked {
		assert.Equal(t, i+1, r.Rank)
	}
}

func TestRankAndTruncate_NeverPads(t *testing.T) {
	ranked := RankAndTruncate(results(0.3, 0.1), 5, nil)
	assert.Len(t, ranked, 2)

	assert.Empty(t, RankAndTruncate(nil, 5, nil))
}

func TestRankAndTruncate_TieBreak(t *testing.T) {
	byIDDesc := func(a, b *models.MatchResult) bool { return a.ID > b.ID }
	ranked := RankAndTruncate(results(0.5, 0.5, 0.5), 3, byIDDesc)

	assert.Equal(t, "c", ranked[0].ID)
	assert.Equal(t, "a", ranked[2].ID)
}

func TestNewResult_NeverNil(t *testing.T) {
	r := NewResult(nil, nil)
	assert.NotNil(t, r.Results)
	assert.Equal(t, 0, r.Count)
}

func TestResolveQuery(t *testing.T) {
	t.Run("free text fills empty structured fields", func(t *testing.T) {
		q := &models.Query{Text: "need wound care nurse in Tel Aviv urgently", TopK: 3}

		resolved := ResolveQuery(q)

		assert.Equal(t, "Tel Aviv", resolved.Locality)
		assert.Contains(t, resolved.Services, "WOUND_CARE")
		assert.True(t, resolved.Urgent)
		assert.Equal(t, 3, resolved.TopK)
		assert.Empty(t, q.Services, "input query is not modified")
	})

	t.Run("structured fields win over text", func(t *testing.T) {
		q := &models.Query{Text: "wound care in Haifa", Locality: "Tel Aviv"}

		resolved := ResolveQuery(q)

		assert.Equal(t, "Tel Aviv", resolved.Locality)
		assert.Empty(t, resolved.Services)
	})
}
