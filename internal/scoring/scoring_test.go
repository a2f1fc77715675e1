// internal/scoring/scoring_test.go
package scoring

import (
	"testing"
	"time"

	"caregiver-matching/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func ptr(v float64) *float64 { return &v }

func telAvivNurse() *models.Candidate {
	return &models.Candidate{
		ID:           "c-1",
		Name:         "Dana",
		Locality:     "Tel Aviv",
		Coordinate:   &models.Coordinate{Lat: 32.0853, Lng: 34.7818},
		Services:     []string{"Wound Care", "Medication"},
		Rating:       ptr(4.8),
		ReviewsCount: 50,
	}
}

// ==========================
// Weights and Totals
// ==========================

func TestDefaultWeights_SumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultWeights.Sum(), 1e-9)
}

func TestScore_TotalIsSumOfWeightedContributions(t *testing.T) {
	engine := NewEngine()
	queries := []models.Query{
		{},
		{Locality: "Tel Aviv", Services: []string{"Wound Care"}},
		{Coordinate: &models.Coordinate{Lat: 32.1, Lng: 34.8}, Urgent: true},
		{Locality: "Haifa", Services: []string{"Dialysis", "Wound"}, Window: &models.TimeWindow{
			Start: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		}},
	}

	for _, q := range queries {
		req := NewRequest(&q)
		b := engine.Score(&req, telAvivNurse())

		sum := 0.0
		weights := 0.0
		for _, f := range b.Factors() {
			assert.GreaterOrEqual(t, f.Score, 0.0)
			assert.LessOrEqual(t, f.Score, 1.0)
			assert.InDelta(t, f.Weight*f.Score, f.Weighted, 1e-12)
			assert.NotEmpty(t, f.Explanation)
			sum += f.Weighted
			weights += f.Weight
		}
		assert.InDelta(t, 1.0, weights, 1e-9)
		assert.InDelta(t, sum, b.Total(), 1e-12)
		assert.GreaterOrEqual(t, b.Total(), 0.0)
		assert.LessOrEqual(t, b.Total(), 1.0)
	}
}

func TestScore_DoesNotMutateCandidate(t *testing.T) {
	c := telAvivNurse()
	before := *c
	req := NewRequest(&models.Query{Locality: "Tel Aviv", Services: []string{"Wound Care"}})

	NewEngine().Score(&req, c)

	assert.Equal(t, before, *c)
}

func TestScore_CustomScorerKeepsWeights(t *testing.T) {
	engine := NewEngine(WithServiceScorer(func(*Request, *models.Candidate) float64 { return 2 }))
	req := NewRequest(&models.Query{})

	b := engine.Score(&req, telAvivNurse())

	assert.Equal(t, 1.0, b.ServiceMatch.Score, "scores are clamped to [0,1]")
	assert.Equal(t, DefaultWeights.Service, b.ServiceMatch.Weight)
}

// ==========================
// Factor Calculators
// ==========================

func TestServiceMatchScore(t *testing.T) {
	tests := []struct {
		name      string
		requested []string
		offered   []string
		want      float64
	}{
		{"no services requested", nil, []string{"Wound Care"}, 0.5},
		{"candidate offers nothing", []string{"Wound Care"}, nil, 0},
		{"exact match", []string{"WOUND_CARE"}, []string{"WOUND_CARE"}, 1},
		{"substring either way", []string{"Wound"}, []string{"Wound Care"}, 1},
		{"case sensitive", []string{"wound care"}, []string{"Wound Care"}, 0},
		{"partial", []string{"Wound Care", "Dialysis", "Medication"}, []string{"Wound Care", "Medication"}, 2.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ServiceMatchScore(tt.requested, tt.offered), 1e-12)
		})
	}
}

func TestLocationScore(t *testing.T) {
	c := telAvivNurse()
	noCoord := *c
	noCoord.Coordinate = nil
	noCoord.Locality = "Haifa"

	tests := []struct {
		name     string
		locality string
		coord    *models.Coordinate
		cand     *models.Candidate
		want     float64
	}{
		{"nothing requested", "", nil, c, 0.5},
		{"locality match ignores case", "tel aviv", nil, c, 1},
		{"hebrew locality", "תל אביב", nil, c, 1},
		{"containment", "Tel Aviv-Yafo", nil, c, 1},
		{"proximity fallback", "Ramat Gan", &models.Coordinate{Lat: 32.0823, Lng: 34.8107}, c, 0.9},
		{"no coordinate no match", "Jerusalem", nil, &noCoord, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LocationScore(tt.locality, tt.coord, tt.cand))
		})
	}
}

func TestReputationScore(t *testing.T) {
	assert.Equal(t, 0.5, ReputationScore(nil, 10))
	assert.Equal(t, 0.5, ReputationScore(ptr(0), 10))
	assert.InDelta(t, 0.7*0.9+0.3*0.5, ReputationScore(ptr(4.8), 50), 1e-12)
	assert.InDelta(t, 1.0, ReputationScore(ptr(5), 500), 1e-12)
	assert.InDelta(t, 0.0, ReputationScore(ptr(2.5), 0), 1e-12)
}

func TestAvailabilityScore(t *testing.T) {
	window := &models.TimeWindow{Start: time.Now(), End: time.Now().Add(time.Hour)}

	assert.Equal(t, 1.0, AvailabilityScore(true, nil))
	assert.Equal(t, 1.0, AvailabilityScore(true, window))
	assert.Equal(t, 0.5, AvailabilityScore(false, nil))
	assert.Equal(t, 0.7, AvailabilityScore(false, window))
}

func TestScore_UrgentIgnoresCandidateAvailability(t *testing.T) {
	c := telAvivNurse()
	c.Availability = models.Availability{Never: true}
	req := NewRequest(&models.Query{Locality: "Tel Aviv", Urgent: true})

	b := NewEngine().Score(&req, c)

	assert.Equal(t, 1.0, b.Availability.Score)
}

func TestExperienceScore(t *testing.T) {
	assert.InDelta(t, (0.2+0.25)/2, ExperienceScore(2, 50), 1e-12)
	assert.InDelta(t, 1.0, ExperienceScore(25, 1000), 1e-12)
	assert.Equal(t, 0.0, ExperienceScore(0, 0))
}

func TestAvailabilityOverlap(t *testing.T) {
	monday := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	window := &models.TimeWindow{Start: monday.Add(9 * time.Hour), End: monday.Add(13 * time.Hour)}

	tests := []struct {
		name  string
		win   *models.TimeWindow
		avail models.Availability
		want  float64
	}{
		{"no window", nil, models.Availability{Never: true}, 1},
		{"never", window, models.Availability{Never: true}, 0},
		{"always", window, models.Availability{Always: true}, 1},
		{"weekday half", window, models.Availability{Windows: map[string][]models.DailyWindow{
			"mon": {{Start: "11:00", End: "18:00"}},
		}}, 0.5},
		{"date key wins", window, models.Availability{Windows: map[string][]models.DailyWindow{
			"mon":        {{Start: "08:00", End: "18:00"}},
			"2024-01-15": {{Start: "12:00", End: "18:00"}},
		}}, 0.25},
		{"no windows that day", window, models.Availability{Windows: map[string][]models.DailyWindow{
			"tue": {{Start: "08:00", End: "18:00"}},
		}}, 0},
		{"bad clock ignored", window, models.Availability{Windows: map[string][]models.DailyWindow{
			"mon": {{Start: "9am", End: "18:00"}, {Start: "09:00", End: "10:00"}},
		}}, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AvailabilityOverlap(tt.win, tt.avail), 1e-12)
		})
	}
}

// ==========================
// Explanations
// ==========================

func TestExplanationTiers(t *testing.T) {
	assert.Equal(t, "Excellent fit for the requested service", explain(0.8, serviceTiers))
	assert.Equal(t, "Good fit for the requested service", explain(0.5, serviceTiers))
	assert.Equal(t, "Partial fit for the requested service", explain(0.1, serviceTiers))
	assert.Equal(t, "Limited experience", explain(0, experienceTiers))
}

func TestFormulaAndReason(t *testing.T) {
	req := NewRequest(&models.Query{Locality: "Tel Aviv", Services: []string{"Wound Care"}, Urgent: true})
	b := NewEngine().Score(&req, telAvivNurse())

	formula := Formula(&b)
	require.Contains(t, formula, "Score = (0.30 × 1.00)")
	assert.Contains(t, formula, "(0.15 × 1.00)")

	reason := Reason(&b, true)
	assert.Equal(t, "Excellent match for the requested service, close to the requested location, available for an urgent request", reason)

	empty := models.ScoreBreakdown{}
	assert.Equal(t, "Good overall match", Reason(&empty, false))
}
