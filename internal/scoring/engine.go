package scoring

import (
	"fmt"
	"strings"

	"caregiver-matching/internal/models"
)

// Weights are fixed per engine and always sum to 1.0.
type Weights struct {
	Service      float64
	Location     float64
	Reputation   float64
	Availability float64
	Experience   float64
}

var DefaultWeights = Weights{
	Service:      0.30,
	Location:     0.25,
	Reputation:   0.20,
	Availability: 0.15,
	Experience:   0.10,
}

func (w Weights) Sum() float64 {
	return w.Service + w.Location + w.Reputation + w.Availability + w.Experience
}

// Request is the per-request view of a query after free-text extraction, computed once
// and shared by every candidate.
type Request struct {
	Locality   string
	Coordinate *models.Coordinate
	Services   []string
	Expertise  []string
	Window     *models.TimeWindow
	Urgent     bool
	RadiusKm   float64
}

// NewRequest copies the structured fields of q.
func NewRequest(q *models.Query) Request {
	return Request{
		Locality:   q.Locality,
		Coordinate: q.Coordinate,
		Services:   q.Services,
		Expertise:  q.Expertise,
		Window:     q.Window,
		Urgent:     q.Urgent,
		RadiusKm:   q.RadiusKm,
	}
}

// FactorFunc computes one factor score in [0,1].
type FactorFunc func(r *Request, c *models.Candidate) float64

type Engine struct {
	weights      Weights
	service      FactorFunc
	location     FactorFunc
	reputation   FactorFunc
	availability FactorFunc
	experience   FactorFunc
}

type Option func(*Engine)

// WithServiceScorer replaces the service-match calculator.
func WithServiceScorer(f FactorFunc) Option {
	return func(e *Engine) { e.service = f }
}

// WithLocationScorer replaces the location calculator.
func WithLocationScorer(f FactorFunc) Option {
	return func(e *Engine) { e.location = f }
}

// WithReputationScorer replaces the rating calculator.
func WithReputationScorer(f FactorFunc) Option {
	return func(e *Engine) { e.reputation = f }
}

// WithAvailabilityScorer replaces the availability calculator.
func WithAvailabilityScorer(f FactorFunc) Option {
	return func(e *Engine) { e.availability = f }
}

// WithExperienceScorer replaces the experience calculator.
func WithExperienceScorer(f FactorFunc) Option {
	return func(e *Engine) { e.experience = f }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights: DefaultWeights,
		service: func(r *Request, c *models.Candidate) float64 {
			return ServiceMatchScore(r.Services, c.Services)
		},
		location: func(r *Request, c *models.Candidate) float64 {
			return LocationScore(r.Locality, r.Coordinate, c)
		},
		reputation: func(_ *Request, c *models.Candidate) float64 {
			return ReputationScore(c.Rating, c.ReviewsCount)
		},
		availability: func(r *Request, _ *models.Candidate) float64 {
			return AvailabilityScore(r.Urgent, r.Window)
		},
		experience: func(_ *Request, c *models.Candidate) float64 {
			return ExperienceScore(len(c.Services), c.ReviewsCount)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Weights() Weights {
	return e.weights
}

// Score builds the five-factor breakdown for one candidate. It never mutates c.
func (e *Engine) Score(r *Request, c *models.Candidate) models.ScoreBreakdown {
	service := clamp01(e.service(r, c))
	location := clamp01(e.location(r, c))
	reputation := clamp01(e.reputation(r, c))
	availability := clamp01(e.availability(r, c))
	experience := clamp01(e.experience(r, c))

	return models.ScoreBreakdown{
		ServiceMatch: newFactor(e.weights.Service, service, explain(service, serviceTiers)),
		Location:     newFactor(e.weights.Location, location, explain(location, locationTiers)),
		Rating:       newFactor(e.weights.Reputation, reputation, explain(reputation, reputationTiers)),
		Availability: newFactor(e.weights.Availability, availability, explain(availability, availabilityTiers)),
		Experience:   newFactor(e.weights.Experience, experience, explain(experience, experienceTiers)),
	}
}

func newFactor(weight, score float64, explanation string) models.Factor {
	return models.Factor{
		Weight:      weight,
		Score:       score,
		Weighted:    weight * score,
		Explanation: explanation,
	}
}

// Formula renders the weighted sum, e.g. "Score = (0.30 × 1.00) + ... = 0.912".
func Formula(b *models.ScoreBreakdown) string {
	parts := make([]string, 0, 5)
	for _, f := range b.Factors() {
		parts = append(parts, fmt.Sprintf("(%.2f × %.2f)", f.Weight, f.Score))
	}
	return fmt.Sprintf("Score = %s = %.3f", strings.Join(parts, " + "), b.Total())
}

// Reason summarizes the strongest factors in one line.
func Reason(b *models.ScoreBreakdown, urgent bool) string {
	var reasons []string
	if b.ServiceMatch.Score >= 0.8 {
		reasons = append(reasons, "excellent match for the requested service")
	}
	if b.Location.Score >= 0.8 {
		reasons = append(reasons, "close to the requested location")
	}
	if b.Rating.Score >= 0.8 {
		reasons = append(reasons, "highly rated")
	}
	if urgent {
		reasons = append(reasons, "available for an urgent request")
	}
	if len(reasons) == 0 {
		return "Good overall match"
	}
	reasons[0] = strings.ToUpper(reasons[0][:1]) + reasons[0][1:]
	return strings.Join(reasons, ", ")
}
