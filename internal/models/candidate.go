// internal/models/candidate.go
package models

import "strings"

// DefaultService is the label assigned to candidates whose specialization is missing or unmapped.
const DefaultService = "GENERAL"

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Candidate struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Locality     string       `json:"city"`
	Localities   []string     `json:"municipality,omitempty"`
	Coordinate   *Coordinate  `json:"coordinate,omitempty"`
	Services     []string     `json:"services"`
	Expertise    []string     `json:"expertiseTags,omitempty"`
	Rating       *float64     `json:"rating,omitempty"`
	ReviewsCount int          `json:"reviewsCount"`
	Availability Availability `json:"availability"`
}

// AllLocalities returns the primary locality followed by the additional ones,
// skipping blanks and case-insensitive duplicates.
func (c *Candidate) AllLocalities() []string {
	seen := make(map[string]bool, len(c.Localities)+1)
	out := make([]string, 0, len(c.Localities)+1)
	for _, l := range append([]string{c.Locality}, c.Localities...) {
		l = strings.TrimSpace(l)
		key := strings.ToLower(l)
		if l == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}

// DisplayName falls back to a short form of the id when the record has no name.
func (c *Candidate) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	id := c.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return "Caregiver " + id
}

// NormalizeServices trims and deduplicates labels and guarantees a non-empty result.
func NormalizeServices(services []string) []string {
	seen := make(map[string]bool, len(services))
	out := make([]string, 0, len(services))
	for _, s := range services {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) == 0 {
		return []string{DefaultService}
	}
	return out
}
