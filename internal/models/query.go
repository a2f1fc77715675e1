// internal/models/query.go
package models

// Query is the structured matching request handed to an engine.
type Query struct {
	Locality      string      `json:"city,omitempty"`
	Coordinate    *Coordinate `json:"coordinate,omitempty"`
	Services      []string    `json:"servicesQuery,omitempty"`
	Expertise     []string    `json:"expertiseQuery,omitempty"`
	Window        *TimeWindow `json:"window,omitempty"`
	Urgent        bool        `json:"urgent"`
	TopK          int         `json:"topK"`
	Text          string      `json:"query,omitempty"`
	RadiusKm      float64     `json:"radiusKm,omitempty"`
	CandidateName string      `json:"nurseName,omitempty"`
}

// HasStructuredFields reports whether the caller supplied any structured matching field.
func (q *Query) HasStructuredFields() bool {
	return q.Locality != "" || q.Coordinate != nil || len(q.Services) > 0 || len(q.Expertise) > 0
}

// HasLocation reports whether any location signal is present.
func (q *Query) HasLocation() bool {
	return q.Locality != "" || q.Coordinate != nil
}
