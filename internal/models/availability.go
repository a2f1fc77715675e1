// internal/models/availability.go
package models

import "time"

// DailyWindow is a same-day window in HH:MM form.
type DailyWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Availability is either an implicit flag (Always / Never) or explicit windows keyed by
// weekday ("sun".."sat") or ISO date ("2024-01-15").
type Availability struct {
	Always  bool                     `json:"always,omitempty"`
	Never   bool                     `json:"never,omitempty"`
	Windows map[string][]DailyWindow `json:"windows,omitempty"`
}

// TimeWindow is the requested service window.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

var weekdayKeys = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// WindowsFor returns the windows that apply on the day t falls on (UTC).
// Date keys take precedence over weekday keys.
func (a Availability) WindowsFor(t time.Time) []DailyWindow {
	if len(a.Windows) == 0 {
		return nil
	}
	t = t.UTC()
	if w, ok := a.Windows[t.Format("2006-01-02")]; ok {
		return w
	}
	return a.Windows[weekdayKeys[t.Weekday()]]
}
