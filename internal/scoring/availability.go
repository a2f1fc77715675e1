package scoring

import (
	"time"

	"caregiver-matching/internal/models"
)

// AvailabilityOverlap is the share of the requested window covered by the candidate's
// windows on the window's start day. No window means fully available.
func AvailabilityOverlap(window *models.TimeWindow, a models.Availability) float64 {
	if window == nil {
		return 1
	}
	if a.Never {
		return 0
	}
	if a.Always {
		return 1
	}
	total := window.Duration()
	if total <= 0 {
		return 0
	}

	start := window.Start.UTC()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end := window.End.UTC()

	var covered time.Duration
	for _, w := range a.WindowsFor(start) {
		from, ok := parseClock(w.Start)
		if !ok {
			continue
		}
		to, ok := parseClock(w.End)
		if !ok {
			continue
		}
		wStart := day.Add(from)
		wEnd := day.Add(to)
		lo := maxTime(start, wStart)
		hi := minTime(end, wEnd)
		if hi.After(lo) {
			covered += hi.Sub(lo)
		}
	}
	return clamp01(covered.Minutes() / total.Minutes())
}

func parseClock(s string) (time.Duration, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
