// internal/engines/basic/services.go
package basic

import "strings"

const (
	exactServiceScore   = 1.0
	relatedServiceScore = 0.8
	partialServiceScore = 0.6
	noServiceScore      = 0.5
)

// relatedServices maps a request keyword to label fragments counted as a related service.
var relatedServices = []struct {
	key     string
	related []string
}{
	{"wound", []string{"wound care", "wound treatment", "treatment"}},
	{"pediatrics", []string{"pediatric", "newborn", "breastfeed"}},
	{"general", []string{"general", "default"}},
	{"medication", []string{"medication"}},
	{"home", []string{"home care", "escort", "palliative"}},
}

// serviceKey folds a canonical code or free label to lowercase words: WOUND_CARE -> "wound care".
func serviceKey(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.ToLower(s), "_", " "))
}

// serviceScore grades one requested label against the candidate's labels:
// exact 1.0, related 0.8, substring either way 0.6, else 0.
func serviceScore(requested string, offered []string) float64 {
	req := serviceKey(requested)
	if req == "" {
		return noServiceScore
	}

	keys := make([]string, 0, len(offered))
	for _, o := range offered {
		if k := serviceKey(o); k != "" {
			keys = append(keys, k)
		}
	}

	for _, k := range keys {
		if k == req {
			return exactServiceScore
		}
	}
	for _, rel := range relatedServices {
		if !strings.Contains(req, rel.key) {
			continue
		}
		for _, k := range keys {
			for _, r := range rel.related {
				if strings.Contains(k, r) {
					return relatedServiceScore
				}
			}
		}
	}
	for _, k := range keys {
		if strings.Contains(k, req) || strings.Contains(req, k) {
			return partialServiceScore
		}
	}
	return 0
}

// bestServiceScore is the highest grade over every requested label.
func bestServiceScore(requested, offered []string) float64 {
	if len(requested) == 0 {
		return noServiceScore
	}
	best := 0.0
	for _, r := range requested {
		if s := serviceScore(r, offered); s > best {
			best = s
		}
	}
	return best
}

// offersService is the hard service filter. It is looser than the score: any "care"
// request also admits care and treatment labels.
func offersService(requested, offered []string) bool {
	if len(requested) == 0 {
		return true
	}
	for _, r := range requested {
		if serviceScore(r, offered) > 0 {
			return true
		}
		req := serviceKey(r)
		if !strings.Contains(req, "care") {
			continue
		}
		for _, o := range offered {
			k := serviceKey(o)
			if strings.Contains(k, "care") || strings.Contains(k, "treatment") {
				return true
			}
		}
	}
	return false
}
