package textentity

import "strings"

// Entities is everything the extractor can derive from one text.
type Entities struct {
	Services []string `json:"services"`
	Locality string   `json:"locality,omitempty"`
	Urgent   bool     `json:"urgent"`
}

// Extract runs every extractor over text. Empty text yields zero-value entities.
func Extract(text string) Entities {
	return Entities{
		Services: ExtractServices(text),
		Locality: ExtractLocality(text),
		Urgent:   DetectUrgency(text),
	}
}

// DetectUrgency reports whether text contains any urgency marker, case-insensitively.
func DetectUrgency(text string) bool {
	if text == "" {
		return false
	}
	key := matchKey(text)
	for _, m := range urgencyMarkers {
		if strings.Contains(key, matchKey(m)) {
			return true
		}
	}
	return false
}

// ExtractServices returns the deduplicated service labels of every keyword found in text.
func ExtractServices(text string) []string {
	services := []string{}
	if text == "" {
		return services
	}
	key := matchKey(text)
	seen := make(map[string]bool)
	for _, kw := range serviceKeywords {
		if !strings.Contains(key, matchKey(kw.keyword)) {
			continue
		}
		for _, s := range kw.services {
			if !seen[s] {
				seen[s] = true
				services = append(services, s)
			}
		}
	}
	return services
}

// ExtractLocality returns the first Hebrew locality contained in text, else the first
// English one, else "".
func ExtractLocality(text string) string {
	if text == "" {
		return ""
	}
	key := matchKey(text)
	for _, l := range hebrewLocalities {
		if strings.Contains(key, matchKey(l.key)) {
			return l.name
		}
	}
	for _, l := range englishLocalities {
		if strings.Contains(key, l.key) {
			return l.name
		}
	}
	return ""
}

// CanonicalLocality maps a Hebrew locality name to its English form and returns any
// other name unchanged.
func CanonicalLocality(name string) string {
	key := matchKey(strings.TrimSpace(name))
	for _, l := range hebrewLocalities {
		if key == matchKey(l.key) {
			return l.name
		}
	}
	return name
}
