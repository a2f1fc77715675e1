// internal/candidates/normalize.go
package candidates

import (
	"hash/fnv"
	"math"
	"regexp"
	"strings"

	"caregiver-matching/internal/geo"
	"caregiver-matching/internal/models"
	"caregiver-matching/internal/textentity"
)

const maxExpertiseTags = 5

// RawRecord is one caregiver as exported from the operational system, before any
// cleaning. Optional numeric fields are nil when the export has no value.
type RawRecord struct {
	ID              string
	Name            string
	Mobility        []string
	Municipalities  []string
	Specializations []string
	Active          bool
	Approved        bool
	Coordinate      *models.Coordinate
	Rating          *float64
	ReviewsCount    *int
	Availability    *models.Availability
}

// knownServices is the canonical code vocabulary. Codes outside it fold to GENERAL.
var knownServices = map[string]bool{
	models.DefaultService:               true,
	"WOUND_CARE":                        true,
	"WOUND_TREATMENT":                   true,
	"DIABETIC_WOUND_TREATMENT":          true,
	"DIFFICULT_WOUND_HEALING_TREATMENT": true,
	"BURN_TREATMENT":                    true,
	"MEDICATION":                        true,
	"MEDICATION_ARRANGEMENT":            true,
	"HOSPITAL":                          true,
	"CENTRAL_CATHETER_TREATMENT":        true,
	"CATHETER_INSERTION_REPLACEMENT":    true,
	"FOLLOW_UP_AFTER_SURGERY":           true,
	"STOMA_TREATMENT":                   true,
	"HOME_CARE":                         true,
	"PRIVATE_SECURITY_HOSPITAL":         true,
	"PRIVATE_SECURITY_HOME":             true,
	"ESCORTED_BY_NURSE":                 true,
	"PALLIATIVE_CARE":                   true,
	"GERIATRIC_CARE":                    true,
	"GASTROSTOMY_CARE_FEEDING":          true,
	"FERTILITY_TREATMENTS":              true,
	"PEDIATRICS":                        true,
	"HOME_NEWBORN_VISIT":                true,
	"BREASTFEEDING_CONSULTATION":        true,
	"DAY_NIGHT_CIRCUMCISION_NURSE":      true,
	"BLOOD_TESTS":                       true,
	"ENEMA_UNDER_INSTRUCTION":           true,
	"HANDLING_AND_TRACKING_METRICS":     true,
	"HEALTHY_LIFESTYLE_GUIDANCE":        true,
}

// serviceAliases maps free-form labels (already upper-snake) to codes.
var serviceAliases = map[string]string{
	"DEFAULT":         models.DefaultService,
	"GENERAL_NURSING": models.DefaultService,
	"GENERAL_CARE":    models.DefaultService,
	"NURSE":           models.DefaultService,
	"WOUND":           "WOUND_CARE",
	"MEDS":            "MEDICATION",
	"HOME":            "HOME_CARE",
	"ESCORT":          "ESCORTED_BY_NURSE",
	"PALLIATIVE":      "PALLIATIVE_CARE",
	"CHILD":           "PEDIATRICS",
	"KIDS":            "PEDIATRICS",
	"DAY_NIGHT":       "DAY_NIGHT_CIRCUMCISION_NURSE",
	"CIRCUMCISION":    "DAY_NIGHT_CIRCUMCISION_NURSE",
	"CATHETER":        "CENTRAL_CATHETER_TREATMENT",
	"STOMA":           "STOMA_TREATMENT",
}

var nonWord = regexp.MustCompile(`[^A-Z0-9]+`)

// ServiceCode folds a specialization code or a label such as "Wound Care" to its
// canonical code. Unknown and empty labels become GENERAL.
func ServiceCode(label string) string {
	code := strings.Trim(nonWord.ReplaceAllString(strings.ToUpper(strings.TrimSpace(label)), "_"), "_")
	if knownServices[code] {
		return code
	}
	if alias, ok := serviceAliases[code]; ok {
		return alias
	}
	return models.DefaultService
}

// NormalizeServices maps every label to its code, deduplicated, never empty.
func NormalizeServices(labels []string) []string {
	codes := make([]string, 0, len(labels))
	for _, l := range labels {
		if strings.TrimSpace(l) == "" {
			continue
		}
		codes = append(codes, ServiceCode(l))
	}
	return models.NormalizeServices(codes)
}

// NormalizeLocalities trims, drops blanks and case-insensitive duplicates, keeping order.
func NormalizeLocalities(names []string) []string {
	c := models.Candidate{Localities: names}
	return c.AllLocalities()
}

// Normalize turns a raw record into a pool candidate. The primary locality is the first
// municipality in its English form; a missing coordinate falls back to the locality's
// center when known.
func Normalize(r RawRecord) models.Candidate {
	localities := NormalizeLocalities(r.Municipalities)
	c := models.Candidate{
		ID:         strings.TrimSpace(r.ID),
		Name:       strings.TrimSpace(r.Name),
		Services:   NormalizeServices(r.Specializations),
		Expertise:  expertiseTags(r.Specializations, r.Mobility),
		Rating:     r.Rating,
		Coordinate: r.Coordinate,
	}
	if len(localities) > 0 {
		c.Locality = textentity.CanonicalLocality(localities[0])
		c.Localities = localities[1:]
		if c.Locality != localities[0] {
			c.Localities = append([]string{localities[0]}, c.Localities...)
		}
	}
	if r.ReviewsCount != nil {
		c.ReviewsCount = max(*r.ReviewsCount, 0)
	}
	if r.Availability != nil {
		c.Availability = *r.Availability
	}
	if c.Coordinate == nil && c.Locality != "" {
		c.Coordinate = geo.CityCoordinates(c.Locality)
	}
	return c
}

// NormalizeCandidate cleans a candidate read from an already-normalized source.
func NormalizeCandidate(c models.Candidate) models.Candidate {
	c.ID = strings.TrimSpace(c.ID)
	c.Name = strings.TrimSpace(c.Name)
	c.Locality = strings.TrimSpace(c.Locality)
	c.Localities = NormalizeLocalities(c.Localities)
	c.Services = NormalizeServices(c.Services)
	if c.ReviewsCount < 0 {
		c.ReviewsCount = 0
	}
	if c.Rating != nil && (*c.Rating < 0 || *c.Rating > 5) {
		c.Rating = nil
	}
	return c
}

func expertiseTags(specializations, mobility []string) []string {
	tags := make([]string, 0, maxExpertiseTags)
	seen := make(map[string]bool)
	for _, s := range append(append([]string{}, specializations...), mobility...) {
		tag := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", " "))
		if tag == "" || tag == "default" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == maxExpertiseTags {
			break
		}
	}
	return tags
}

// EnrichReputation fills a missing rating or review count with values derived from an
// FNV-1a hash of the id, so repeated imports produce the same numbers. Only the importer
// calls this; the matching core never invents reputation.
func EnrichReputation(c *models.Candidate) {
	if c.Rating == nil {
		rating := 4.2 + 0.6*hashUnit(c.ID, "rating")
		if len(c.Services) > 3 {
			rating += 0.1
		}
		rating = math.Min(5.0, math.Round(rating*10)/10)
		c.Rating = &rating
	}
	if c.ReviewsCount == 0 {
		c.ReviewsCount = 20 + int(200*hashUnit(c.ID, "reviews")) + 10*len(c.Services)
	}
}

func hashUnit(id, salt string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(salt + ":" + id))
	return float64(h.Sum32()%1000) / 1000
}
