package scoring

type tier struct {
	min  float64
	text string
}

// Tiers are checked top-down; the last entry is the fallback.
var (
	serviceTiers = []tier{
		{0.8, "Excellent fit for the requested service"},
		{0.5, "Good fit for the requested service"},
		{0, "Partial fit for the requested service"},
	}
	locationTiers = []tier{
		{0.8, "Very close to the requested location"},
		{0.5, "Reasonable distance from the requested location"},
		{0, "Relatively far from the requested location"},
	}
	reputationTiers = []tier{
		{0.8, "Highly rated by many reviewers"},
		{0.5, "Well rated"},
		{0, "Few or low ratings"},
	}
	availabilityTiers = []tier{
		{0.8, "Fully available at the requested time"},
		{0.5, "Availability fits the request"},
		{0, "Limited availability"},
	}
	experienceTiers = []tier{
		{0.7, "Extensive experience"},
		{0.4, "Solid experience"},
		{0, "Limited experience"},
	}
)

func explain(score float64, tiers []tier) string {
	for _, t := range tiers {
		if score >= t.min {
			return t.text
		}
	}
	return tiers[len(tiers)-1].text
}
