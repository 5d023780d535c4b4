package config

// DefaultSite is the D.R. Horton site as it was first scraped.
func DefaultSite() *SiteConfig {
	return &SiteConfig{
		ID:      "drhorton",
		Name:    "D.R. Horton",
		BaseURL: "https://www.drhorton.com",
		APIPath: "/api/comms/direct",
		States: []string{
			"alabama", "arizona", "arkansas", "california", "colorado",
			"delaware", "florida", "georgia", "hawaii", "idaho",
			"illinois", "indiana", "iowa", "kansas", "kentucky",
			"louisiana", "maryland", "minnesota", "mississippi", "missouri",
			"nebraska", "nevada", "new-jersey", "new-mexico", "north-carolina",
			"ohio", "oklahoma", "oregon", "pennsylvania", "south-carolina",
			"tennessee", "texas", "utah", "virginia", "washington",
			"west-virginia", "wisconsin",
		},
		Statuses: map[string]string{
			"NOW_SELLING":         "Now Selling",
			"COMING_SOON":         "Coming Soon",
			"GRAND_OPENING":       "Grand Opening",
			"FINAL_OPPORTUNITIES": "Final Opportunities",
		},
		DefaultStatus: "Now Selling",
		Brands: []BrandRule{
			{Match: "express", Name: "Express Series®"},
			{Match: "freedom", Name: "Freedom Series℠"},
			{Match: "emerald", Name: "Emerald Series®"},
			{Match: "tradition", Name: "Tradition Series℠", FromModel: true},
			{Match: "pacific", Name: "Pacific Ridge Series℠"},
		},
	}
}
