package scraper

import (
	"regexp"
	"strings"

	"homesite_sync/config"
)

// NormalizeBrand maps any text mentioning a known series to that series'
// display name. Unknown text is returned trimmed.
func NormalizeBrand(rules []config.BrandRule, text string) string {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if strings.Contains(lower, strings.ToLower(r.Match)) {
			return r.Name
		}
	}
	return strings.TrimSpace(text)
}

// NormalizeModelBrand rewrites a plan model BrandName through the
// FromModel rules only; anything else is kept as the model has it.
func NormalizeModelBrand(rules []config.BrandRule, text string) string {
	lower := strings.ToLower(text)
	for _, r := range rules {
		if r.FromModel && strings.Contains(lower, strings.ToLower(r.Match)) {
			return r.Name
		}
	}
	return text
}

// seriesPattern matches the plain-text form of any configured series name.
func seriesPattern(rules []config.BrandRule) *regexp.Regexp {
	var names []string
	for _, r := range rules {
		name := strings.TrimSpace(strings.TrimRight(r.Name, "®℠™"))
		if name != "" {
			names = append(names, regexp.QuoteMeta(name))
		}
	}
	if len(names) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(names, "|") + `)`)
}
