package scraper

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"homesite_sync/config"
	"homesite_sync/identity"
	"homesite_sync/models"
)

var (
	modelRe         = regexp.MustCompile(`(?s)var model = (\{.*?\});`)
	startingPriceRe = regexp.MustCompile(`(?i)starting at[^$]*\$([\d,]+)`)
	priceRangeRe    = regexp.MustCompile(`(?i)\$([\d,]+)s`)
	garageSpanRe    = regexp.MustCompile(`(?i)(\d+)\s*<span>\s*Garage`)
	garageCarRe     = regexp.MustCompile(`(?i)(\d+)[- ]?car garage`)
	storiesSpanRe   = regexp.MustCompile(`(?i)(\d+)\s*<span>\s*Stor`)
	storiesRe       = regexp.MustCompile(`(?i)(\d+)[- ]?stor(?:y|ies)`)
)

const maxDescriptionLen = 1000

// planModel is the page's embedded `var model = {...};` blob.
type planModel struct {
	Items []planItem `json:"Items"`
}

type planItem struct {
	PlanName          string `json:"PlanName"`
	NumberOfBedrooms  Number `json:"NumberOfBedrooms"`
	NumberOfBathrooms Number `json:"NumberOfBathrooms"`
	SquareFootage     Number `json:"SquareFootage"`
	NumberOfGarages   Number `json:"NumberOfGarages"`
	NumberOfStories   Number `json:"NumberOfStories"`
	BrandName         string `json:"BrandName"`
}

// ParseFloorPlan extracts a floor plan from its detail page. The returned
// document has no _id or communityRef; Name may be empty when nothing on
// the page identifies the plan.
func ParseFloorPlan(site *config.SiteConfig, html []byte, pageURL string) (*models.FloorPlan, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}
	raw := string(html)
	ld := JSONLD(doc)
	schema := findLD(ld, "FloorPlan")

	planSlug := ""
	if _, after, ok := strings.Cut(pageURL, "/floor-plans/"); ok {
		planSlug = after
	}

	name := lastBreadcrumb(ld)
	if name == "" {
		name = planSlug
	}
	if title := strings.TrimSpace(doc.Find("h1, .plan-name, .floor-plan-name").First().Text()); title != "" && utf8.RuneCountInString(title) < 50 {
		name = title
	}

	var model planModel
	if m := modelRe.FindStringSubmatch(raw); m != nil {
		_ = json.Unmarshal([]byte(m[1]), &model)
	}
	var first planItem
	if len(model.Items) > 0 {
		first = model.Items[0]
	}

	plan := &models.FloorPlan{
		Type:     models.TypeFloorPlan,
		PageLink: site.Absolute(pageURL),
		Beds:     firstNonZero(ldNumber(schema, "numberOfBedrooms"), first.NumberOfBedrooms),
		Baths:    firstNonZero(ldNumber(schema, "numberOfBathroomsTotal"), first.NumberOfBathrooms),
		Sqft:     firstNonZero(ldNumber(schema, "floorSize"), first.SquareFootage),
	}
	if image := ldString(schema, "image"); image != "" {
		plan.ImageLink = site.Absolute(image)
	}

	priceText := doc.Find(".home-price").Text()
	if m := startingPriceRe.FindStringSubmatch(priceText); m != nil {
		plan.Price = parseIntPtr(m[1])
		plan.MinPrice = plan.Price
	}
	if plan.Price == nil {
		if m := priceRangeRe.FindStringSubmatch(priceText); m != nil {
			if v := parseIntPtr(m[1]); v != nil {
				thousands := *v * 1000
				plan.MinPrice = &thousands
			}
		}
	}

	plan.Garage = firstMatchInt(raw, garageSpanRe, garageCarRe)
	if plan.Garage == nil {
		plan.Garage = first.NumberOfGarages.Int()
	}
	plan.Stories = firstMatchInt(raw, storiesSpanRe, storiesRe)
	if plan.Stories == nil {
		plan.Stories = first.NumberOfStories.Int()
	}

	if re := seriesPattern(site.Brands); re != nil {
		if m := re.FindStringSubmatch(raw); m != nil {
			plan.Brand = NormalizeBrand(site.Brands, m[1])
		}
	}
	if plan.Brand == "" && first.BrandName != "" {
		plan.Brand = NormalizeModelBrand(site.Brands, first.BrandName)
	}

	desc := strings.TrimSpace(doc.Find(".floor-plan-description, .plan-description, .community-detail-description p").First().Text())
	plan.Description = truncateRunes(desc, maxDescriptionLen)

	if first.PlanName != "" {
		name = identity.CapitalizeFirst(strings.ToLower(first.PlanName))
	}
	plan.Name = strings.TrimSpace(name)

	slugSource := plan.Name
	if slugSource == "" {
		slugSource = planSlug
	}
	if slug := identity.SanitizeID(slugSource); slug != "" {
		plan.Slug = models.NewSlug(slug)
	}
	return plan, nil
}

func firstNonZero(nums ...Number) *float64 {
	for _, n := range nums {
		if p := n.NonZero(); p != nil {
			return p
		}
	}
	return nil
}

// firstMatchInt reads the first pattern that matches. A zero there is
// treated as missing and later patterns are not tried.
func firstMatchInt(s string, patterns ...*regexp.Regexp) *int {
	for _, re := range patterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if v := parseIntPtr(m[1]); v != nil && *v != 0 {
			return v
		}
		return nil
	}
	return nil
}

func parseIntPtr(s string) *int {
	v, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil
	}
	return &v
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
