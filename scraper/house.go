package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"homesite_sync/config"
	"homesite_sync/identity"
	"homesite_sync/models"
)

var (
	addressRe       = regexp.MustCompile(`(?i)(?:Home for sale at\s*)?(.+)`)
	salePrefixRe    = regexp.MustCompile(`(?i)^Home For Sale (?:in|at)\s*`)
	stateZipRe      = regexp.MustCompile(`,?\s*([A-Z]{2})\s*(\d{5})?`)
	dollarRe        = regexp.MustCompile(`\$([\d,]+)`)
	bedsRe          = regexp.MustCompile(`(?i)([\d.]+)\s*Bed`)
	bathsRe         = regexp.MustCompile(`(?i)([\d.]+)\s*Bath`)
	houseGarageRe   = regexp.MustCompile(`(?i)(\d+)\s*Garage`)
	houseStoriesRe  = regexp.MustCompile(`(?i)(\d+)\s*Stor(?:y|ies)`)
	sqftRe          = regexp.MustCompile(`(?i)([\d,]+)\s*Sq\.?\s*Ft`)
	lotRe           = regexp.MustCompile(`(?i)Lot\s+(\S+)`)
	floorPlanTextRe = regexp.MustCompile(`(?i)(\w+)\s*floor plan`)
)

const maxMoveInLen = 50

// ParseHouse extracts a quick move-in home from its listing page. The
// returned document has no _id or references; Address is empty only when
// neither the page nor its URL yield one.
func ParseHouse(site *config.SiteConfig, html []byte, pageURL string) (*models.House, error) {
	doc, err := parseDocument(html)
	if err != nil {
		return nil, err
	}
	schema := findLD(JSONLD(doc), "House")

	house := &models.House{
		Type:     models.TypeHouse,
		PageLink: site.Absolute(pageURL),
		Status:   models.HouseAvailable,
	}

	line := doc.Find(".qmiAddressOne").Clone()
	line.Find(".qmiAddressTwo").Remove()
	address := ""
	if m := addressRe.FindStringSubmatch(strings.TrimSpace(line.Text())); m != nil {
		address = strings.TrimSpace(m[1])
	}
	if address == "" {
		address = ldString(ldObject(schema, "address"), "streetAddress")
	}
	if address == "" {
		if name, _, _ := strings.Cut(ldString(schema, "name"), "|"); strings.TrimSpace(name) != "" {
			address = strings.TrimSpace(name)
		}
	}
	if address == "" {
		address = addressFromURL(pageURL)
	}
	house.Address = strings.TrimSpace(salePrefixRe.ReplaceAllString(address, ""))

	house.City = strings.TrimSpace(doc.Find(".qmiAddressTwo .city").Text())
	if m := stateZipRe.FindStringSubmatch(strings.TrimSpace(doc.Find(".qmiAddressTwo .state-zip").Text())); m != nil {
		house.State = m[1]
		house.Zip = m[2]
	}

	if brand := strings.TrimSpace(doc.Find("#brand-name").Text()); brand != "" {
		house.Brand = strings.TrimSpace(strings.TrimSuffix(brand, "SM"))
	}

	priceText := strings.TrimSpace(doc.Find(".home-price div").First().Text())
	if priceText == "" {
		priceText = strings.TrimSpace(doc.Find(".home-price").Text())
	}
	house.Price = matchDollars(priceText)
	if house.Price == nil {
		house.Price = matchDollars(ldString(schema, "description"))
	}

	details := doc.Find(".property-details").Text()
	house.Beds = matchFloat(details, bedsRe)
	house.Baths = matchFloat(details, bathsRe)
	house.Garage = firstMatchInt(details, houseGarageRe)
	house.Stories = firstMatchInt(details, houseStoriesRe)

	sqfText := doc.Find(".sqf-number").Text()
	if m := sqftRe.FindStringSubmatch(sqfText); m != nil {
		if v := parseIntPtr(m[1]); v != nil && *v != 0 {
			f := float64(*v)
			house.Sqft = &f
		}
	}
	if m := lotRe.FindStringSubmatch(sqfText); m != nil {
		house.Lot = strings.TrimSpace(m[1])
	}

	if name := strings.TrimSpace(doc.Find(".floorplan-link span").Text()); name != "" {
		house.FloorPlanName = name
	} else if m := floorPlanTextRe.FindStringSubmatch(doc.Find(`a[href*="floor-plans"]`).Text()); m != nil {
		house.FloorPlanName = m[1]
	}

	status := strings.ToLower(doc.Find(".home-info__community-status").Text())
	switch {
	case strings.Contains(status, "sold"):
		house.Status = models.HouseSold
	case strings.Contains(status, "contract"):
		house.Status = models.HouseUnderContract
	case strings.Contains(status, "model"):
		house.Status = models.HouseModelHome
	}

	moveIn := strings.TrimSpace(doc.Find(".move-in-date").Text())
	if moveIn == "" {
		moveIn = strings.TrimSpace(doc.Find(`[class*="move-in"]`).First().Text())
	}
	if moveIn != "" && utf8.RuneCountInString(moveIn) < maxMoveInLen {
		house.MoveInStatus = moveIn
	}

	image := ldString(schema, "image")
	if image == "" {
		image, _ = doc.Find(`meta[property="og:image"]`).Attr("content")
	}
	if image != "" {
		house.ImageLink = site.Absolute(strings.TrimSpace(image))
	}

	if house.Beds == nil {
		house.Beds = ldNumber(schema, "numberOfBedrooms").NonZero()
	}
	if house.Baths == nil {
		house.Baths = ldNumber(schema, "numberOfBathroomsTotal").NonZero()
	}
	if house.Sqft == nil {
		house.Sqft = ldNumber(schema, "floorSize").NonZero()
	}
	return house, nil
}

// addressFromURL turns ".../qmis/123-oak-st" into "123 Oak St".
func addressFromURL(pageURL string) string {
	_, slug, ok := strings.Cut(pageURL, "/qmis/")
	if !ok || slug == "" {
		return ""
	}
	slug = strings.Trim(slug, "/")
	words := strings.Split(slug, "-")
	for i, w := range words {
		words[i] = identity.CapitalizeFirst(w)
	}
	return strings.Join(words, " ")
}

func matchDollars(s string) *int {
	m := dollarRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v := parseIntPtr(m[1])
	if v == nil || *v == 0 {
		return nil
	}
	return v
}

func matchFloat(s string, re *regexp.Regexp) *float64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v == 0 {
		return nil
	}
	return &v
}
