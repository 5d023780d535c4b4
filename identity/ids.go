package identity

import (
	"regexp"
	"strings"
)

var (
	// Unicode spaces included; scraped text carries U+00A0 from &nbsp;.
	whitespaceRegex = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	invalidIDRegex  = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRunRegex  = regexp.MustCompile(`-+`)
	nonKeyRegex     = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// SanitizeID turns a display name or URL path into a document key:
// lowercase, whitespace runs become hyphens, anything outside [a-z0-9-]
// is dropped, hyphen runs collapse and edge hyphens are trimmed.
func SanitizeID(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRegex.ReplaceAllString(s, "-")
	s = invalidIDRegex.ReplaceAllString(s, "")
	s = hyphenRunRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func StateID(stateSlug string) string {
	return SanitizeID(stateSlug)
}

// CommunityID is {state}-{community}.
func CommunityID(stateSlug, communityName string) string {
	return StateID(stateSlug) + "-" + SanitizeID(communityName)
}

// AreaID keys an area by its site path, e.g. /texas/austin -> area-texasaustin.
func AreaID(areaPath string) string {
	return "area-" + SanitizeID(areaPath)
}

func FloorPlanID(communityID, planSlug string) string {
	return communityID + "-plan-" + planSlug
}

func HouseID(communityID, address string) string {
	return communityID + "-house-" + SanitizeID(address)
}

// ArrayKey derives the _key of an array reference item from the target id.
func ArrayKey(id string) string {
	return nonKeyRegex.ReplaceAllString(id, "")
}

// StateFromPath returns the first non-empty segment of a site path.
func StateFromPath(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}

// DraftPrefix marks unpublished documents.
const DraftPrefix = "drafts."

func IsDraft(id string) bool {
	return strings.HasPrefix(id, DraftPrefix)
}

func PublishedID(id string) string {
	return strings.TrimPrefix(id, DraftPrefix)
}
