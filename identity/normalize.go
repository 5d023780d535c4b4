package identity

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var leadingTheRegex = regexp.MustCompile(`^the[\s\v\p{Z}\x{FEFF}]+`)

// NormalizeName folds a floor plan name for matching: lowercase, trimmed,
// leading "the" removed, whitespace collapsed.
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = leadingTheRegex.ReplaceAllString(name, "")
	return whitespaceRegex.ReplaceAllString(name, " ")
}

// FloorPlanKey scopes a normalized plan name to its community. Keys from
// different communities never collide.
func FloorPlanKey(communityRef, planName string) string {
	return communityRef + ":" + NormalizeName(planName)
}

// TitleCase capitalizes the first letter of each space separated word and
// lowercases the rest.
func TitleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		words[i] = CapitalizeFirst(strings.ToLower(w))
	}
	return strings.Join(words, " ")
}

// CapitalizeFirst uppercases only the first rune.
func CapitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

var wordStartRegex = regexp.MustCompile(`\b\w`)

// CapitalizeWords uppercases every word start, leaving other letters as is.
func CapitalizeWords(s string) string {
	return wordStartRegex.ReplaceAllStringFunc(s, strings.ToUpper)
}
