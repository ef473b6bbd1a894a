package domain

import (
	"strings"
	"unicode"
)

var countryAliases = map[string]string{
	"gr": "GR", "greece": "GR", "hellas": "GR", "ελλάδα": "GR", "ελλαδα": "GR",
	"es": "ES", "spain": "ES", "españa": "ES", "espana": "ES",
	"it": "IT", "italy": "IT", "italia": "IT",
	"pt": "PT", "portugal": "PT",
	"us": "US", "usa": "US", "united states": "US", "united states of america": "US",
	"gb": "GB", "uk": "GB", "united kingdom": "GB",
	"de": "DE", "germany": "DE", "deutschland": "DE",
	"fr": "FR", "france": "FR",
	"nl": "NL", "netherlands": "NL",
	"cy": "CY", "cyprus": "CY",
}

// CountryCode normalizes a free-text country hint to ISO 3166 alpha-2. Unknown two-letter
// input is upper-cased as is; anything else yields "".
func CountryCode(s string) string {
	k := strings.ToLower(strings.TrimSpace(s))
	if c, ok := countryAliases[k]; ok {
		return c
	}
	if len(k) == 2 {
		return strings.ToUpper(k)
	}
	return ""
}

// Slug lower-cases s and joins its words with hyphens, for URL path segments and cache keys.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
