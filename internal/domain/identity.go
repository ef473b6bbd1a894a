package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// CanonicalURL lower-cases scheme and host and drops query, fragment and trailing slash.
// Unparseable input is returned trimmed.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}

// DedupeKey identifies a listing by rent plus canonical URL, or id when there is no URL.
func (c Comp) DedupeKey() string {
	ident := ""
	if c.SourceURL != nil {
		ident = CanonicalURL(*c.SourceURL)
	}
	if ident == "" {
		ident = c.ID
	}
	return fmt.Sprintf("%.2f|%s", c.Rent, ident)
}

// SyntheticID derives a stable id from the listing's visible attributes.
func SyntheticID(source string, rent float64, bedrooms int, area *float64, address string) string {
	a := ""
	if area != nil {
		a = fmt.Sprintf("%.1f", *area)
	}
	sig := strings.Join([]string{
		strings.ToLower(source),
		fmt.Sprintf("%.2f", rent),
		fmt.Sprintf("%d", bedrooms),
		a,
		strings.ToLower(strings.TrimSpace(address)),
	}, "|")
	sum := sha1.Sum([]byte(sig))
	return hex.EncodeToString(sum[:])
}
