package extract

import (
	"math"
	"net/url"
	"strings"
	"time"

	"rentcomps/internal/domain"
)

// SourceContext carries what a strategy needs to finish a comp beyond the payload itself.
type SourceContext struct {
	Source          string // human label, e.g. "Spitogatos"
	BaseURL         string // resolves relative listing links
	DefaultBedrooms int    // used when a listing omits its bedroom count
	Now             time.Time
}

func (sc SourceContext) now() time.Time {
	if sc.Now.IsZero() {
		return time.Now()
	}
	return sc.Now
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "02/01/2006"}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return &t
		}
	}
	return nil
}

// mapListing turns one untyped listing object into a Comp. It reports false when the
// object has no rent inside the sanity band.
func mapListing(m map[string]any, sc SourceContext) (domain.Comp, bool) {
	rent := firstNumber(m, "rent")
	if rent == nil || !domain.ValidRent(*rent) {
		return domain.Comp{}, false
	}

	c := domain.Comp{
		Rent:   *rent,
		Source: sc.Source,
		Status: domain.StatusActive,
	}

	// Bedrooms → explicit count; else European room count; else the searched count.
	beds, rooms := firstNumber(m, "bedrooms"), firstNumber(m, "rooms")
	switch {
	case beds != nil:
		c.Bedrooms = int(*beds)
	case strings.Contains(strings.ToLower(firstAlias(m, "bedrooms")), "studio"):
		c.Bedrooms = 0
	case rooms != nil:
		if r := int(*rooms); r >= 2 {
			c.Bedrooms = r - 1
		}
	default:
		c.Bedrooms = sc.DefaultBedrooms
	}
	if c.Bedrooms < 0 || c.Bedrooms > 20 {
		c.Bedrooms = sc.DefaultBedrooms
	}

	if b := firstNumber(m, "bathrooms"); b != nil && *b >= 0 && *b < 20 {
		c.Bathrooms = b
	}

	// Area → fill both units from whichever one the source gives.
	if a := firstNumber(m, "sqm"); a != nil && *a > 0 && *a < 5000 {
		ft := math.Round(*a*domain.SqftPerSqm*10) / 10
		c.AreaSqm, c.AreaSqft = a, &ft
	} else if ft := firstNumber(m, "sqft"); ft != nil && *ft > 0 && *ft < 50000 {
		sqm := math.Round(*ft/domain.SqftPerSqm*10) / 10
		c.AreaSqm, c.AreaSqft = &sqm, ft
	}

	c.PropertyType = firstAlias(m, "type")
	c.Address = composeAddress(m)

	if lat, lon := firstNumber(m, "lat"), firstNumber(m, "lon"); lat != nil && lon != nil &&
		math.Abs(*lat) <= 90 && math.Abs(*lon) <= 180 && (*lat != 0 || *lon != 0) {
		c.Lat, c.Lon = lat, lon
	}

	if u := resolveURL(sc.BaseURL, firstAlias(m, "url")); u != "" {
		c.SourceURL = &u
	}

	if s := firstAlias(m, "listed"); s != "" {
		c.ListedAt = parseDate(s)
	}
	if s := firstAlias(m, "leased"); s != "" {
		c.LeasedAt = parseDate(s)
	}
	if st := strings.ToLower(firstAlias(m, "status")); st != "" {
		for _, w := range []string{"leased", "rented", "let agreed", "inactive", "removed", "off market"} {
			if strings.Contains(st, w) {
				c.Status = domain.StatusRecentlyLeased
				break
			}
		}
	}
	if c.LeasedAt != nil {
		c.Status = domain.StatusRecentlyLeased
	}

	// DOM → explicit; else days since listing (until leased, when known).
	if d := firstNumber(m, "dom"); d != nil && *d >= 0 {
		c.DaysOnMarket = int(*d)
	} else if c.ListedAt != nil {
		end := sc.now()
		if c.LeasedAt != nil {
			end = *c.LeasedAt
		}
		if days := int(end.Sub(*c.ListedAt).Hours() / 24); days > 0 {
			c.DaysOnMarket = days
		}
	}

	c.ID = firstAlias(m, "id")
	if c.ID == "" {
		c.ID = domain.SyntheticID(sc.Source, c.Rent, c.Bedrooms, c.AreaSqm, c.Address)
	}
	return c, true
}

// looksLikeListing guards tree walks: a listing has a rent plus at least one structural field.
func looksLikeListing(m map[string]any) bool {
	return firstNumber(m, "rent") != nil && hasAny(m, structuralKeys...)
}

func composeAddress(m map[string]any) string {
	if s := firstAlias(m, "address"); s != "" {
		if city := firstAlias(m, "city"); city != "" && !strings.Contains(s, city) {
			return s + ", " + city
		}
		return s
	}
	return firstAlias(m, "city")
}

func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if r.IsAbs() {
		return r.String()
	}
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return ""
	}
	return b.ResolveReference(r).String()
}
