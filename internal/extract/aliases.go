package extract

import (
	"regexp"
	"strconv"
	"strings"
)

/********** alias registries (single source of truth) **********/

var listingAliases = map[string][]string{
	"id": {"id", "listingId", "listing_id", "propertyId", "property_id", "adId", "ad_id", "propertyCode", "code", "uuid", "@id"},
	"rent": {
		"monthlyRent", "monthly_rent", "rent", "rentPrice", "price",
		"price.amount", "price.value", "price.rent", "priceInfo.price", "priceInfo.amount",
		"pricing.monthlyRent", "pricing.price", "prices.rent", "listPrice", "offers.price",
	},
	"bedrooms":  {"bedrooms", "beds", "bedroomCount", "bedroom_count", "numBedrooms", "numberOfBedrooms", "features.bedrooms", "details.bedrooms"},
	"rooms":     {"rooms", "roomCount", "room_count", "numberOfRooms", "features.rooms", "details.rooms"},
	"bathrooms": {"bathrooms", "baths", "bathroomCount", "numBathrooms", "numberOfBathroomsTotal", "features.bathrooms", "details.bathrooms"},
	"sqm": {
		"sqm", "area_sqm", "sizeSqm", "squareMeters", "surface", "size", "area", "floorArea",
		"livingArea", "features.area", "features.size", "details.area", "floorSize.value",
	},
	"sqft":    {"squareFootage", "sqft", "square_feet", "livingAreaSqft", "area_sqft", "floorSizeSqft"},
	"type":    {"propertyType", "property_type", "typology", "category", "propertyTypeName", "@type"},
	"address": {"formattedAddress", "formatted_address", "address", "address.streetAddress", "addressLine1", "location.address", "location.name", "neighborhood", "district"},
	"city":    {"address.addressLocality", "city", "location.city", "municipality"},
	"lat":     {"latitude", "lat", "location.lat", "location.latitude", "geo.latitude", "coordinates.lat", "coordinates.latitude"},
	"lon":     {"longitude", "lon", "lng", "location.lng", "location.lon", "location.longitude", "geo.longitude", "coordinates.lng", "coordinates.longitude"},
	"url":     {"url", "link", "href", "detailUrl", "detail_url", "permalink", "shareUrl"},
	"dom":     {"daysOnMarket", "days_on_market", "dom"},
	"listed":  {"listedDate", "listed_at", "listingDate", "createdDate", "publishedAt", "publicationDate", "datePosted", "created_at"},
	"leased":  {"removedDate", "leasedDate", "leased_at", "rentedAt"},
	"status":  {"status", "listingStatus", "availability"},
}

// structuralKeys are the alias groups that distinguish a listing object from, say, a bare price object.
var structuralKeys = []string{"bedrooms", "rooms", "sqm", "sqft", "url"}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns a string (or a number rendered as one) at path, else "".
func lookupStr(m map[string]any, path string) string {
	switch v := lookupAny(m, path).(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// firstAlias: first non-empty string for a named alias set.
func firstAlias(m map[string]any, key string) string {
	for _, p := range listingAliases[key] {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// firstNumber: first number for a named alias set; accepts float64 or strings like "1.200 €" or "65 m²".
func firstNumber(m map[string]any, key string) *float64 {
	for _, p := range listingAliases[key] {
		switch v := lookupAny(m, p).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			if f, ok := parseAmount(v); ok {
				return &f
			}
		}
	}
	return nil
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		for _, p := range listingAliases[k] {
			if v := lookupAny(m, p); v != nil && v != "" {
				return true
			}
		}
	}
	return false
}

var amountRe = regexp.MustCompile(`\d{1,3}(?:[ \x{00A0}\x{202F}]\d{3})+(?:[.,]\d{1,2})?|\d[\d.,']*`)

// parseAmount pulls the first number out of free text, resolving thousands separators
// ("1.200", "1,450.50", "1 200") against decimal separators ("8,5").
func parseAmount(s string) (float64, bool) {
	tok := strings.TrimRight(amountRe.FindString(s), ".,'")
	if tok == "" {
		return 0, false
	}
	tok = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "'", "").Replace(tok)

	lastDot, lastComma := strings.LastIndex(tok, "."), strings.LastIndex(tok, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		dec, group := ".", ","
		if lastComma > lastDot {
			dec, group = ",", "."
		}
		tok = strings.ReplaceAll(tok, group, "")
		tok = strings.Replace(tok, dec, ".", 1)
	case lastDot >= 0 || lastComma >= 0:
		sep := "."
		if lastComma >= 0 {
			sep = ","
		}
		parts := strings.Split(tok, sep)
		grouped := len(parts) > 2 || len(parts[len(parts)-1]) == 3
		if grouped {
			tok = strings.Join(parts, "")
		} else {
			tok = strings.Replace(tok, sep, ".", 1)
		}
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseAmount is parseAmount for callers outside the strategies, e.g. benchmark pages.
func ParseAmount(s string) (float64, bool) { return parseAmount(s) }
