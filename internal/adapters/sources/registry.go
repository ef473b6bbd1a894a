// Package sources holds the live comp providers: a family of listing portals scraped through
// the extraction strategies, and the RentCast JSON API.
package sources

import (
	"fmt"
	"net/url"
	"strings"

	"rentcomps/internal/domain"
)

// Source is one external listing site. Templates are candidate search URLs; GeoTemplates
// are only tried when the query carries a real geocode.
type Source struct {
	Key          string
	Label        string
	Countries    []string
	BaseURL      string
	Templates    []string
	GeoTemplates []string
	Headers      map[string]string
}

func (s Source) Serves(q domain.Query) bool {
	cc := domain.CountryCode(q.Country)
	for _, c := range s.Countries {
		if c == cc {
			return true
		}
	}
	return false
}

// Requests expands the templates for q. Placeholders: {city} {city_q} {beds} {lat} {lon}
// {radius_km} {radius_mi}.
func (s Source) Requests(q domain.Query, radiusKm float64) []domain.FetchRequest {
	r := strings.NewReplacer(
		"{city}", url.PathEscape(domain.Slug(q.City)),
		"{city_q}", url.QueryEscape(q.City),
		"{beds}", fmt.Sprint(q.Bedrooms),
		"{lat}", fmt.Sprintf("%.6f", q.Lat),
		"{lon}", fmt.Sprintf("%.6f", q.Lon),
		"{radius_km}", fmt.Sprintf("%.1f", radiusKm),
		"{radius_mi}", fmt.Sprintf("%.1f", radiusKm/1.609344),
	)
	var tpls []string
	if q.HasGeocode {
		tpls = append(tpls, s.GeoTemplates...)
	}
	if q.City != "" {
		tpls = append(tpls, s.Templates...)
	}
	out := make([]domain.FetchRequest, 0, len(tpls))
	for _, t := range tpls {
		out = append(out, domain.FetchRequest{URL: r.Replace(t), Headers: s.Headers})
	}
	return out
}

// DefaultPortals lists the scraped portals. Alternate URL patterns per portal because their
// search routes drift.
func DefaultPortals() []Source {
	return []Source{
		{
			Key:       "spitogatos",
			Label:     "Spitogatos",
			Countries: []string{"GR"},
			BaseURL:   "https://www.spitogatos.gr",
			Templates: []string{
				"https://www.spitogatos.gr/en/to_rent-homes/{city}",
				"https://www.spitogatos.gr/en/to_rent-homes/{city}/bedrooms_from-{beds}",
				"https://www.spitogatos.gr/enoikiaseis-katoikies/{city}",
			},
			Headers: map[string]string{"Accept-Language": "en,el;q=0.8"},
		},
		{
			Key:       "idealista_es",
			Label:     "Idealista",
			Countries: []string{"ES"},
			BaseURL:   "https://www.idealista.com",
			Templates: []string{
				"https://www.idealista.com/en/alquiler-viviendas/{city}/",
				"https://www.idealista.com/alquiler-viviendas/{city}-{city}/",
			},
			Headers: map[string]string{"Accept-Language": "en,es;q=0.8"},
		},
		{
			Key:       "idealista_it",
			Label:     "Idealista",
			Countries: []string{"IT"},
			BaseURL:   "https://www.idealista.it",
			Templates: []string{
				"https://www.idealista.it/en/affitto-case/{city}-{city}/",
				"https://www.idealista.it/affitto-case/{city}/",
			},
			Headers: map[string]string{"Accept-Language": "en,it;q=0.8"},
		},
		{
			Key:       "idealista_pt",
			Label:     "Idealista",
			Countries: []string{"PT"},
			BaseURL:   "https://www.idealista.pt",
			Templates: []string{
				"https://www.idealista.pt/en/arrendar-casas/{city}/",
				"https://www.idealista.pt/arrendar-casas/{city}/",
			},
			Headers: map[string]string{"Accept-Language": "en,pt;q=0.8"},
		},
	}
}

// RentCastSource builds the RentCast endpoint family for base (no trailing slash).
func RentCastSource(base, apiKey string) Source {
	base = strings.TrimRight(base, "/")
	return Source{
		Key:       "rentcast",
		Label:     "RentCast",
		Countries: []string{"US"},
		BaseURL:   base,
		GeoTemplates: []string{
			base + "/listings/rental/long-term?latitude={lat}&longitude={lon}&radius={radius_mi}&bedrooms={beds}&status=Active&limit=50",
			base + "/listings/rental/long-term?latitude={lat}&longitude={lon}&radius={radius_mi}&status=Inactive&limit=50",
		},
		Templates: []string{
			base + "/listings/rental/long-term?city={city_q}&bedrooms={beds}&status=Active&limit=50",
		},
		Headers: map[string]string{"X-Api-Key": apiKey, "Accept": "application/json"},
	}
}
