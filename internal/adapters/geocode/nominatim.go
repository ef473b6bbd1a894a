// Package geocode resolves addresses with Nominatim, falling back from the full address to the
// city centroid.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"rentcomps/internal/domain"
)

const cacheTTL = 30 * 24 * 3600

type getter interface {
	Get(ctx context.Context, service string, req domain.FetchRequest) ([]byte, error)
}

type Nominatim struct {
	http  getter // rate limited to the public instance's 1 req/s by the caller
	base  string
	cache domain.Cache // optional, shared across processes

	mu  sync.RWMutex
	mem map[string]domain.Coords
}

func NewNominatim(g getter, base string, cache domain.Cache) *Nominatim {
	if base == "" {
		base = "https://nominatim.openstreetmap.org"
	}
	return &Nominatim{http: g, base: strings.TrimRight(base, "/"), cache: cache, mem: map[string]domain.Coords{}}
}

type nominatimResponse []struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode tries the full address first, then the city alone.
func (n *Nominatim) Geocode(ctx context.Context, address, city, country string) (domain.Coords, error) {
	var tiers []string
	if a := strings.TrimSpace(address); a != "" {
		tiers = append(tiers, join(a, city, country))
	}
	if c := strings.TrimSpace(city); c != "" {
		tiers = append(tiers, join(c, country))
	}
	if len(tiers) == 0 {
		return domain.Coords{}, fmt.Errorf("%w: empty address", domain.ErrGeocodeNoResult)
	}

	cc := strings.ToLower(domain.CountryCode(country))
	var lastErr error
	for _, q := range tiers {
		c, err := n.lookup(ctx, q, cc)
		if err == nil {
			return c, nil
		}
		if ctx.Err() != nil {
			return domain.Coords{}, ctx.Err()
		}
		lastErr = err
		log.Debug().Err(err).Str("query", q).Msg("geocode tier missed")
	}
	return domain.Coords{}, lastErr
}

func (n *Nominatim) lookup(ctx context.Context, q, cc string) (domain.Coords, error) {
	key := "geo:" + strings.ToLower(q) + "|" + cc

	n.mu.RLock()
	c, ok := n.mem[key]
	n.mu.RUnlock()
	if ok {
		return c, nil
	}
	if n.cache != nil {
		if hit, _ := n.cache.Get(ctx, key, &c); hit {
			n.remember(key, c)
			return c, nil
		}
	}

	params := url.Values{"q": {q}, "format": {"json"}, "limit": {"1"}}
	if cc != "" {
		params.Set("countrycodes", cc)
	}
	body, err := n.http.Get(ctx, "nominatim", domain.FetchRequest{
		URL:     n.base + "/search?" + params.Encode(),
		Headers: map[string]string{"Accept-Language": "en", "Accept": "application/json"},
	})
	if err != nil {
		return domain.Coords{}, fmt.Errorf("geocoding request failed: %w", err)
	}

	var result nominatimResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.Coords{}, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result) == 0 {
		return domain.Coords{}, fmt.Errorf("%w: %s", domain.ErrGeocodeNoResult, q)
	}
	lat, err1 := strconv.ParseFloat(result[0].Lat, 64)
	lon, err2 := strconv.ParseFloat(result[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return domain.Coords{}, fmt.Errorf("%w: unparseable coordinates for %s", domain.ErrGeocodeNoResult, q)
	}
	c = domain.Coords{Lat: lat, Lon: lon}

	log.Info().Str("query", q).Float64("lat", lat).Float64("lon", lon).Msg("geocoded")
	n.remember(key, c)
	if n.cache != nil {
		_ = n.cache.Set(ctx, key, c, cacheTTL)
	}
	return c, nil
}

func (n *Nominatim) remember(key string, c domain.Coords) {
	n.mu.Lock()
	n.mem[key] = c
	n.mu.Unlock()
}

func join(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
