package synthetic

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"rentcomps/internal/domain"
)

var ErrNoBenchmark = errors.New("no benchmark for locale")

// TableSource answers from the injected city and country tables.
type TableSource struct{ t Tables }

func NewTableSource(t Tables) TableSource { return TableSource{t: t} }

func (s TableSource) Benchmarks(_ context.Context, city, country string) (domain.Benchmarks, error) {
	slug, cc := domain.Slug(city), domain.CountryCode(country)
	if slug != "" {
		if b, ok := s.t.CityBenchmarks[slug+"|"+cc]; ok {
			return b, nil
		}
		if cc == "" {
			// a city name shared by several countries resolves to the lowest country code
			var keys []string
			for k := range s.t.CityBenchmarks {
				if strings.HasPrefix(k, slug+"|") {
					keys = append(keys, k)
				}
			}
			if len(keys) > 0 {
				sort.Strings(keys)
				return s.t.CityBenchmarks[keys[0]], nil
			}
		}
	}
	if b, ok := s.t.CountryBenchmarks[cc]; ok && cc != "" {
		return b, nil
	}
	return domain.Benchmarks{}, ErrNoBenchmark
}

// BenchmarkChain asks each source in order and settles on hard defaults. It never fails.
type BenchmarkChain struct {
	sources         []domain.BenchmarkSource
	centre, outside float64
}

func NewBenchmarkChain(t Tables, sources ...domain.BenchmarkSource) *BenchmarkChain {
	c := &BenchmarkChain{sources: sources, centre: t.DefaultCentre, outside: t.DefaultOutside}
	if c.centre <= 0 || c.outside <= 0 {
		c.centre, c.outside = 900, 700
	}
	return c
}

func (c *BenchmarkChain) Benchmarks(ctx context.Context, city, country string) (domain.Benchmarks, error) {
	for _, s := range c.sources {
		if s == nil {
			continue
		}
		b, err := s.Benchmarks(ctx, city, country)
		if err != nil {
			log.Debug().Err(err).Str("city", city).Str("country", country).Msg("benchmark source skipped")
			continue
		}
		if b.CityCentre != nil || b.Outside != nil {
			return b, nil
		}
	}
	centre, outside := c.centre, c.outside
	return domain.Benchmarks{CityCentre: &centre, Outside: &outside, Source: LabelMarket}, nil
}
