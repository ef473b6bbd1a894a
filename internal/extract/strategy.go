// Package extract turns fetched source payloads into comp records. Every strategy is total:
// malformed input produces no candidates, never an error.
package extract

import (
	"github.com/rs/zerolog/log"

	"rentcomps/internal/domain"
)

type Strategy interface {
	Name() string
	Extract(payload []byte, sc SourceContext) []domain.Comp
}

// Run applies every strategy to every payload and merges the candidates.
func Run(strategies []Strategy, payloads [][]byte, sc SourceContext) []domain.Comp {
	acc := NewAccumulator()
	for _, p := range payloads {
		if len(p) == 0 {
			continue
		}
		for _, s := range strategies {
			got := safeExtract(s, p, sc)
			added := acc.Add(got...)
			log.Debug().
				Str("source", sc.Source).
				Str("strategy", s.Name()).
				Int("candidates", len(got)).
				Int("new", added).
				Msg("extraction strategy finished")
		}
	}
	return acc.Comps()
}

func safeExtract(s Strategy, payload []byte, sc SourceContext) (out []domain.Comp) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Str("source", sc.Source).Str("strategy", s.Name()).Interface("panic", r).Msg("strategy recovered")
			out = nil
		}
	}()
	return s.Extract(payload, sc)
}

// Accumulator merges candidates keyed by (rent, canonical-url-or-id). A repeat sighting
// fills fields the first sighting lacked.
type Accumulator struct {
	index map[string]int
	comps []domain.Comp
}

func NewAccumulator() *Accumulator {
	return &Accumulator{index: map[string]int{}}
}

// Add merges cs and returns how many were new. Out-of-band rents are dropped.
func (a *Accumulator) Add(cs ...domain.Comp) int {
	added := 0
	for _, c := range cs {
		if !domain.ValidRent(c.Rent) {
			continue
		}
		k := c.DedupeKey()
		if i, ok := a.index[k]; ok {
			a.comps[i] = fillMissing(a.comps[i], c)
			continue
		}
		a.index[k] = len(a.comps)
		a.comps = append(a.comps, c)
		added++
	}
	return added
}

func (a *Accumulator) Len() int { return len(a.comps) }

func (a *Accumulator) Comps() []domain.Comp {
	out := make([]domain.Comp, len(a.comps))
	copy(out, a.comps)
	return out
}

func fillMissing(dst, src domain.Comp) domain.Comp {
	if dst.Bathrooms == nil {
		dst.Bathrooms = src.Bathrooms
	}
	if dst.AreaSqm == nil {
		dst.AreaSqm, dst.AreaSqft = src.AreaSqm, src.AreaSqft
	}
	if dst.Lat == nil || dst.Lon == nil {
		dst.Lat, dst.Lon = src.Lat, src.Lon
	}
	if dst.Address == "" {
		dst.Address = src.Address
	}
	if dst.PropertyType == "" {
		dst.PropertyType = src.PropertyType
	}
	if dst.SourceURL == nil {
		dst.SourceURL = src.SourceURL
	}
	if dst.ListedAt == nil {
		dst.ListedAt = src.ListedAt
	}
	if dst.DaysOnMarket == 0 {
		dst.DaysOnMarket = src.DaysOnMarket
	}
	return dst
}
