package synthetic

import (
	"context"
	"fmt"
	"time"

	"rentcomps/internal/domain"
)

// Provider is the terminal fallback of the provider chain. It is always available.
type Provider struct {
	gen       *Generator
	bench     domain.BenchmarkSource
	panelSize int
	radiusKm  float64
	now       domain.Clock
}

func NewProvider(gen *Generator, bench domain.BenchmarkSource, panelSize int, defaultRadiusKm float64, now domain.Clock) *Provider {
	if bench == nil {
		bench = NewBenchmarkChain(gen.Tables(), NewTableSource(gen.Tables()))
	}
	if panelSize <= 0 {
		panelSize = 12
	}
	if now == nil {
		now = time.Now
	}
	return &Provider{gen: gen, bench: bench, panelSize: panelSize, radiusKm: defaultRadiusKm, now: now}
}

func (p *Provider) Name() string { return domain.DataSourceFallback }

func (p *Provider) IsAvailable(context.Context, domain.Query) bool { return true }

func (p *Provider) FetchComps(ctx context.Context, q domain.Query) (domain.ResultBundle, error) {
	b := p.benchmarks(ctx, q)
	comps := p.comps(b, q, p.panelSize)
	radius := q.RadiusKm
	if radius <= 0 {
		radius = p.radiusKm
	}
	return domain.ResultBundle{
		Comps:         comps,
		DataSource:    domain.DataSourceFallback,
		SourceLabel:   labelOf(b),
		Live:          false,
		FetchedAt:     p.now().UTC(),
		RawCount:      len(comps),
		FilteredCount: len(comps),
		RadiusKm:      radius,
		Warning:       fmt.Sprintf("no live comps available; synthetic panel anchored to %s benchmarks", labelOf(b)),
	}, nil
}

// Pad returns n synthetic comps for topping up a thin live panel.
func (p *Provider) Pad(ctx context.Context, q domain.Query, n int) []domain.Comp {
	if n <= 0 {
		return nil
	}
	return p.comps(p.benchmarks(ctx, q), q, n)
}

func (p *Provider) benchmarks(ctx context.Context, q domain.Query) domain.Benchmarks {
	b, err := p.bench.Benchmarks(ctx, q.City, q.Country)
	if err != nil {
		return domain.Benchmarks{Source: LabelMarket}
	}
	return b
}

func (p *Provider) comps(b domain.Benchmarks, q domain.Query, n int) []domain.Comp {
	comps := p.gen.Generate(b, q.Bedrooms, n)
	if q.City != "" {
		for i := range comps {
			comps[i].Address += ", " + q.City
		}
	}
	return comps
}

func labelOf(b domain.Benchmarks) string {
	if b.Source == LabelNumbeo {
		return LabelNumbeo
	}
	return LabelMarket
}
