package sources

import (
	"context"

	"rentcomps/internal/domain"
	"rentcomps/internal/extract"
)

// PortalProvider scrapes the listing portals that serve the query's country.
type PortalProvider struct {
	family
	sources []Source
}

func NewPortalProvider(f domain.Fetcher, sources []Source, opts Options) *PortalProvider {
	return &PortalProvider{
		family: family{
			fetcher: f,
			strategies: []extract.Strategy{
				extract.JSONAPI{},
				extract.EmbeddedJSON{},
				extract.HydrationState{},
				extract.LinkedData{},
				extract.RawMarkup{},
			},
			opts: opts.withDefaults(),
		},
		sources: sources,
	}
}

func (p *PortalProvider) Name() string { return "portals" }

func (p *PortalProvider) IsAvailable(_ context.Context, q domain.Query) bool {
	return len(p.applicable(q)) > 0
}

func (p *PortalProvider) FetchComps(ctx context.Context, q domain.Query) (domain.ResultBundle, error) {
	srcs := p.applicable(q)
	if len(srcs) == 0 {
		return domain.ResultBundle{}, domain.ErrNoListings
	}
	return p.fetch(ctx, srcs, q)
}

func (p *PortalProvider) applicable(q domain.Query) []Source {
	if q.City == "" && !q.HasGeocode {
		return nil
	}
	var out []Source
	for _, s := range p.sources {
		if s.Serves(q) && len(s.Requests(q, 0)) > 0 {
			out = append(out, s)
		}
	}
	return out
}
