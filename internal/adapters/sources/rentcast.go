package sources

import (
	"context"

	"rentcomps/internal/domain"
	"rentcomps/internal/extract"
)

// RentCastProvider queries the RentCast long-term rental listings API. US only; needs a key.
type RentCastProvider struct {
	family
	src    Source
	apiKey string
}

func NewRentCastProvider(f domain.Fetcher, baseURL, apiKey string, opts Options) *RentCastProvider {
	if baseURL == "" {
		baseURL = "https://api.rentcast.io/v1"
	}
	return &RentCastProvider{
		family: family{
			fetcher:    f,
			strategies: []extract.Strategy{extract.JSONAPI{}},
			opts:       opts.withDefaults(),
		},
		src:    RentCastSource(baseURL, apiKey),
		apiKey: apiKey,
	}
}

func (p *RentCastProvider) Name() string { return "rentcast" }

func (p *RentCastProvider) IsAvailable(_ context.Context, q domain.Query) bool {
	return p.apiKey != "" && p.src.Serves(q) && len(p.src.Requests(q, 0)) > 0
}

func (p *RentCastProvider) FetchComps(ctx context.Context, q domain.Query) (domain.ResultBundle, error) {
	if p.apiKey == "" {
		return domain.ResultBundle{}, domain.ErrUnauthorized
	}
	return p.fetch(ctx, []Source{p.src}, q)
}
