package app

import (
	"context"

	"rentcomps/internal/domain"
)

// Chain orders providers by priority. Its last member is the terminal fallback, which is
// always available, so Provider never comes back empty-handed.
type Chain struct {
	providers []domain.Provider
}

func NewChain(fallback domain.Provider, providers ...domain.Provider) *Chain {
	ps := make([]domain.Provider, 0, len(providers)+1)
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &Chain{providers: append(ps, fallback)}
}

// Provider returns the first provider that reports itself available for q.
func (c *Chain) Provider(ctx context.Context, q domain.Query) domain.Provider {
	for _, p := range c.providers {
		if p.IsAvailable(ctx, q) {
			return p
		}
	}
	return c.Fallback()
}

func (c *Chain) Fallback() domain.Provider { return c.providers[len(c.providers)-1] }

func (c *Chain) Providers() []domain.Provider {
	out := make([]domain.Provider, len(c.providers))
	copy(out, c.providers)
	return out
}
