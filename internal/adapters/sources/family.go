package sources

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"rentcomps/internal/adapters/observability"
	"rentcomps/internal/domain"
	"rentcomps/internal/extract"
)

type Options struct {
	Timeout         time.Duration // per source
	NeutralKm       float64       // distance assumed when either side lacks coordinates
	DefaultRadiusKm float64
	Parallel        int
	Now             domain.Clock
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 12 * time.Second
	}
	if o.NeutralKm <= 0 {
		o.NeutralKm = 2
	}
	if o.DefaultRadiusKm <= 0 {
		o.DefaultRadiusKm = 3
	}
	if o.Parallel <= 0 {
		o.Parallel = 4
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// family fetches a set of same-shaped sources concurrently and merges what they yield.
type family struct {
	fetcher    domain.Fetcher
	strategies []extract.Strategy
	opts       Options
}

type sourceResult struct {
	src   Source
	comps []domain.Comp
	err   error
}

func (f *family) fetch(ctx context.Context, srcs []Source, q domain.Query) (domain.ResultBundle, error) {
	radius := q.RadiusKm
	if radius <= 0 {
		radius = f.opts.DefaultRadiusKm
	}

	results := make([]sourceResult, len(srcs))
	var g errgroup.Group
	g.SetLimit(f.opts.Parallel)
	for i, s := range srcs {
		i, s := i, s
		g.Go(func() error {
			comps, err := f.fetchSource(ctx, s, q, radius)
			results[i] = sourceResult{src: s, comps: comps, err: err}
			return nil // a failed source contributes nothing; it never cancels siblings
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.ResultBundle{}, err
	}

	acc := extract.NewAccumulator()
	var keys, labels []string
	var failures []string
	for _, r := range results {
		if r.err != nil {
			failures = append(failures, r.src.Key+": "+r.err.Error())
		}
		if acc.Add(r.comps...) > 0 {
			keys = append(keys, r.src.Key)
			labels = appendUnique(labels, r.src.Label)
		}
	}
	if acc.Len() == 0 {
		if len(failures) > 0 {
			return domain.ResultBundle{}, errors.Join(domain.ErrNoListings, errors.New(strings.Join(failures, "; ")))
		}
		return domain.ResultBundle{}, domain.ErrNoListings
	}

	raw := acc.Comps()
	kept := locate(raw, q, radius, f.opts.NeutralKm)
	if len(kept) == 0 {
		return domain.ResultBundle{}, errors.Join(domain.ErrNoListings, errors.New("no comps inside radius"))
	}
	return domain.ResultBundle{
		Comps:         kept,
		DataSource:    strings.Join(keys, "+"),
		SourceLabel:   strings.Join(labels, ", "),
		Live:          true,
		FetchedAt:     f.opts.Now().UTC(),
		RawCount:      len(raw),
		FilteredCount: len(kept),
		RadiusKm:      radius,
	}, nil
}

func (f *family) fetchSource(ctx context.Context, s Source, q domain.Query, radius float64) ([]domain.Comp, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	reqs := s.Requests(q, radius)
	if len(reqs) == 0 {
		return nil, nil
	}
	var bodies [][]byte
	var firstErr error
	for _, p := range f.fetcher.FetchAll(ctx, s.Key, reqs) {
		if p.Err != nil {
			if firstErr == nil {
				firstErr = p.Err
			}
			log.Debug().Str("source", s.Key).Str("url", p.URL).Err(p.Err).Msg("candidate url failed")
			continue
		}
		bodies = append(bodies, p.Body)
	}

	var err error
	if len(bodies) == 0 {
		err = firstErr
	}
	comps := extract.Run(f.strategies, bodies, extract.SourceContext{
		Source:          s.Label,
		BaseURL:         s.BaseURL,
		DefaultBedrooms: q.Bedrooms,
		Now:             f.opts.Now(),
	})
	observability.ObserveSource(s.Key, len(comps), err)
	if len(comps) == 0 {
		ev := log.Info()
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Str("source", s.Key).Int("payloads", len(bodies)).Msg("source yielded no candidates")
	}
	return comps, err
}

func appendUnique(xs []string, s string) []string {
	for _, x := range xs {
		if x == s {
			return xs
		}
	}
	return append(xs, s)
}
