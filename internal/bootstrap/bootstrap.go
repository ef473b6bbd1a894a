// Package bootstrap assembles the provider chain and analysis service from configuration.
// cmd/api and cmd/compscan share it so both run the same pipeline.
package bootstrap

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"rentcomps/internal/adapters/geocode"
	"rentcomps/internal/adapters/httpfetch"
	"rentcomps/internal/adapters/narrative"
	"rentcomps/internal/adapters/numbeo"
	redisad "rentcomps/internal/adapters/redis"
	"rentcomps/internal/adapters/sources"
	"rentcomps/internal/app"
	"rentcomps/internal/domain"
	"rentcomps/internal/pricing"
	"rentcomps/internal/shared"
	"rentcomps/internal/synthetic"
)

type Options struct {
	// Offline skips every network collaborator: synthetic comps, table benchmarks, no
	// geocoder, deterministic narrative.
	Offline bool
	Cache   domain.Cache              // optional
	Repo    domain.AnalysisRepository // optional
	Now     domain.Clock
}

type Deps struct {
	Chain    *app.Chain
	Analysis *app.AnalysisService
	Fallback *synthetic.Provider
}

func Build(cfg shared.Config, o Options) Deps {
	if o.Now == nil {
		o.Now = time.Now
	}
	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fetcher := httpfetch.New(cfg.Sources.RPS, cfg.Sources.Timeout, cfg.Sources.UserAgent)

	synthTables := synthetic.DefaultTables()
	benchSources := []domain.BenchmarkSource{}
	if !o.Offline && cfg.Sources.NumbeoEnabled {
		benchSources = append(benchSources, numbeo.New(fetcher, cfg.Sources.NumbeoBase, named(o.Cache, "numbeo")))
	}
	benchSources = append(benchSources, synthetic.NewTableSource(synthTables))
	fallback := synthetic.NewProvider(
		synthetic.NewGenerator(synthTables, rand.New(rand.NewSource(seed))),
		synthetic.NewBenchmarkChain(synthTables, benchSources...),
		cfg.Engine.PanelSize,
		cfg.Engine.DefaultRadiusKm,
		o.Now,
	)

	var live []domain.Provider
	if !o.Offline {
		opts := sources.Options{
			Timeout:         cfg.Sources.Timeout,
			NeutralKm:       cfg.Engine.NeutralKm,
			DefaultRadiusKm: cfg.Engine.DefaultRadiusKm,
			Parallel:        cfg.Sources.Parallel,
			Now:             o.Now,
		}
		if cfg.Sources.RentCastKey != "" {
			live = append(live, sources.NewRentCastProvider(fetcher, cfg.Sources.RentCastBase, cfg.Sources.RentCastKey, opts))
		}
		if cfg.Sources.PortalsEnabled {
			live = append(live, sources.NewPortalProvider(fetcher, sources.DefaultPortals(), opts))
		}
	}
	chain := app.NewChain(fallback, live...)

	var geo domain.Geocoder
	if !o.Offline && cfg.Geocoder.Enabled {
		gf := httpfetch.New(cfg.Geocoder.RPS, 10*time.Second, cfg.Geocoder.UserAgent)
		geo = geocode.NewNominatim(gf, cfg.Geocoder.BaseURL, named(o.Cache, "geocode"))
	}

	var narrator domain.Narrator
	if !o.Offline && cfg.Narrative.APIKey != "" {
		narrator = narrative.New(narrative.Config{
			BaseURL:          cfg.Narrative.BaseURL,
			APIKey:           cfg.Narrative.APIKey,
			Model:            cfg.Narrative.Model,
			MaxTokens:        cfg.Narrative.MaxTokens,
			Timeout:          cfg.Narrative.Timeout,
			BreakerThreshold: cfg.Narrative.BreakerThreshold,
			BreakerCooldown:  cfg.Narrative.BreakerCooldown,
		})
	}

	tables := pricing.DefaultTables()
	if cfg.Engine.PlaceholderDOM > 0 {
		tables.PlaceholderDOM = cfg.Engine.PlaceholderDOM
	}
	engine := pricing.NewEngine(tables, pricing.DefaultRenewalConfig())

	svc := app.NewAnalysisService(chain, engine, geo, narrator, o.Repo, o.Cache, app.ServiceOptions{
		MinUsefulComps: cfg.Sources.MinUsefulComps,
		BundleTTL:      cfg.Redis.BundleTTL,
		Now:            o.Now,
	})

	names := []string{}
	for _, p := range chain.Providers() {
		names = append(names, p.Name())
	}
	log.Debug().Strs("providers", names).Bool("offline", o.Offline).
		Bool("geocoder", geo != nil).Bool("narrator", narrator != nil).Msg("pipeline assembled")

	return Deps{Chain: chain, Analysis: svc, Fallback: fallback}
}

// named gives a collaborator its own key prefix and cache metric label when the backend is
// redis. The analysis cache stays unnamed: QueryService reads the history keys it evicts.
func named(c domain.Cache, name string) domain.Cache {
	if rc, ok := c.(*redisad.Cache); ok && rc != nil {
		return rc.Named(name)
	}
	return c
}
