package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"rentcomps/internal/app"
	"rentcomps/internal/domain"
	"rentcomps/internal/pricing"
	"rentcomps/internal/synthetic"
)

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)

// ---- fakes ----

type fakeProvider struct {
	name   string
	avail  bool
	bundle domain.ResultBundle
	err    error

	mu    sync.Mutex
	calls int
	lastQ domain.Query
}

func (p *fakeProvider) Name() string                                   { return p.name }
func (p *fakeProvider) IsAvailable(context.Context, domain.Query) bool { return p.avail }
func (p *fakeProvider) FetchComps(_ context.Context, q domain.Query) (domain.ResultBundle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastQ = q
	return p.bundle, p.err
}

type fakeGeo struct {
	c   domain.Coords
	err error
}

func (g fakeGeo) Geocode(context.Context, string, string, string) (domain.Coords, error) {
	return g.c, g.err
}

type fakeNarrator struct {
	n   domain.Narrative
	err error
}

func (f fakeNarrator) Narrate(context.Context, domain.NarrativeInput) (domain.Narrative, error) {
	return f.n, f.err
}

type fakeRepo struct {
	mu      sync.Mutex
	saved   []domain.AnalysisRecord
	err     error
	queries int
}

func (r *fakeRepo) Migrate(context.Context) error { return nil }
func (r *fakeRepo) SaveAnalysis(_ context.Context, rec domain.AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.saved = append([]domain.AnalysisRecord{rec}, r.saved...)
	return nil
}
func (r *fakeRepo) RecentAnalyses(_ context.Context, unitID string, limit int) ([]domain.AnalysisRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries++
	var out []domain.AnalysisRecord
	for _, rec := range r.saved {
		if rec.UnitID == unitID && len(out) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}
func (r *fakeRepo) AlertsForLandlord(_ context.Context, landlordID string, limit int) ([]domain.Alert, error) {
	var out []domain.Alert
	for _, rec := range r.saved {
		for _, a := range rec.Alerts {
			if a.LandlordID == landlordID && len(out) < limit {
				out = append(out, a)
			}
		}
	}
	return out, nil
}

// fakeCache stores JSON like the redis adapter does.
type fakeCache struct {
	store map[string][]byte
	dels  int
}

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(_ context.Context, key string, v any, _ int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	c.store[key] = b
	return err
}
func (c *fakeCache) Del(_ context.Context, key string) error {
	c.dels++
	delete(c.store, key)
	return nil
}

// ---- builders ----

func liveComps(n int) []domain.Comp {
	out := make([]domain.Comp, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Comp{
			ID:           "c" + string(rune('a'+i)),
			Rent:         900 + 50*float64(i),
			Bedrooms:     2,
			AreaSqm:      ptr(60.0),
			DistanceKm:   1,
			DaysOnMarket: 20,
			Status:       domain.StatusActive,
			Source:       "Source A",
		})
	}
	return out
}

func liveProvider(n int) *fakeProvider {
	return &fakeProvider{name: "srca", avail: true, bundle: domain.ResultBundle{
		Comps:         liveComps(n),
		DataSource:    "srca",
		SourceLabel:   "Source A",
		Live:          true,
		RawCount:      n,
		FilteredCount: n,
		RadiusKm:      3,
	}}
}

func fallbackProvider() *synthetic.Provider {
	gen := synthetic.NewGenerator(synthetic.DefaultTables(), rand.New(rand.NewSource(9)))
	return synthetic.NewProvider(gen, nil, 12, 3, func() time.Time { return fixedNow })
}

func newService(chain *app.Chain, geo domain.Geocoder, narr domain.Narrator, repo domain.AnalysisRepository, cache domain.Cache) *app.AnalysisService {
	var ids int
	return app.NewAnalysisService(chain, pricing.NewEngine(pricing.DefaultTables(), pricing.DefaultRenewalConfig()),
		geo, narr, repo, cache, app.ServiceOptions{
			MinUsefulComps: 5,
			BundleTTL:      time.Minute,
			Now:            func() time.Time { return fixedNow },
			NewID: func() string {
				ids++
				return "an-" + string(rune('0'+ids))
			},
		})
}

func request() app.AnalyzeRequest {
	q := domain.Query{City: "Athens", Country: "GR", RadiusKm: 3}.WithCoords(domain.Coords{Lat: 37.98, Lon: 23.72})
	return app.AnalyzeRequest{
		UnitID:     "unit-1",
		LandlordID: "ll-1",
		Query:      q,
		Subject:    domain.Subject{Rent: 700, Bedrooms: 2, AreaSqm: ptr(60.0)},
	}
}

func kinds(as []domain.Alert) []domain.AlertKind {
	out := make([]domain.AlertKind, 0, len(as))
	for _, a := range as {
		out = append(out, a.Kind)
	}
	return out
}

var errBoom = errors.New("boom")
