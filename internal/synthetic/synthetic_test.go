package synthetic_test

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcomps/internal/domain"
	"rentcomps/internal/pricing"
	"rentcomps/internal/synthetic"
)

func ptr[T any](v T) *T { return &v }

func newGen(seed int64) *synthetic.Generator {
	return synthetic.NewGenerator(synthetic.DefaultTables(), rand.New(rand.NewSource(seed)))
}

func tierOf(id string) string {
	parts := strings.SplitN(id, "-", 3)
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

func TestGenerate_SingleBenchmarkStillYieldsFullPanel(t *testing.T) {
	g := newGen(7)
	comps := g.Generate(domain.Benchmarks{CityCentre: ptr(800.0)}, 2, 12)
	require.Len(t, comps, 12)

	tiers, places := map[string]bool{}, map[string]bool{}
	for _, c := range comps {
		assert.True(t, domain.ValidRent(c.Rent), "rent %v", c.Rent)
		require.NotNil(t, c.AreaSqm)
		assert.Greater(t, *c.AreaSqm, 10.0)
		assert.GreaterOrEqual(t, c.DistanceKm, 0.0)
		assert.Equal(t, synthetic.LabelMarket, c.Source)
		tiers[tierOf(c.ID)] = true
		places[c.Address] = true
	}
	assert.GreaterOrEqual(t, len(tiers), 2)
	assert.GreaterOrEqual(t, len(places), 5)

	s := pricing.NewEngine(pricing.DefaultTables(), pricing.DefaultRenewalConfig()).Stats(comps, 0)
	assert.False(t, math.IsNaN(s.StdDev) || math.IsInf(s.StdDev, 0))
	assert.Greater(t, s.StdDev, 0.0)
	assert.Greater(t, s.Median, 0.0)
}

func TestGenerate_TwoCompsSpanTwoTiers(t *testing.T) {
	comps := newGen(1).Generate(domain.Benchmarks{Outside: ptr(600.0)}, 1, 2)
	require.Len(t, comps, 2)
	assert.NotEqual(t, tierOf(comps[0].ID), tierOf(comps[1].ID))
	assert.NotEqual(t, comps[0].Address, comps[1].Address)
}

func TestGenerate_ReproducibleWithSeed(t *testing.T) {
	b := domain.Benchmarks{CityCentre: ptr(1200.0), Outside: ptr(900.0), Source: synthetic.LabelNumbeo}
	a := newGen(42).Generate(b, 3, 10)
	c := newGen(42).Generate(b, 3, 10)
	assert.Equal(t, a, c)
	assert.Equal(t, synthetic.LabelNumbeo, a[0].Source)

	d := newGen(43).Generate(b, 3, 10)
	assert.NotEqual(t, a, d)
}

func TestGenerate_CentreAboveOutside(t *testing.T) {
	tb := synthetic.DefaultTables()
	tb.RentSigma = 0
	tb.Tiers = []synthetic.Tier{{Name: "mid", Factor: 1, DOM: 20}}
	tb.Neighborhoods = []synthetic.Neighborhood{{Name: "Centre", Centre: true, DistanceKm: 1}, {Name: "Out", DistanceKm: 4}}
	g := synthetic.NewGenerator(tb, rand.New(rand.NewSource(1)))

	comps := g.Generate(domain.Benchmarks{CityCentre: ptr(1000.0), Outside: ptr(700.0)}, 1, 2)
	assert.Equal(t, 1000.0, comps[0].Rent)
	assert.Equal(t, 700.0, comps[1].Rent)
}

type failing struct{}

func (failing) Benchmarks(context.Context, string, string) (domain.Benchmarks, error) {
	return domain.Benchmarks{}, errors.New("down")
}

func TestBenchmarkChain_Order(t *testing.T) {
	tb := synthetic.DefaultTables()
	ctx := context.Background()

	chain := synthetic.NewBenchmarkChain(tb, failing{}, synthetic.NewTableSource(tb))
	b, err := chain.Benchmarks(ctx, "Athens", "Greece")
	require.NoError(t, err)
	assert.Equal(t, 600.0, *b.CityCentre)

	b, _ = chain.Benchmarks(ctx, "Patras", "GR")
	assert.Equal(t, 520.0, *b.CityCentre, "country table")

	b, _ = chain.Benchmarks(ctx, "Lisbon", "")
	assert.Equal(t, 1250.0, *b.CityCentre, "city without country")

	b, err = chain.Benchmarks(ctx, "Nowhere", "Atlantis")
	require.NoError(t, err)
	assert.Equal(t, 900.0, *b.CityCentre)
	assert.Equal(t, 700.0, *b.Outside)
}

func TestTableSource_CityWithoutCountryIsDeterministic(t *testing.T) {
	tb := synthetic.DefaultTables()
	tb.CityBenchmarks = map[string]domain.Benchmarks{
		"paris|US": {CityCentre: ptr(1100.0), Outside: ptr(900.0)},
		"paris|FR": {CityCentre: ptr(1400.0), Outside: ptr(1000.0)},
		"paris|CA": {CityCentre: ptr(950.0), Outside: ptr(800.0)},
	}
	src := synthetic.NewTableSource(tb)

	for i := 0; i < 50; i++ {
		b, err := src.Benchmarks(context.Background(), "Paris", "")
		require.NoError(t, err)
		require.Equal(t, 950.0, *b.CityCentre)
	}
	b, err := src.Benchmarks(context.Background(), "Paris", "FR")
	require.NoError(t, err)
	assert.Equal(t, 1400.0, *b.CityCentre)
}

func TestProvider_AlwaysAvailableAndWarns(t *testing.T) {
	tb := synthetic.DefaultTables()
	p := synthetic.NewProvider(newGen(3), synthetic.NewBenchmarkChain(tb, failing{}), 10, 3, nil)
	q := domain.Query{City: "Atlantis", Bedrooms: 2}

	assert.True(t, p.IsAvailable(context.Background(), q))
	b, err := p.FetchComps(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, domain.DataSourceFallback, b.DataSource)
	assert.False(t, b.Live)
	assert.Len(t, b.Comps, 10)
	assert.NotEmpty(t, b.Warning)
	assert.Equal(t, synthetic.LabelMarket, b.SourceLabel)
	assert.Equal(t, 3.0, b.RadiusKm)
	assert.True(t, strings.HasSuffix(b.Comps[0].Address, ", Atlantis"))

	assert.Len(t, p.Pad(context.Background(), q, 3), 3)
	assert.Nil(t, p.Pad(context.Background(), q, 0))
}
