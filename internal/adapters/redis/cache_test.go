package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "rentcomps/internal/adapters/redis"
	"rentcomps/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	var coords domain.Coords
	ok, err := c.Get(ctx, "missing", &coords)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "athens", domain.Coords{Lat: 37.98, Lon: 23.73}, 60))
	assert.True(t, mr.Exists("test:athens"))

	ok, err = c.Get(ctx, "athens", &coords)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 37.98, coords.Lat)

	require.NoError(t, c.Del(ctx, "athens"))
	ok, err = c.Get(ctx, "athens", &coords)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_TTLAndNamedPrefix(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()
	geo := c.Named("geo")

	require.NoError(t, geo.Set(ctx, "k", map[string]int{"a": 1}, 30))
	assert.True(t, mr.Exists("test:geo:k"))
	assert.False(t, mr.Exists("test:k"))

	mr.FastForward(31 * time.Second)
	var v map[string]int
	ok, err := geo.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_RoundTripsBundle(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	in := domain.ResultBundle{
		Comps:      []domain.Comp{{ID: "a", Rent: 1200, Bedrooms: 2, Source: "spitogatos"}},
		DataSource: "spitogatos",
		Live:       true,
		RawCount:   3,
	}
	require.NoError(t, c.Set(ctx, "bundle:x", in, 60))

	var out domain.ResultBundle
	ok, err := c.Get(ctx, "bundle:x", &out)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in.DataSource, out.DataSource)
	require.Len(t, out.Comps, 1)
	assert.Equal(t, 1200.0, out.Comps[0].Rent)
}
