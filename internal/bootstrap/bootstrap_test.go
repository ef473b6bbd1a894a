package bootstrap_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcomps/internal/app"
	"rentcomps/internal/bootstrap"
	"rentcomps/internal/domain"
	"rentcomps/internal/shared"
)

func config(t *testing.T, kv map[string]string) shared.Config {
	t.Helper()
	for k, v := range kv {
		t.Setenv(k, v)
	}
	cfg, err := shared.Parse()
	require.NoError(t, err)
	return cfg
}

func names(c *app.Chain) []string {
	out := []string{}
	for _, p := range c.Providers() {
		out = append(out, p.Name())
	}
	return out
}

func TestBuild_ChainOrder(t *testing.T) {
	cfg := config(t, map[string]string{"RENTCAST_API_KEY": "k"})
	d := bootstrap.Build(cfg, bootstrap.Options{})
	assert.Equal(t, []string{"rentcast", "portals", domain.DataSourceFallback}, names(d.Chain))

	cfg = config(t, map[string]string{"RENTCAST_API_KEY": "", "PORTALS_ENABLED": "false"})
	d = bootstrap.Build(cfg, bootstrap.Options{})
	assert.Equal(t, []string{domain.DataSourceFallback}, names(d.Chain))
}

func TestBuild_OfflineAnalyze(t *testing.T) {
	cfg := config(t, map[string]string{"RENTCAST_API_KEY": "k", "SYNTHETIC_SEED": "7"})
	now := func() time.Time { return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC) }
	d := bootstrap.Build(cfg, bootstrap.Options{Offline: true, Now: now})
	require.Equal(t, []string{domain.DataSourceFallback}, names(d.Chain))

	area := 70.0
	resp, err := d.Analysis.Analyze(context.Background(), app.AnalyzeRequest{
		UnitID:  "unit-1",
		Query:   domain.Query{City: "Athens", Country: "Greece"},
		Subject: domain.Subject{Rent: 650, Bedrooms: 2, AreaSqm: &area},
	})
	require.NoError(t, err)

	assert.False(t, resp.Bundle.Live)
	assert.Equal(t, domain.DataSourceFallback, resp.Bundle.DataSource)
	assert.Len(t, resp.Bundle.Comps, cfg.Engine.PanelSize)
	assert.Greater(t, resp.Analysis.Hedonic.HedonicPrice, 0.0)
	assert.NotEmpty(t, resp.Narrative.Summary)
	assert.Equal(t, domain.NarrativeFallback, resp.Narrative.Source)

	kinds := map[domain.AlertKind]bool{}
	for _, a := range resp.Alerts {
		kinds[a.Kind] = true
	}
	assert.True(t, kinds[domain.AlertSyntheticData])
}
