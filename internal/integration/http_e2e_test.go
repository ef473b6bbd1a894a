//go:build integration || !unit

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	server "rentcomps/internal/adapters/http_server"
	redisad "rentcomps/internal/adapters/redis"
	"rentcomps/internal/app"
	"rentcomps/internal/bootstrap"
	"rentcomps/internal/domain"
	"rentcomps/internal/shared"
	"rentcomps/internal/storage/sqlstore"
)

type stack struct {
	ts    *httptest.Server
	redis *miniredis.Miniredis
}

func newStack(t *testing.T) stack {
	t.Helper()
	ctx := context.Background()

	t.Setenv("SYNTHETIC_SEED", "21")
	cfg, err := shared.Parse()
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	db, err := sqlstore.Open(ctx, "sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	repo := sqlstore.New(db, "sqlite3")
	if err := repo.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	cache := redisad.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "e2e:")

	deps := bootstrap.Build(cfg, bootstrap.Options{Offline: true, Cache: cache, Repo: repo})
	q := app.NewQueryService(repo, cache, time.Minute)

	srv := server.New(10 * time.Second)
	srv.MountHandlers(&server.Handlers{A: deps.Analysis, Q: q})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return stack{ts: ts, redis: mr}
}

func postAnalysis(t *testing.T, base, body string) app.AnalysisResponse {
	t.Helper()
	res, err := http.Post(base+"/v1/analyses", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("POST status %d", res.StatusCode)
	}
	var out app.AnalysisResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestHTTP_EndToEnd_AnalyzeThenHistory(t *testing.T) {
	s := newStack(t)

	// rent far below the synthetic Athens panel so a below_market alert is raised
	body := `{"unit_id":"unit-9","landlord_id":"ll-3",
		"query":{"city":"Athens","country":"GR"},
		"subject":{"rent":150,"bedrooms":2,"area_sqm":68}}`
	first := postAnalysis(t, s.ts.URL, body)
	if first.ID == "" || first.Bundle.DataSource != domain.DataSourceFallback {
		t.Fatalf("unexpected analysis: id=%q source=%q", first.ID, first.Bundle.DataSource)
	}
	kinds := map[domain.AlertKind]bool{}
	for _, a := range first.Alerts {
		kinds[a.Kind] = true
	}
	if !kinds[domain.AlertBelowMarket] || !kinds[domain.AlertSyntheticData] {
		t.Fatalf("missing alerts: %+v", first.Alerts)
	}

	histURL := fmt.Sprintf("%s/v1/units/%s/analyses?limit=10", s.ts.URL, "unit-9")
	res, err := http.Get(histURL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var hist struct {
		Analyses []domain.AnalysisRecord `json:"analyses"`
	}
	_ = json.NewDecoder(res.Body).Decode(&hist)
	res.Body.Close()
	if len(hist.Analyses) != 1 || hist.Analyses[0].ID != first.ID {
		t.Fatalf("history = %+v", hist.Analyses)
	}
	etag := res.Header.Get("ETag")
	if !s.redis.Exists("e2e:history:unit-9") {
		t.Fatalf("history was not cached")
	}

	// a second analysis evicts the cached history, so the ETag changes
	second := postAnalysis(t, s.ts.URL, body)
	if s.redis.Exists("e2e:history:unit-9") {
		t.Fatalf("history cache not evicted on save")
	}
	req, _ := http.NewRequest(http.MethodGet, histURL, nil)
	req.Header.Set("If-None-Match", etag)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	_ = json.NewDecoder(res.Body).Decode(&hist)
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected fresh body after new analysis, got %d", res.StatusCode)
	}
	if len(hist.Analyses) != 2 || hist.Analyses[0].ID != second.ID {
		t.Fatalf("newest first expected: %+v", hist.Analyses)
	}

	res, err = http.Get(s.ts.URL + "/v1/landlords/ll-3/alerts")
	if err != nil {
		t.Fatalf("GET alerts: %v", err)
	}
	defer res.Body.Close()
	var alerts struct {
		Alerts []domain.Alert `json:"alerts"`
	}
	if err := json.NewDecoder(res.Body).Decode(&alerts); err != nil {
		t.Fatalf("decode alerts: %v", err)
	}
	if len(alerts.Alerts) != len(first.Alerts)+len(second.Alerts) {
		t.Fatalf("alerts = %d, want %d", len(alerts.Alerts), len(first.Alerts)+len(second.Alerts))
	}
}

func TestHTTP_EndToEnd_InvalidRequest(t *testing.T) {
	s := newStack(t)

	res, err := http.Post(s.ts.URL+"/v1/analyses", "application/json",
		strings.NewReader(`{"query":{"city":"Athens"},"subject":{"bedrooms":-1}}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content-type %q", ct)
	}
}
