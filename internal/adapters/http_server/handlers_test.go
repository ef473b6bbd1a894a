package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "rentcomps/internal/adapters/http_server"
	"rentcomps/internal/app"
	"rentcomps/internal/domain"
)

type fakeAnalyzer struct {
	resp app.AnalysisResponse
	err  error
	got  app.AnalyzeRequest
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req app.AnalyzeRequest) (app.AnalysisResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeReader struct {
	history   []domain.AnalysisRecord
	alerts    []domain.Alert
	err       error
	lastLimit int
}

func (f *fakeReader) History(_ context.Context, _ string, limit int) ([]domain.AnalysisRecord, error) {
	f.lastLimit = limit
	return f.history, f.err
}

func (f *fakeReader) Alerts(_ context.Context, _ string, limit int) ([]domain.Alert, error) {
	f.lastLimit = limit
	return f.alerts, f.err
}

func newTestServer(a *fakeAnalyzer, q *fakeReader) *httptest.Server {
	srv := httpserver.New(5 * time.Second)
	srv.MountHandlers(&httpserver.Handlers{A: a, Q: q})
	return httptest.NewServer(srv.Mux())
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(&fakeAnalyzer{}, &fakeReader{})
	defer ts.Close()

	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestCreateAnalysis_OK(t *testing.T) {
	a := &fakeAnalyzer{resp: app.AnalysisResponse{
		ID:     "an-1",
		UnitID: "unit-7",
		Bundle: domain.ResultBundle{DataSource: "portals", Live: true},
		Alerts: []domain.Alert{},
	}}
	ts := newTestServer(a, &fakeReader{})
	defer ts.Close()

	body := `{"unit_id":"unit-7","landlord_id":"ll-1","query":{"city":"Athens","country":"GR"},"subject":{"rent":800,"bedrooms":2}}`
	res, err := http.Post(ts.URL+"/v1/analyses", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	var got app.AnalysisResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "an-1", got.ID)
	assert.Equal(t, "Athens", a.got.Query.City)
	assert.Equal(t, 2, a.got.Subject.Bedrooms)
}

func TestCreateAnalysis_Errors(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed json", `{"unit_id":`, nil, http.StatusBadRequest},
		{"invalid input", `{}`, fmt.Errorf("%w: query needs coordinates", domain.ErrInvalidInput), http.StatusBadRequest},
		{"upstream failure", `{}`, errors.New("boom"), http.StatusBadGateway},
		{"deadline", `{}`, context.DeadlineExceeded, http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(&fakeAnalyzer{err: tc.err}, &fakeReader{})
			defer ts.Close()

			res, err := http.Post(ts.URL+"/v1/analyses", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tc.status, res.StatusCode)
			assert.Equal(t, "application/problem+json", res.Header.Get("Content-Type"))
			var p map[string]any
			require.NoError(t, json.NewDecoder(res.Body).Decode(&p))
			assert.EqualValues(t, tc.status, p["status"])
		})
	}
}

func TestUnitHistory_ETag(t *testing.T) {
	q := &fakeReader{history: []domain.AnalysisRecord{
		{ID: "an-2", UnitID: "unit-7", Method: domain.MethodSqmBedroom},
		{ID: "an-1", UnitID: "unit-7", Method: domain.MethodWeightedMedian},
	}}
	ts := newTestServer(&fakeAnalyzer{}, q)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/units/unit-7/analyses?limit=5")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 5, q.lastLimit)

	etag := res.Header.Get("ETag")
	require.NotEmpty(t, etag)
	var body struct {
		UnitID   string                  `json:"unit_id"`
		Analyses []domain.AnalysisRecord `json:"analyses"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "unit-7", body.UnitID)
	require.Len(t, body.Analyses, 2)
	assert.Equal(t, "an-2", body.Analyses[0].ID)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/units/unit-7/analyses?limit=5", nil)
	req.Header.Set("If-None-Match", etag)
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusNotModified, res2.StatusCode)
	assert.Equal(t, etag, res2.Header.Get("ETag"))
}

func TestUnitHistory_BadLimit(t *testing.T) {
	ts := newTestServer(&fakeAnalyzer{}, &fakeReader{})
	defer ts.Close()

	for _, l := range []string{"0", "-3", "101", "ten"} {
		res, err := http.Get(ts.URL + "/v1/units/u/analyses?limit=" + l)
		require.NoError(t, err)
		res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, "limit=%s", l)
	}
}

func TestLandlordAlerts(t *testing.T) {
	q := &fakeReader{alerts: []domain.Alert{
		{AnalysisID: "an-1", UnitID: "unit-7", LandlordID: "ll-1", Kind: domain.AlertBelowMarket, Message: "below"},
	}}
	ts := newTestServer(&fakeAnalyzer{}, q)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/landlords/ll-1/alerts")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 0, q.lastLimit, "missing limit is left to the query service default")

	var body struct {
		LandlordID string         `json:"landlord_id"`
		Alerts     []domain.Alert `json:"alerts"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "ll-1", body.LandlordID)
	require.Len(t, body.Alerts, 1)
	assert.Equal(t, domain.AlertBelowMarket, body.Alerts[0].Kind)
}

func TestLandlordAlerts_RepoError(t *testing.T) {
	ts := newTestServer(&fakeAnalyzer{}, &fakeReader{err: errors.New("db down")})
	defer ts.Close()

	res, err := http.Get(ts.URL + "/v1/landlords/ll-1/alerts")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
}
