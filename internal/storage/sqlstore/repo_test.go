package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcomps/internal/domain"
	"rentcomps/internal/storage/sqlstore"
)

func newSQLiteRepo(t *testing.T) *sqlstore.Repo {
	t.Helper()
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := sqlstore.New(db, "sqlite3")
	require.NoError(t, repo.Migrate(ctx))
	// migrations are idempotent
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func record(id, unit string, at time.Time, alerts ...domain.AlertKind) domain.AnalysisRecord {
	rec := domain.AnalysisRecord{
		ID:           id,
		UnitID:       unit,
		LandlordID:   "ll-1",
		CreatedAt:    at,
		DataSource:   "portals",
		CompCount:    9,
		CurrentRent:  800,
		HedonicPrice: 842.5,
		Method:       domain.MethodSqmBedroom,
		Confidence:   0.71,
		VacancyRisk:  34,
		Median:       830,
		BundleJSON:   []byte(`{"comps":[]}`),
		HedonicJSON:  []byte(`{"method":"sqm+bedroom"}`),
		Narrative:    "Rent sits near the market median.",
	}
	for _, k := range alerts {
		rec.Alerts = append(rec.Alerts, domain.Alert{
			AnalysisID: id,
			UnitID:     unit,
			LandlordID: "ll-1",
			Kind:       k,
			Message:    string(k) + " for " + id,
			CreatedAt:  at,
		})
	}
	return rec
}

func TestRepo_SaveAndRecent(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveAnalysis(ctx, record("a-1", "unit-1", base, domain.AlertBelowMarket)))
	require.NoError(t, repo.SaveAnalysis(ctx, record("a-2", "unit-1", base.Add(time.Hour))))
	require.NoError(t, repo.SaveAnalysis(ctx, record("a-3", "unit-1", base.Add(2*time.Hour),
		domain.AlertHighVacancyRisk, domain.AlertLowConfidence)))
	require.NoError(t, repo.SaveAnalysis(ctx, record("b-1", "unit-2", base)))

	got, err := repo.RecentAnalyses(ctx, "unit-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a-3", "a-2", "a-1"}, []string{got[0].ID, got[1].ID, got[2].ID})

	first := got[0]
	assert.Equal(t, "ll-1", first.LandlordID)
	assert.True(t, first.CreatedAt.Equal(base.Add(2*time.Hour)))
	assert.Equal(t, domain.MethodSqmBedroom, first.Method)
	assert.InDelta(t, 842.5, first.HedonicPrice, 1e-9)
	assert.JSONEq(t, `{"comps":[]}`, string(first.BundleJSON))
	assert.Equal(t, "Rent sits near the market median.", first.Narrative)
	require.Len(t, first.Alerts, 2)
	assert.Equal(t, domain.AlertHighVacancyRisk, first.Alerts[0].Kind)
	assert.Empty(t, got[1].Alerts)
	require.Len(t, got[2].Alerts, 1)

	limited, err := repo.RecentAnalyses(ctx, "unit-1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	none, err := repo.RecentAnalyses(ctx, "unit-404", 5)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRepo_AlertsForLandlord(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveAnalysis(ctx, record("a-1", "unit-1", base, domain.AlertBelowMarket)))
	require.NoError(t, repo.SaveAnalysis(ctx, record("a-2", "unit-2", base.Add(time.Minute), domain.AlertSyntheticData)))

	got, err := repo.AlertsForLandlord(ctx, "ll-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.AlertSyntheticData, got[0].Kind)
	assert.Equal(t, "unit-2", got[0].UnitID)
	assert.Equal(t, "a-1", got[1].AnalysisID)

	got, err = repo.AlertsForLandlord(ctx, "ll-1", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.AlertsForLandlord(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRepo_DuplicateIDRollsBack(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveAnalysis(ctx, record("a-1", "unit-1", at)))
	err := repo.SaveAnalysis(ctx, record("a-1", "unit-1", at, domain.AlertAboveMarket))
	require.Error(t, err)

	// the failed save must not leave an orphan alert behind
	alerts, err := repo.AlertsForLandlord(ctx, "ll-1", 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := sqlstore.Open(context.Background(), "postgres", "x")
	assert.ErrorContains(t, err, "unsupported db driver")
}
