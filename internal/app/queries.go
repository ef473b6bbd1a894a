package app

import (
	"context"
	"time"

	"rentcomps/internal/domain"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// QueryService reads persisted analyses. Unit history is cached whole and sliced per call;
// AnalysisService evicts it when it saves a new record.
type QueryService struct {
	repo     domain.AnalysisRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.AnalysisRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func historyKey(unitID string) string { return "history:" + unitID }

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultLimit
	case n > maxLimit:
		return maxLimit
	}
	return n
}

// History returns the unit's most recent analyses, newest first.
func (s *QueryService) History(ctx context.Context, unitID string, limit int) ([]domain.AnalysisRecord, error) {
	limit = clampLimit(limit)
	key := historyKey(unitID)
	var all []domain.AnalysisRecord
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &all); ok {
			return head(all, limit), nil
		}
	}
	all, err := s.repo.RecentAnalyses(ctx, unitID, maxLimit)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, all, int(s.cacheTTL.Seconds()))
	}
	return head(all, limit), nil
}

func (s *QueryService) Alerts(ctx context.Context, landlordID string, limit int) ([]domain.Alert, error) {
	return s.repo.AlertsForLandlord(ctx, landlordID, clampLimit(limit))
}

// head copies so callers never alias the cached slice.
func head(rs []domain.AnalysisRecord, n int) []domain.AnalysisRecord {
	if n > len(rs) {
		n = len(rs)
	}
	out := make([]domain.AnalysisRecord, n)
	copy(out, rs[:n])
	return out
}
