package domain

import (
	"context"
	"time"
)

// Provider wraps one external comp source, or a family of same-shaped sources.
type Provider interface {
	Name() string
	IsAvailable(ctx context.Context, q Query) bool
	FetchComps(ctx context.Context, q Query) (ResultBundle, error)
}

type FetchRequest struct {
	URL     string
	Headers map[string]string
}

type Payload struct {
	URL  string
	Body []byte
	Err  error
}

type Fetcher interface {
	// FetchAll issues every request concurrently and returns one Payload per request, in order.
	FetchAll(ctx context.Context, service string, reqs []FetchRequest) []Payload
}

type Geocoder interface {
	Geocode(ctx context.Context, address, city, country string) (Coords, error)
}

type Narrator interface {
	Narrate(ctx context.Context, in NarrativeInput) (Narrative, error)
}

// Benchmarks are published one-bedroom rent figures for a locale. Either may be missing.
type Benchmarks struct {
	CityCentre *float64 `json:"city_centre,omitempty"`
	Outside    *float64 `json:"outside,omitempty"`
	Source     string   `json:"source"`
}

type BenchmarkSource interface {
	Benchmarks(ctx context.Context, city, country string) (Benchmarks, error)
}

type AnalysisRepository interface {
	Migrate(ctx context.Context) error
	SaveAnalysis(ctx context.Context, rec AnalysisRecord) error
	RecentAnalyses(ctx context.Context, unitID string, limit int) ([]AnalysisRecord, error)
	AlertsForLandlord(ctx context.Context, landlordID string, limit int) ([]Alert, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Clock lets tests pin the month used for seasonal adjustments.
type Clock func() time.Time
