package pricing_test

import (
	"rentcomps/internal/domain"
	"rentcomps/internal/pricing"
)

func ptr[T any](v T) *T { return &v }

func newEngine() *pricing.Engine {
	return pricing.NewEngine(pricing.DefaultTables(), pricing.DefaultRenewalConfig())
}

func comp(id string, rent float64, beds int, sqm *float64, dist float64) domain.Comp {
	return domain.Comp{
		ID:         id,
		Rent:       rent,
		Bedrooms:   beds,
		AreaSqm:    sqm,
		DistanceKm: dist,
		Status:     domain.StatusActive,
		Source:     "test",
	}
}
