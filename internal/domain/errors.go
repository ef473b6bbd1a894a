package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoListings means every live source came back without a usable comp.
	ErrNoListings         = errors.New("no listings from live sources")
	ErrNarrativeMalformed = errors.New("narrative output malformed")
	ErrCircuitOpen        = errors.New("circuit breaker open")
	ErrGeocodeNoResult    = errors.New("geocode: no result")
)
