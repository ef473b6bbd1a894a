package domain

import (
	"math"
	"time"
)

// Rent sanity band applied to every candidate rent, at extraction time and at the bundle boundary.
const (
	MinRent = 50.0
	MaxRent = 50000.0
)

const SqftPerSqm = 10.7639

type CompStatus string

const (
	StatusActive         CompStatus = "active"
	StatusRecentlyLeased CompStatus = "recently_leased"
)

// ValidRent reports whether v is a finite monthly rent inside the sanity band.
func ValidRent(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v >= MinRent && v <= MaxRent
}

type Comp struct {
	ID           string     `json:"id"`
	Rent         float64    `json:"rent"`
	Bedrooms     int        `json:"bedrooms"`
	Bathrooms    *float64   `json:"bathrooms,omitempty"`
	AreaSqm      *float64   `json:"area_sqm,omitempty"`
	AreaSqft     *float64   `json:"area_sqft,omitempty"`
	PropertyType string     `json:"property_type,omitempty"`
	Address      string     `json:"address,omitempty"`
	Lat          *float64   `json:"lat,omitempty"`
	Lon          *float64   `json:"lon,omitempty"`
	DistanceKm   float64    `json:"distance_km"`
	DaysOnMarket int        `json:"days_on_market"`
	Status       CompStatus `json:"status"`
	ListedAt     *time.Time `json:"listed_at,omitempty"`
	LeasedAt     *time.Time `json:"leased_at,omitempty"`
	Similarity   float64    `json:"similarity"` // 0..100, scored downstream
	Source       string     `json:"source"`
	SourceURL    *string    `json:"source_url,omitempty"`
}

// Query is the normalized, immutable search input.
// Lat/Lon are only meaningful when HasGeocode is true.
type Query struct {
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	HasGeocode   bool     `json:"has_geocode"`
	Address      string   `json:"address,omitempty"`
	City         string   `json:"city,omitempty"`
	Country      string   `json:"country,omitempty"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    *float64 `json:"bathrooms,omitempty"`
	PropertyType *string  `json:"property_type,omitempty"`
	RadiusKm     float64  `json:"radius_km"`
}

func (q Query) Coords() *Coords {
	if !q.HasGeocode {
		return nil
	}
	return &Coords{Lat: q.Lat, Lon: q.Lon}
}

// WithCoords returns a copy of q carrying a real geocode.
func (q Query) WithCoords(c Coords) Query {
	q.Lat, q.Lon, q.HasGeocode = c.Lat, c.Lon, true
	return q
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Subject is the unit being priced.
type Subject struct {
	Rent         float64  `json:"rent"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    *float64 `json:"bathrooms,omitempty"`
	AreaSqm      *float64 `json:"area_sqm,omitempty"`
	PropertyType string   `json:"property_type,omitempty"`
}

const DataSourceFallback = "fallback"

type ResultBundle struct {
	Comps         []Comp    `json:"comps"`
	DataSource    string    `json:"data_source"`
	SourceLabel   string    `json:"source_label"`
	Live          bool      `json:"live"`
	FetchedAt     time.Time `json:"fetched_at"`
	RawCount      int       `json:"raw_count"`
	FilteredCount int       `json:"filtered_count"`
	RadiusKm      float64   `json:"radius_km"`
	Warning       string    `json:"warning,omitempty"`
}

// AddWarning appends w to the bundle's warning text.
func (b *ResultBundle) AddWarning(w string) {
	if w == "" {
		return
	}
	if b.Warning == "" {
		b.Warning = w
		return
	}
	b.Warning += "; " + w
}
