package synthetic

import "rentcomps/internal/domain"

type Tier struct {
	Name   string
	Factor float64
	DOM    int // typical days on market
}

type Neighborhood struct {
	Name       string
	Centre     bool
	DistanceKm float64
}

// Tables is the immutable data behind the generator. Tests swap in their own.
type Tables struct {
	Tiers          []Tier
	Neighborhoods  []Neighborhood
	BedroomScalars []float64 // relative to a 2-bed; index = bedrooms
	BaseAreaSqm    []float64 // index = bedrooms
	RentSigma      float64   // log-normal noise on rent
	AreaSigma      float64
	OutsideRatio   float64 // outside / centre when only one figure is known

	CityBenchmarks    map[string]domain.Benchmarks // key: slug|CC
	CountryBenchmarks map[string]domain.Benchmarks // key: CC
	DefaultCentre     float64
	DefaultOutside    float64
}

func f(v float64) *float64 { return &v }

func bench(centre, outside float64) domain.Benchmarks {
	return domain.Benchmarks{CityCentre: f(centre), Outside: f(outside), Source: LabelMarket}
}

func DefaultTables() Tables {
	return Tables{
		Tiers: []Tier{
			{Name: "budget", Factor: 0.82, DOM: 14},
			{Name: "mid", Factor: 1.00, DOM: 21},
			{Name: "premium", Factor: 1.24, DOM: 32},
		},
		Neighborhoods: []Neighborhood{
			{Name: "City Centre", Centre: true, DistanceKm: 0.6},
			{Name: "Old Town", Centre: true, DistanceKm: 1.1},
			{Name: "University District", Centre: false, DistanceKm: 2.4},
			{Name: "Riverside", Centre: false, DistanceKm: 3.2},
			{Name: "Northern Suburbs", Centre: false, DistanceKm: 5.5},
			{Name: "Harbour", Centre: true, DistanceKm: 1.8},
			{Name: "Eastern Suburbs", Centre: false, DistanceKm: 6.8},
		},
		BedroomScalars: []float64{0.70, 0.82, 1.00, 1.22, 1.42, 1.60},
		BaseAreaSqm:    []float64{32, 50, 72, 95, 118, 140},
		RentSigma:      0.07,
		AreaSigma:      0.08,
		OutsideRatio:   0.78,

		CityBenchmarks: map[string]domain.Benchmarks{
			"athens|GR":       bench(600, 460),
			"thessaloniki|GR": bench(480, 380),
			"heraklion|GR":    bench(520, 420),
			"madrid|ES":       bench(1350, 1000),
			"barcelona|ES":    bench(1300, 1020),
			"valencia|ES":     bench(1000, 760),
			"seville|ES":      bench(850, 650),
			"lisbon|PT":       bench(1250, 900),
			"porto|PT":        bench(1000, 750),
			"rome|IT":         bench(1100, 780),
			"milan|IT":        bench(1400, 1000),
			"florence|IT":     bench(1050, 800),
			"austin|US":       bench(1750, 1400),
			"new-york|US":     bench(4000, 2700),
			"chicago|US":      bench(2100, 1500),
		},
		CountryBenchmarks: map[string]domain.Benchmarks{
			"GR": bench(520, 400),
			"ES": bench(950, 720),
			"IT": bench(850, 620),
			"PT": bench(900, 660),
			"US": bench(1600, 1300),
		},
		DefaultCentre:  900,
		DefaultOutside: 700,
	}
}

func (t Tables) scalar(bedrooms int) float64 {
	if len(t.BedroomScalars) == 0 {
		return 1
	}
	if bedrooms < 0 {
		bedrooms = 0
	}
	if bedrooms >= len(t.BedroomScalars) {
		last := t.BedroomScalars[len(t.BedroomScalars)-1]
		return last + 0.18*float64(bedrooms-len(t.BedroomScalars)+1)
	}
	return t.BedroomScalars[bedrooms]
}

func (t Tables) baseArea(bedrooms int) float64 {
	if len(t.BaseAreaSqm) == 0 {
		return 60
	}
	if bedrooms < 0 {
		bedrooms = 0
	}
	if bedrooms >= len(t.BaseAreaSqm) {
		last := t.BaseAreaSqm[len(t.BaseAreaSqm)-1]
		return last + 22*float64(bedrooms-len(t.BaseAreaSqm)+1)
	}
	return t.BaseAreaSqm[bedrooms]
}
