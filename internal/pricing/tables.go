package pricing

import (
	"math"
	"time"
)

// VacancyBand maps an average days-on-market range to a base vacancy-risk score.
// A band covers DOM values below MaxDOM and at or above the previous band's MaxDOM.
type VacancyBand struct {
	MaxDOM float64
	Score  float64
	Label  string
}

// Tables holds the lookup data the engine is parameterized with.
type Tables struct {
	// BedroomScalars[i] is the standard rent multiplier for i bedrooms, anchored at 2 bedrooms = 1.00.
	// The last entry applies to every larger count.
	BedroomScalars []float64
	// SeasonalAdjustments holds vacancy-risk offsets indexed by month (January first).
	SeasonalAdjustments [12]float64
	VacancyBands        []VacancyBand
	ElasticityDeltas    []float64
	PlaceholderDOM      float64
}

func DefaultTables() Tables {
	return Tables{
		BedroomScalars: []float64{0.70, 0.82, 1.00, 1.22, 1.42, 1.60},
		SeasonalAdjustments: [12]float64{
			10,  // Jan
			8,   // Feb
			0,   // Mar
			-3,  // Apr
			-5,  // May
			-8,  // Jun
			-8,  // Jul
			-10, // Aug: student and relocation surge
			-5,  // Sep
			0,   // Oct
			5,   // Nov
			10,  // Dec
		},
		VacancyBands: []VacancyBand{
			{MaxDOM: 7, Score: 10, Label: "extremely tight"},
			{MaxDOM: 14, Score: 20, Label: "tight"},
			{MaxDOM: 21, Score: 35, Label: "balanced"},
			{MaxDOM: 30, Score: 50, Label: "softening"},
			{MaxDOM: 45, Score: 65, Label: "slow"},
			{MaxDOM: math.Inf(1), Score: 80, Label: "very slow"},
		},
		ElasticityDeltas: []float64{-15, -10, -5, 0, 5, 10, 15, 20},
		PlaceholderDOM:   30,
	}
}

func (t Tables) bedroomScalar(b int) float64 {
	if len(t.BedroomScalars) == 0 {
		return 1
	}
	if b < 0 {
		b = 0
	}
	if b >= len(t.BedroomScalars) {
		b = len(t.BedroomScalars) - 1
	}
	return t.BedroomScalars[b]
}

func (t Tables) seasonal(m time.Month) float64 {
	if m < time.January || m > time.December {
		return 0
	}
	return t.SeasonalAdjustments[m-1]
}

func (t Tables) band(avgDOM float64) VacancyBand {
	if math.IsNaN(avgDOM) || avgDOM < 0 {
		avgDOM = 0
	}
	for _, b := range t.VacancyBands {
		if avgDOM < b.MaxDOM {
			return b
		}
	}
	if n := len(t.VacancyBands); n > 0 {
		return t.VacancyBands[n-1]
	}
	return VacancyBand{MaxDOM: math.Inf(1), Score: 50, Label: "unknown"}
}
