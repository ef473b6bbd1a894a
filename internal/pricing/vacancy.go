package pricing

import (
	"time"

	"rentcomps/internal/domain"
)

const (
	minVacancyRisk = 5.0
	maxVacancyRisk = 100.0

	highPercentile        = 80.0
	lowPercentile         = 20.0
	abovePenaltyPerPoint  = 0.75
	belowDiscountPerPoint = 0.5

	// Elasticity slopes are risk points per percent of rent change.
	increaseSlope    = 2.0
	cutSlope         = 1.0
	seasonalFraction = 0.5
	maxVacantMonths  = 3.0
)

// VacancyRisk scores leasing risk from absorption speed, price position and season, clamped to [5,100].
func (e *Engine) VacancyRisk(avgDOM, percentile float64, month time.Month) domain.VacancyAssessment {
	b := e.tables.band(avgDOM)

	penalty := 0.0
	switch {
	case percentile > highPercentile:
		penalty = (percentile - highPercentile) * abovePenaltyPerPoint
	case percentile < lowPercentile:
		penalty = -(lowPercentile - percentile) * belowDiscountPerPoint
	}
	seasonal := e.tables.seasonal(month)

	return domain.VacancyAssessment{
		Score:              round(clamp(b.Score+penalty+seasonal, minVacancyRisk, maxVacancyRisk), 1),
		Band:               b.Label,
		BaseScore:          b.Score,
		PricePenalty:       round(penalty, 2),
		SeasonalAdjustment: seasonal,
	}
}

// Elasticity recomputes vacancy risk for each tested rent delta. Increases move risk faster
// than cuts, so the curve is non-decreasing in the delta.
func (e *Engine) Elasticity(currentRent float64, v domain.VacancyAssessment) []domain.ElasticityPoint {
	out := make([]domain.ElasticityPoint, 0, len(e.tables.ElasticityDeltas))
	base := v.BaseScore + v.PricePenalty + seasonalFraction*v.SeasonalAdjustment
	for _, d := range e.tables.ElasticityDeltas {
		slope := cutSlope
		if d > 0 {
			slope = increaseSlope
		}
		risk := round(clamp(base+slope*d, minVacancyRisk, maxVacancyRisk), 1)
		rent := 0.0
		if currentRent > 0 {
			rent = currentRent * (1 + d/100)
		}
		vacant := round(risk/100*maxVacantMonths, 2)
		out = append(out, domain.ElasticityPoint{
			DeltaPct:      d,
			Rent:          money(rent),
			VacancyRisk:   risk,
			VacantMonths:  vacant,
			AnnualRevenue: money(rent * 12),
			NetRevenue:    money(rent * (12 - vacant)),
		})
	}
	return out
}
