// Package pricing turns a comp panel into market statistics, a hedonic price estimate,
// vacancy risk, an elasticity curve and a published confidence value. Everything here is
// pure and safe for concurrent use.
package pricing

import (
	"time"

	"rentcomps/internal/domain"
)

type Engine struct {
	tables  Tables
	renewal RenewalConfig
}

func NewEngine(t Tables, rc RenewalConfig) *Engine {
	return &Engine{tables: t, renewal: rc}
}

func (e *Engine) Tables() Tables { return e.tables }

type Options struct {
	// Live marks comps that came from a live feed rather than the synthetic generator.
	Live bool
	// Now selects the seasonal month; zero means time.Now().
	Now time.Time
	// RenewalProbability enables the renewal simulation when set (0..1).
	RenewalProbability *float64
}

func (e *Engine) Analyze(comps []domain.Comp, subject domain.Subject, opts Options) domain.Analysis {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	usable := Prepare(comps, subject)

	stats := e.Stats(usable, subject.Rent)
	hed := e.Hedonic(usable, subject.Bedrooms, subject.AreaSqm)
	vac := e.VacancyRisk(stats.AvgDaysOnMarket, stats.SubjectPercentile, now.Month())

	a := domain.Analysis{
		Stats:      stats,
		Hedonic:    hed,
		Vacancy:    vac,
		Elasticity: e.Elasticity(subject.Rent, vac),
		Confidence: Confidence(stats, hed.ModelConfidence, opts.Live),
	}

	if opts.RenewalProbability != nil && subject.Rent > 0 {
		market := hed.HedonicPrice
		if market <= 0 {
			market = stats.Median
		}
		r := SimulateRenewal(RenewalInput{
			CurrentRent:            subject.Rent,
			MarketRent:             market,
			BaseRenewalProbability: *opts.RenewalProbability,
		}, e.renewal)
		a.Renewal = &r
	}
	return a
}
