package pricing

import (
	"math"
	"sort"

	"rentcomps/internal/domain"
)

type RenewalConfig struct {
	MinIncreasePct     float64
	MaxIncreasePct     float64
	StepPct            float64
	BaseElasticity     float64
	AvgVacancyMonths   float64
	TurnoverFixed      float64
	TurnoverRentFactor float64
	TopN               int
}

func DefaultRenewalConfig() RenewalConfig {
	return RenewalConfig{
		MinIncreasePct:     0,
		MaxIncreasePct:     15,
		StepPct:            1,
		BaseElasticity:     0.035,
		AvgVacancyMonths:   1.5,
		TurnoverFixed:      1500,
		TurnoverRentFactor: 0.5,
		TopN:               3,
	}
}

type RenewalInput struct {
	CurrentRent            float64
	MarketRent             float64
	BaseRenewalProbability float64
}

// SimulateRenewal walks rent increases from MinIncreasePct to MaxIncreasePct and scores each
// by expected 12-month revenue, re-letting at market rent when the tenant leaves.
func SimulateRenewal(in RenewalInput, cfg RenewalConfig) domain.RenewalResult {
	step := cfg.StepPct
	if step <= 0 {
		step = 1
	}
	delta := (in.MarketRent - in.CurrentRent) / math.Max(in.CurrentRent, 1)
	elasticity := math.Max(0.01, cfg.BaseElasticity*(1-delta))
	turnover := cfg.TurnoverFixed + in.CurrentRent*cfg.TurnoverRentFactor
	base := clamp(in.BaseRenewalProbability, 0, 1)

	var scenarios []domain.RenewalScenario
	for inc := cfg.MinIncreasePct; inc <= cfg.MaxIncreasePct+1e-9; inc += step {
		newRent := in.CurrentRent * (1 + inc/100)
		pRenew := clamp(base-elasticity*inc, 0, 1)
		pChurn := 1 - pRenew
		ev := pRenew*newRent*12 + pChurn*(in.MarketRent*(12-cfg.AvgVacancyMonths)-turnover)
		scenarios = append(scenarios, domain.RenewalScenario{
			IncreasePct:        round(inc, 1),
			NewRent:            money(newRent),
			RenewalProbability: round(pRenew, 4),
			ChurnProbability:   round(pChurn, 4),
			ExpectedRevenue:    money(ev),
			Risk:               churnRisk(pChurn),
		})
	}
	if len(scenarios) == 0 {
		return domain.RenewalResult{}
	}

	best, worst := scenarios[0], scenarios[0]
	for _, s := range scenarios[1:] {
		if s.ExpectedRevenue > best.ExpectedRevenue {
			best = s
		}
		if s.ExpectedRevenue < worst.ExpectedRevenue {
			worst = s
		}
	}

	ranked := make([]domain.RenewalScenario, len(scenarios))
	copy(ranked, scenarios)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].ExpectedRevenue > ranked[j].ExpectedRevenue })
	n := cfg.TopN
	if n <= 0 || n > len(ranked) {
		n = len(ranked)
	}

	res := domain.RenewalResult{
		Scenarios:                scenarios,
		Recommended:              best,
		WorstCase:                worst,
		Top:                      ranked[:n],
		RevenueDeltaVsNoIncrease: money(best.ExpectedRevenue - scenarios[0].ExpectedRevenue),
		TurnoverCost:             money(turnover),
	}
	if extra := best.IncreasePct / 100 * in.CurrentRent; extra > 0 {
		m := round(turnover/extra, 1)
		res.VacancyBreakevenMonths = &m
	}
	return res
}

func churnRisk(p float64) string {
	switch {
	case p < 0.30:
		return "low"
	case p < 0.60:
		return "moderate"
	default:
		return "high"
	}
}
