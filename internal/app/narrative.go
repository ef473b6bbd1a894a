package app

import (
	"fmt"
	"math"

	"rentcomps/internal/domain"
)

// FallbackNarrative rebuilds every narrative field from the numbers alone.
func FallbackNarrative(subject domain.Subject, b domain.BundleDigest, a domain.Analysis) domain.Narrative {
	s, h := a.Stats, a.Hedonic
	market := h.HedonicPrice
	if market <= 0 {
		market = s.Median
	}
	if market <= 0 {
		market = subject.Rent
	}
	market = math.Max(roundTo5(market), domain.MinRent)

	conservative, premium := market, market
	if h.HedonicPrice > 0 {
		conservative = roundTo5(math.Max(s.P25, h.HedonicPrice*0.97))
		premium = roundTo5(math.Min(s.P75, h.HedonicPrice*1.05))
	}
	if conservative > market {
		conservative = market
	}
	if premium < market {
		premium = market
	}

	summary := fmt.Sprintf(
		"Based on %d comparable listings (%s), the market median is %.0f and the model estimate is %.0f. "+
			"The current rent of %.0f sits at the %.0fth percentile. Vacancy risk is %s (%.0f/100); confidence is %.0f%%.",
		b.CompCount, b.SourceLabel, s.Median, market, subject.Rent, s.SubjectPercentile,
		a.Vacancy.Band, a.Vacancy.Score, a.Confidence*100,
	)
	if subject.Rent <= 0 {
		summary = fmt.Sprintf(
			"Based on %d comparable listings (%s), the market median is %.0f and the model estimate is %.0f. "+
				"Vacancy risk is %s (%.0f/100); confidence is %.0f%%.",
			b.CompCount, b.SourceLabel, s.Median, market, a.Vacancy.Band, a.Vacancy.Score, a.Confidence*100,
		)
	}
	if b.Warning != "" {
		summary += " Note: " + b.Warning + "."
	}

	var rec string
	switch {
	case subject.Rent <= 0:
		rec = fmt.Sprintf("List at about %.0f.", market)
	case subject.Rent < conservative:
		rec = fmt.Sprintf("Rent is below market; consider moving toward %.0f at renewal.", market)
	case subject.Rent > premium:
		rec = fmt.Sprintf("Rent is above the comp range; holding at %.0f or easing toward %.0f reduces vacancy risk.", premium, market)
	default:
		rec = fmt.Sprintf("Rent is within the market band; %.0f is a defensible target.", market)
	}

	return domain.Narrative{
		Summary:         summary,
		Recommendation:  rec,
		RecommendedRent: market,
		Scenarios: []domain.Scenario{
			{Label: "conservative", Rent: conservative, Rationale: "Lower quartile or slightly under the model estimate; fastest lease-up."},
			{Label: "market", Rent: market, Rationale: fmt.Sprintf("Model estimate (%s).", h.Method)},
			{Label: "premium", Rent: premium, Rationale: "Upper quartile or slightly over the model estimate; expect longer days on market."},
		},
		Source: domain.NarrativeFallback,
	}
}

func roundTo5(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v/5) * 5
}
