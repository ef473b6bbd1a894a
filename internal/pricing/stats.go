package pricing

import (
	"rentcomps/internal/domain"
)

// Stats computes the market statistics for comps relative to the subject's current rent.
// With no comps every price statistic falls back to the subject's rent, the percentile to 50
// and days-on-market to the placeholder. A subject without a current rent has no price
// position, so its percentile is the neutral 50.
func (e *Engine) Stats(comps []domain.Comp, subjectRent float64) domain.MarketStats {
	n := len(comps)
	if n == 0 {
		r := money(subjectRent)
		return domain.MarketStats{
			Median:            r,
			Mean:              r,
			P25:               r,
			P75:               r,
			AvgDaysOnMarket:   e.tables.PlaceholderDOM,
			SubjectPercentile: 50,
		}
	}

	rents := make([]float64, n)
	var domSum float64
	below := 0
	for i, c := range comps {
		rents[i] = c.Rent
		domSum += float64(c.DaysOnMarket)
		if c.Rent < subjectRent {
			below++
		}
	}
	sorted := sortedCopy(rents)
	m := mean(rents)
	std := popStdDev(rents)
	cv := 0.0
	if m != 0 {
		cv = std / m
	}

	pct := 50.0
	if subjectRent > 0 {
		pct = round(float64(below)/float64(n)*100, 1)
	}

	return domain.MarketStats{
		Median:            money(median(rents)),
		Mean:              money(m),
		P25:               money(nearestRank(sorted, 25)),
		P75:               money(nearestRank(sorted, 75)),
		AvgDaysOnMarket:   round(domSum/float64(n), 1),
		StdDev:            money(std),
		CV:                round(cv, 4),
		SubjectPercentile: pct,
		SampleSize:        n,
	}
}
