package pricing

import (
	"math"

	"rentcomps/internal/domain"
)

const (
	distanceBandwidthKm = 5.0
	bedroomDecay        = 0.5
	neutralSimilarity   = 50.0 // used for comps that were never scored

	minPlausibleAreaSqm = 10.0
	minAreaComps        = 2
	sizeSimilarityPower = 2.0
	sizeShare           = 0.6

	modelConfidenceBase  = 0.40
	areaCoverageBonus    = 0.25
	bedroomDiversityStep = 0.05
	bedroomDiversityCap  = 0.15
	sizeEstimateBonus    = 0.10
	modelConfidenceCeil  = 0.95
)

// Hedonic bedroom- and size-adjusts each comp, weights it, and blends the estimates.
// An empty comp list yields a zero price with method weighted_median and confidence 0,
// which callers must read as insufficient data.
func (e *Engine) Hedonic(comps []domain.Comp, subjectBedrooms int, subjectArea *float64) domain.HedonicResult {
	if len(comps) == 0 {
		return domain.HedonicResult{Method: domain.MethodWeightedMedian, Breakdown: []domain.CompAdjustment{}}
	}

	byBeds := map[int][]float64{}
	raw := make([]float64, len(comps))
	for i, c := range comps {
		byBeds[c.Bedrooms] = append(byBeds[c.Bedrooms], c.Rent)
		raw[i] = c.Rent
	}
	medians := make(map[int]float64, len(byBeds))
	for b, rs := range byBeds {
		medians[b] = median(rs)
	}

	adjusted := make([]float64, len(comps))
	weights := make([]float64, len(comps))
	breakdown := make([]domain.CompAdjustment, len(comps))
	for i, c := range comps {
		adjusted[i] = e.adjustForBedrooms(c, subjectBedrooms, medians)
		weights[i] = compWeight(c, subjectBedrooms)
		breakdown[i] = domain.CompAdjustment{
			CompID:       c.ID,
			RawRent:      c.Rent,
			AdjustedRent: money(adjusted[i]),
			Weight:       round(weights[i], 4),
			Bedrooms:     c.Bedrooms,
			AreaSqm:      c.AreaSqm,
		}
	}

	bedroomMedian := WeightedMedian(adjusted, weights)
	out := domain.HedonicResult{
		BedroomAdjustedMedian: money(bedroomMedian),
		Method:                domain.MethodWeightedMedian,
		Breakdown:             breakdown,
	}
	price := bedroomMedian

	var withArea []int
	for i, c := range comps {
		if c.AreaSqm != nil && *c.AreaSqm > minPlausibleAreaSqm {
			withArea = append(withArea, i)
		}
	}

	if len(withArea) >= minAreaComps {
		out.Method = domain.MethodBedroomOnly

		var num, den, plain float64
		for _, i := range withArea {
			ppa := adjusted[i] / *comps[i].AreaSqm
			num += weights[i] * ppa
			den += weights[i]
			plain += ppa
		}
		ppsqm := plain / float64(len(withArea))
		if den > 0 {
			ppsqm = num / den
		}
		ppsqm = money(ppsqm)
		out.PricePerSqm = &ppsqm

		if subjectArea != nil && *subjectArea > minPlausibleAreaSqm {
			sa := *subjectArea
			var snum, sden, splain float64
			for _, i := range withArea {
				a := *comps[i].AreaSqm
				est := adjusted[i] / a * sa
				sim := math.Min(a, sa) / math.Max(a, sa)
				w := weights[i] * math.Pow(sim, sizeSimilarityPower)
				snum += w * est
				sden += w
				splain += est
			}
			size := splain / float64(len(withArea))
			if sden > 0 {
				size = snum / sden
			}
			price = sizeShare*size + (1-sizeShare)*bedroomMedian
			sz := money(size)
			out.SizeAdjustedPrice = &sz
			out.Method = domain.MethodSqmBedroom
		}
	}
	out.HedonicPrice = money(price)

	if mm := median(raw); mm != 0 {
		out.BedroomPremiumPct = round((bedroomMedian-mm)/mm*100, 2)
	}

	conf := modelConfidenceBase +
		areaCoverageBonus*float64(len(withArea))/float64(len(comps)) +
		math.Min(bedroomDiversityCap, bedroomDiversityStep*float64(len(byBeds)))
	if out.SizeAdjustedPrice != nil {
		conf += sizeEstimateBonus
	}
	out.ModelConfidence = round(math.Min(conf, modelConfidenceCeil), 3)
	return out
}

// adjustForBedrooms restates a comp's rent at the subject's bedroom count, preferring the
// empirical median ratio and falling back to the standard scaling curve.
func (e *Engine) adjustForBedrooms(c domain.Comp, subjectBedrooms int, medians map[int]float64) float64 {
	if c.Bedrooms == subjectBedrooms {
		return c.Rent
	}
	sm, okS := medians[subjectBedrooms]
	cm, okC := medians[c.Bedrooms]
	if okS && okC && cm > 0 {
		return c.Rent * sm / cm
	}
	return c.Rent * e.tables.bedroomScalar(subjectBedrooms) / e.tables.bedroomScalar(c.Bedrooms)
}

func compWeight(c domain.Comp, subjectBedrooms int) float64 {
	d := c.DistanceKm
	if d < 0 || math.IsNaN(d) {
		d = 0
	}
	dist := math.Exp(-(d * d) / (2 * distanceBandwidthKm * distanceBandwidthKm))
	bed := math.Exp(-bedroomDecay * math.Abs(float64(c.Bedrooms-subjectBedrooms)))
	sim := c.Similarity
	if sim <= 0 {
		sim = neutralSimilarity
	}
	return dist * bed * clamp(sim, 0, 100) / 100
}
