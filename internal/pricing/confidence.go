package pricing

import (
	"math"

	"rentcomps/internal/domain"
)

const (
	marketBase       = 0.35
	sampleWeight     = 0.40
	sampleSaturation = 15.0
	dispersionWeight = 0.20
	cvThreshold      = 0.15
	cvSpan           = 0.35
	liveBonus        = 0.05

	marketShare    = 0.6
	confidenceCeil = 0.97
)

// MarketConfidence scores the comp panel alone: sample size, dispersion and live provenance.
func MarketConfidence(s domain.MarketStats, live bool) float64 {
	sample := math.Min(1, float64(s.SampleSize)/sampleSaturation)

	dispersion := 0.0
	if s.SampleSize >= 2 {
		switch {
		case s.CV <= cvThreshold:
			dispersion = 1
		default:
			dispersion = math.Max(0, 1-(s.CV-cvThreshold)/cvSpan)
		}
	}

	score := marketBase + sampleWeight*sample + dispersionWeight*dispersion
	if live {
		score += liveBonus
	}
	return math.Min(1, score)
}

// Confidence blends market and model confidence 60/40. Without a usable hedonic model the
// market score stands alone. The result never exceeds 0.97.
func Confidence(s domain.MarketStats, modelConfidence float64, live bool) float64 {
	m := MarketConfidence(s, live)
	c := m
	if modelConfidence > 0 {
		c = marketShare*m + (1-marketShare)*modelConfidence
	}
	return round(clamp(c, 0, confidenceCeil), 2)
}
