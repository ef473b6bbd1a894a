package pricing

import (
	"math"
	"strings"

	"rentcomps/internal/domain"
)

// ScoreSimilarity rates a comp against the subject on a 1..100 scale.
func ScoreSimilarity(s domain.Subject, c domain.Comp) float64 {
	score := 100.0
	score -= 15 * math.Abs(float64(c.Bedrooms-s.Bedrooms))
	if s.Bathrooms != nil && c.Bathrooms != nil {
		score -= 8 * math.Abs(*c.Bathrooms-*s.Bathrooms)
	}
	if s.AreaSqm != nil && c.AreaSqm != nil && *s.AreaSqm > 0 {
		diff := math.Abs(*c.AreaSqm-*s.AreaSqm) / *s.AreaSqm
		score -= math.Min(25, diff*50)
	}
	if s.PropertyType != "" && c.PropertyType != "" && !strings.EqualFold(s.PropertyType, c.PropertyType) {
		score -= 10
	}
	if c.DistanceKm > 0 {
		score -= math.Min(20, c.DistanceKm*2)
	}
	return round(clamp(score, 1, 100), 1)
}

// Prepare applies the rent sanity gate, drops duplicate listings and scores similarity.
// The input slice is not modified.
func Prepare(comps []domain.Comp, s domain.Subject) []domain.Comp {
	seen := make(map[string]struct{}, len(comps))
	out := make([]domain.Comp, 0, len(comps))
	for _, c := range comps {
		if !domain.ValidRent(c.Rent) {
			continue
		}
		k := c.DedupeKey()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		c.Similarity = ScoreSimilarity(s, c)
		out = append(out, c)
	}
	return out
}
