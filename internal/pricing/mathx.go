package pricing

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// money rounds to cents.
func money(v float64) float64 { return round(v, 2) }

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func sortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}

// median interpolates between the two middle values for even counts. Empty input is 0.
func median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	s := sortedCopy(xs)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// nearestRank returns the p-th percentile (0..100) of an already sorted slice.
func nearestRank(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	rank := int(math.Ceil(p / 100 * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	return sorted[rank-1]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// popStdDev is the population standard deviation.
func popStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// WeightedMedian returns the smallest value whose cumulative weight reaches half the total.
// Negative weights count as zero; when every weight is zero the values are weighted equally.
func WeightedMedian(values, weights []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	type pair struct{ v, w float64 }
	ps := make([]pair, n)
	var total float64
	for i, v := range values {
		w := 0.0
		if i < len(weights) && weights[i] > 0 && !math.IsInf(weights[i], 0) {
			w = weights[i]
		}
		ps[i] = pair{v, w}
		total += w
	}
	if total <= 0 {
		for i := range ps {
			ps[i].w = 1
		}
		total = float64(n)
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].v < ps[j].v })
	half := total / 2
	var cum float64
	for _, p := range ps {
		cum += p.w
		if cum >= half-1e-12 {
			return p.v
		}
	}
	return ps[n-1].v
}
