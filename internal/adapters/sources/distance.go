package sources

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"rentcomps/internal/domain"
)

// locate sets each comp's distance from the subject and drops measured comps outside the
// radius. Comps that cannot be measured take neutralKm and are kept.
func locate(comps []domain.Comp, q domain.Query, radiusKm, neutralKm float64) []domain.Comp {
	origin := q.Coords()
	out := make([]domain.Comp, 0, len(comps))
	for _, c := range comps {
		if origin == nil || c.Lat == nil || c.Lon == nil {
			c.DistanceKm = neutralKm
			out = append(out, c)
			continue
		}
		m := geo.DistanceHaversine(orb.Point{origin.Lon, origin.Lat}, orb.Point{*c.Lon, *c.Lat})
		c.DistanceKm = math.Round(m/10) / 100
		if radiusKm > 0 && c.DistanceKm > radiusKm {
			continue
		}
		out = append(out, c)
	}
	return out
}
