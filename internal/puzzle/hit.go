package puzzle

import (
	"math"

	"github.com/robalobadob/geoquest/internal/geom"
)

// DefaultHitThreshold is the widest miss, in canvas units, still counted as
// a click on a segment.
const DefaultHitThreshold = 25.0

// Resolve returns the index of the unselected segment closest to q, or -1
// when none is nearer than threshold. Ties go to the earlier segment.
func Resolve(ls LineSet, q geom.Point, threshold float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, s := range ls.Segments {
		if s.Selected {
			continue
		}
		d, ok := geom.DistToSegment(q, s.P1, s.P2)
		if !ok {
			continue
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist >= threshold {
		return -1
	}
	return best
}
