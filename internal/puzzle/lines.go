// internal/puzzle/lines.go
//
// Reference and decoy construction for one round.
// Responsibilities:
//   - Pick a random vertex and compute the reference foot on the opposite edge's line.
//   - Sample decoy feet on the same line, spaced by point distance from every accepted foot.
//   - Record dashed extensions for feet beyond the edge endpoints.
//   - Shuffle the result so list order carries no meaning.
//
// Decoy sampling is best effort: after maxDecoyTries the candidate farthest
// from every accepted foot is kept even if it is too close, so a round is
// never refused.

package puzzle

import (
	"errors"
	"math"
	"math/rand"

	"github.com/robalobadob/geoquest/internal/geom"
)

// ErrDegenerateEdge is returned when the opposite edge has zero length; the
// caller is expected to generate a new shape.
var ErrDegenerateEdge = errors.New("puzzle: opposite edge has zero length")

const (
	maxDecoyTries = 200
	extensionEps  = 1e-9
)

// Builder turns shapes into line sets. Not safe for concurrent use.
type Builder struct {
	rng *rand.Rand
}

// NewBuilder returns a builder drawing from rng.
func NewBuilder(rng *rand.Rand) *Builder { return &Builder{rng: rng} }

// Build computes the reference segment for concept plus the tier's decoys.
func (b *Builder) Build(s Shape, concept Concept, d Difficulty) (LineSet, error) {
	tier := d.Tier()
	vi := b.rng.Intn(3)
	v := s.Vertices()[vi]
	p1, p2 := s.OppositeEdge(vi)

	edge := geom.Dist(p1, p2)
	if edge < geom.Eps {
		return LineSet{}, ErrDegenerateEdge
	}

	refT, err := referenceT(concept, v, p1, p2)
	if err != nil {
		return LineSet{}, err
	}
	ref := segmentAt(v, p1, p2, refT)
	ref.IsReference = true

	sep := minSeparation(concept, tier, v, ref.P2, edge)
	segs := make([]Segment, 0, tier.Decoys+1)
	segs = append(segs, ref)
	feet := []geom.Point{ref.P2}

	for i := 0; i < tier.Decoys; i++ {
		t, best := 0.0, -1.0
		for try := 0; try < maxDecoyTries; try++ {
			cand := b.decoyT(concept)
			gap := nearest(geom.FootAt(p1, p2, cand), feet)
			if gap > best {
				t, best = cand, gap
			}
			if gap >= sep {
				break
			}
		}
		decoy := segmentAt(v, p1, p2, t)
		segs = append(segs, decoy)
		feet = append(feet, decoy.P2)
	}

	b.rng.Shuffle(len(segs), func(i, j int) { segs[i], segs[j] = segs[j], segs[i] })
	return LineSet{Vertex: vi, Segments: segs}, nil
}

// MinSeparation exposes the spacing Build aims for, for callers checking sets.
func MinSeparation(ls LineSet, s Shape, concept Concept, d Difficulty) float64 {
	ref := ls.Reference()
	if ref < 0 {
		return d.Tier().MinSeparation
	}
	p1, p2 := s.OppositeEdge(ls.Vertex)
	return minSeparation(concept, d.Tier(), s.Vertices()[ls.Vertex], ls.Segments[ref].P2, geom.Dist(p1, p2))
}

func referenceT(c Concept, v, p1, p2 geom.Point) (float64, error) {
	switch c {
	case ConceptAltitude:
		t, ok := geom.Project(v, p1, p2)
		if !ok {
			return 0, ErrDegenerateEdge
		}
		return t, nil
	case ConceptMedian:
		return 0.5, nil
	case ConceptAngleBisector:
		// The bisector splits the opposite edge in the ratio of the adjacent sides.
		a, b := geom.Dist(v, p1), geom.Dist(v, p2)
		if a+b < geom.Eps {
			return 0, ErrDegenerateEdge
		}
		return a / (a + b), nil
	}
	return 0, errors.New("puzzle: unsupported concept " + string(c))
}

func (b *Builder) decoyT(c Concept) float64 {
	switch c {
	case ConceptMedian:
		// keep well away from the midpoint itself
		if b.rng.Float64() < 0.5 {
			return 0.05 + b.rng.Float64()*0.35
		}
		return 0.6 + b.rng.Float64()*0.35
	case ConceptAngleBisector:
		return 0.05 + b.rng.Float64()*0.9
	default:
		return -0.4 + b.rng.Float64()*1.8
	}
}

func minSeparation(c Concept, tier Tier, v, refFoot geom.Point, edge float64) float64 {
	var term float64
	switch c {
	case ConceptAltitude:
		term = geom.Dist(v, refFoot) / 5
	case ConceptMedian:
		term = edge * 0.15
	case ConceptAngleBisector:
		term = edge * 0.12
	}
	return math.Max(tier.MinSeparation, term)
}

// nearest is the distance from p to the closest of feet.
func nearest(p geom.Point, feet []geom.Point) float64 {
	d := math.Inf(1)
	for _, f := range feet {
		d = math.Min(d, geom.Dist(p, f))
	}
	return d
}

// segmentAt builds v→foot(t); a foot past either endpoint gets an extension
// from the nearer endpoint.
func segmentAt(v, p1, p2 geom.Point, t float64) Segment {
	foot := geom.FootAt(p1, p2, t)
	seg := Segment{P1: v, P2: foot}
	switch {
	case t < -extensionEps:
		seg.Extension = &Extension{From: p1, To: foot}
	case t > 1+extensionEps:
		seg.Extension = &Extension{From: p2, To: foot}
	}
	return seg
}
