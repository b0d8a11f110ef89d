package puzzle

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/geoquest/internal/geom"
)

var concepts = []Concept{ConceptAltitude, ConceptMedian, ConceptAngleBisector}

func buildMany(t *testing.T, c Concept, d Difficulty, n int, seed int64, each func(Shape, LineSet)) {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	g := NewGenerator(DefaultCanvas, rng)
	b := NewBuilder(rng)
	for i := 0; i < n; i++ {
		s := g.Generate(d)
		ls, err := b.Build(s, c, d)
		require.NoError(t, err)
		each(s, ls)
	}
}

func TestBuildHasExactlyOneReference(t *testing.T) {
	for _, c := range concepts {
		for _, d := range []Difficulty{Easy, Medium, Hard} {
			buildMany(t, c, d, 100, 11, func(s Shape, ls LineSet) {
				refs := 0
				for _, seg := range ls.Segments {
					if seg.IsReference {
						refs++
					}
					assert.Equal(t, s.Vertices()[ls.Vertex], seg.P1, "all candidates share the origin vertex")
				}
				assert.Equal(t, 1, refs)
				assert.Len(t, ls.Segments, d.Tier().Decoys+1)
			})
		}
	}
}

func TestReferenceGeometry(t *testing.T) {
	for _, c := range concepts {
		t.Run(string(c), func(t *testing.T) {
			buildMany(t, c, Medium, 100, 5, func(s Shape, ls LineSet) {
				ref := ls.Segments[ls.Reference()]
				v := s.Vertices()[ls.Vertex]
				p1, p2 := s.OppositeEdge(ls.Vertex)
				switch c {
				case ConceptAltitude:
					assert.InDelta(t, 0, geom.Dot(ref.P2.Sub(v), p2.Sub(p1)), 1e-6)
				case ConceptMedian:
					assert.InDelta(t, 0, geom.Dist(ref.P2, geom.Midpoint(p1, p2)), 1e-9)
					assert.Nil(t, ref.Extension)
				case ConceptAngleBisector:
					assert.InDelta(t, angleAt(v, p1, ref.P2), angleAt(v, ref.P2, p2), 1e-6)
					assert.Nil(t, ref.Extension)
				}
			})
		})
	}
}

func angleAt(v, a, b geom.Point) float64 {
	u, w := a.Sub(v), b.Sub(v)
	return math.Abs(math.Atan2(geom.Cross(u, w), geom.Dot(u, w)))
}

func TestExtensionsMatchFootPosition(t *testing.T) {
	sawExtension := false
	buildMany(t, ConceptAltitude, Hard, 300, 17, func(s Shape, ls LineSet) {
		p1, p2 := s.OppositeEdge(ls.Vertex)
		for _, seg := range ls.Segments {
			tt, ok := geom.Project(seg.P2, p1, p2)
			require.True(t, ok)
			switch {
			case tt < -1e-6:
				require.NotNil(t, seg.Extension)
				assert.Equal(t, p1, seg.Extension.From)
				assert.Equal(t, seg.P2, seg.Extension.To)
				sawExtension = true
			case tt > 1+1e-6:
				require.NotNil(t, seg.Extension)
				assert.Equal(t, p2, seg.Extension.From)
				sawExtension = true
			case tt > 1e-6 && tt < 1-1e-6:
				assert.Nil(t, seg.Extension)
			}
		}
	})
	assert.True(t, sawExtension, "altitude decoys range past the edge and must extend it")
}

func TestSegmentAtExtension(t *testing.T) {
	v, p1, p2 := geom.Pt(0, 100), geom.Pt(0, 0), geom.Pt(100, 0)

	before := segmentAt(v, p1, p2, -0.25)
	require.NotNil(t, before.Extension)
	assert.Equal(t, Extension{From: p1, To: geom.Pt(-25, 0)}, *before.Extension)

	after := segmentAt(v, p1, p2, 1.5)
	require.NotNil(t, after.Extension)
	assert.Equal(t, Extension{From: p2, To: geom.Pt(150, 0)}, *after.Extension)

	assert.Nil(t, segmentAt(v, p1, p2, 0).Extension)
	assert.Nil(t, segmentAt(v, p1, p2, 1).Extension)
}

func TestFeetAreSeparatedInTheCommonCase(t *testing.T) {
	floors := map[Difficulty]float64{Easy: 0.97, Medium: 0.93, Hard: 0.88}
	for _, c := range concepts {
		for _, d := range []Difficulty{Easy, Medium, Hard} {
			t.Run(string(c)+"/"+d.String(), func(t *testing.T) {
				total, clean, crowded := 0, 0, 0
				buildMany(t, c, d, 400, 23, func(s Shape, ls LineSet) {
					total++
					sep := MinSeparation(ls, s, c, d)
					ok, tight := true, false
					for i := range ls.Segments {
						for j := i + 1; j < len(ls.Segments); j++ {
							dist := geom.Dist(ls.Segments[i].P2, ls.Segments[j].P2)
							if dist < sep-1e-9 {
								ok = false
							}
							if dist < 10 {
								tight = true
							}
						}
					}
					if ok {
						clean++
					}
					if tight {
						crowded++
					}
				})
				assert.GreaterOrEqual(t, float64(clean)/float64(total), floors[d],
					"%d of %d sets fully separated", clean, total)
				assert.LessOrEqual(t, float64(crowded)/float64(total), 0.05,
					"%d of %d sets with feet under 10 units apart", crowded, total)
			})
		}
	}
}

func TestNearest(t *testing.T) {
	feet := []geom.Point{geom.Pt(0, 0), geom.Pt(100, 0)}
	assert.InDelta(t, 30.0, nearest(geom.Pt(70, 0), feet), 1e-9)
	assert.True(t, math.IsInf(nearest(geom.Pt(1, 1), nil), 1))
}

func TestBuildShufflesOrder(t *testing.T) {
	positions := map[int]int{}
	buildMany(t, ConceptMedian, Medium, 200, 31, func(_ Shape, ls LineSet) {
		positions[ls.Reference()]++
	})
	assert.Len(t, positions, 3, "reference should appear in every slot: %v", positions)
}

func TestBuildRejectsDegenerateEdge(t *testing.T) {
	p := geom.Pt(100, 100)
	b := NewBuilder(rand.New(rand.NewSource(1)))
	for _, c := range concepts {
		_, err := b.Build(Shape{A: p, B: p, C: p}, c, Medium)
		assert.ErrorIs(t, err, ErrDegenerateEdge)
	}
}

func TestBuildRejectsUnknownConcept(t *testing.T) {
	b := NewBuilder(rand.New(rand.NewSource(1)))
	s := NewGenerator(DefaultCanvas, rand.New(rand.NewSource(1))).Fallback()
	_, err := b.Build(s, Concept("diagonal"), Medium)
	assert.Error(t, err)
}

func TestCloneIsIndependent(t *testing.T) {
	ls := LineSet{Segments: []Segment{{Extension: &Extension{}}, {}}}
	cp := ls.Clone()
	cp.Segments[1].Selected = true
	cp.Segments[0].Extension.From = geom.Pt(1, 1)
	assert.False(t, ls.Segments[1].Selected)
	assert.Equal(t, geom.Point{}, ls.Segments[0].Extension.From)
}

func TestParseConcept(t *testing.T) {
	c, err := ParseConcept("angle-bisector")
	require.NoError(t, err)
	assert.Equal(t, ConceptAngleBisector, c)

	_, err = ParseConcept("circle-center")
	assert.Error(t, err)
}
