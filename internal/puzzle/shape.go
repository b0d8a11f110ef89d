// internal/puzzle/shape.go
//
// Constrained-random triangle generation.
// Responsibilities:
//   - Rejection-sample oblique triangles inside the padded canvas above the tier's area floor.
//   - Build right-angled triangles from a random leg and a perpendicular offset.
//   - On easy, keep only triangles whose altitude feet all land inside their edges.
//   - Never block: every retry loop is bounded and ends in a definite fallback.

package puzzle

import (
	"math"
	"math/rand"

	"github.com/robalobadob/geoquest/internal/geom"
)

const (
	maxObliqueTries = 2000
	maxRightTries   = 50

	minLegAB     = 50.0
	minLegAC     = 80.0
	legACSpread  = 150.0
	innerFeetMin = 0.1
	innerFeetMax = 0.9
)

// Canvas is the logical drawing surface shared with renderers and input.
type Canvas struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"`
}

// DefaultCanvas matches the 600x400 board the game was designed on.
var DefaultCanvas = Canvas{Width: 600, Height: 400, Padding: 80}

// Bounds is the region vertices must fall in.
func (c Canvas) Bounds() geom.Rect {
	return geom.Rect{W: c.Width, H: c.Height}.Inset(c.Padding)
}

// Generator produces round shapes. It is not safe for concurrent use; each
// session owns one.
type Generator struct {
	canvas Canvas
	rng    *rand.Rand
}

// NewGenerator returns a generator drawing from rng.
func NewGenerator(c Canvas, rng *rand.Rand) *Generator {
	return &Generator{canvas: c, rng: rng}
}

// Generate returns a triangle satisfying d's constraints, or the fallback
// triangle when sampling keeps failing.
func (g *Generator) Generate(d Difficulty) Shape {
	tier := d.Tier()
	if tier.RightAngleProb > 0 && g.rng.Float64() < tier.RightAngleProb {
		return g.rightAngled(tier)
	}
	return g.oblique(tier)
}

func (g *Generator) oblique(tier Tier) Shape {
	for i := 0; i < maxObliqueTries; i++ {
		s := Shape{A: g.sample(), B: g.sample(), C: g.sample()}
		if acceptable(tier, s) {
			return s
		}
	}
	return g.Fallback()
}

// rightAngled places the right angle at A: C = A + n·L with n ⟂ AB.
func (g *Generator) rightAngled(tier Tier) Shape {
	bounds := g.canvas.Bounds()
	for i := 0; i < maxRightTries; i++ {
		a, b := g.sample(), g.sample()
		ab := b.Sub(a)
		n := ab.Len()
		if n < minLegAB {
			continue
		}
		perp := ab.Perp().Scale(1 / n)
		if g.rng.Intn(2) == 0 {
			perp = perp.Scale(-1)
		}
		c := a.Add(perp.Scale(minLegAC + g.rng.Float64()*legACSpread))
		if !bounds.Contains(c) {
			continue
		}
		s := Shape{A: a, B: b, C: c}
		if acceptable(tier, s) {
			return s
		}
	}
	return g.oblique(tier)
}

// Fallback is an equilateral triangle as large as the padded canvas allows.
func (g *Generator) Fallback() Shape {
	b := g.canvas.Bounds()
	h := math.Min(b.H, b.W*math.Sqrt(3)/2)
	side := 2 * h / math.Sqrt(3)
	c := b.Center()
	top := c.Y - h/2
	return Shape{
		A: geom.Pt(c.X, top),
		B: geom.Pt(c.X-side/2, top+h),
		C: geom.Pt(c.X+side/2, top+h),
	}
}

func (g *Generator) sample() geom.Point {
	b := g.canvas.Bounds()
	return geom.Pt(b.X+g.rng.Float64()*b.W, b.Y+g.rng.Float64()*b.H)
}

func acceptable(tier Tier, s Shape) bool {
	if s.Area() < tier.MinArea {
		return false
	}
	return !tier.InnerFeet || innerFeet(s, innerFeetMin, innerFeetMax)
}

// innerFeet reports whether every altitude foot has its parameter in [lo, hi].
func innerFeet(s Shape, lo, hi float64) bool {
	v := s.Vertices()
	for i := range v {
		p1, p2 := s.OppositeEdge(i)
		t, ok := geom.Project(v[i], p1, p2)
		if !ok || t < lo || t > hi {
			return false
		}
	}
	return true
}
