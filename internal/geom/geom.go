// internal/geom/geom.go
//
// Planar vector math shared by the puzzle generator, the line builder and
// the hit resolver. Everything here is a pure function of its inputs.
//
// Coordinates live in the logical canvas space (pixels, y grows downward);
// nothing in this package cares about the orientation.

package geom

import "math"

// Eps is the tolerance below which a length or area is treated as zero.
const Eps = 1e-9

// Point is a 2D point or vector in canvas coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }
func (p Point) Len() float64          { return math.Hypot(p.X, p.Y) }
func (p Point) Perp() Point           { return Point{-p.Y, p.X} }

func Dot(p, q Point) float64           { return p.X*q.X + p.Y*q.Y }
func Cross(p, q Point) float64         { return p.X*q.Y - p.Y*q.X }
func Midpoint(p, q Point) Point        { return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2} }
func Lerp(p, q Point, t float64) Point { return Point{p.X + t*(q.X-p.X), p.Y + t*(q.Y-p.Y)} }
func Dist(p, q Point) float64          { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// SignedArea is the oriented area of triangle abc: positive when a→b→c
// turns counter-clockwise in a y-up frame.
func SignedArea(a, b, c Point) float64 {
	return (a.X*(b.Y-c.Y) + b.X*(c.Y-a.Y) + c.X*(a.Y-b.Y)) / 2
}

// Area is the absolute area of triangle abc.
func Area(a, b, c Point) float64 { return math.Abs(SignedArea(a, b, c)) }

// Project returns the unclamped parameter t of q's orthogonal projection on
// the line through p1→p2, so that the foot is Lerp(p1, p2, t).
// ok is false when p1 == p2; the line is undefined and callers must skip it.
func Project(q, p1, p2 Point) (t float64, ok bool) {
	d := p2.Sub(p1)
	lenSq := Dot(d, d)
	if lenSq == 0 {
		return 0, false
	}
	return Dot(q.Sub(p1), d) / lenSq, true
}

// Clamp01 restricts t to [0, 1].
func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// FootAt is the point at parameter t on p1→p2. Alias of Lerp kept for
// readability at call sites dealing with projections.
func FootAt(p1, p2 Point, t float64) Point { return Lerp(p1, p2, t) }

// DistToSegment is the distance from q to the closest point of segment
// p1p2. ok is false for a zero-length segment.
func DistToSegment(q, p1, p2 Point) (float64, bool) {
	t, ok := Project(q, p1, p2)
	if !ok {
		return 0, false
	}
	return Dist(q, FootAt(p1, p2, Clamp01(t))), true
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Inset shrinks r by pad on every side. A negative size collapses to zero.
func (r Rect) Inset(pad float64) Rect {
	out := Rect{X: r.X + pad, Y: r.Y + pad, W: r.W - 2*pad, H: r.H - 2*pad}
	if out.W < 0 {
		out.W = 0
	}
	if out.H < 0 {
		out.H = 0
	}
	return out
}

// Center is the midpoint of r.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }
