// internal/puzzle/types.go
//
// Core type definitions for the puzzle engine.
// Defines:
//   - Concept: which segment the player is asked to find (altitude, median, bisector).
//   - Shape: the triangle shown for one round.
//   - Segment / Extension: a candidate line and its optional dashed edge continuation.
//   - LineSet: the shuffled candidates of one round, exactly one of them the reference.

package puzzle

import (
	"fmt"

	"github.com/robalobadob/geoquest/internal/geom"
)

// Concept names the geometric definition the reference segment satisfies.
type Concept string

const (
	ConceptAltitude      Concept = "altitude"
	ConceptMedian        Concept = "median"
	ConceptAngleBisector Concept = "angle-bisector"
)

// ParseConcept maps a game id onto a buildable concept.
func ParseConcept(s string) (Concept, error) {
	switch c := Concept(s); c {
	case ConceptAltitude, ConceptMedian, ConceptAngleBisector:
		return c, nil
	}
	return "", fmt.Errorf("puzzle: unknown concept %q", s)
}

// Shape is the triangle of one round. It is never mutated after generation.
type Shape struct {
	A geom.Point `json:"a"`
	B geom.Point `json:"b"`
	C geom.Point `json:"c"`
}

// Vertices returns A, B, C in order.
func (s Shape) Vertices() [3]geom.Point { return [3]geom.Point{s.A, s.B, s.C} }

// Area is the unsigned area of the triangle.
func (s Shape) Area() float64 { return geom.Area(s.A, s.B, s.C) }

// OppositeEdge returns the edge facing vertex i (0=A→BC, 1=B→CA, 2=C→AB).
func (s Shape) OppositeEdge(i int) (geom.Point, geom.Point) {
	switch i {
	case 0:
		return s.B, s.C
	case 1:
		return s.C, s.A
	default:
		return s.A, s.B
	}
}

// Within reports whether all three vertices lie inside r.
func (s Shape) Within(r geom.Rect) bool {
	return r.Contains(s.A) && r.Contains(s.B) && r.Contains(s.C)
}

// Extension is the dashed continuation of a measured edge out to a foot
// lying beyond the edge's endpoints.
type Extension struct {
	From geom.Point `json:"from"`
	To   geom.Point `json:"to"`
}

// Segment is one candidate line. P1 is the shared origin vertex, P2 the foot.
type Segment struct {
	P1          geom.Point `json:"p1"`
	P2          geom.Point `json:"p2"`
	IsReference bool       `json:"isReference"`
	Selected    bool       `json:"selected"`
	Extension   *Extension `json:"extension,omitempty"`
}

// Foot is the end of the segment lying on the measured edge's line.
func (s Segment) Foot() geom.Point { return s.P2 }

// LineSet holds the candidates of one round in presentation order.
type LineSet struct {
	Vertex   int       `json:"vertex"` // index of the origin vertex in Shape.Vertices()
	Segments []Segment `json:"segments"`
}

// Reference returns the index of the reference segment, or -1.
func (ls LineSet) Reference() int {
	for i, s := range ls.Segments {
		if s.IsReference {
			return i
		}
	}
	return -1
}

// Clone copies the set so that Selected flags can be changed independently.
func (ls LineSet) Clone() LineSet {
	out := LineSet{Vertex: ls.Vertex, Segments: make([]Segment, len(ls.Segments))}
	copy(out.Segments, ls.Segments)
	for i, s := range out.Segments {
		if s.Extension != nil {
			ext := *s.Extension
			out.Segments[i].Extension = &ext
		}
	}
	return out
}
