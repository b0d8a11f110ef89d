package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/robalobadob/geoquest/internal/game"
	"github.com/robalobadob/geoquest/internal/geom"
	"github.com/robalobadob/geoquest/internal/puzzle"
)

// Surface is the part of tcell.Screen the renderer draws on.
type Surface interface {
	Size() (int, int)
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

const (
	hudRows    = 1
	statusRows = 1
)

var (
	styleDefault   = tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	styleHUD       = styleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleStatus    = styleDefault.Foreground(tcell.ColorSilver)
	styleEdge      = styleDefault.Foreground(tcell.ColorGray)
	styleVertex    = styleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleOrigin    = styleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleCandidate = styleDefault.Foreground(tcell.ColorSkyblue)
	styleSelected  = styleDefault.Foreground(tcell.ColorDarkGray)
	styleAnswer    = styleDefault.Foreground(tcell.ColorLime).Bold(true)
	styleMissed    = styleDefault.Foreground(tcell.ColorRed)
)

// Viewport maps the logical canvas onto a block of terminal cells.
type Viewport struct {
	Canvas     puzzle.Canvas
	Left, Top  int
	Cols, Rows int
}

// Fit places the canvas below the HUD and above the status line of a w×h screen.
func Fit(c puzzle.Canvas, w, h int) Viewport {
	return Viewport{Canvas: c, Left: 0, Top: hudRows, Cols: max(w, 1), Rows: max(h-hudRows-statusRows, 1)}
}

// ToCell converts canvas coordinates to the cell containing them.
func (v Viewport) ToCell(p geom.Point) (int, int) {
	cx := int(math.Floor(p.X / v.Canvas.Width * float64(v.Cols)))
	cy := int(math.Floor(p.Y / v.Canvas.Height * float64(v.Rows)))
	return v.Left + clampInt(cx, 0, v.Cols-1), v.Top + clampInt(cy, 0, v.Rows-1)
}

// ToCanvas converts a cell to the canvas point at its center. Cells outside
// the viewport report false.
func (v Viewport) ToCanvas(x, y int) (geom.Point, bool) {
	cx, cy := x-v.Left, y-v.Top
	if cx < 0 || cy < 0 || cx >= v.Cols || cy >= v.Rows {
		return geom.Point{}, false
	}
	return geom.Pt(
		(float64(cx)+0.5)*v.Canvas.Width/float64(v.Cols),
		(float64(cy)+0.5)*v.Canvas.Height/float64(v.Rows),
	), true
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Draw renders one frame of the view. The caller clears and shows the screen.
func Draw(s Surface, v game.View, status string) Viewport {
	w, h := s.Size()
	vp := Fit(v.Canvas, w, h)

	verts := v.Shape.Vertices()
	for i := range verts {
		drawLine(s, vp, verts[i], verts[(i+1)%3], '.', styleEdge, false)
	}

	for _, seg := range v.Lines.Segments {
		style := styleCandidate
		switch {
		case v.Revealed && seg.IsReference:
			style = styleAnswer
		case seg.Selected:
			style = styleSelected
		}
		if seg.Extension != nil {
			drawLine(s, vp, seg.Extension.From, seg.Extension.To, ':', styleEdge, true)
		}
		drawLine(s, vp, seg.P1, seg.P2, '*', style, false)
		fx, fy := vp.ToCell(seg.Foot())
		foot := 'o'
		if seg.Selected && !(v.Revealed && seg.IsReference) {
			foot, style = 'x', styleMissed
		}
		s.SetContent(fx, fy, foot, nil, style)
	}

	for i, p := range verts {
		x, y := vp.ToCell(p)
		style := styleVertex
		if i == v.Lines.Vertex {
			style = styleOrigin
		}
		s.SetContent(x, y, rune('A'+i), nil, style)
	}

	drawText(s, 0, 0, w, hud(v), styleHUD)
	drawText(s, 0, h-1, w, status, styleStatus)
	return vp
}

// drawLine samples p1→p2 at half-cell steps. Dashed lines skip every other pair of samples.
func drawLine(s Surface, vp Viewport, p1, p2 geom.Point, r rune, style tcell.Style, dashed bool) {
	x1, y1 := vp.ToCell(p1)
	x2, y2 := vp.ToCell(p2)
	n := 2*max(abs(x2-x1), abs(y2-y1)) + 1
	for i := 0; i <= n; i++ {
		if dashed && (i/2)%2 == 1 {
			continue
		}
		x, y := vp.ToCell(geom.Lerp(p1, p2, float64(i)/float64(n)))
		s.SetContent(x, y, r, nil, style)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func drawText(s Surface, x, y, width int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

func hud(v game.View) string {
	return fmt.Sprintf(" %s (%s) | round %d/%d | score %d | streak %d | attempts %d | %ds ",
		v.GameID, v.Difficulty, v.Round, v.TotalRounds, v.Score, v.Streak, v.Attempts, v.TimeRemaining)
}

// Stars renders a rating out of three.
func Stars(n int) string {
	n = clampInt(n, 0, 3)
	return strings.Repeat("*", n) + strings.Repeat("-", 3-n)
}

// statusLine describes the phase, falling back to the last click message while a round is open.
func statusLine(v game.View, last string) string {
	switch v.Phase {
	case game.PhaseAnswered:
		return " Correct! "
	case game.PhaseExhausted:
		return " Out of attempts. The answer is shown in green. "
	case game.PhaseTimedOut:
		return " Time's up. The answer is shown in green. "
	case game.PhaseComplete:
		return fmt.Sprintf(" Finished: %d/%d  [%s]  best streak %d | r: play again  q: quit ",
			v.Score, v.TotalRounds, Stars(v.Stars), v.BestStreak)
	case game.PhaseAborted:
		return " Session ended. "
	}
	if last != "" {
		return " " + last + " | click the " + conceptNoun(v.Concept) + "  q: quit "
	}
	return " Click the " + conceptNoun(v.Concept) + " from the yellow vertex | r: restart  q: quit "
}

func conceptNoun(c puzzle.Concept) string {
	return strings.ReplaceAll(string(c), "-", " ")
}
