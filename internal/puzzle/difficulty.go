package puzzle

import (
	"fmt"
	"strings"
)

// Difficulty is the discrete tier chosen when a session starts.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

// Tier bundles every knob a difficulty controls.
type Tier struct {
	TimeLimit      int     // seconds per round
	Attempts       int     // clicks allowed per round
	Decoys         int     // wrong candidates per round
	MinArea        float64 // smallest accepted triangle area
	RightAngleProb float64 // chance of asking the right-angled generator
	MinSeparation  float64 // smallest foot-to-foot distance in canvas units
	InnerFeet      bool    // require every altitude foot to land well inside its edge
}

var tiers = [...]Tier{
	Easy:   {TimeLimit: 45, Attempts: 2, Decoys: 2, MinArea: 15000, RightAngleProb: 0, MinSeparation: 36, InnerFeet: true},
	Medium: {TimeLimit: 30, Attempts: 2, Decoys: 2, MinArea: 12000, RightAngleProb: 0.33, MinSeparation: 30},
	Hard:   {TimeLimit: 20, Attempts: 1, Decoys: 3, MinArea: 10000, RightAngleProb: 0.5, MinSeparation: 25},
}

// Tier returns the parameters of d. Unknown values fall back to Medium.
func (d Difficulty) Tier() Tier {
	if d < Easy || d > Hard {
		return tiers[Medium]
	}
	return tiers[d]
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	default:
		return "medium"
	}
}

// ParseDifficulty accepts "easy", "medium" or "hard" (case-insensitive).
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium", "":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Medium, fmt.Errorf("puzzle: unknown difficulty %q", s)
}

func (d Difficulty) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Difficulty) UnmarshalText(b []byte) error {
	v, err := ParseDifficulty(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
