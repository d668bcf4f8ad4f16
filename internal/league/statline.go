package league

import (
	"math"

	"github.com/fortuna/juno/internal/category"
)

// Upstream stat keys understood by FromRaw.
const (
	KeyPTS  = "PTS"
	KeyREB  = "REB"
	KeyAST  = "AST"
	KeySTL  = "STL"
	KeyBLK  = "BLK"
	KeyTO   = "TO"
	KeyDD   = "DD"
	KeyFGM  = "FGM"
	KeyFGA  = "FGA"
	KeyFTM  = "FTM"
	KeyFTA  = "FTA"
	Key3PM  = "3PM"
	Key3PA  = "3PA"
	KeyFGP  = "FG%"
	KeyFTP  = "FT%"
	Key3PTP = "3PT%"
	KeyGP   = "GP"
	KeyMIN  = "MIN"
)

// StatLine holds a player's per-game averages for one period. A nil member
// means the upstream did not report the stat.
type StatLine struct {
	Points       *float64 `json:"PTS,omitempty"`
	Rebounds     *float64 `json:"REB,omitempty"`
	Assists      *float64 `json:"AST,omitempty"`
	Steals       *float64 `json:"STL,omitempty"`
	Blocks       *float64 `json:"BLK,omitempty"`
	Turnovers    *float64 `json:"TO,omitempty"`
	DoubleDouble *float64 `json:"DD,omitempty"`

	FieldGoalsMade      *float64 `json:"FGM,omitempty"`
	FieldGoalsAttempted *float64 `json:"FGA,omitempty"`
	FreeThrowsMade      *float64 `json:"FTM,omitempty"`
	FreeThrowsAttempted *float64 `json:"FTA,omitempty"`
	ThreesMade          *float64 `json:"3PM,omitempty"`
	ThreesAttempted     *float64 `json:"3PA,omitempty"`

	FieldGoalPct *float64 `json:"FG%,omitempty"`
	FreeThrowPct *float64 `json:"FT%,omitempty"`
	ThreePct     *float64 `json:"3PT%,omitempty"`

	GamesPlayed *float64 `json:"GP,omitempty"`
	Minutes     *float64 `json:"MIN,omitempty"`
}

// FromRaw resolves an upstream stat map into a StatLine. Non-finite values
// are treated as missing. Percentages the upstream omits are derived from
// makes and attempts when both are present.
func FromRaw(raw map[string]float64) StatLine {
	get := func(key string) *float64 {
		v, ok := raw[key]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	}

	s := StatLine{
		Points:              get(KeyPTS),
		Rebounds:            get(KeyREB),
		Assists:             get(KeyAST),
		Steals:              get(KeySTL),
		Blocks:              get(KeyBLK),
		Turnovers:           get(KeyTO),
		DoubleDouble:        get(KeyDD),
		FieldGoalsMade:      get(KeyFGM),
		FieldGoalsAttempted: get(KeyFGA),
		FreeThrowsMade:      get(KeyFTM),
		FreeThrowsAttempted: get(KeyFTA),
		ThreesMade:          get(Key3PM),
		ThreesAttempted:     get(Key3PA),
		FieldGoalPct:        get(KeyFGP),
		FreeThrowPct:        get(KeyFTP),
		ThreePct:            get(Key3PTP),
		GamesPlayed:         get(KeyGP),
		Minutes:             get(KeyMIN),
	}

	s.FieldGoalPct = derivePct(s.FieldGoalPct, s.FieldGoalsMade, s.FieldGoalsAttempted)
	s.FreeThrowPct = derivePct(s.FreeThrowPct, s.FreeThrowsMade, s.FreeThrowsAttempted)
	s.ThreePct = derivePct(s.ThreePct, s.ThreesMade, s.ThreesAttempted)

	return s
}

func derivePct(pct, makes, attempts *float64) *float64 {
	if pct != nil || makes == nil || attempts == nil {
		return pct
	}
	v := SafeDiv(*makes, *attempts)
	return &v
}

// Counting returns the per-game value for a counting category or TO.
func (s StatLine) Counting(c category.Category) (float64, bool) {
	var p *float64
	switch c {
	case category.Points:
		p = s.Points
	case category.Rebounds:
		p = s.Rebounds
	case category.Assists:
		p = s.Assists
	case category.Steals:
		p = s.Steals
	case category.Blocks:
		p = s.Blocks
	case category.ThreesMade:
		p = s.ThreesMade
	case category.DoubleDouble:
		p = s.DoubleDouble
	case category.Turnovers:
		p = s.Turnovers
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Shooting returns the numerator and denominator behind a ratio category:
// makes/attempts for the percentages, assists/turnovers for A/TO.
func (s StatLine) Shooting(c category.Category) (num, den float64, ok bool) {
	var n, d *float64
	switch c {
	case category.FieldGoalPct:
		n, d = s.FieldGoalsMade, s.FieldGoalsAttempted
	case category.FreeThrowPct:
		n, d = s.FreeThrowsMade, s.FreeThrowsAttempted
	case category.ThreePct:
		n, d = s.ThreesMade, s.ThreesAttempted
	case category.AssistToTO:
		n, d = s.Assists, s.Turnovers
	}
	if n == nil || d == nil {
		return 0, 0, false
	}
	return *n, *d, true
}

// Pct returns the player's own percentage for a shooting category.
func (s StatLine) Pct(c category.Category) (float64, bool) {
	var p *float64
	switch c {
	case category.FieldGoalPct:
		p = s.FieldGoalPct
	case category.FreeThrowPct:
		p = s.FreeThrowPct
	case category.ThreePct:
		p = s.ThreePct
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Attempts returns the volume a shooting percentage is weighted by.
func (s StatLine) Attempts(c category.Category) (float64, bool) {
	var p *float64
	switch c {
	case category.FieldGoalPct:
		p = s.FieldGoalsAttempted
	case category.FreeThrowPct:
		p = s.FreeThrowsAttempted
	case category.ThreePct:
		p = s.ThreesAttempted
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// SafeDiv divides, resolving a zero or non-finite result to 0.
func SafeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return Finite(numerator / denominator)
}

// Finite maps NaN and ±Inf to 0.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Float returns a pointer to v, for building stat lines in code.
func Float(v float64) *float64 {
	return &v
}
