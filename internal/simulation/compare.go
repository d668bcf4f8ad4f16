package simulation

import (
	"strconv"

	"github.com/fortuna/juno/internal/category"
)

// Outcome is a win, loss or tie from one side's point of view.
type Outcome string

const (
	Win  Outcome = "win"
	Loss Outcome = "loss"
	Tie  Outcome = "tie"
)

// Invert returns the outcome seen from the opponent's side.
func (o Outcome) Invert() Outcome {
	switch o {
	case Win:
		return Loss
	case Loss:
		return Win
	default:
		return Tie
	}
}

// Matchup is the head-to-head result of two teams, from the first team's side.
type Matchup struct {
	Categories map[category.Category]Outcome `json:"categories"`
	Wins1      int                           `json:"wins1"`
	Wins2      int                           `json:"wins2"`
	Result     Outcome                       `json:"result"`
}

// Score renders the category count as "W-L".
func (m Matchup) Score() string {
	return strconv.Itoa(m.Wins1) + "-" + strconv.Itoa(m.Wins2)
}

// Invert returns the same matchup from the second team's side.
func (m Matchup) Invert() Matchup {
	cats := make(map[category.Category]Outcome, len(m.Categories))
	for c, o := range m.Categories {
		cats[c] = o.Invert()
	}
	return Matchup{Categories: cats, Wins1: m.Wins2, Wins2: m.Wins1, Result: m.Result.Invert()}
}

// CompareCategory decides one category. Higher wins except for TO.
func CompareCategory(c category.Category, a, b float64) Outcome {
	if c.LowerIsBetter() {
		a, b = b, a
	}
	switch {
	case a > b:
		return Win
	case b > a:
		return Loss
	default:
		return Tie
	}
}

// Compare plays a against b over the categories not punted.
func Compare(a, b TeamTotals, cats []category.Category, punt category.Set) Matchup {
	m := Matchup{Categories: make(map[category.Category]Outcome, len(cats))}
	for _, c := range punt.Active(cats) {
		o := CompareCategory(c, a.Get(c), b.Get(c))
		m.Categories[c] = o
		switch o {
		case Win:
			m.Wins1++
		case Loss:
			m.Wins2++
		}
	}

	switch {
	case m.Wins1 > m.Wins2:
		m.Result = Win
	case m.Wins2 > m.Wins1:
		m.Result = Loss
	default:
		m.Result = Tie
	}
	return m
}
