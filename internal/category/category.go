package category

import (
	"fmt"
	"strings"
)

// Category is a fantasy scoring dimension, identified by its stat label.
type Category string

// Scoring categories of the league, in display order.
const (
	Points       Category = "PTS"
	Rebounds     Category = "REB"
	Assists      Category = "AST"
	Steals       Category = "STL"
	Blocks       Category = "BLK"
	ThreesMade   Category = "3PM"
	DoubleDouble Category = "DD"
	FieldGoalPct Category = "FG%"
	FreeThrowPct Category = "FT%"
	ThreePct     Category = "3PT%"
	AssistToTO   Category = "A/TO"
)

// Turnovers is not a scoring category of this league but it is carried in
// raw team totals, and it is the only stat where the lower value wins.
const Turnovers Category = "TO"

var (
	all      = []Category{Points, Rebounds, Assists, Steals, Blocks, ThreesMade, DoubleDouble, FieldGoalPct, FreeThrowPct, ThreePct, AssistToTO}
	counting = []Category{Points, Rebounds, Assists, Steals, Blocks, ThreesMade, DoubleDouble}
	ratio    = []Category{FieldGoalPct, FreeThrowPct, ThreePct, AssistToTO}
)

// All returns the 11 scoring categories in their fixed order.
func All() []Category {
	return append([]Category(nil), all...)
}

// Counting returns the volume categories (higher per-game average is better).
func Counting() []Category {
	return append([]Category(nil), counting...)
}

// Ratio returns the categories built from a numerator and a denominator.
func Ratio() []Category {
	return append([]Category(nil), ratio...)
}

// IsRatio reports whether c is a ratio category.
func (c Category) IsRatio() bool {
	for _, r := range ratio {
		if r == c {
			return true
		}
	}
	return false
}

// IsCounting reports whether c is a counting category.
func (c Category) IsCounting() bool {
	for _, k := range counting {
		if k == c {
			return true
		}
	}
	return false
}

// LowerIsBetter reports whether the smaller value wins a head-to-head comparison.
func (c Category) LowerIsBetter() bool {
	return c == Turnovers
}

func (c Category) String() string {
	return string(c)
}

// Parse resolves a label into a Category. TO is accepted alongside the
// scoring categories.
func Parse(label string) (Category, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	if c := Category(label); c.IsCounting() || c.IsRatio() || c == Turnovers {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q", label)
}

// Set is an unordered set of categories, used for punted categories.
type Set map[Category]struct{}

// NewSet builds a set from the given categories.
func NewSet(cats ...Category) Set {
	s := make(Set, len(cats))
	for _, c := range cats {
		s[c] = struct{}{}
	}
	return s
}

// ParseList parses a comma separated list such as "FG%, TO".
// Empty input yields an empty set.
func ParseList(list string) (Set, error) {
	s := Set{}
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		c, err := Parse(part)
		if err != nil {
			return nil, err
		}
		s[c] = struct{}{}
	}
	return s, nil
}

// FromStrings parses labels as they arrive in JSON request bodies.
func FromStrings(labels []string) (Set, error) {
	return ParseList(strings.Join(labels, ","))
}

// Contains reports whether c is in the set. A nil set contains nothing.
func (s Set) Contains(c Category) bool {
	_, ok := s[c]
	return ok
}

// Active returns the categories of cats that are not in the set, order preserved.
func (s Set) Active(cats []Category) []Category {
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if !s.Contains(c) {
			out = append(out, c)
		}
	}
	return out
}

// Strings returns the members in the fixed category order, TO last.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for _, c := range append(All(), Turnovers) {
		if s.Contains(c) {
			out = append(out, string(c))
		}
	}
	return out
}
