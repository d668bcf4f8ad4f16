// Package roster shapes player lists before they reach the simulation
// engine: IR filtering, roster caps and hand-picked lineups.
package roster

import (
	"fmt"
	"sort"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/simulation"
)

// DefaultCap is the number of healthy players counted per team in top_n scope.
const DefaultCap = 13

// Scope selects which rostered players take part in a simulation.
type Scope string

const (
	ScopeAll       Scope = "all"
	ScopeExcludeIR Scope = "exclude_ir"
	ScopeTopN      Scope = "top_n"
)

// ParseScope validates a scope string. Empty input selects ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(s); sc {
	case "":
		return ScopeAll, nil
	case ScopeAll, ScopeExcludeIR, ScopeTopN:
		return sc, nil
	default:
		return "", fmt.Errorf("unknown simulation scope %q", s)
	}
}

// ExcludesIR reports whether players in IR slots are dropped under s.
func (s Scope) ExcludesIR() bool {
	return s == ScopeExcludeIR || s == ScopeTopN
}

// Options configure Shape.
type Options struct {
	Scope Scope
	// Cap is the per-team limit in top_n scope; DefaultCap when <= 0.
	Cap int
	// CustomTeamID, when set with CustomPlayers, replaces that team's top_n
	// selection with the named players.
	CustomTeamID  int
	CustomPlayers []string
}

// Shape applies the scope to a league-wide player list. The input is not modified.
func Shape(players []simulation.RosterPlayer, opts Options, punt category.Set) []simulation.RosterPlayer {
	switch opts.Scope {
	case ScopeExcludeIR:
		return ExcludeInjured(players)
	case ScopeTopN:
		healthy := ExcludeInjured(players)
		if opts.CustomTeamID != 0 && len(opts.CustomPlayers) > 0 {
			custom := Custom(healthy, opts.CustomTeamID, opts.CustomPlayers)
			others := make([]simulation.RosterPlayer, 0, len(healthy))
			for _, p := range healthy {
				if p.TeamID != opts.CustomTeamID {
					others = append(others, p)
				}
			}
			return merge(healthy, append(TopN(others, opts.Cap, punt), onTeam(custom, opts.CustomTeamID)...))
		}
		return TopN(healthy, opts.Cap, punt)
	default:
		return append([]simulation.RosterPlayer(nil), players...)
	}
}

// ExcludeInjured drops players in an IR slot.
func ExcludeInjured(players []simulation.RosterPlayer) []simulation.RosterPlayer {
	out := make([]simulation.RosterPlayer, 0, len(players))
	for _, p := range players {
		if p.LineupSlot != league.SlotInjuredReserve {
			out = append(out, p)
		}
	}
	return out
}

// TopN keeps the n best players of each team by total z-score over the
// categories not punted, ties broken by name. Retained players keep their
// input order.
func TopN(players []simulation.RosterPlayer, n int, punt category.Set) []simulation.RosterPlayer {
	if n <= 0 {
		n = DefaultCap
	}

	byTeam := map[int][]int{}
	for i, p := range players {
		byTeam[p.TeamID] = append(byTeam[p.TeamID], i)
	}

	keep := make(map[int]bool, len(players))
	for _, idx := range byTeam {
		sort.SliceStable(idx, func(a, b int) bool {
			pa, pb := players[idx[a]], players[idx[b]]
			za, zb := pa.TotalZ(punt), pb.TotalZ(punt)
			if za != zb {
				return za > zb
			}
			return pa.Name < pb.Name
		})
		if len(idx) > n {
			idx = idx[:n]
		}
		for _, i := range idx {
			keep[i] = true
		}
	}

	out := make([]simulation.RosterPlayer, 0, len(keep))
	for i, p := range players {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// Custom restricts one team to the named players; other teams are untouched.
// An empty name list leaves the team as is.
func Custom(players []simulation.RosterPlayer, teamID int, names []string) []simulation.RosterPlayer {
	if len(names) == 0 {
		return append([]simulation.RosterPlayer(nil), players...)
	}
	chosen := make(map[string]bool, len(names))
	for _, n := range names {
		chosen[n] = true
	}
	out := make([]simulation.RosterPlayer, 0, len(players))
	for _, p := range players {
		if p.TeamID == teamID && !chosen[p.Name] {
			continue
		}
		out = append(out, p)
	}
	return out
}

func onTeam(players []simulation.RosterPlayer, teamID int) []simulation.RosterPlayer {
	out := make([]simulation.RosterPlayer, 0, len(players))
	for _, p := range players {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}

// merge returns the members of subset in the order they appear in all.
func merge(all, subset []simulation.RosterPlayer) []simulation.RosterPlayer {
	type key struct {
		name string
		team int
	}
	in := make(map[key]bool, len(subset))
	for _, p := range subset {
		in[key{p.Name, p.TeamID}] = true
	}
	out := make([]simulation.RosterPlayer, 0, len(subset))
	for _, p := range all {
		if in[key{p.Name, p.TeamID}] {
			out = append(out, p)
		}
	}
	return out
}
