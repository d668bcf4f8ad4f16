// Package simulation runs all-play-all category matchups between fantasy
// teams, ranks the outcome and re-evaluates the league under proposed trades.
// Everything here is a pure function of its inputs.
package simulation

import (
	"fmt"
	"math"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/zscore"
)

// Mode selects how a team's category values are aggregated.
type Mode string

const (
	// ModeZScores sums player z-scores per category.
	ModeZScores Mode = "z_scores"
	// ModeTeamStatsAvg combines raw per-game averages, ratios recomputed
	// from summed makes and attempts.
	ModeTeamStatsAvg Mode = "team_stats_avg"
	// ModeMatchup averages weekly box-score totals.
	ModeMatchup Mode = "matchup"
)

// ParseMode validates a mode string. Empty input selects ModeMatchup.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeMatchup, nil
	case ModeZScores, ModeTeamStatsAvg, ModeMatchup:
		return m, nil
	default:
		return "", fmt.Errorf("unknown simulation mode %q", s)
	}
}

// TeamTotals maps a category to a team's aggregated value.
type TeamTotals map[category.Category]float64

// Get returns the value for c, 0 when absent.
func (t TeamTotals) Get(c category.Category) float64 {
	return t[c]
}

// Clone returns an independent copy.
func (t TeamTotals) Clone() TeamTotals {
	out := make(TeamTotals, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// RosterPlayer is a player joined with their z-scores, the unit the
// aggregation and trade code works on.
type RosterPlayer struct {
	Name       string                        `json:"name"`
	Position   string                        `json:"position"`
	TeamID     int                           `json:"team_id"`
	TeamName   string                        `json:"team_name"`
	LineupSlot string                        `json:"lineup_slot,omitempty"`
	ZScores    map[category.Category]float64 `json:"z_scores"`
	Stats      league.StatLine               `json:"stats"`
}

// TotalZ sums the player's z-scores over the active categories.
func (p RosterPlayer) TotalZ(punt category.Set) float64 {
	var total float64
	for _, c := range punt.Active(category.All()) {
		total += league.Finite(p.ZScores[c])
	}
	return total
}

// Join attaches z-scores to stat lines by player name. Players without a
// z-score entry get an empty mapping.
func Join(players []league.PlayerStatLine, z zscore.Result) []RosterPlayer {
	byName := z.ByName()
	out := make([]RosterPlayer, len(players))
	for i, p := range players {
		zs := byName[p.Name].ZScores
		if zs == nil {
			zs = map[category.Category]float64{}
		}
		out[i] = RosterPlayer{
			Name:       p.Name,
			Position:   p.Position,
			TeamID:     p.TeamID,
			TeamName:   p.TeamName,
			LineupSlot: p.LineupSlot,
			ZScores:    zs,
			Stats:      p.Stats,
		}
	}
	return out
}

// ZScoreTotals sums z-scores per active category. Non-finite values are skipped.
func ZScoreTotals(players []RosterPlayer, punt category.Set) TeamTotals {
	totals := TeamTotals{}
	for _, c := range punt.Active(category.All()) {
		totals[c] = 0
	}
	for _, p := range players {
		for c := range totals {
			if v, ok := p.ZScores[c]; ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
				totals[c] += v
			}
		}
	}
	return totals
}

// RawTotals combines per-game averages into a team line: counting stats and
// TO are summed, ratio categories are recomputed from the summed numerators
// and denominators. Percentages stay fractions in [0, 1], the same unit as
// box-score totals. Punted categories are left out.
func RawTotals(players []RosterPlayer, punt category.Set) TeamTotals {
	totals := TeamTotals{}
	for _, c := range punt.Active(append(category.Counting(), category.Turnovers)) {
		var sum float64
		for _, p := range players {
			if v, ok := p.Stats.Counting(c); ok {
				sum += league.Finite(v)
			}
		}
		totals[c] = sum
	}

	for _, c := range punt.Active(category.Ratio()) {
		var num, den float64
		for _, p := range players {
			if n, d, ok := p.Stats.Shooting(c); ok {
				num += league.Finite(n)
				den += league.Finite(d)
			}
		}
		totals[c] = league.SafeDiv(num, den)
	}
	return totals
}

// AverageWeekly averages box-score totals per category over the weeks in
// which the category was reported. Categories never reported become 0.
func AverageWeekly(weeks []TeamTotals, cats []category.Category) TeamTotals {
	out := make(TeamTotals, len(cats))
	for _, c := range cats {
		var sum float64
		var n int
		for _, w := range weeks {
			if v, ok := w[c]; ok {
				sum += league.Finite(v)
				n++
			}
		}
		if n > 0 {
			out[c] = sum / float64(n)
		} else {
			out[c] = 0
		}
	}
	return out
}

// TeamEntry is one participant of a simulation.
type TeamEntry struct {
	TeamID   int        `json:"team_id"`
	TeamName string     `json:"team_name"`
	Totals   TeamTotals `json:"totals"`
}

// BuildEntries aggregates players into one entry per known team, in the
// order of teams. Teams without players get zero totals; players of
// unknown teams are ignored.
func BuildEntries(teams []league.Team, players []RosterPlayer, mode Mode, punt category.Set) ([]TeamEntry, error) {
	var aggregate func([]RosterPlayer, category.Set) TeamTotals
	switch mode {
	case ModeZScores:
		aggregate = ZScoreTotals
	case ModeTeamStatsAvg:
		aggregate = RawTotals
	default:
		return nil, fmt.Errorf("mode %q cannot be built from players", mode)
	}

	byTeam := make(map[int][]RosterPlayer, len(teams))
	for _, p := range players {
		byTeam[p.TeamID] = append(byTeam[p.TeamID], p)
	}

	entries := make([]TeamEntry, 0, len(teams))
	for _, t := range teams {
		entries = append(entries, TeamEntry{
			TeamID:   t.ID,
			TeamName: t.Name,
			Totals:   aggregate(byTeam[t.ID], punt),
		})
	}
	return entries, nil
}

// TotalsByTeam indexes entry totals by team id.
func TotalsByTeam(entries []TeamEntry) map[int]TeamTotals {
	out := make(map[int]TeamTotals, len(entries))
	for _, e := range entries {
		out[e.TeamID] = e.Totals
	}
	return out
}
