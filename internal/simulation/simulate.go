package simulation

import (
	"sort"

	"github.com/fortuna/juno/internal/category"
)

// Standing is a team's round-robin record and league position.
type Standing struct {
	TeamID   int     `json:"team_id"`
	TeamName string  `json:"name"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Ties     int     `json:"ties"`
	WinRate  float64 `json:"win_rate"`
	Rank     int     `json:"rank"`
}

// Games is the number of matchups the team played.
func (s Standing) Games() int {
	return s.Wins + s.Losses + s.Ties
}

// MatchupDetail is one played matchup seen from a team's side.
type MatchupDetail struct {
	OpponentID   int                           `json:"opponent_id"`
	OpponentName string                        `json:"opponent_name"`
	Result       Outcome                       `json:"result"`
	Score        string                        `json:"score"`
	Categories   map[category.Category]Outcome `json:"categories"`
}

// DetailedStanding adds every matchup the team played.
type DetailedStanding struct {
	Standing
	Matchups []MatchupDetail `json:"matchups"`
}

// Simulate plays every unordered pair of entries once and returns the
// standings in rank order.
func Simulate(entries []TeamEntry, cats []category.Category, punt category.Set) []Standing {
	detailed := SimulateDetailed(entries, cats, punt)
	out := make([]Standing, len(detailed))
	for i, d := range detailed {
		out[i] = d.Standing
	}
	return out
}

// SimulateDetailed is Simulate with per-team matchup lists.
func SimulateDetailed(entries []TeamEntry, cats []category.Category, punt category.Set) []DetailedStanding {
	res := make([]DetailedStanding, len(entries))
	for i, e := range entries {
		res[i] = DetailedStanding{
			Standing: Standing{TeamID: e.TeamID, TeamName: e.TeamName},
			Matchups: make([]MatchupDetail, 0, len(entries)-1),
		}
	}

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			m := Compare(entries[i].Totals, entries[j].Totals, cats, punt)
			record(&res[i], entries[j], m)
			record(&res[j], entries[i], m.Invert())
		}
	}

	for i := range res {
		s := &res[i].Standing
		if g := s.Games(); g > 0 {
			s.WinRate = (float64(s.Wins) + 0.5*float64(s.Ties)) / float64(g)
		}
	}

	sort.SliceStable(res, func(a, b int) bool {
		if res[a].WinRate != res[b].WinRate {
			return res[a].WinRate > res[b].WinRate
		}
		return res[a].Wins > res[b].Wins
	})
	for i := range res {
		res[i].Rank = i + 1
	}
	return res
}

func record(d *DetailedStanding, opp TeamEntry, m Matchup) {
	switch m.Result {
	case Win:
		d.Wins++
	case Loss:
		d.Losses++
	default:
		d.Ties++
	}
	d.Matchups = append(d.Matchups, MatchupDetail{
		OpponentID:   opp.TeamID,
		OpponentName: opp.TeamName,
		Result:       m.Result,
		Score:        m.Score(),
		Categories:   m.Categories,
	})
}

// Ranks maps team id to rank.
func Ranks(standings []Standing) map[int]int {
	out := make(map[int]int, len(standings))
	for _, s := range standings {
		out[s.TeamID] = s.Rank
	}
	return out
}
