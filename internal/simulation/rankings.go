package simulation

import (
	"fmt"
	"sort"

	"github.com/fortuna/juno/internal/category"
)

// RankInCategory returns 1 + the number of teams strictly better than teamID
// in c. It returns 0 when teamID has no totals.
func RankInCategory(totals map[int]TeamTotals, teamID int, c category.Category) int {
	mine, ok := totals[teamID]
	if !ok {
		return 0
	}
	rank := 1
	for id, t := range totals {
		if id != teamID && CompareCategory(c, t.Get(c), mine.Get(c)) == Win {
			rank++
		}
	}
	return rank
}

// CategoryRanks returns the team's rank in every active category.
func CategoryRanks(totals map[int]TeamTotals, teamID int, cats []category.Category, punt category.Set) map[category.Category]int {
	out := make(map[category.Category]int, len(cats))
	if _, ok := totals[teamID]; !ok {
		return out
	}
	for _, c := range punt.Active(cats) {
		out[c] = RankInCategory(totals, teamID, c)
	}
	return out
}

// CategoryRank is one team's position in one category.
type CategoryRank struct {
	Category category.Category `json:"category"`
	Rank     int               `json:"rank"`
	Value    float64           `json:"value"`
}

// LeagueRow is one team's line in a category table.
type LeagueRow struct {
	Rank     int     `json:"rank"`
	TeamID   int     `json:"team_id"`
	TeamName string  `json:"team_name"`
	Value    float64 `json:"value"`
}

// CategoryReport describes where a team stands in each category.
type CategoryReport struct {
	TeamID        int                               `json:"team_id"`
	TeamName      string                            `json:"team_name"`
	TeamCount     int                               `json:"team_count"`
	TopCategories []CategoryRank                    `json:"top_categories"`
	AllRankings   []CategoryRank                    `json:"all_rankings"`
	CategoryTeams map[category.Category][]LeagueRow `json:"category_teams"`
}

// TopCategoryCount is how many strongest categories a report highlights.
const TopCategoryCount = 3

// CategoryRankings builds the full category table for one team.
func CategoryRankings(entries []TeamEntry, teamID int, cats []category.Category, punt category.Set) (*CategoryReport, error) {
	totals := TotalsByTeam(entries)
	var self *TeamEntry
	for i := range entries {
		if entries[i].TeamID == teamID {
			self = &entries[i]
			break
		}
	}
	if self == nil {
		return nil, fmt.Errorf("category rankings for team %d: %w", teamID, ErrUnknownTeam)
	}

	active := punt.Active(cats)
	report := &CategoryReport{
		TeamID:        teamID,
		TeamName:      self.TeamName,
		TeamCount:     len(entries),
		AllRankings:   make([]CategoryRank, 0, len(active)),
		CategoryTeams: make(map[category.Category][]LeagueRow, len(active)),
	}

	for _, c := range active {
		report.AllRankings = append(report.AllRankings, CategoryRank{
			Category: c,
			Rank:     RankInCategory(totals, teamID, c),
			Value:    self.Totals.Get(c),
		})
		report.CategoryTeams[c] = leagueTable(entries, totals, c)
	}

	top := append([]CategoryRank(nil), report.AllRankings...)
	sort.SliceStable(top, func(a, b int) bool {
		if top[a].Rank != top[b].Rank {
			return top[a].Rank < top[b].Rank
		}
		return top[a].Value > top[b].Value
	})
	if len(top) > TopCategoryCount {
		top = top[:TopCategoryCount]
	}
	report.TopCategories = top
	return report, nil
}

func leagueTable(entries []TeamEntry, totals map[int]TeamTotals, c category.Category) []LeagueRow {
	rows := make([]LeagueRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, LeagueRow{
			Rank:     RankInCategory(totals, e.TeamID, c),
			TeamID:   e.TeamID,
			TeamName: e.TeamName,
			Value:    e.Totals.Get(c),
		})
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].Rank < rows[b].Rank
	})
	return rows
}
