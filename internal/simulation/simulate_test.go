package simulation

import (
	"fmt"
	"sort"
	"testing"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/zscore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id int, totals TeamTotals) TeamEntry {
	return TeamEntry{TeamID: id, TeamName: fmt.Sprintf("Team %d", id), Totals: totals}
}

func TestCompareCategory_TurnoversInverted(t *testing.T) {
	assert.Equal(t, Win, CompareCategory(category.Turnovers, 10, 14))
	assert.Equal(t, Loss, CompareCategory(category.Turnovers, 14, 10))
	assert.Equal(t, Loss, CompareCategory(category.Points, 10, 14))
	assert.Equal(t, Tie, CompareCategory(category.Points, 3, 3))
}

func TestCompare(t *testing.T) {
	a := TeamTotals{category.Points: 100, category.Rebounds: 40, category.Turnovers: 12}
	b := TeamTotals{category.Points: 90, category.Rebounds: 40, category.Turnovers: 15}

	m := Compare(a, b, []category.Category{category.Points, category.Rebounds, category.Turnovers}, nil)
	assert.Equal(t, Win, m.Result)
	assert.Equal(t, 2, m.Wins1)
	assert.Equal(t, 0, m.Wins2)
	assert.Equal(t, Tie, m.Categories[category.Rebounds])
	assert.Equal(t, Win, m.Categories[category.Turnovers])
	assert.Equal(t, "2-0", m.Score())

	inv := m.Invert()
	assert.Equal(t, Loss, inv.Result)
	assert.Equal(t, "0-2", inv.Score())
	assert.Equal(t, Loss, inv.Categories[category.Points])

	punted := Compare(a, b, []category.Category{category.Points, category.Rebounds}, category.NewSet(category.Points))
	assert.Equal(t, Tie, punted.Result, "only the tied REB is compared")
	_, ok := punted.Categories[category.Points]
	assert.False(t, ok)
}

func TestCompare_OnlyTurnoversDiffer(t *testing.T) {
	cats := append(category.All(), category.Turnovers)
	a := TeamTotals{category.Turnovers: 9}
	b := TeamTotals{category.Turnovers: 11}
	assert.Equal(t, Win, Compare(a, b, cats, nil).Result)
	assert.Equal(t, Loss, Compare(b, a, cats, nil).Result)
}

func fiveTeams() []TeamEntry {
	cats := category.All()
	var entries []TeamEntry
	for id := 1; id <= 5; id++ {
		totals := TeamTotals{}
		for i, c := range cats {
			totals[c] = float64((id*7 + i*3) % 5)
		}
		entries = append(entries, entry(id, totals))
	}
	return entries
}

func TestSimulate_Properties(t *testing.T) {
	entries := fiveTeams()
	standings := Simulate(entries, category.All(), nil)
	require.Len(t, standings, len(entries))

	for _, s := range standings {
		assert.Equal(t, len(entries)-1, s.Games(), "team %d", s.TeamID)
		assert.GreaterOrEqual(t, s.WinRate, 0.0)
		assert.LessOrEqual(t, s.WinRate, 1.0)
	}

	sorted := sort.SliceIsSorted(standings, func(i, j int) bool {
		if standings[i].WinRate != standings[j].WinRate {
			return standings[i].WinRate > standings[j].WinRate
		}
		return standings[i].Wins > standings[j].Wins
	})
	assert.True(t, sorted)
	for i, s := range standings {
		assert.Equal(t, i+1, s.Rank)
	}

	var wins, losses int
	for _, s := range standings {
		wins += s.Wins
		losses += s.Losses
	}
	assert.Equal(t, wins, losses)
}

func TestSimulate_Deterministic(t *testing.T) {
	assert.Equal(t, Simulate(fiveTeams(), category.All(), nil), Simulate(fiveTeams(), category.All(), nil))
}

func TestSimulate_SingleTeamHasZeroWinRate(t *testing.T) {
	standings := Simulate([]TeamEntry{entry(1, TeamTotals{category.Points: 10})}, category.All(), nil)
	require.Len(t, standings, 1)
	assert.Equal(t, 0.0, standings[0].WinRate)
	assert.Equal(t, 1, standings[0].Rank)
}

func TestSimulate_TiesBrokenByWinsThenInputOrder(t *testing.T) {
	cats := []category.Category{category.Points}
	entries := []TeamEntry{
		entry(1, TeamTotals{category.Points: 5}),
		entry(2, TeamTotals{category.Points: 5}),
		entry(3, TeamTotals{category.Points: 5}),
	}
	standings := Simulate(entries, cats, nil)
	for i, s := range standings {
		assert.Equal(t, i+1, s.TeamID, "all tied teams keep input order")
		assert.Equal(t, 0.5, s.WinRate)
		assert.Equal(t, 2, s.Ties)
	}
}

func TestSimulateDetailed_MatchupsMirror(t *testing.T) {
	entries := []TeamEntry{
		entry(1, TeamTotals{category.Points: 10, category.Rebounds: 1}),
		entry(2, TeamTotals{category.Points: 5, category.Rebounds: 2}),
	}
	cats := []category.Category{category.Points, category.Rebounds, category.Assists}
	detailed := SimulateDetailed(entries, cats, nil)
	require.Len(t, detailed, 2)

	byID := map[int]DetailedStanding{}
	for _, d := range detailed {
		byID[d.TeamID] = d
	}
	require.Len(t, byID[1].Matchups, 1)
	m1 := byID[1].Matchups[0]
	m2 := byID[2].Matchups[0]
	assert.Equal(t, 2, m1.OpponentID)
	assert.Equal(t, "Team 2", m1.OpponentName)
	assert.Equal(t, Tie, m1.Result)
	assert.Equal(t, "1-1", m1.Score)
	assert.Equal(t, Win, m1.Categories[category.Points])
	assert.Equal(t, Loss, m2.Categories[category.Points])
	assert.Equal(t, Tie, m2.Categories[category.Assists])
}

func TestThreeTeamExample(t *testing.T) {
	stats := []league.PlayerStatLine{
		{Name: "A", TeamID: 1, Stats: league.FromRaw(map[string]float64{"PTS": 30, "FGM": 10, "FGA": 20})},
		{Name: "B", TeamID: 2, Stats: league.FromRaw(map[string]float64{"PTS": 20, "FGM": 4, "FGA": 10})},
		{Name: "C", TeamID: 3, Stats: league.FromRaw(map[string]float64{"PTS": 10, "FGM": 1, "FGA": 2})},
	}
	players := Join(stats, zscore.Compute(stats))
	teams := []league.Team{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}

	entries, err := BuildEntries(teams, players, ModeZScores, nil)
	require.NoError(t, err)

	standings := Simulate(entries, []category.Category{category.Points, category.FieldGoalPct}, nil)
	require.Len(t, standings, 3)
	assert.Equal(t, 1, standings[0].TeamID)
	assert.Equal(t, 2, standings[0].Wins)
	assert.Equal(t, 0, standings[0].Losses)
	assert.Equal(t, 0, standings[0].Ties)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 1.0, standings[0].WinRate)
}

func TestBuildEntries_EmptyTeamStillRanked(t *testing.T) {
	teams := []league.Team{{ID: 1, Name: "Full"}, {ID: 2, Name: "Empty"}}
	players := []RosterPlayer{{
		Name:    "solo",
		TeamID:  1,
		ZScores: map[category.Category]float64{category.Points: 1},
		Stats:   league.FromRaw(map[string]float64{"PTS": 12, "TO": 2}),
	}}

	for _, mode := range []Mode{ModeZScores, ModeTeamStatsAvg} {
		t.Run(string(mode), func(t *testing.T) {
			entries, err := BuildEntries(teams, players, mode, nil)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			for _, c := range category.All() {
				assert.Equal(t, 0.0, entries[1].Totals.Get(c))
			}

			ranks := Ranks(Simulate(entries, category.All(), nil))
			assert.Contains(t, ranks, 2)
			assert.Equal(t, 1, ranks[1])
		})
	}

	_, err := BuildEntries(teams, players, ModeMatchup, nil)
	assert.Error(t, err)
}

func TestRawTotals_RecomputesRatios(t *testing.T) {
	players := []RosterPlayer{
		{Stats: league.FromRaw(map[string]float64{"PTS": 20, "TO": 3, "AST": 6, "FGM": 9, "FGA": 10, "FTM": 0, "FTA": 0})},
		{Stats: league.FromRaw(map[string]float64{"PTS": 10, "TO": 1, "AST": 2, "FGM": 1, "FGA": 10, "FTM": 0, "FTA": 0})},
	}
	totals := RawTotals(players, nil)

	assert.Equal(t, 30.0, totals.Get(category.Points))
	assert.Equal(t, 4.0, totals.Get(category.Turnovers))
	assert.InDelta(t, 0.5, totals.Get(category.FieldGoalPct), 1e-12, "summed makes over summed attempts")
	assert.Equal(t, 0.0, totals.Get(category.FreeThrowPct), "zero attempts resolves to 0")
	assert.InDelta(t, 2.0, totals.Get(category.AssistToTO), 1e-12)

	punted := RawTotals(players, category.NewSet(category.FieldGoalPct, category.Turnovers))
	_, ok := punted[category.FieldGoalPct]
	assert.False(t, ok)
	_, ok = punted[category.Turnovers]
	assert.False(t, ok)
}

func TestRawTotals_PercentagesAreFractions(t *testing.T) {
	players := []RosterPlayer{
		{Stats: league.FromRaw(map[string]float64{"FGM": 8, "FGA": 10, "FTM": 9, "FTA": 10, "3PM": 3, "3PA": 3})},
	}
	totals := RawTotals(players, nil)
	for _, c := range []category.Category{category.FieldGoalPct, category.FreeThrowPct, category.ThreePct} {
		assert.GreaterOrEqual(t, totals.Get(c), 0.0, "%s", c)
		assert.LessOrEqual(t, totals.Get(c), 1.0, "%s", c)
	}
	assert.InDelta(t, 0.8, totals.Get(category.FieldGoalPct), 1e-12)
	assert.InDelta(t, 1.0, totals.Get(category.ThreePct), 1e-12)
}

func TestAverageWeekly(t *testing.T) {
	weeks := []TeamTotals{
		{category.Points: 500, category.FieldGoalPct: 0.48},
		{category.Points: 600},
	}
	avg := AverageWeekly(weeks, []category.Category{category.Points, category.FieldGoalPct, category.Blocks})
	assert.Equal(t, 550.0, avg.Get(category.Points))
	assert.Equal(t, 0.48, avg.Get(category.FieldGoalPct), "only weeks reporting the category count")
	v, ok := avg[category.Blocks]
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeMatchup, m)

	m, err = ParseMode("z_scores")
	require.NoError(t, err)
	assert.Equal(t, ModeZScores, m)

	_, err = ParseMode("vibes")
	assert.Error(t, err)
}
