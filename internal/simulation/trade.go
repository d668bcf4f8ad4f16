package simulation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
)

var (
	ErrUnknownPlayer   = errors.New("unknown player")
	ErrPlayerNotOnTeam = errors.New("player is not on the team")
	ErrUnknownTeam     = errors.New("unknown team")
	ErrDuplicateMove   = errors.New("player moved more than once")
	ErrSameTeam        = errors.New("player moved to the team it is already on")
)

// Move reassigns one player between teams.
type Move struct {
	PlayerName string `json:"player_name"`
	FromTeam   int    `json:"from_team"`
	ToTeam     int    `json:"to_team"`
}

// Baseline is the league state a trade is evaluated against. It is never
// modified by EvaluateTrade.
type Baseline struct {
	Teams   []league.Team
	Players []RosterPlayer
	// Categories compared in simulations; category.All() when empty.
	Categories []category.Category
}

func (b Baseline) categories() []category.Category {
	if len(b.Categories) == 0 {
		return category.All()
	}
	return b.Categories
}

func (b Baseline) teamName(id int) (string, bool) {
	for _, t := range b.Teams {
		if t.ID == id {
			return t.Name, true
		}
	}
	return "", false
}

// Delta is a before/after pair and their difference.
type Delta[T int | float64] struct {
	Before T `json:"before"`
	After  T `json:"after"`
	Delta  T `json:"delta"`
}

func newDelta[T int | float64](before, after T) Delta[T] {
	return Delta[T]{Before: before, After: after, Delta: after - before}
}

// TeamImpact is how a trade changes one team.
type TeamImpact struct {
	TeamID          int                                  `json:"team_id"`
	TeamName        string                               `json:"team_name"`
	Affected        bool                                 `json:"affected"`
	TotalZ          Delta[float64]                       `json:"total_z"`
	Categories      map[category.Category]Delta[float64] `json:"categories"`
	RawCategories   map[category.Category]Delta[float64] `json:"raw_categories"`
	ZScoreRank      Delta[int]                           `json:"z_score_rank"`
	StatsRank       Delta[int]                           `json:"team_stats_rank"`
	CategoryRanks   map[category.Category]Delta[int]     `json:"category_ranks"`
	PlayersGiven    []string                             `json:"players_given"`
	PlayersReceived []string                             `json:"players_received"`
}

// TradeReport is the full before/after comparison of a trade.
type TradeReport struct {
	Moves []Move       `json:"moves"`
	Teams []TeamImpact `json:"teams"`

	ZScoreBefore []Standing `json:"z_score_standings_before"`
	ZScoreAfter  []Standing `json:"z_score_standings_after"`
	StatsBefore  []Standing `json:"team_stats_standings_before"`
	StatsAfter   []Standing `json:"team_stats_standings_after"`
}

// Affected returns the impacts of teams that gave or received a player.
func (r *TradeReport) Affected() []TeamImpact {
	out := make([]TeamImpact, 0, len(r.Teams))
	for _, t := range r.Teams {
		if t.Affected {
			out = append(out, t)
		}
	}
	return out
}

// Team returns the impact for one team.
func (r *TradeReport) Team(id int) (TeamImpact, bool) {
	for _, t := range r.Teams {
		if t.TeamID == id {
			return t, true
		}
	}
	return TeamImpact{}, false
}

// ApplyMoves validates moves against the baseline and returns a new player
// slice with the moved players reassigned.
func ApplyMoves(b Baseline, moves []Move) ([]RosterPlayer, error) {
	seen := make(map[string]bool, len(moves))
	dest := make(map[int]Move, len(moves))

	for _, m := range moves {
		key := strings.ToLower(m.PlayerName)
		if seen[key] {
			return nil, fmt.Errorf("moving %q: %w", m.PlayerName, ErrDuplicateMove)
		}
		seen[key] = true

		if _, ok := b.teamName(m.FromTeam); !ok {
			return nil, fmt.Errorf("moving %q from team %d: %w", m.PlayerName, m.FromTeam, ErrUnknownTeam)
		}
		if _, ok := b.teamName(m.ToTeam); !ok {
			return nil, fmt.Errorf("moving %q to team %d: %w", m.PlayerName, m.ToTeam, ErrUnknownTeam)
		}
		if m.FromTeam == m.ToTeam {
			return nil, fmt.Errorf("moving %q: %w", m.PlayerName, ErrSameTeam)
		}

		idx, err := findPlayer(b.Players, m)
		if err != nil {
			return nil, err
		}
		dest[idx] = m
	}

	after := make([]RosterPlayer, len(b.Players))
	copy(after, b.Players)
	for idx, m := range dest {
		name, _ := b.teamName(m.ToTeam)
		after[idx].TeamID = m.ToTeam
		after[idx].TeamName = name
	}
	return after, nil
}

func findPlayer(players []RosterPlayer, m Move) (int, error) {
	found := false
	for i, p := range players {
		if p.Name != m.PlayerName {
			continue
		}
		if p.TeamID == m.FromTeam {
			return i, nil
		}
		found = true
	}
	if found {
		return -1, fmt.Errorf("moving %q from team %d: %w", m.PlayerName, m.FromTeam, ErrPlayerNotOnTeam)
	}
	return -1, fmt.Errorf("moving %q: %w", m.PlayerName, ErrUnknownPlayer)
}

type leagueState struct {
	zTotals     map[int]TeamTotals
	rawTotals   map[int]TeamTotals
	zStandings  []Standing
	rawStanding []Standing
}

func evaluate(b Baseline, players []RosterPlayer, punt category.Set) leagueState {
	cats := b.categories()
	zEntries, _ := BuildEntries(b.Teams, players, ModeZScores, punt)
	rawEntries, _ := BuildEntries(b.Teams, players, ModeTeamStatsAvg, punt)
	return leagueState{
		zTotals:     TotalsByTeam(zEntries),
		rawTotals:   TotalsByTeam(rawEntries),
		zStandings:  Simulate(zEntries, cats, punt),
		rawStanding: Simulate(rawEntries, cats, punt),
	}
}

// EvaluateTrade runs both aggregation modes over the baseline and over the
// league after the moves, and reports the change for every team.
func EvaluateTrade(b Baseline, moves []Move, punt category.Set) (*TradeReport, error) {
	after, err := ApplyMoves(b, moves)
	if err != nil {
		return nil, err
	}

	before := evaluate(b, b.Players, punt)
	post := evaluate(b, after, punt)

	given := map[int][]string{}
	received := map[int][]string{}
	for _, m := range moves {
		given[m.FromTeam] = append(given[m.FromTeam], m.PlayerName)
		received[m.ToTeam] = append(received[m.ToTeam], m.PlayerName)
	}

	zRankBefore, zRankAfter := Ranks(before.zStandings), Ranks(post.zStandings)
	rawRankBefore, rawRankAfter := Ranks(before.rawStanding), Ranks(post.rawStanding)
	active := punt.Active(b.categories())

	report := &TradeReport{
		Moves:        append([]Move(nil), moves...),
		Teams:        make([]TeamImpact, 0, len(b.Teams)),
		ZScoreBefore: before.zStandings,
		ZScoreAfter:  post.zStandings,
		StatsBefore:  before.rawStanding,
		StatsAfter:   post.rawStanding,
	}

	for _, t := range b.Teams {
		zb, za := before.zTotals[t.ID], post.zTotals[t.ID]
		rb, ra := before.rawTotals[t.ID], post.rawTotals[t.ID]

		impact := TeamImpact{
			TeamID:          t.ID,
			TeamName:        t.Name,
			Affected:        len(given[t.ID]) > 0 || len(received[t.ID]) > 0,
			Categories:      make(map[category.Category]Delta[float64], len(active)),
			RawCategories:   make(map[category.Category]Delta[float64], len(active)),
			CategoryRanks:   make(map[category.Category]Delta[int], len(active)),
			ZScoreRank:      newDelta(zRankBefore[t.ID], zRankAfter[t.ID]),
			StatsRank:       newDelta(rawRankBefore[t.ID], rawRankAfter[t.ID]),
			PlayersGiven:    nonNil(given[t.ID]),
			PlayersReceived: nonNil(received[t.ID]),
		}

		var totalBefore, totalAfter float64
		for _, c := range active {
			totalBefore += zb.Get(c)
			totalAfter += za.Get(c)
			impact.Categories[c] = newDelta(zb.Get(c), za.Get(c))
			impact.RawCategories[c] = newDelta(rb.Get(c), ra.Get(c))
			impact.CategoryRanks[c] = newDelta(
				RankInCategory(before.rawTotals, t.ID, c),
				RankInCategory(post.rawTotals, t.ID, c),
			)
		}
		impact.TotalZ = newDelta(totalBefore, totalAfter)

		report.Teams = append(report.Teams, impact)
	}
	return report, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// PackageComparison compares only the players changing hands: before is
// the package a team gives, after is the package it receives.
type PackageComparison struct {
	TotalZ        Delta[float64]                       `json:"total_z"`
	Categories    map[category.Category]Delta[float64] `json:"categories"`
	RawCategories map[category.Category]Delta[float64] `json:"raw_categories"`
}

// ComparePackages aggregates the given and received players on their own.
func ComparePackages(give, receive []RosterPlayer, punt category.Set) PackageComparison {
	zGive, zRecv := ZScoreTotals(give, punt), ZScoreTotals(receive, punt)
	rawGive, rawRecv := RawTotals(give, punt), RawTotals(receive, punt)

	active := punt.Active(category.All())
	pc := PackageComparison{
		Categories:    make(map[category.Category]Delta[float64], len(active)),
		RawCategories: make(map[category.Category]Delta[float64], len(active)),
	}
	var before, after float64
	for _, c := range active {
		before += zGive.Get(c)
		after += zRecv.Get(c)
		pc.Categories[c] = newDelta(zGive.Get(c), zRecv.Get(c))
		pc.RawCategories[c] = newDelta(rawGive.Get(c), rawRecv.Get(c))
	}
	pc.TotalZ = newDelta(before, after)
	return pc
}
