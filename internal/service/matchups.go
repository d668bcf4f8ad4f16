package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/simulation"
)

// ErrNoMatchup is returned when the team has no opponent in the week.
var ErrNoMatchup = errors.New("no matchup for week")

// Winner labels of a category comparison.
const (
	WinnerMyTeam   = "my_team"
	WinnerOpponent = "opponent"
	WinnerTie      = "tie"
)

// MatchupSide is one team of a head-to-head week.
type MatchupSide struct {
	TeamID   int    `json:"team_id"`
	TeamName string `json:"team_name"`
	Wins     int    `json:"wins"`
}

// CategoryComparison is one category of a head-to-head week.
type CategoryComparison struct {
	Category      category.Category `json:"category"`
	MyValue       float64           `json:"my_value"`
	OpponentValue float64           `json:"opponent_value"`
	Winner        string            `json:"winner"`
}

// MatchupDetailsView compares a team with its opponent of one week.
type MatchupDetailsView struct {
	Week       int                  `json:"week"`
	MyTeam     MatchupSide          `json:"my_team"`
	Opponent   MatchupSide          `json:"opponent"`
	Ties       int                  `json:"ties"`
	Score      string               `json:"score"`
	Result     simulation.Outcome   `json:"result"`
	Categories []CategoryComparison `json:"categories"`
}

// MatchupRecord is one past week of a team's schedule.
type MatchupRecord struct {
	Week         int    `json:"week"`
	OpponentID   int    `json:"opponent_id"`
	OpponentName string `json:"opponent_name"`
	MyWins       int    `json:"my_wins"`
	OpponentWins int    `json:"opponent_wins"`
	Ties         int    `json:"ties"`
	Score        string `json:"score"`
	Result       string `json:"result"` // W, L or T
}

// MatchupHistoryView lists a team's completed weeks, newest first.
type MatchupHistoryView struct {
	TeamID   int             `json:"team_id"`
	TeamName string          `json:"team_name"`
	Wins     int             `json:"wins"`
	Losses   int             `json:"losses"`
	Ties     int             `json:"ties"`
	Matchups []MatchupRecord `json:"matchups"`
}

// MatchupDetails compares the team's box score with its opponent's,
// category by category. Week 0 selects the current week.
func (s *AnalyticsService) MatchupDetails(ctx context.Context, teamID, week int) (*MatchupDetailsView, error) {
	teams, err := s.source.Teams(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := findTeam(teams, teamID); !ok {
		return nil, fmt.Errorf("team %d: %w", teamID, ErrTeamNotFound)
	}
	if week <= 0 {
		if week, err = s.source.CurrentWeek(ctx); err != nil {
			return nil, err
		}
	}
	return s.headToHead(ctx, teams, teamID, week)
}

// MatchupHistory replays every completed week, i.e. weeks before the
// current one. Weeks without an opponent are skipped.
func (s *AnalyticsService) MatchupHistory(ctx context.Context, teamID int) (*MatchupHistoryView, error) {
	teams, err := s.source.Teams(ctx)
	if err != nil {
		return nil, err
	}
	team, ok := findTeam(teams, teamID)
	if !ok {
		return nil, fmt.Errorf("team %d: %w", teamID, ErrTeamNotFound)
	}
	current, err := s.source.CurrentWeek(ctx)
	if err != nil {
		return nil, err
	}

	view := &MatchupHistoryView{TeamID: team.ID, TeamName: team.Name, Matchups: []MatchupRecord{}}
	for week := current - 1; week >= 1; week-- {
		d, err := s.headToHead(ctx, teams, teamID, week)
		if errors.Is(err, ErrNoMatchup) {
			continue
		}
		if err != nil {
			return nil, err
		}

		rec := MatchupRecord{
			Week:         week,
			OpponentID:   d.Opponent.TeamID,
			OpponentName: d.Opponent.TeamName,
			MyWins:       d.MyTeam.Wins,
			OpponentWins: d.Opponent.Wins,
			Ties:         d.Ties,
			Score:        d.Score,
		}
		switch d.Result {
		case simulation.Win:
			rec.Result = "W"
			view.Wins++
		case simulation.Loss:
			rec.Result = "L"
			view.Losses++
		default:
			rec.Result = "T"
			view.Ties++
		}
		view.Matchups = append(view.Matchups, rec)
	}
	return view, nil
}

func (s *AnalyticsService) headToHead(ctx context.Context, teams []league.Team, teamID, week int) (*MatchupDetailsView, error) {
	mine, err := s.source.BoxScore(ctx, week, teamID)
	if err != nil {
		return nil, fmt.Errorf("box score week %d team %d: %w", week, teamID, err)
	}
	if mine == nil || mine.OpponentID == 0 {
		return nil, fmt.Errorf("team %d week %d: %w", teamID, week, ErrNoMatchup)
	}
	theirs, err := s.source.BoxScore(ctx, week, mine.OpponentID)
	if err != nil {
		return nil, fmt.Errorf("box score week %d team %d: %w", week, mine.OpponentID, err)
	}
	var theirTotals simulation.TeamTotals
	if theirs != nil {
		theirTotals = theirs.Totals
	}

	cats := category.All()
	myTotals := simulation.TeamTotals(mine.Totals)
	m := simulation.Compare(myTotals, theirTotals, cats, nil)
	ties := len(cats) - m.Wins1 - m.Wins2

	opponent, _ := findTeam(teams, mine.OpponentID)
	me, _ := findTeam(teams, teamID)
	view := &MatchupDetailsView{
		Week:       week,
		MyTeam:     MatchupSide{TeamID: teamID, TeamName: me.Name, Wins: m.Wins1},
		Opponent:   MatchupSide{TeamID: mine.OpponentID, TeamName: opponent.Name, Wins: m.Wins2},
		Ties:       ties,
		Score:      fmt.Sprintf("%d-%d-%d", m.Wins1, m.Wins2, ties),
		Result:     m.Result,
		Categories: make([]CategoryComparison, 0, len(cats)),
	}
	for _, c := range cats {
		winner := WinnerTie
		switch m.Categories[c] {
		case simulation.Win:
			winner = WinnerMyTeam
		case simulation.Loss:
			winner = WinnerOpponent
		}
		view.Categories = append(view.Categories, CategoryComparison{
			Category:      c,
			MyValue:       myTotals.Get(c),
			OpponentValue: theirTotals.Get(c),
			Winner:        winner,
		})
	}
	return view, nil
}

func findTeam(teams []league.Team, id int) (league.Team, bool) {
	for _, t := range teams {
		if t.ID == id {
			return t, true
		}
	}
	return league.Team{}, false
}
