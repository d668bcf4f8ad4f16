package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/logger"
	"github.com/fortuna/juno/internal/roster"
	"github.com/fortuna/juno/internal/simulation"
	"github.com/fortuna/juno/internal/zscore"
	"github.com/sirupsen/logrus"
)

// ErrTeamNotFound is returned for team ids the league does not have.
var ErrTeamNotFound = errors.New("team not found")

// topPlayerCount is how many players the dashboard highlights.
const topPlayerCount = 3

// PlayerRow is a player with stats, z-scores and league rank.
type PlayerRow struct {
	Rank         int                           `json:"rank"`
	Name         string                        `json:"name"`
	Position     string                        `json:"position"`
	TeamID       int                           `json:"fantasy_team_id"`
	TeamName     string                        `json:"fantasy_team"`
	LineupSlot   string                        `json:"lineup_slot,omitempty"`
	InjuryStatus string                        `json:"injury_status,omitempty"`
	TotalZ       float64                       `json:"total_z_score"`
	ZScores      map[category.Category]float64 `json:"z_scores"`
	Stats        league.StatLine               `json:"stats"`
}

// ZScoreView is the league-wide z-score table of one snapshot.
type ZScoreView struct {
	Period        string                 `json:"period"`
	SnapshotID    string                 `json:"snapshot_id"`
	FetchedAt     time.Time              `json:"fetched_at"`
	Players       []zscore.PlayerZScores `json:"players"`
	LeagueMetrics zscore.Metrics         `json:"league_metrics"`
}

// PlayersQuery filters AllPlayers.
type PlayersQuery struct {
	Period    league.Period
	ExcludeIR bool
	TeamID    int // 0 for the whole league
	Punt      category.Set
	Limit     int // 0 for no limit
}

// PlayersView is a ranked player list.
type PlayersView struct {
	Period        string         `json:"period"`
	Players       []PlayerRow    `json:"players"`
	LeagueMetrics zscore.Metrics `json:"league_metrics"`
}

// TeamAnalyticsView is one team's players with league context.
type TeamAnalyticsView struct {
	TeamID        int            `json:"team_id"`
	TeamName      string         `json:"team_name"`
	Period        string         `json:"period"`
	Players       []PlayerRow    `json:"players"`
	LeagueMetrics zscore.Metrics `json:"league_metrics"`
}

// BalanceQuery selects the roster shape for TeamBalance.
type BalanceQuery struct {
	TeamID        int
	Period        league.Period
	Scope         roster.Scope
	Cap           int
	CustomPlayers []string
}

// BalancePoint is one radar axis.
type BalancePoint struct {
	Category category.Category `json:"category"`
	Value    float64           `json:"value"`
}

// BalanceView is the summed z per category for one team.
type BalanceView struct {
	TeamID   int            `json:"team_id"`
	TeamName string         `json:"team_name"`
	Period   string         `json:"period"`
	Scope    roster.Scope   `json:"scope"`
	Data     []BalancePoint `json:"data"`
}

// MatchupInfo names the current opponent.
type MatchupInfo struct {
	Week         int    `json:"week"`
	OpponentID   int    `json:"opponent_id"`
	OpponentName string `json:"opponent_name"`
}

// InjuredPlayer is a dashboard injury line.
type InjuredPlayer struct {
	Name         string `json:"name"`
	Position     string `json:"position"`
	InjuryStatus string `json:"injury_status"`
	InIR         bool   `json:"in_ir"`
}

// DashboardView summarises one team.
type DashboardView struct {
	TeamID         int             `json:"team_id"`
	TeamName       string          `json:"team_name"`
	Period         string          `json:"period"`
	RosterSize     int             `json:"roster_size"`
	TotalZ         float64         `json:"total_z_score"`
	SimulatedRank  int             `json:"simulated_rank"`
	CurrentMatchup *MatchupInfo    `json:"current_matchup"`
	TopPlayers     []PlayerRow     `json:"top_players"`
	InjuredPlayers []InjuredPlayer `json:"injured_players"`
}

// WeekPosition is a team's simulated finish in one week.
type WeekPosition struct {
	Week     int     `json:"week"`
	Position int     `json:"position"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Ties     int     `json:"ties"`
	WinRate  float64 `json:"win_rate"`
}

// PositionHistoryView is the per-week finish of one team.
type PositionHistoryView struct {
	TeamID   int            `json:"team_id"`
	TeamName string         `json:"team_name"`
	History  []WeekPosition `json:"history"`
}

// WeeksView lists the weeks with matchup data.
type WeeksView struct {
	Weeks       []int `json:"weeks"`
	CurrentWeek int   `json:"current_week"`
}

// AnalyticsService answers the read-only league questions.
type AnalyticsService struct {
	source *SnapshotSource
	log    *logrus.Entry
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(source *SnapshotSource) *AnalyticsService {
	return &AnalyticsService{
		source: source,
		log:    logger.WithComponent("analytics"),
	}
}

// Teams lists the league's teams.
func (s *AnalyticsService) Teams(ctx context.Context) ([]league.Team, error) {
	return s.source.Teams(ctx)
}

// ZScores computes the league z-score table for a period.
func (s *AnalyticsService) ZScores(ctx context.Context, period league.Period, excludeIR bool) (*ZScoreView, error) {
	snap, err := s.source.Get(ctx, period)
	if err != nil {
		return nil, err
	}
	res := zscore.Compute(snap.Filter(excludeIR))
	return &ZScoreView{
		Period:        snap.Period.String(),
		SnapshotID:    snap.ID.String(),
		FetchedAt:     snap.FetchedAt,
		Players:       res.Players,
		LeagueMetrics: res.LeagueMetrics,
	}, nil
}

// AllPlayers ranks every player by total z over the non-punted categories.
// Ranks are league-wide, so a team filter keeps each player's league rank.
func (s *AnalyticsService) AllPlayers(ctx context.Context, q PlayersQuery) (*PlayersView, error) {
	snap, err := s.source.Get(ctx, q.Period)
	if err != nil {
		return nil, err
	}
	if q.TeamID != 0 {
		if _, ok := snap.Team(q.TeamID); !ok {
			return nil, fmt.Errorf("team %d: %w", q.TeamID, ErrTeamNotFound)
		}
	}

	players := snap.Filter(q.ExcludeIR)
	res := zscore.Compute(players)
	rows := rankedRows(players, res, q.Punt)

	out := make([]PlayerRow, 0, len(rows))
	for _, r := range rows {
		if q.TeamID != 0 && r.TeamID != q.TeamID {
			continue
		}
		out = append(out, r)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return &PlayersView{
		Period:        snap.Period.String(),
		Players:       out,
		LeagueMetrics: res.LeagueMetrics,
	}, nil
}

func rankedRows(players []league.PlayerStatLine, res zscore.Result, punt category.Set) []PlayerRow {
	byName := res.ByName()
	rows := make([]PlayerRow, 0, len(players))
	for _, p := range players {
		z := byName[p.Name]
		zs := z.ZScores
		if zs == nil {
			zs = map[category.Category]float64{}
		}
		rows = append(rows, PlayerRow{
			Name:         p.Name,
			Position:     p.Position,
			TeamID:       p.TeamID,
			TeamName:     p.TeamName,
			LineupSlot:   p.LineupSlot,
			InjuryStatus: p.InjuryStatus,
			TotalZ:       z.Total(punt),
			ZScores:      zs,
			Stats:        p.Stats,
		})
	}
	rankRows(rows)
	return rows
}

// rankRows orders rows by total z, ties by name, and numbers them from 1.
func rankRows(rows []PlayerRow) {
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].TotalZ != rows[b].TotalZ {
			return rows[a].TotalZ > rows[b].TotalZ
		}
		return rows[a].Name < rows[b].Name
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

// TeamAnalytics returns one team's players with their stats and z-scores.
func (s *AnalyticsService) TeamAnalytics(ctx context.Context, teamID int, period league.Period, excludeIR bool) (*TeamAnalyticsView, error) {
	view, err := s.AllPlayers(ctx, PlayersQuery{Period: period, ExcludeIR: excludeIR, TeamID: teamID})
	if err != nil {
		return nil, err
	}
	snap, err := s.source.Get(ctx, period)
	if err != nil {
		return nil, err
	}
	return &TeamAnalyticsView{
		TeamID:        teamID,
		TeamName:      snap.TeamName(teamID),
		Period:        view.Period,
		Players:       view.Players,
		LeagueMetrics: view.LeagueMetrics,
	}, nil
}

// TeamBalance sums the team's z-scores per category after roster shaping.
// Every category is reported; punting does not apply to the radar.
func (s *AnalyticsService) TeamBalance(ctx context.Context, q BalanceQuery) (*BalanceView, error) {
	snap, err := s.source.Get(ctx, q.Period)
	if err != nil {
		return nil, err
	}
	team, ok := snap.Team(q.TeamID)
	if !ok {
		return nil, fmt.Errorf("team %d: %w", q.TeamID, ErrTeamNotFound)
	}

	players := snap.Filter(q.Scope == roster.ScopeExcludeIR)
	joined := simulation.Join(players, zscore.Compute(players))
	opts := roster.Options{Scope: q.Scope, Cap: q.Cap}
	if len(q.CustomPlayers) > 0 {
		opts.CustomTeamID, opts.CustomPlayers = q.TeamID, q.CustomPlayers
	}
	shaped := roster.Shape(joined, opts, nil)

	var mine []simulation.RosterPlayer
	for _, p := range shaped {
		if p.TeamID == q.TeamID {
			mine = append(mine, p)
		}
	}
	totals := simulation.ZScoreTotals(mine, nil)

	view := &BalanceView{
		TeamID:   team.ID,
		TeamName: team.Name,
		Period:   snap.Period.String(),
		Scope:    q.Scope,
		Data:     make([]BalancePoint, 0, len(category.All())),
	}
	for _, c := range category.All() {
		view.Data = append(view.Data, BalancePoint{Category: c, Value: totals.Get(c)})
	}
	return view, nil
}

// CategoryRankings ranks the team in every category by raw per-game team
// totals, ratio categories recomputed from makes and attempts.
func (s *AnalyticsService) CategoryRankings(ctx context.Context, teamID int, period league.Period, excludeIR bool, punt category.Set) (*simulation.CategoryReport, error) {
	snap, err := s.source.Get(ctx, period)
	if err != nil {
		return nil, err
	}
	joined := simulation.Join(snap.Filter(excludeIR), zscore.Result{})
	entries, err := simulation.BuildEntries(snap.Teams, joined, simulation.ModeTeamStatsAvg, punt)
	if err != nil {
		return nil, err
	}
	report, err := simulation.CategoryRankings(entries, teamID, category.All(), punt)
	if errors.Is(err, simulation.ErrUnknownTeam) {
		return nil, fmt.Errorf("team %d: %w", teamID, ErrTeamNotFound)
	}
	return report, err
}

// Dashboard summarises a team: roster size, total z, strongest players,
// injuries, z-score simulation rank and the current opponent.
func (s *AnalyticsService) Dashboard(ctx context.Context, teamID int, period league.Period, excludeIR bool) (*DashboardView, error) {
	snap, err := s.source.Get(ctx, period)
	if err != nil {
		return nil, err
	}
	team, ok := snap.Team(teamID)
	if !ok {
		return nil, fmt.Errorf("team %d: %w", teamID, ErrTeamNotFound)
	}

	players := snap.Filter(excludeIR)
	res := zscore.Compute(players)
	view := &DashboardView{
		TeamID:         team.ID,
		TeamName:       team.Name,
		Period:         snap.Period.String(),
		TopPlayers:     []PlayerRow{},
		InjuredPlayers: []InjuredPlayer{},
	}

	for _, r := range rankedRows(players, res, nil) {
		if r.TeamID != teamID {
			continue
		}
		view.TotalZ += r.TotalZ
		if len(view.TopPlayers) < topPlayerCount {
			view.TopPlayers = append(view.TopPlayers, r)
		}
	}

	for _, p := range snap.Players {
		if p.TeamID != teamID {
			continue
		}
		view.RosterSize++
		status := strings.ToUpper(p.InjuryStatus)
		if p.OnInjuredReserve() || (status != "" && status != "ACTIVE") {
			view.InjuredPlayers = append(view.InjuredPlayers, InjuredPlayer{
				Name:         p.Name,
				Position:     p.Position,
				InjuryStatus: p.InjuryStatus,
				InIR:         p.OnInjuredReserve(),
			})
		}
	}

	entries, err := simulation.BuildEntries(snap.Teams, simulation.Join(players, res), simulation.ModeZScores, nil)
	if err != nil {
		return nil, err
	}
	view.SimulatedRank = simulation.Ranks(simulation.Simulate(entries, category.All(), nil))[teamID]

	view.CurrentMatchup = s.currentMatchup(ctx, snap, teamID)
	return view, nil
}

func (s *AnalyticsService) currentMatchup(ctx context.Context, snap *league.Snapshot, teamID int) *MatchupInfo {
	week, err := s.source.CurrentWeek(ctx)
	if err != nil {
		s.log.WithError(err).Warn("⚠️  current week unavailable")
		return nil
	}
	box, err := s.source.BoxScore(ctx, week, teamID)
	if err != nil {
		s.log.WithError(err).WithField("week", week).Warn("⚠️  current matchup unavailable")
		return nil
	}
	if box == nil || box.OpponentID == 0 {
		return nil
	}
	return &MatchupInfo{
		Week:         week,
		OpponentID:   box.OpponentID,
		OpponentName: snap.TeamName(box.OpponentID),
	}
}

// PositionHistory simulates each completed week on its box scores alone
// and reports where the team finished. Weeks in which the team has no box
// score are skipped.
func (s *AnalyticsService) PositionHistory(ctx context.Context, teamID int) (*PositionHistoryView, error) {
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

	view := &PositionHistoryView{TeamID: teamID, TeamName: team.Name, History: []WeekPosition{}}
	cats := category.All()
	for week := 1; week <= current; week++ {
		entries, present, err := weekEntries(ctx, s.source, teams, []int{week}, cats)
		if err != nil {
			return nil, err
		}
		if !present[teamID] {
			continue
		}
		for _, st := range simulation.Simulate(entries, cats, nil) {
			if st.TeamID == teamID {
				view.History = append(view.History, WeekPosition{
					Week:     week,
					Position: st.Rank,
					Wins:     st.Wins,
					Losses:   st.Losses,
					Ties:     st.Ties,
					WinRate:  st.WinRate,
				})
			}
		}
	}
	return view, nil
}

// Weeks lists weeks 1 through the current matchup week.
func (s *AnalyticsService) Weeks(ctx context.Context) (*WeeksView, error) {
	current, err := s.source.CurrentWeek(ctx)
	if err != nil {
		return nil, err
	}
	weeks := make([]int, 0, current)
	for w := 1; w <= current; w++ {
		weeks = append(weeks, w)
	}
	return &WeeksView{Weeks: weeks, CurrentWeek: current}, nil
}

// boxScores is the part of SnapshotSource weekEntries needs.
type boxScores interface {
	BoxScore(ctx context.Context, week, teamID int) (*league.TeamBoxScore, error)
}

// weekEntries averages each team's box-score totals over weeks. Teams with
// no box score in any of the weeks get zero totals; present reports which
// teams had at least one.
func weekEntries(ctx context.Context, src boxScores, teams []league.Team, weeks []int, cats []category.Category) ([]simulation.TeamEntry, map[int]bool, error) {
	present := make(map[int]bool, len(teams))
	entries := make([]simulation.TeamEntry, 0, len(teams))
	for _, t := range teams {
		var totals []simulation.TeamTotals
		for _, w := range weeks {
			box, err := src.BoxScore(ctx, w, t.ID)
			if err != nil {
				return nil, nil, fmt.Errorf("box score week %d team %d: %w", w, t.ID, err)
			}
			if box != nil && len(box.Totals) > 0 {
				totals = append(totals, simulation.TeamTotals(box.Totals))
			}
		}
		present[t.ID] = len(totals) > 0
		entries = append(entries, simulation.TeamEntry{
			TeamID:   t.ID,
			TeamName: t.Name,
			Totals:   simulation.AverageWeekly(totals, cats),
		})
	}
	return entries, present, nil
}
