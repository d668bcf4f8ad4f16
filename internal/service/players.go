package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/zscore"
)

// ErrPlayerNotFound is returned for names on no roster and outside the
// free agent pool.
var ErrPlayerNotFound = errors.New("player not found")

// freeAgentPoolSize bounds the free agent lookup behind player views.
const freeAgentPoolSize = 200

// trendWindows are reported shortest first, the season total last.
var trendWindows = []struct {
	window league.Window
	label  string
}{
	{league.WindowLast7, "Last 7 days"},
	{league.WindowLast15, "Last 15 days"},
	{league.WindowLast30, "Last 30 days"},
	{league.WindowTotal, "Season"},
}

// FreeAgentQuery filters FreeAgents.
type FreeAgentQuery struct {
	Period   league.Period
	Position string
	Punt     category.Set
	Limit    int // 0 for the whole pool
}

// FreeAgentsView ranks unrostered players against the rostered league.
type FreeAgentsView struct {
	Period        string         `json:"period"`
	Position      string         `json:"position,omitempty"`
	Players       []PlayerRow    `json:"players"`
	LeagueMetrics zscore.Metrics `json:"league_metrics"`
}

// TrendPoint is one period of a player's trend.
type TrendPoint struct {
	Period  string                        `json:"period"`
	Label   string                        `json:"label"`
	Stats   league.StatLine               `json:"stats"`
	ZScores map[category.Category]float64 `json:"z_scores"`
	TotalZ  float64                       `json:"total_z_score"`
}

// PlayerTrendsView shows how a player's value moves across recent windows.
type PlayerTrendsView struct {
	PlayerName string       `json:"player_name"`
	FreeAgent  bool         `json:"free_agent"`
	Trends     []TrendPoint `json:"trends"`
}

// PlayerBalanceView is one player's z-score per category.
type PlayerBalanceView struct {
	PlayerName string         `json:"player_name"`
	Period     string         `json:"period"`
	FreeAgent  bool           `json:"free_agent"`
	Data       []BalancePoint `json:"data"`
}

// FreeAgents scores the free agent pool with the metrics of the rostered
// players, so values compare directly with AllPlayers.
func (s *AnalyticsService) FreeAgents(ctx context.Context, q FreeAgentQuery) (*FreeAgentsView, error) {
	snap, err := s.source.Get(ctx, q.Period)
	if err != nil {
		return nil, err
	}
	pool, err := s.source.FreeAgents(ctx, snap.Period, q.Position, freeAgentPoolSize)
	if err != nil {
		return nil, err
	}

	metrics := zscore.Compute(snap.Players).LeagueMetrics
	rows := make([]PlayerRow, 0, len(pool))
	for _, p := range pool {
		zs := zscore.Score(p.Stats, metrics)
		rows = append(rows, PlayerRow{
			Name:         p.Name,
			Position:     p.Position,
			LineupSlot:   p.LineupSlot,
			InjuryStatus: p.InjuryStatus,
			TotalZ:       zscore.PlayerZScores{ZScores: zs}.Total(q.Punt),
			ZScores:      zs,
			Stats:        p.Stats,
		})
	}
	rankRows(rows)
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	return &FreeAgentsView{
		Period:        snap.Period.String(),
		Position:      q.Position,
		Players:       rows,
		LeagueMetrics: metrics,
	}, nil
}

// PlayerTrends reports the player's stats and z-scores over the last 7, 15
// and 30 days and the season. Windows the player has no line in are
// skipped.
func (s *AnalyticsService) PlayerTrends(ctx context.Context, name string) (*PlayerTrendsView, error) {
	view := &PlayerTrendsView{PlayerName: name, Trends: []TrendPoint{}}
	for _, tw := range trendWindows {
		period := league.Period{Season: s.source.Season(), Window: tw.window}
		found, err := s.scorePlayer(ctx, period, name)
		if err != nil {
			return nil, err
		}
		if found == nil {
			continue
		}
		view.FreeAgent = found.freeAgent
		view.Trends = append(view.Trends, TrendPoint{
			Period:  period.String(),
			Label:   tw.label,
			Stats:   found.line.Stats,
			ZScores: found.zscores,
			TotalZ:  zscore.PlayerZScores{ZScores: found.zscores}.Total(nil),
		})
	}
	if len(view.Trends) == 0 {
		return nil, fmt.Errorf("%q: %w", name, ErrPlayerNotFound)
	}
	return view, nil
}

// PlayerBalance is the radar of one player: every category, 0 where the
// player has no z-score.
func (s *AnalyticsService) PlayerBalance(ctx context.Context, name string, period league.Period) (*PlayerBalanceView, error) {
	if period == (league.Period{}) {
		period = s.source.DefaultPeriod()
	}
	found, err := s.scorePlayer(ctx, period, name)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrPlayerNotFound)
	}

	view := &PlayerBalanceView{
		PlayerName: name,
		Period:     period.String(),
		FreeAgent:  found.freeAgent,
		Data:       make([]BalancePoint, 0, len(category.All())),
	}
	for _, c := range category.All() {
		view.Data = append(view.Data, BalancePoint{Category: c, Value: found.zscores[c]})
	}
	return view, nil
}

type scoredPlayer struct {
	line      league.PlayerStatLine
	zscores   map[category.Category]float64
	freeAgent bool
}

// scorePlayer finds name among the rostered players of period, then in the
// free agent pool scored against the rostered metrics. It returns nil when
// neither has the player.
func (s *AnalyticsService) scorePlayer(ctx context.Context, period league.Period, name string) (*scoredPlayer, error) {
	snap, err := s.source.Get(ctx, period)
	if err != nil {
		return nil, err
	}
	res := zscore.Compute(snap.Players)
	for i, p := range snap.Players {
		if p.Name == name {
			return &scoredPlayer{line: p, zscores: res.Players[i].ZScores}, nil
		}
	}

	pool, err := s.source.FreeAgents(ctx, snap.Period, "", freeAgentPoolSize)
	if errors.Is(err, ErrFreeAgentsUnsupported) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for _, p := range pool {
		if p.Name == name {
			return &scoredPlayer{line: p, zscores: zscore.Score(p.Stats, res.LeagueMetrics), freeAgent: true}, nil
		}
	}
	return nil, nil
}
