package espn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fortuna/juno/internal/league"
	"github.com/sirupsen/logrus"
)

// matchupTTL bounds how long one week's schedule response is reused across
// per-team box score lookups.
const matchupTTL = time.Minute

// Provider implements league.Provider on top of the fantasy API.
type Provider struct {
	client *Client

	mu       sync.Mutex
	matchups map[int]cachedWeek
}

type cachedWeek struct {
	resp      *LeagueResponse
	fetchedAt time.Time
}

// defaultFreeAgentLimit is the pool size fetched when callers pass no limit.
const defaultFreeAgentLimit = 200

var (
	_ league.Provider          = (*Provider)(nil)
	_ league.FreeAgentProvider = (*Provider)(nil)
)

// NewProvider wraps a client.
func NewProvider(client *Client) *Provider {
	return &Provider{
		client:   client,
		matchups: make(map[int]cachedWeek),
	}
}

// Teams returns every team in the league.
func (p *Provider) Teams(ctx context.Context) ([]league.Team, error) {
	resp, err := p.client.FetchLeague(ctx, "mTeam")
	if err != nil {
		return nil, err
	}
	return ParseTeams(resp), nil
}

// PlayerStats returns every rostered player's averages for a period.
func (p *Provider) PlayerStats(ctx context.Context, period league.Period) ([]league.PlayerStatLine, error) {
	resp, err := p.client.FetchLeague(ctx, "mTeam", "mRoster")
	if err != nil {
		return nil, err
	}
	players := ParsePlayerStats(resp, period)
	p.client.log.WithField("period", period.String()).
		WithField("players", len(players)).
		Info("✓ fetched player stats")
	return players, nil
}

// FreeAgents returns unrostered players with their averages for a period.
func (p *Provider) FreeAgents(ctx context.Context, period league.Period, position string, limit int) ([]league.PlayerStatLine, error) {
	if limit <= 0 {
		limit = defaultFreeAgentLimit
	}
	var slots []int
	if position != "" {
		id, ok := SlotID(position)
		if !ok {
			return nil, fmt.Errorf("%q: %w", position, league.ErrUnknownPosition)
		}
		slots = []int{id}
	}

	resp, err := p.client.FetchFreeAgents(ctx, slots, limit)
	if err != nil {
		return nil, err
	}
	players := ParseFreeAgents(resp, period)
	p.client.log.WithFields(logrus.Fields{
		"period":   period.String(),
		"position": position,
		"players":  len(players),
	}).Info("✓ fetched free agents")
	return players, nil
}

// CurrentWeek returns the league's current matchup period.
func (p *Provider) CurrentWeek(ctx context.Context) (int, error) {
	resp, err := p.client.FetchLeague(ctx, "mStatus")
	if err != nil {
		return 0, err
	}
	if resp.Status.CurrentMatchupPeriod <= 0 {
		return 0, fmt.Errorf("league %s reports no current matchup period", p.client.LeagueID())
	}
	return resp.Status.CurrentMatchupPeriod, nil
}

// BoxScore returns a team's totals for one week, or nil when the team had
// no matchup.
func (p *Provider) BoxScore(ctx context.Context, week, teamID int) (*league.TeamBoxScore, error) {
	if week <= 0 {
		return nil, fmt.Errorf("invalid week %d", week)
	}
	resp, err := p.weekMatchups(ctx, week)
	if err != nil {
		return nil, err
	}
	return ParseBoxScore(resp, week, teamID), nil
}

func (p *Provider) weekMatchups(ctx context.Context, week int) (*LeagueResponse, error) {
	p.mu.Lock()
	cached, ok := p.matchups[week]
	p.mu.Unlock()
	if ok && time.Since(cached.fetchedAt) < matchupTTL {
		return cached.resp, nil
	}

	resp, err := p.client.FetchMatchups(ctx, week)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.matchups[week] = cachedWeek{resp: resp, fetchedAt: time.Now()}
	p.mu.Unlock()
	return resp, nil
}
