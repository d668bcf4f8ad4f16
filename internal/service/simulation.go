package service

import (
	"context"
	"fmt"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/roster"
	"github.com/fortuna/juno/internal/simulation"
	"github.com/fortuna/juno/internal/zscore"
)

// SimulationRequest selects how a league simulation is built.
type SimulationRequest struct {
	Week int
	// WeeksCount is how many weeks ending at Week matchup mode averages.
	// Zero means every week up to Week.
	WeeksCount int
	Mode       simulation.Mode
	Period     league.Period
	Scope      roster.Scope
	// Cap applies in top_n scope; the service default when <= 0.
	Cap           int
	CustomTeamID  int
	CustomPlayers []string
	Punt          category.Set
}

// SimulationResult is a ranked league table.
type SimulationResult struct {
	Week       int                   `json:"week"`
	WeeksCount int                   `json:"weeks_count,omitempty"`
	Mode       simulation.Mode       `json:"mode"`
	Period     string                `json:"period,omitempty"`
	Scope      roster.Scope          `json:"simulation_mode,omitempty"`
	Punt       []string              `json:"punt_categories"`
	Standings  []simulation.Standing `json:"results"`
}

// DetailedSimulationResult adds every team's head-to-head lines.
type DetailedSimulationResult struct {
	Week       int                           `json:"week"`
	WeeksCount int                           `json:"weeks_count,omitempty"`
	Mode       simulation.Mode               `json:"mode"`
	Period     string                        `json:"period,omitempty"`
	Scope      roster.Scope                  `json:"simulation_mode,omitempty"`
	Punt       []string                      `json:"punt_categories"`
	Standings  []simulation.DetailedStanding `json:"results"`
}

// SimulationService runs all-play-all simulations on live league data.
type SimulationService struct {
	source     *SnapshotSource
	defaultCap int
}

// NewSimulationService creates a simulation service. defaultCap is the
// per-team player count of top_n scope.
func NewSimulationService(source *SnapshotSource, defaultCap int) *SimulationService {
	if defaultCap <= 0 {
		defaultCap = roster.DefaultCap
	}
	return &SimulationService{source: source, defaultCap: defaultCap}
}

// Simulate returns the ranked standings.
func (s *SimulationService) Simulate(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	entries, req, err := s.entries(ctx, req)
	if err != nil {
		return nil, err
	}
	res := &SimulationResult{
		Week:      req.Week,
		Mode:      req.Mode,
		Punt:      req.Punt.Strings(),
		Standings: simulation.Simulate(entries, category.All(), req.Punt),
	}
	res.WeeksCount, res.Period, res.Scope = describe(req)
	return res, nil
}

// SimulateDetailed returns standings with per-opponent matchup lines.
func (s *SimulationService) SimulateDetailed(ctx context.Context, req SimulationRequest) (*DetailedSimulationResult, error) {
	entries, req, err := s.entries(ctx, req)
	if err != nil {
		return nil, err
	}
	res := &DetailedSimulationResult{
		Week:      req.Week,
		Mode:      req.Mode,
		Punt:      req.Punt.Strings(),
		Standings: simulation.SimulateDetailed(entries, category.All(), req.Punt),
	}
	res.WeeksCount, res.Period, res.Scope = describe(req)
	return res, nil
}

// describe returns the request fields that apply to its mode.
func describe(req SimulationRequest) (weeks int, period string, scope roster.Scope) {
	if req.Mode == simulation.ModeMatchup {
		return req.WeeksCount, "", ""
	}
	return 0, req.Period.String(), req.Scope
}

// entries builds the simulation participants and returns the request
// with defaults filled in.
func (s *SimulationService) entries(ctx context.Context, req SimulationRequest) ([]simulation.TeamEntry, SimulationRequest, error) {
	if req.Mode == "" {
		req.Mode = simulation.ModeMatchup
	}
	if req.Scope == "" {
		req.Scope = roster.ScopeAll
	}
	if req.Cap <= 0 {
		req.Cap = s.defaultCap
	}

	if req.Mode == simulation.ModeMatchup {
		if req.Week < 1 {
			return nil, req, &simulation.ValidationError{Problems: []string{fmt.Sprintf("week must be positive, got %d", req.Week)}}
		}
		if req.WeeksCount <= 0 || req.WeeksCount > req.Week {
			req.WeeksCount = req.Week
		}
		teams, err := s.source.Teams(ctx)
		if err != nil {
			return nil, req, err
		}
		weeks := make([]int, 0, req.WeeksCount)
		for w := req.Week - req.WeeksCount + 1; w <= req.Week; w++ {
			weeks = append(weeks, w)
		}
		entries, _, err := weekEntries(ctx, s.source, teams, weeks, category.All())
		return entries, req, err
	}

	snap, err := s.source.Get(ctx, req.Period)
	if err != nil {
		return nil, req, err
	}
	req.Period = snap.Period
	if req.CustomTeamID != 0 {
		if _, ok := snap.Team(req.CustomTeamID); !ok {
			return nil, req, fmt.Errorf("custom team %d: %w", req.CustomTeamID, ErrTeamNotFound)
		}
	}

	players := snap.Filter(req.Scope == roster.ScopeExcludeIR)
	joined := simulation.Join(players, zscore.Compute(players))
	shaped := roster.Shape(joined, roster.Options{
		Scope:         req.Scope,
		Cap:           req.Cap,
		CustomTeamID:  req.CustomTeamID,
		CustomPlayers: req.CustomPlayers,
	}, req.Punt)

	entries, err := simulation.BuildEntries(snap.Teams, shaped, req.Mode, req.Punt)
	return entries, req, err
}
