package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/logger"
	"github.com/fortuna/juno/internal/simulation"
	"github.com/fortuna/juno/internal/store"
	"github.com/fortuna/juno/internal/zscore"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// TradeStore persists trade evaluations.
type TradeStore interface {
	Save(ctx context.Context, rec *store.TradeEvaluationRecord) error
	Recent(ctx context.Context, leagueID string, teamID, limit int) ([]*store.TradeEvaluationRecord, error)
}

// TradePublisher announces stored trade evaluations.
type TradePublisher interface {
	PublishTrade(ctx context.Context, event interface{}) error
}

// TradeRequest is a two-team trade.
type TradeRequest struct {
	MyTeamID    int
	TheirTeamID int
	Give        []string
	Receive     []string
	Period      league.Period
	Punt        category.Set
	ExcludeIR   bool
}

// MultiTeamRequest is a trade between any number of teams.
type MultiTeamRequest struct {
	Trades    []simulation.Exchange
	Period    league.Period
	Punt      category.Set
	ExcludeIR bool
}

// TradeAnalysis is the two-team trade result.
type TradeAnalysis struct {
	EvaluationID string                       `json:"evaluation_id,omitempty"`
	Period       string                       `json:"period"`
	Punt         []string                     `json:"punt_categories"`
	MyTeam       simulation.TeamImpact        `json:"my_team"`
	TheirTeam    simulation.TeamImpact        `json:"their_team"`
	MyTrade      simulation.PackageComparison `json:"my_trade"`
	TheirTrade   simulation.PackageComparison `json:"their_trade"`
	League       *simulation.TradeReport      `json:"league"`
}

// MultiTeamAnalysis is the multi-team trade result. Packages are keyed by
// team id.
type MultiTeamAnalysis struct {
	EvaluationID string                               `json:"evaluation_id,omitempty"`
	Period       string                               `json:"period"`
	Punt         []string                             `json:"punt_categories"`
	Teams        []simulation.TeamImpact              `json:"teams"`
	Packages     map[int]simulation.PackageComparison `json:"packages"`
	League       *simulation.TradeReport              `json:"league"`
}

// TradeEvent is the stream payload for a stored evaluation.
type TradeEvent struct {
	EvaluationID string    `json:"evaluation_id"`
	LeagueID     string    `json:"league_id"`
	Period       string    `json:"period"`
	TeamIDs      []int64   `json:"team_ids"`
	PlayersMoved []string  `json:"players_moved"`
	CreatedAt    time.Time `json:"created_at"`
}

// TradeService evaluates what-if trades against the latest snapshot.
type TradeService struct {
	source *SnapshotSource
	store  TradeStore
	pub    TradePublisher
	log    *logrus.Entry
}

// NewTradeService creates a trade service. store and pub may be nil.
func NewTradeService(source *SnapshotSource, store TradeStore, pub TradePublisher) *TradeService {
	return &TradeService{
		source: source,
		store:  store,
		pub:    pub,
		log:    logger.WithComponent("trades"),
	}
}

// Analyze evaluates a two-team trade.
func (s *TradeService) Analyze(ctx context.Context, req TradeRequest) (*TradeAnalysis, error) {
	var problems []string
	if req.MyTeamID == 0 || req.TheirTeamID == 0 {
		problems = append(problems, "both team ids are required")
	}
	if len(req.Give) == 0 && len(req.Receive) == 0 {
		problems = append(problems, "trade moves no players")
	}
	if len(problems) > 0 {
		return nil, &simulation.ValidationError{Problems: problems}
	}

	exchanges := simulation.BilateralExchanges(req.MyTeamID, req.TheirTeamID, req.Give, req.Receive)
	snap, baseline, report, err := s.evaluate(ctx, exchanges, req.Period, req.Punt, req.ExcludeIR)
	if err != nil {
		return nil, err
	}

	mine, _ := report.Team(req.MyTeamID)
	theirs, _ := report.Team(req.TheirTeamID)
	giving := pick(baseline.Players, req.MyTeamID, req.Give)
	getting := pick(baseline.Players, req.TheirTeamID, req.Receive)

	out := &TradeAnalysis{
		Period:     snap.Period.String(),
		Punt:       req.Punt.Strings(),
		MyTeam:     mine,
		TheirTeam:  theirs,
		MyTrade:    simulation.ComparePackages(giving, getting, req.Punt),
		TheirTrade: simulation.ComparePackages(getting, giving, req.Punt),
		League:     report,
	}
	out.EvaluationID = s.record(ctx, snap, report, req.Punt)
	return out, nil
}

// AnalyzeMultiTeam evaluates a trade between any number of teams.
func (s *TradeService) AnalyzeMultiTeam(ctx context.Context, req MultiTeamRequest) (*MultiTeamAnalysis, error) {
	if len(req.Trades) < 2 {
		return nil, &simulation.ValidationError{Problems: []string{"a trade needs at least two teams"}}
	}

	snap, baseline, report, err := s.evaluate(ctx, req.Trades, req.Period, req.Punt, req.ExcludeIR)
	if err != nil {
		return nil, err
	}

	from := make(map[string]int, len(report.Moves))
	for _, m := range report.Moves {
		from[m.PlayerName] = m.FromTeam
	}

	packages := make(map[int]simulation.PackageComparison, len(req.Trades))
	for _, ex := range req.Trades {
		giving := pick(baseline.Players, ex.TeamID, ex.Give)
		var getting []simulation.RosterPlayer
		for _, name := range ex.Receive {
			getting = append(getting, pick(baseline.Players, from[name], []string{name})...)
		}
		packages[ex.TeamID] = simulation.ComparePackages(giving, getting, req.Punt)
	}

	out := &MultiTeamAnalysis{
		Period:   snap.Period.String(),
		Punt:     req.Punt.Strings(),
		Teams:    report.Affected(),
		Packages: packages,
		League:   report,
	}
	out.EvaluationID = s.record(ctx, snap, report, req.Punt)
	return out, nil
}

func (s *TradeService) evaluate(ctx context.Context, exchanges []simulation.Exchange, period league.Period, punt category.Set, excludeIR bool) (*league.Snapshot, simulation.Baseline, *simulation.TradeReport, error) {
	moves, err := simulation.MovesFromExchanges(exchanges)
	if err != nil {
		return nil, simulation.Baseline{}, nil, err
	}

	snap, err := s.source.Get(ctx, period)
	if err != nil {
		return nil, simulation.Baseline{}, nil, err
	}

	players := snap.Filter(excludeIR)
	baseline := simulation.Baseline{
		Teams:   snap.Teams,
		Players: simulation.Join(players, zscore.Compute(players)),
	}
	report, err := simulation.EvaluateTrade(baseline, moves, punt)
	if err != nil {
		return nil, simulation.Baseline{}, nil, err
	}
	return snap, baseline, report, nil
}

// pick returns the named players of one team, in name order.
func pick(players []simulation.RosterPlayer, teamID int, names []string) []simulation.RosterPlayer {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []simulation.RosterPlayer
	for _, p := range players {
		if p.TeamID == teamID && want[p.Name] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// record stores and publishes the evaluation. Failures are logged; the
// analysis is returned without an id.
func (s *TradeService) record(ctx context.Context, snap *league.Snapshot, report *simulation.TradeReport, punt category.Set) string {
	if s.store == nil {
		return ""
	}

	payload, err := json.Marshal(report)
	if err != nil {
		s.log.WithError(err).Warn("⚠️  failed to encode trade report")
		return ""
	}

	rec := &store.TradeEvaluationRecord{
		EvaluationID: uuid.New(),
		LeagueID:     snap.LeagueID,
		SnapshotID:   uuid.NullUUID{UUID: snap.ID, Valid: true},
		Period:       snap.Period.String(),
		Punt:         pq.StringArray(punt.Strings()),
		Report:       payload,
	}
	for _, t := range report.Affected() {
		rec.TeamIDs = append(rec.TeamIDs, int64(t.TeamID))
	}
	for _, m := range report.Moves {
		rec.PlayersMoved = append(rec.PlayersMoved, m.PlayerName)
	}

	if err := s.store.Save(ctx, rec); err != nil {
		s.log.WithError(err).Warn("⚠️  failed to store trade evaluation")
		return ""
	}

	if s.pub != nil {
		event := TradeEvent{
			EvaluationID: rec.EvaluationID.String(),
			LeagueID:     rec.LeagueID,
			Period:       rec.Period,
			TeamIDs:      rec.TeamIDs,
			PlayersMoved: rec.PlayersMoved,
			CreatedAt:    rec.CreatedAt,
		}
		if err := s.pub.PublishTrade(ctx, event); err != nil {
			s.log.WithError(err).Warn("⚠️  failed to publish trade event")
		}
	}

	s.log.WithFields(logrus.Fields{
		"evaluation_id": rec.EvaluationID.String(),
		"teams":         rec.TeamIDs,
		"players":       len(rec.PlayersMoved),
	}).Info("✓ trade evaluation stored")
	return rec.EvaluationID.String()
}

// Recent lists stored evaluations, newest first. teamID 0 lists all teams.
func (s *TradeService) Recent(ctx context.Context, teamID, limit int) ([]*store.TradeEvaluationRecord, error) {
	if s.store == nil {
		return []*store.TradeEvaluationRecord{}, nil
	}
	recs, err := s.store.Recent(ctx, s.source.LeagueID(), teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing trade evaluations: %w", err)
	}
	if recs == nil {
		recs = []*store.TradeEvaluationRecord{}
	}
	return recs, nil
}
