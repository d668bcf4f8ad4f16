package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/roster"
	"github.com/fortuna/juno/internal/simulation"
	"github.com/fortuna/juno/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTeams = []league.Team{
	{ID: 1, Name: "Alpha"},
	{ID: 2, Name: "Beta"},
	{ID: 3, Name: "Gamma"},
}

func line(pts float64) league.StatLine {
	return league.StatLine{
		Points:       league.Float(pts),
		Rebounds:     league.Float(pts / 2),
		Assists:      league.Float(pts / 5),
		Steals:       league.Float(pts / 10),
		Blocks:       league.Float(pts / 10),
		ThreesMade:   league.Float(pts / 10),
		DoubleDouble: league.Float(pts / 20),
	}
}

func testPlayers() []league.PlayerStatLine {
	return []league.PlayerStatLine{
		{Name: "A1", Position: "PG", TeamID: 1, TeamName: "Alpha", LineupSlot: "PG", InjuryStatus: "ACTIVE", Stats: line(30)},
		{Name: "A2", Position: "C", TeamID: 1, TeamName: "Alpha", LineupSlot: league.SlotInjuredReserve, InjuryStatus: "OUT", Stats: line(10)},
		{Name: "B1", Position: "SF", TeamID: 2, TeamName: "Beta", LineupSlot: "SF", Stats: line(20)},
		{Name: "C1", Position: "PF", TeamID: 3, TeamName: "Gamma", LineupSlot: "PF", Stats: line(5)},
	}
}

type fakeProvider struct {
	mu         sync.Mutex
	statsCalls int
	statsErr   error
	week       int
	// box[week][teamID]
	box map[int]map[int]*league.TeamBoxScore
}

func newFakeProvider() *fakeProvider {
	pts := func(v float64) map[category.Category]float64 {
		return map[category.Category]float64{category.Points: v}
	}
	return &fakeProvider{
		week: 2,
		box: map[int]map[int]*league.TeamBoxScore{
			1: {
				1: {Week: 1, TeamID: 1, OpponentID: 3, Totals: pts(100)},
				2: {Week: 1, TeamID: 2, Totals: pts(90)},
				3: {Week: 1, TeamID: 3, OpponentID: 1, Totals: pts(80)},
			},
			2: {
				1: {Week: 2, TeamID: 1, OpponentID: 2, Totals: pts(50)},
				2: {Week: 2, TeamID: 2, OpponentID: 1, Totals: pts(120)},
			},
		},
	}
}

func (f *fakeProvider) Teams(context.Context) ([]league.Team, error) {
	return append([]league.Team(nil), testTeams...), nil
}

func (f *fakeProvider) PlayerStats(context.Context, league.Period) ([]league.PlayerStatLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsCalls++
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return testPlayers(), nil
}

func (f *fakeProvider) BoxScore(_ context.Context, week, teamID int) (*league.TeamBoxScore, error) {
	return f.box[week][teamID], nil
}

func (f *fakeProvider) CurrentWeek(context.Context) (int, error) { return f.week, nil }

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statsCalls
}

type memCache struct {
	snaps map[league.Period]*league.Snapshot
	sets  int
}

func (c *memCache) GetSnapshot(_ context.Context, _ string, period league.Period) (*league.Snapshot, error) {
	return c.snaps[period], nil
}

func (c *memCache) SetSnapshot(_ context.Context, snap *league.Snapshot) error {
	if c.snaps == nil {
		c.snaps = map[league.Period]*league.Snapshot{}
	}
	c.snaps[snap.Period] = snap
	c.sets++
	return nil
}

type memSnapshotStore struct {
	saved   []*league.Snapshot
	latest  *league.Snapshot
	saveErr error
}

func (s *memSnapshotStore) Save(_ context.Context, snap *league.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, snap)
	return nil
}

func (s *memSnapshotStore) Latest(context.Context, string, league.Period) (*league.Snapshot, error) {
	return s.latest, nil
}

type memPublisher struct {
	mu        sync.Mutex
	snapshots []interface{}
	trades    []interface{}
}

func (p *memPublisher) PublishSnapshot(_ context.Context, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, event)
	return nil
}

func (p *memPublisher) PublishTrade(_ context.Context, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trades = append(p.trades, event)
	return nil
}

type memTradeStore struct {
	recs []*store.TradeEvaluationRecord
}

func (s *memTradeStore) Save(_ context.Context, rec *store.TradeEvaluationRecord) error {
	rec.CreatedAt = time.Now()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *memTradeStore) Recent(_ context.Context, _ string, teamID, limit int) ([]*store.TradeEvaluationRecord, error) {
	var out []*store.TradeEvaluationRecord
	for i := len(s.recs) - 1; i >= 0; i-- {
		rec := s.recs[i]
		if teamID > 0 {
			found := false
			for _, id := range rec.TeamIDs {
				found = found || id == int64(teamID)
			}
			if !found {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

var total2026 = league.DefaultPeriod(2026)

func newSource(p league.Provider, opts ...SourceOption) *SnapshotSource {
	return NewSnapshotSource(p, "42", 2026, opts...)
}

func TestSnapshotSource_FetchesOnceThenServesMemory(t *testing.T) {
	p := newFakeProvider()
	pub := &memPublisher{}
	st := &memSnapshotStore{}
	c := &memCache{}
	src := newSource(p, WithCache(c), WithStore(st), WithPublisher(pub))

	first, err := src.Get(context.Background(), total2026)
	require.NoError(t, err)
	second, err := src.Get(context.Background(), league.Period{})
	require.NoError(t, err)

	assert.Same(t, first, second, "zero period resolves to the season total")
	assert.Equal(t, 1, p.calls())
	assert.Len(t, st.saved, 1)
	assert.Equal(t, 1, c.sets)
	require.Len(t, pub.snapshots, 1)
	ev := pub.snapshots[0].(SnapshotEvent)
	assert.Equal(t, "2026_total", ev.Period)
	assert.Equal(t, 4, ev.PlayerCount)
}

func TestSnapshotSource_CacheTierAvoidsProvider(t *testing.T) {
	p := newFakeProvider()
	cached := league.NewSnapshot("42", 2026, total2026, testTeams, testPlayers()[:1])
	c := &memCache{snaps: map[league.Period]*league.Snapshot{total2026: cached}}
	src := newSource(p, WithCache(c))

	snap, err := src.Get(context.Background(), total2026)
	require.NoError(t, err)
	assert.Equal(t, cached.ID, snap.ID)
	assert.Zero(t, p.calls())
}

func TestSnapshotSource_StoreTierWarmsCache(t *testing.T) {
	p := newFakeProvider()
	stored := league.NewSnapshot("42", 2026, total2026, testTeams, testPlayers())
	c := &memCache{}
	src := newSource(p, WithCache(c), WithStore(&memSnapshotStore{latest: stored}))

	snap, err := src.Get(context.Background(), total2026)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, snap.ID)
	assert.Zero(t, p.calls())
	assert.Equal(t, stored.ID, c.snaps[total2026].ID)
}

func TestSnapshotSource_MaxAge(t *testing.T) {
	p := newFakeProvider()
	old := league.NewSnapshot("42", 2026, total2026, testTeams, testPlayers())
	old.FetchedAt = time.Now().Add(-time.Hour)
	src := newSource(p, WithStore(&memSnapshotStore{latest: old}), WithMaxAge(time.Minute))

	snap, err := src.Get(context.Background(), total2026)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, snap.ID)
	assert.Equal(t, 1, p.calls())
}

func TestSnapshotSource_AcceptReplacesAndReportsStoreError(t *testing.T) {
	p := newFakeProvider()
	src := newSource(p, WithStore(&memSnapshotStore{saveErr: errors.New("db down")}))

	snap := league.NewSnapshot("42", 2026, total2026, testTeams, testPlayers())
	err := src.Accept(context.Background(), snap)
	require.Error(t, err)

	got, err := src.Get(context.Background(), total2026)
	require.NoError(t, err)
	assert.Same(t, snap, got)
	assert.Zero(t, p.calls())
}

func TestSnapshotSource_ProviderError(t *testing.T) {
	p := newFakeProvider()
	p.statsErr = errors.New("espn down")
	_, err := newSource(p).Get(context.Background(), total2026)
	assert.ErrorContains(t, err, "espn down")
}

func TestAnalytics_AllPlayers(t *testing.T) {
	svc := NewAnalyticsService(newSource(newFakeProvider()))

	view, err := svc.AllPlayers(context.Background(), PlayersQuery{Period: total2026})
	require.NoError(t, err)
	require.Len(t, view.Players, 4)

	var names []string
	for _, p := range view.Players {
		names = append(names, p.Name)
	}
	// A2 and C1 are below the mean everywhere, so both total 0 and sort by name.
	assert.Equal(t, []string{"A1", "B1", "A2", "C1"}, names)
	assert.Equal(t, 1, view.Players[0].Rank)
	assert.Greater(t, view.Players[0].TotalZ, view.Players[1].TotalZ)
	assert.Contains(t, view.LeagueMetrics, category.Points)

	team, err := svc.AllPlayers(context.Background(), PlayersQuery{Period: total2026, TeamID: 1})
	require.NoError(t, err)
	require.Len(t, team.Players, 2)
	assert.Equal(t, 3, team.Players[1].Rank, "league rank survives the team filter")

	limited, err := svc.AllPlayers(context.Background(), PlayersQuery{Period: total2026, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited.Players, 1)

	_, err = svc.AllPlayers(context.Background(), PlayersQuery{Period: total2026, TeamID: 99})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestAnalytics_ZScoresExcludeIR(t *testing.T) {
	svc := NewAnalyticsService(newSource(newFakeProvider()))

	view, err := svc.ZScores(context.Background(), total2026, true)
	require.NoError(t, err)
	assert.Len(t, view.Players, 3)
	assert.Equal(t, "2026_total", view.Period)
	assert.NotEmpty(t, view.SnapshotID)
}

func TestViews_ReportResolvedDefaultPeriod(t *testing.T) {
	source := newSource(newFakeProvider())
	analytics := NewAnalyticsService(source)
	sims := NewSimulationService(source, 0)
	ctx := context.Background()
	var zero league.Period

	zs, err := analytics.ZScores(ctx, zero, false)
	require.NoError(t, err)
	assert.Equal(t, "2026_total", zs.Period)

	players, err := analytics.AllPlayers(ctx, PlayersQuery{})
	require.NoError(t, err)
	assert.Equal(t, "2026_total", players.Period)

	team, err := analytics.TeamAnalytics(ctx, 1, zero, false)
	require.NoError(t, err)
	assert.Equal(t, "2026_total", team.Period)

	balance, err := analytics.TeamBalance(ctx, BalanceQuery{TeamID: 1})
	require.NoError(t, err)
	assert.Equal(t, "2026_total", balance.Period)

	dash, err := analytics.Dashboard(ctx, 1, zero, false)
	require.NoError(t, err)
	assert.Equal(t, "2026_total", dash.Period)

	sim, err := sims.Simulate(ctx, SimulationRequest{Mode: simulation.ModeZScores})
	require.NoError(t, err)
	assert.Equal(t, "2026_total", sim.Period)
}

func TestAnalytics_TeamAnalytics(t *testing.T) {
	svc := NewAnalyticsService(newSource(newFakeProvider()))

	view, err := svc.TeamAnalytics(context.Background(), 2, total2026, false)
	require.NoError(t, err)
	assert.Equal(t, "Beta", view.TeamName)
	require.Len(t, view.Players, 1)
	assert.Equal(t, "B1", view.Players[0].Name)
}

func TestAnalytics_TeamBalance(t *testing.T) {
	svc := NewAnalyticsService(newSource(newFakeProvider()))

	view, err := svc.TeamBalance(context.Background(), BalanceQuery{TeamID: 1, Period: total2026, Scope: roster.ScopeAll})
	require.NoError(t, err)
	require.Len(t, view.Data, len(category.All()))
	assert.Equal(t, category.Points, view.Data[0].Category)
	assert.Greater(t, view.Data[0].Value, 0.0)

	custom, err := svc.TeamBalance(context.Background(), BalanceQuery{
		TeamID: 1, Period: total2026, Scope: roster.ScopeTopN, CustomPlayers: []string{"A1"},
	})
	require.NoError(t, err)
	assert.InDelta(t, view.Data[0].Value, custom.Data[0].Value, 1e-9, "A2 contributes no positive z")

	_, err = svc.TeamBalance(context.Background(), BalanceQuery{TeamID: 7, Period: total2026})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestAnalytics_CategoryRankings(t *testing.T) {
	svc := NewAnalyticsService(newSource(newFakeProvider()))

	report, err := svc.CategoryRankings(context.Background(), 2, total2026, false, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, report.TeamCount)
	for _, r := range report.AllRankings {
		if r.Category == category.Points {
			assert.Equal(t, 2, r.Rank)
			assert.Equal(t, 20.0, r.Value)
		}
	}

	punted, err := svc.CategoryRankings(context.Background(), 2, total2026, false, category.NewSet(category.Points))
	require.NoError(t, err)
	for _, r := range punted.AllRankings {
		assert.NotEqual(t, category.Points, r.Category)
	}

	_, err = svc.CategoryRankings(context.Background(), 9, total2026, false, nil)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestAnalytics_Dashboard(t *testing.T) {
	svc := NewAnalyticsService(newSource(newFakeProvider()))

	view, err := svc.Dashboard(context.Background(), 1, total2026, false)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", view.TeamName)
	assert.Equal(t, 2, view.RosterSize)
	assert.Equal(t, 1, view.SimulatedRank)
	require.Len(t, view.TopPlayers, 2)
	assert.Equal(t, "A1", view.TopPlayers[0].Name)
	require.Len(t, view.InjuredPlayers, 1)
	assert.Equal(t, InjuredPlayer{Name: "A2", Position: "C", InjuryStatus: "OUT", InIR: true}, view.InjuredPlayers[0])
	require.NotNil(t, view.CurrentMatchup)
	assert.Equal(t, MatchupInfo{Week: 2, OpponentID: 2, OpponentName: "Beta"}, *view.CurrentMatchup)

	gamma, err := svc.Dashboard(context.Background(), 3, total2026, false)
	require.NoError(t, err)
	assert.Nil(t, gamma.CurrentMatchup, "no week 2 box score for Gamma")
}

func TestAnalytics_PositionHistory(t *testing.T) {
	svc := NewAnalyticsService(newSource(newFakeProvider()))

	alpha, err := svc.PositionHistory(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, alpha.History, 2)
	assert.Equal(t, 1, alpha.History[0].Position)
	assert.Equal(t, 2, alpha.History[1].Position)

	gamma, err := svc.PositionHistory(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, gamma.History, 1)
	assert.Equal(t, WeekPosition{Week: 1, Position: 3, Wins: 0, Losses: 2, WinRate: 0}, gamma.History[0])

	_, err = svc.PositionHistory(context.Background(), 12)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestAnalytics_Weeks(t *testing.T) {
	svc := NewAnalyticsService(newSource(newFakeProvider()))
	view, err := svc.Weeks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &WeeksView{Weeks: []int{1, 2}, CurrentWeek: 2}, view)
}

func standingOrder(st []simulation.Standing) []int {
	ids := make([]int, len(st))
	for i, s := range st {
		ids[i] = s.TeamID
	}
	return ids
}

func TestSimulation_MatchupMode(t *testing.T) {
	svc := NewSimulationService(newSource(newFakeProvider()), 0)

	tests := []struct {
		name       string
		weeksCount int
		wantWeeks  int
		wantOrder  []int
	}{
		// Averages: Alpha 75, Beta 105, Gamma 80 (week 1 only).
		{"all weeks", 0, 2, []int{2, 3, 1}},
		// Week 2 alone: Alpha 50, Beta 120, Gamma has no data.
		{"last week", 1, 1, []int{2, 1, 3}},
		{"clamped", 9, 2, []int{2, 3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Simulate(context.Background(), SimulationRequest{Week: 2, WeeksCount: tt.weeksCount})
			require.NoError(t, err)
			assert.Equal(t, simulation.ModeMatchup, res.Mode)
			assert.Equal(t, tt.wantWeeks, res.WeeksCount)
			assert.Equal(t, tt.wantOrder, standingOrder(res.Standings))
			assert.Empty(t, res.Period)
		})
	}
}

func TestSimulation_InvalidWeek(t *testing.T) {
	svc := NewSimulationService(newSource(newFakeProvider()), 0)
	_, err := svc.Simulate(context.Background(), SimulationRequest{Week: 0, Mode: simulation.ModeMatchup})
	var verr *simulation.ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestSimulation_PlayerModes(t *testing.T) {
	svc := NewSimulationService(newSource(newFakeProvider()), 13)

	z, err := svc.Simulate(context.Background(), SimulationRequest{Week: 1, Mode: simulation.ModeZScores, Period: total2026})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, standingOrder(z.Standings))
	assert.Equal(t, "2026_total", z.Period)
	assert.Equal(t, roster.ScopeAll, z.Scope)

	// Alpha 40 raw points with A2, 30 without; Beta 20.
	raw, err := svc.Simulate(context.Background(), SimulationRequest{
		Week: 1, Mode: simulation.ModeTeamStatsAvg, Period: total2026, Scope: roster.ScopeExcludeIR,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, standingOrder(raw.Standings))

	// A2 sits on IR, so a custom Alpha lineup of A2 alone is empty.
	custom, err := svc.Simulate(context.Background(), SimulationRequest{
		Mode: simulation.ModeTeamStatsAvg, Period: total2026, Scope: roster.ScopeTopN,
		CustomTeamID: 1, CustomPlayers: []string{"A2"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1}, standingOrder(custom.Standings))

	_, err = svc.Simulate(context.Background(), SimulationRequest{
		Mode: simulation.ModeZScores, Period: total2026, Scope: roster.ScopeTopN, CustomTeamID: 44, CustomPlayers: []string{"X"},
	})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestSimulation_Detailed(t *testing.T) {
	svc := NewSimulationService(newSource(newFakeProvider()), 0)

	res, err := svc.SimulateDetailed(context.Background(), SimulationRequest{Week: 2, WeeksCount: 1})
	require.NoError(t, err)
	require.Len(t, res.Standings, 3)
	assert.Equal(t, 2, res.Standings[0].TeamID)
	assert.Len(t, res.Standings[0].Matchups, 2)
}

func TestTrades_Analyze(t *testing.T) {
	ts := &memTradeStore{}
	pub := &memPublisher{}
	svc := NewTradeService(newSource(newFakeProvider()), ts, pub)

	res, err := svc.Analyze(context.Background(), TradeRequest{
		MyTeamID: 1, TheirTeamID: 2, Give: []string{"A1"}, Receive: []string{"B1"}, Period: total2026,
	})
	require.NoError(t, err)

	assert.True(t, res.MyTeam.Affected)
	assert.Equal(t, []string{"A1"}, res.MyTeam.PlayersGiven)
	assert.Equal(t, []string{"B1"}, res.MyTeam.PlayersReceived)
	assert.Less(t, res.MyTeam.TotalZ.Delta, 0.0)
	assert.Greater(t, res.TheirTeam.TotalZ.Delta, 0.0)
	assert.Greater(t, res.MyTrade.TotalZ.Before, res.MyTrade.TotalZ.After)
	assert.InDelta(t, -res.MyTrade.TotalZ.Delta, res.TheirTrade.TotalZ.Delta, 1e-9)
	assert.Len(t, res.League.Teams, 3)

	require.Len(t, ts.recs, 1)
	assert.Equal(t, res.EvaluationID, ts.recs[0].EvaluationID.String())
	assert.ElementsMatch(t, []int64{1, 2}, []int64(ts.recs[0].TeamIDs))
	assert.ElementsMatch(t, []string{"A1", "B1"}, []string(ts.recs[0].PlayersMoved))
	assert.Len(t, pub.trades, 1)

	recent, err := svc.Recent(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
	recent, err = svc.Recent(context.Background(), 3, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestTrades_AnalyzeErrors(t *testing.T) {
	svc := NewTradeService(newSource(newFakeProvider()), nil, nil)
	ctx := context.Background()

	var verr *simulation.ValidationError
	_, err := svc.Analyze(ctx, TradeRequest{MyTeamID: 1, TheirTeamID: 1, Give: []string{"A1"}})
	assert.True(t, errors.As(err, &verr), "same team twice")

	_, err = svc.Analyze(ctx, TradeRequest{MyTeamID: 1, TheirTeamID: 2})
	assert.True(t, errors.As(err, &verr), "empty trade")

	_, err = svc.Analyze(ctx, TradeRequest{MyTeamID: 1, TheirTeamID: 2, Give: []string{"Zed"}, Period: total2026})
	assert.ErrorIs(t, err, simulation.ErrUnknownPlayer)

	_, err = svc.Analyze(ctx, TradeRequest{MyTeamID: 1, TheirTeamID: 2, Give: []string{"B1"}, Period: total2026})
	assert.ErrorIs(t, err, simulation.ErrPlayerNotOnTeam)

	res, err := svc.Analyze(ctx, TradeRequest{MyTeamID: 1, TheirTeamID: 2, Give: []string{"A1"}, Period: total2026})
	require.NoError(t, err)
	assert.Empty(t, res.EvaluationID, "no store configured")

	recent, err := svc.Recent(ctx, 0, 5)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestTrades_MultiTeam(t *testing.T) {
	ts := &memTradeStore{}
	svc := NewTradeService(newSource(newFakeProvider()), ts, nil)

	res, err := svc.AnalyzeMultiTeam(context.Background(), MultiTeamRequest{
		Period: total2026,
		Trades: []simulation.Exchange{
			{TeamID: 1, Give: []string{"A1"}, Receive: []string{"C1"}},
			{TeamID: 2, Give: []string{"B1"}, Receive: []string{"A1"}},
			{TeamID: 3, Give: []string{"C1"}, Receive: []string{"B1"}},
		},
	})
	require.NoError(t, err)
	assert.Len(t, res.Teams, 3)
	assert.Len(t, res.League.Moves, 3)
	require.Contains(t, res.Packages, 1)
	assert.Equal(t, 0.0, res.Packages[1].TotalZ.After, "C1 is below the mean in every category")
	assert.Greater(t, res.Packages[3].TotalZ.After, 0.0)
	assert.Len(t, ts.recs, 1)

	_, err = svc.AnalyzeMultiTeam(context.Background(), MultiTeamRequest{
		Trades: []simulation.Exchange{{TeamID: 1, Give: []string{"A1"}}},
	})
	var verr *simulation.ValidationError
	assert.True(t, errors.As(err, &verr))
}
