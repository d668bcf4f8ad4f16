package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/refresh"
	"github.com/fortuna/juno/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{}

func (stubProvider) Teams(context.Context) ([]league.Team, error) {
	return []league.Team{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}}, nil
}

func (stubProvider) PlayerStats(context.Context, league.Period) ([]league.PlayerStatLine, error) {
	stat := func(pts float64) league.StatLine {
		return league.StatLine{Points: league.Float(pts), Rebounds: league.Float(pts / 2)}
	}
	return []league.PlayerStatLine{
		{Name: "A1", TeamID: 1, TeamName: "Alpha", Stats: stat(30)},
		{Name: "A2", TeamID: 1, TeamName: "Alpha", LineupSlot: league.SlotInjuredReserve, InjuryStatus: "OUT", Stats: stat(12)},
		{Name: "B1", TeamID: 2, TeamName: "Beta", Stats: stat(20)},
		{Name: "B2", TeamID: 2, TeamName: "Beta", Stats: stat(8)},
	}, nil
}

func (stubProvider) BoxScore(_ context.Context, week, teamID int) (*league.TeamBoxScore, error) {
	return &league.TeamBoxScore{
		Week:       week,
		TeamID:     teamID,
		OpponentID: 3 - teamID,
		Totals:     map[category.Category]float64{category.Points: float64(100 * teamID)},
	}, nil
}

func (stubProvider) CurrentWeek(context.Context) (int, error) { return 2, nil }

type fakeRefresh struct {
	mu       sync.Mutex
	requests []refresh.Request
	err      error
}

func (f *fakeRefresh) Enqueue(_ context.Context, req refresh.Request) (*refresh.JobView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &refresh.JobView{JobID: "job-1", Trigger: req.Trigger, Status: refresh.JobStatusQueued}, nil
}

func (f *fakeRefresh) GetStatus(context.Context) (*refresh.StatusSummary, error) {
	return &refresh.StatusSummary{
		ActiveJob: &refresh.JobView{JobID: "job-1", Status: refresh.JobStatusRunning, StatusMessage: "Fetching 2026_total"},
	}, nil
}

type fakeScheduler struct{}

func (fakeScheduler) GetStatus() map[string]interface{} {
	return map[string]interface{}{"running": true}
}

type checkFunc func(context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, mutate func(*Dependencies)) (*httptest.Server, *fakeRefresh) {
	t.Helper()
	source := service.NewSnapshotSource(stubProvider{}, "42", 2026)
	ref := &fakeRefresh{}
	deps := Dependencies{
		Analytics:      service.NewAnalyticsService(source),
		Simulations:    service.NewSimulationService(source, 0),
		Trades:         service.NewTradeService(source, nil, nil),
		Refresh:        ref,
		Scheduler:      fakeScheduler{},
		RefreshPeriods: []league.Period{league.DefaultPeriod(2026)},
		LeagueID:       "42",
		CorsOrigins:    []string{"http://localhost:5173"},
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv := httptest.NewServer(NewServer("0", deps).Handler())
	t.Cleanup(srv.Close)
	return srv, ref
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, out interface{}) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t, func(d *Dependencies) {
		d.HealthChecks = map[string]HealthChecker{
			"postgres": checkFunc(func(context.Context) error { return nil }),
			"redis":    checkFunc(func(context.Context) error { return errors.New("connection refused") }),
		}
	})

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
	assert.Equal(t, "connection refused", body.Checks["redis"])
}

func TestLeagueEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var teams struct {
		Teams []league.Team `json:"teams"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/teams", &teams))
	assert.Len(t, teams.Teams, 2)

	var weeks service.WeeksView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/weeks", &weeks))
	assert.Equal(t, []int{1, 2}, weeks.Weeks)
	assert.Equal(t, 2, weeks.CurrentWeek)

	var snaps struct {
		Snapshots []interface{} `json:"snapshots"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/snapshots", &snaps))
	assert.Empty(t, snaps.Snapshots)
}

func TestPlayers(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var view service.PlayersView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/players?limit=1", &view))
	require.Len(t, view.Players, 1)
	assert.Equal(t, "A1", view.Players[0].Name)
	assert.Equal(t, "2026_total", view.Period)

	view = service.PlayersView{}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/players?exclude_ir=true&team_id=1", &view))
	require.Len(t, view.Players, 1)
	assert.Equal(t, "A1", view.Players[0].Name)

	cases := []struct {
		name  string
		query string
	}{
		{"period", "period=yesterday"},
		{"exclude_ir", "exclude_ir=maybe"},
		{"punt", "punt_categories=XYZ"},
		{"limit", "limit=-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body map[string]interface{}
			assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/players?"+tc.query, &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestDashboardEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var dash service.DashboardView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/dashboard/1", &dash))
	assert.Equal(t, "Alpha", dash.TeamName)
	require.NotNil(t, dash.CurrentMatchup)
	assert.Equal(t, 2, dash.CurrentMatchup.OpponentID)
	require.Len(t, dash.InjuredPlayers, 1)
	assert.Equal(t, "A2", dash.InjuredPlayers[0].Name)

	var body map[string]interface{}
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/dashboard/99", &body))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/dashboard/99/category-rankings", nil))

	var history service.PositionHistoryView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/dashboard/2/position-history", &history))
	require.Len(t, history.History, 2)
	assert.Equal(t, 1, history.History[0].Position)

	var balance service.BalanceView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/team-balance/1?simulation_mode=top_n&top_n_players=1", &balance))
	assert.Len(t, balance.Data, len(category.All()))

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/team-balance/1?simulation_mode=everyone", nil))
}

func TestSimulation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var res service.SimulationResult
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/simulation/2?weeks_count=1", &res))
	require.Len(t, res.Standings, 2)
	assert.Equal(t, 2, res.Standings[0].TeamID)
	assert.Equal(t, 1, res.WeeksCount)

	var detailed service.DetailedSimulationResult
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/simulation-detailed/1?mode=z_scores", &detailed))
	require.Len(t, detailed.Standings, 2)

	var body struct {
		Problems []string `json:"validation_errors"`
	}
	require.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/simulation/0", &body))
	assert.NotEmpty(t, body.Problems)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/simulation/1?mode=bogus", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/simulation/1?mode=z_scores&custom_team_id=9&custom_team_players=X", nil))
}

func TestTradeAnalysis(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	url := srv.URL + "/api/v1/trade-analysis"

	var res service.TradeAnalysis
	require.Equal(t, http.StatusOK, postJSON(t, url, `{"my_team_id":1,"their_team_id":2,"i_give":["A1"],"i_receive":["B1"]}`, &res))
	assert.Equal(t, 1, res.MyTeam.TeamID)
	assert.Equal(t, []string{"A1"}, res.MyTeam.PlayersGiven)

	var verr struct {
		Problems []string `json:"validation_errors"`
	}
	require.Equal(t, http.StatusBadRequest, postJSON(t, url, `{"i_give":["A1"]}`, &verr))
	assert.NotEmpty(t, verr.Problems)

	assert.Equal(t, http.StatusBadRequest, postJSON(t, url, `{"my_team_id":1,"their_team_id":2,"i_give":["B1"]}`, nil))
	assert.Equal(t, http.StatusBadRequest, postJSON(t, url, `{not json`, nil))
	assert.Equal(t, http.StatusBadRequest, postJSON(t, url, `{"my_team_id":1,"their_team_id":2,"i_give":["A1"],"punt_categories":["XYZ"]}`, nil))

	var multi service.MultiTeamAnalysis
	body := `{"trades":[{"team_id":1,"give":["A1"],"receive":["B1"]},{"team_id":2,"give":["B1"],"receive":["A1"]}]}`
	require.Equal(t, http.StatusOK, postJSON(t, srv.URL+"/api/v1/multi-team-trade-analysis", body, &multi))
	assert.Len(t, multi.Teams, 2)

	var recent struct {
		Evaluations []interface{} `json:"evaluations"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/trades/recent?team_id=1", &recent))
	assert.Empty(t, recent.Evaluations)
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/trades/recent?limit=1000", nil))
}

func TestRefreshEndpoints(t *testing.T) {
	srv, ref := newTestServer(t, nil)
	url := srv.URL + "/api/v1/refresh-league"

	var accepted struct {
		Job refresh.JobView `json:"job"`
	}
	require.Equal(t, http.StatusAccepted, postJSON(t, url, "", &accepted))
	assert.Equal(t, "job-1", accepted.Job.JobID)

	require.Equal(t, http.StatusAccepted, postJSON(t, url, `{"periods":["2026_last_15"]}`, nil))
	ref.mu.Lock()
	require.Len(t, ref.requests, 2)
	assert.Equal(t, []league.Period{league.DefaultPeriod(2026)}, ref.requests[0].Periods)
	assert.Equal(t, league.WindowLast15, ref.requests[1].Periods[0].Window)
	assert.Equal(t, refresh.TriggerManual, ref.requests[1].Trigger)
	ref.err = refresh.ErrJobPending
	ref.mu.Unlock()

	assert.Equal(t, http.StatusConflict, postJSON(t, url, "", nil))
	assert.Equal(t, http.StatusBadRequest, postJSON(t, url, `{"periods":["soon"]}`, nil))

	var status map[string]interface{}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/refresh/status", &status))
	assert.Equal(t, "running", status["status"])
	assert.Equal(t, "Fetching 2026_total", status["message"])
	assert.Contains(t, status, "scheduler")
}

func TestRefreshDisabled(t *testing.T) {
	srv, _ := newTestServer(t, func(d *Dependencies) {
		d.Refresh = nil
		d.Scheduler = nil
	})

	assert.Equal(t, http.StatusServiceUnavailable, postJSON(t, srv.URL+"/api/v1/refresh-league", "", nil))

	var status map[string]interface{}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/refresh/status", &status))
	assert.Equal(t, "idle", status["status"])
	assert.NotContains(t, status, "scheduler")
}

func TestMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, func(d *Dependencies) {
		d.MCP = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
		d.MCPPath = "/mcp"
	})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/trade-analysis", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	resp, err = http.Post(srv.URL+"/mcp", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type freeAgentStub struct{ stubProvider }

func (freeAgentStub) FreeAgents(_ context.Context, _ league.Period, position string, _ int) ([]league.PlayerStatLine, error) {
	if position == "QB" {
		return nil, league.ErrUnknownPosition
	}
	return []league.PlayerStatLine{
		{Name: "FA1", Position: "PG", LineupSlot: league.SlotFreeAgent, Stats: league.StatLine{Points: league.Float(25)}},
		{Name: "FA2", Position: "C", LineupSlot: league.SlotFreeAgent, Stats: league.StatLine{Points: league.Float(4)}},
	}, nil
}

func withFreeAgents(deps *Dependencies) {
	deps.Analytics = service.NewAnalyticsService(service.NewSnapshotSource(freeAgentStub{}, "42", 2026))
}

func TestFreeAgents(t *testing.T) {
	srv, _ := newTestServer(t, withFreeAgents)

	var view service.FreeAgentsView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/free-agents?position=PG&limit=1", &view))
	require.Len(t, view.Players, 1)
	assert.Equal(t, "FA1", view.Players[0].Name)
	assert.Equal(t, "2026_total", view.Period)
	assert.Equal(t, "PG", view.Position)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/free-agents?position=QB", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/free-agents?limit=-1", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/free-agents?punt_categories=XYZ", nil))
}

func TestFreeAgentsUnsupported(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var body map[string]interface{}
	assert.Equal(t, http.StatusNotImplemented, getJSON(t, srv.URL+"/api/v1/free-agents", &body))
	assert.NotEmpty(t, body["error"])
}

func TestPlayerEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, withFreeAgents)

	var trends service.PlayerTrendsView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/player/A1/trends", &trends))
	assert.False(t, trends.FreeAgent)
	require.Len(t, trends.Trends, 4)
	assert.Equal(t, "2026_total", trends.Trends[3].Period)

	trends = service.PlayerTrendsView{}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/player/FA1/trends", &trends))
	assert.True(t, trends.FreeAgent)

	var balance service.PlayerBalanceView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/player/B1/balance?period=2026_last_7", &balance))
	assert.Equal(t, "2026_last_7", balance.Period)
	assert.Len(t, balance.Data, len(category.All()))

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/player/Nobody/trends", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/player/Nobody/balance", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/player/A1/balance?period=yesterday", nil))
}

func TestMatchupEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	var details service.MatchupDetailsView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/dashboard/1/matchup-details", &details))
	assert.Equal(t, 2, details.Week)
	assert.Equal(t, "Beta", details.Opponent.TeamName)
	assert.Equal(t, "0-1-10", details.Score)
	assert.Len(t, details.Categories, len(category.All()))

	details = service.MatchupDetailsView{}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/dashboard/2/matchup-details?week=1", &details))
	assert.Equal(t, 1, details.Week)
	assert.Equal(t, "1-0-10", details.Score)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/dashboard/1/matchup-details?week=-2", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/dashboard/99/matchup-details", nil))

	var history service.MatchupHistoryView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/dashboard/1/matchup-history", &history))
	require.Len(t, history.Matchups, 1)
	assert.Equal(t, "L", history.Matchups[0].Result)
	assert.Equal(t, 1, history.Losses)
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/dashboard/99/matchup-history", nil))
}
