package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/refresh"
	"github.com/fortuna/juno/internal/roster"
	"github.com/fortuna/juno/internal/service"
	"github.com/fortuna/juno/internal/simulation"
	"github.com/fortuna/juno/internal/store"
	"github.com/gorilla/mux"
)

// HealthChecker is a dependency the health endpoint checks.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// SnapshotLister lists stored snapshot metadata.
type SnapshotLister interface {
	List(ctx context.Context, leagueID string, limit int) ([]*store.SnapshotRecord, error)
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	analytics   *service.AnalyticsService
	simulations *service.SimulationService
	trades      *service.TradeService
	snapshots   SnapshotLister
	leagueID    string
	checks      map[string]HealthChecker
}

// NewHandler creates a new handler
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		analytics:   deps.Analytics,
		simulations: deps.Simulations,
		trades:      deps.Trades,
		snapshots:   deps.Snapshots,
		leagueID:    deps.LeagueID,
		checks:      deps.HealthChecks,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	checks := make(map[string]string, len(h.checks))
	for name, c := range h.checks {
		if err := c.HealthCheck(r.Context()); err != nil {
			checks[name] = err.Error()
			status = "degraded"
			continue
		}
		checks[name] = "ok"
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  status,
		"service": "juno",
		"version": "1.0.0",
		"checks":  checks,
	})
}

// GetTeams returns every fantasy team in the league
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.analytics.Teams(r.Context())
	if err != nil {
		respondServiceError(w, "Failed to fetch teams", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

// GetWeeks returns the scoring weeks played so far
func (h *Handler) GetWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.analytics.Weeks(r.Context())
	if err != nil {
		respondServiceError(w, "Failed to fetch weeks", err)
		return
	}
	respondJSON(w, http.StatusOK, weeks)
}

// GetZScores returns the league-wide z-score table
func (h *Handler) GetZScores(w http.ResponseWriter, r *http.Request) {
	period, excludeIR, ok := periodAndIR(w, r)
	if !ok {
		return
	}

	view, err := h.analytics.ZScores(r.Context(), period, excludeIR)
	if err != nil {
		respondServiceError(w, "Failed to compute z-scores", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetPlayers returns every rostered player ranked by total z-score
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	period, excludeIR, ok := periodAndIR(w, r)
	if !ok {
		return
	}
	punt, err := queryPunt(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid punt_categories", err)
		return
	}
	teamID, err := queryInt(r, "team_id", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid team_id", err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	view, err := h.analytics.AllPlayers(r.Context(), service.PlayersQuery{
		Period:    period,
		ExcludeIR: excludeIR,
		TeamID:    teamID,
		Punt:      punt,
		Limit:     limit,
	})
	if err != nil {
		respondServiceError(w, "Failed to rank players", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetTeamAnalytics returns one team's players with league metrics
func (h *Handler) GetTeamAnalytics(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}
	period, excludeIR, ok := periodAndIR(w, r)
	if !ok {
		return
	}

	view, err := h.analytics.TeamAnalytics(r.Context(), teamID, period, excludeIR)
	if err != nil {
		respondServiceError(w, "Failed to fetch team analytics", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetTeamBalance returns radar data for one team
func (h *Handler) GetTeamBalance(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}
	period, err := queryPeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	scope, err := roster.ParseScope(r.URL.Query().Get("simulation_mode"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid simulation_mode", err)
		return
	}
	topN, err := queryInt(r, "top_n_players", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid top_n_players", err)
		return
	}

	view, err := h.analytics.TeamBalance(r.Context(), service.BalanceQuery{
		TeamID:        teamID,
		Period:        period,
		Scope:         scope,
		Cap:           topN,
		CustomPlayers: splitNames(r.URL.Query().Get("custom_team_players")),
	})
	if err != nil {
		respondServiceError(w, "Failed to compute team balance", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetDashboard returns the team overview
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}
	period, excludeIR, ok := periodAndIR(w, r)
	if !ok {
		return
	}

	view, err := h.analytics.Dashboard(r.Context(), teamID, period, excludeIR)
	if err != nil {
		respondServiceError(w, "Failed to build dashboard", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetCategoryRankings returns a team's rank in every category
func (h *Handler) GetCategoryRankings(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}
	period, excludeIR, ok := periodAndIR(w, r)
	if !ok {
		return
	}
	punt, err := queryPunt(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid punt_categories", err)
		return
	}

	report, err := h.analytics.CategoryRankings(r.Context(), teamID, period, excludeIR, punt)
	if err != nil {
		respondServiceError(w, "Failed to rank categories", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// GetPositionHistory returns a team's weekly league position
func (h *Handler) GetPositionHistory(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}

	view, err := h.analytics.PositionHistory(r.Context(), teamID)
	if err != nil {
		respondServiceError(w, "Failed to build position history", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetSimulation runs the all-play-all simulation for a week
func (h *Handler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	req, ok := simulationRequest(w, r)
	if !ok {
		return
	}

	res, err := h.simulations.Simulate(r.Context(), req)
	if err != nil {
		respondServiceError(w, "Failed to run simulation", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GetSimulationDetailed runs the simulation with head-to-head lines
func (h *Handler) GetSimulationDetailed(w http.ResponseWriter, r *http.Request) {
	req, ok := simulationRequest(w, r)
	if !ok {
		return
	}

	res, err := h.simulations.SimulateDetailed(r.Context(), req)
	if err != nil {
		respondServiceError(w, "Failed to run simulation", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GetSnapshots lists stored league snapshots
func (h *Handler) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"snapshots": []*store.SnapshotRecord{}})
		return
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil || limit <= 0 || limit > 100 {
		respondError(w, http.StatusBadRequest, "Invalid limit (1-100)", err)
		return
	}

	recs, err := h.snapshots.List(r.Context(), h.leagueID, limit)
	if err != nil {
		respondServiceError(w, "Failed to list snapshots", err)
		return
	}
	if recs == nil {
		recs = []*store.SnapshotRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"snapshots": recs})
}

func simulationRequest(w http.ResponseWriter, r *http.Request) (service.SimulationRequest, bool) {
	var req service.SimulationRequest

	week, err := strconv.Atoi(mux.Vars(r)["week"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid week", err)
		return req, false
	}
	req.Week = week

	q := r.URL.Query()
	if req.Mode, err = simulation.ParseMode(q.Get("mode")); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid mode", err)
		return req, false
	}
	if req.Scope, err = roster.ParseScope(q.Get("simulation_mode")); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid simulation_mode", err)
		return req, false
	}
	if req.Period, err = queryPeriod(r); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid period", err)
		return req, false
	}
	if req.Punt, err = queryPunt(r); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid punt_categories", err)
		return req, false
	}
	if req.WeeksCount, err = queryInt(r, "weeks_count", 0); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid weeks_count", err)
		return req, false
	}
	if req.Cap, err = queryInt(r, "top_n_players", 0); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid top_n_players", err)
		return req, false
	}
	if req.CustomTeamID, err = queryInt(r, "custom_team_id", 0); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid custom_team_id", err)
		return req, false
	}
	req.CustomPlayers = splitNames(q.Get("custom_team_players"))
	return req, true
}

func periodAndIR(w http.ResponseWriter, r *http.Request) (league.Period, bool, bool) {
	period, err := queryPeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid period", err)
		return league.Period{}, false, false
	}
	excludeIR, err := queryBool(r, "exclude_ir")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid exclude_ir", err)
		return league.Period{}, false, false
	}
	return period, excludeIR, true
}

func pathTeamID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["teamID"])
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid team ID", err)
		return 0, false
	}
	return id, true
}

// queryPeriod maps a missing period to the zero value, which the snapshot
// source resolves to the season total.
func queryPeriod(r *http.Request) (league.Period, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("period"))
	if raw == "" {
		return league.Period{}, nil
	}
	return league.ParsePeriod(raw)
}

func queryPunt(r *http.Request) (category.Set, error) {
	return category.ParseList(r.URL.Query().Get("punt_categories"))
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return v, nil
}

func splitNames(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}

// respondServiceError maps engine and service errors to status codes.
func respondServiceError(w http.ResponseWriter, message string, err error) {
	var verr *simulation.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":             message,
			"status":            http.StatusBadRequest,
			"validation_errors": verr.Problems,
		})
	case errors.Is(err, service.ErrTeamNotFound),
		errors.Is(err, service.ErrPlayerNotFound),
		errors.Is(err, service.ErrNoMatchup):
		respondError(w, http.StatusNotFound, message, err)
	case errors.Is(err, service.ErrFreeAgentsUnsupported):
		respondError(w, http.StatusNotImplemented, message, err)
	case errors.Is(err, league.ErrUnknownPosition):
		respondError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, simulation.ErrUnknownPlayer),
		errors.Is(err, simulation.ErrUnknownTeam),
		errors.Is(err, simulation.ErrPlayerNotOnTeam),
		errors.Is(err, simulation.ErrDuplicateMove),
		errors.Is(err, simulation.ErrSameTeam):
		respondError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, refresh.ErrJobPending):
		respondError(w, http.StatusConflict, message, err)
	default:
		respondError(w, http.StatusInternalServerError, message, err)
	}
}
