package rest

import (
	"net/http"
	"strings"

	"github.com/fortuna/juno/internal/service"
	"github.com/gorilla/mux"
)

// GetFreeAgents ranks the free agent pool against the rostered league.
func (h *Handler) GetFreeAgents(w http.ResponseWriter, r *http.Request) {
	period, err := queryPeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	punt, err := queryPunt(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid punt_categories", err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil || limit < 0 {
		respondError(w, http.StatusBadRequest, "Invalid limit", err)
		return
	}

	view, err := h.analytics.FreeAgents(r.Context(), service.FreeAgentQuery{
		Period:   period,
		Position: strings.TrimSpace(r.URL.Query().Get("position")),
		Punt:     punt,
		Limit:    limit,
	})
	if err != nil {
		respondServiceError(w, "Failed to rank free agents", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetPlayerTrends reports a player's value over recent windows.
func (h *Handler) GetPlayerTrends(w http.ResponseWriter, r *http.Request) {
	name, ok := pathPlayerName(w, r)
	if !ok {
		return
	}

	view, err := h.analytics.PlayerTrends(r.Context(), name)
	if err != nil {
		respondServiceError(w, "Failed to build player trends", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetPlayerBalance returns the per-category radar of one player.
func (h *Handler) GetPlayerBalance(w http.ResponseWriter, r *http.Request) {
	name, ok := pathPlayerName(w, r)
	if !ok {
		return
	}
	period, err := queryPeriod(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	view, err := h.analytics.PlayerBalance(r.Context(), name, period)
	if err != nil {
		respondServiceError(w, "Failed to compute player balance", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetMatchupDetails compares a team with its opponent of a week, the
// current one unless week is given.
func (h *Handler) GetMatchupDetails(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}
	week, err := queryInt(r, "week", 0)
	if err != nil || week < 0 {
		respondError(w, http.StatusBadRequest, "Invalid week", err)
		return
	}

	view, err := h.analytics.MatchupDetails(r.Context(), teamID, week)
	if err != nil {
		respondServiceError(w, "Failed to build matchup details", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// GetMatchupHistory lists a team's completed weeks.
func (h *Handler) GetMatchupHistory(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathTeamID(w, r)
	if !ok {
		return
	}

	view, err := h.analytics.MatchupHistory(r.Context(), teamID)
	if err != nil {
		respondServiceError(w, "Failed to build matchup history", err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func pathPlayerName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := strings.TrimSpace(mux.Vars(r)["name"])
	if name == "" {
		respondError(w, http.StatusBadRequest, "Invalid player name", nil)
		return "", false
	}
	return name, true
}
