package rest

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/fortuna/juno/internal/category"
	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/service"
	"github.com/fortuna/juno/internal/simulation"
)

type tradeAnalysisRequest struct {
	MyTeamID    int      `json:"my_team_id"`
	TheirTeamID int      `json:"their_team_id"`
	Give        []string `json:"i_give"`
	Receive     []string `json:"i_receive"`
	Period      string   `json:"period"`
	Punt        []string `json:"punt_categories"`
	ExcludeIR   bool     `json:"exclude_ir"`
}

type multiTeamTradeRequest struct {
	Trades    []simulation.Exchange `json:"trades"`
	Period    string                `json:"period"`
	Punt      []string              `json:"punt_categories"`
	ExcludeIR bool                  `json:"exclude_ir"`
}

// AnalyzeTrade handles POST /api/v1/trade-analysis
func (h *Handler) AnalyzeTrade(w http.ResponseWriter, r *http.Request) {
	var body tradeAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, punt, ok := bodyPeriodAndPunt(w, body.Period, body.Punt)
	if !ok {
		return
	}

	res, err := h.trades.Analyze(r.Context(), service.TradeRequest{
		MyTeamID:    body.MyTeamID,
		TheirTeamID: body.TheirTeamID,
		Give:        body.Give,
		Receive:     body.Receive,
		Period:      period,
		Punt:        punt,
		ExcludeIR:   body.ExcludeIR,
	})
	if err != nil {
		respondServiceError(w, "Failed to analyze trade", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// AnalyzeMultiTeamTrade handles POST /api/v1/multi-team-trade-analysis
func (h *Handler) AnalyzeMultiTeamTrade(w http.ResponseWriter, r *http.Request) {
	var body multiTeamTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, punt, ok := bodyPeriodAndPunt(w, body.Period, body.Punt)
	if !ok {
		return
	}

	res, err := h.trades.AnalyzeMultiTeam(r.Context(), service.MultiTeamRequest{
		Trades:    body.Trades,
		Period:    period,
		Punt:      punt,
		ExcludeIR: body.ExcludeIR,
	})
	if err != nil {
		respondServiceError(w, "Failed to analyze trade", err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// GetRecentTrades handles GET /api/v1/trades/recent
func (h *Handler) GetRecentTrades(w http.ResponseWriter, r *http.Request) {
	teamID, err := queryInt(r, "team_id", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid team_id", err)
		return
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil || limit <= 0 || limit > 100 {
		respondError(w, http.StatusBadRequest, "Invalid limit (1-100)", err)
		return
	}

	recs, err := h.trades.Recent(r.Context(), teamID, limit)
	if err != nil {
		respondServiceError(w, "Failed to list trade evaluations", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"evaluations": recs})
}

func bodyPeriodAndPunt(w http.ResponseWriter, rawPeriod string, rawPunt []string) (league.Period, category.Set, bool) {
	var period league.Period
	if strings.TrimSpace(rawPeriod) != "" {
		p, err := league.ParsePeriod(rawPeriod)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid period", err)
			return period, nil, false
		}
		period = p
	}
	punt, err := category.FromStrings(rawPunt)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid punt_categories", err)
		return period, nil, false
	}
	return period, punt, true
}
