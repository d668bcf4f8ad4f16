package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fortuna/juno/internal/league"
	"github.com/fortuna/juno/internal/refresh"
)

// RefreshService queues league refreshes and reports their progress.
type RefreshService interface {
	Enqueue(ctx context.Context, req refresh.Request) (*refresh.JobView, error)
	GetStatus(ctx context.Context) (*refresh.StatusSummary, error)
}

// SchedulerStatus reports the cron scheduler state.
type SchedulerStatus interface {
	GetStatus() map[string]interface{}
}

// RefreshHandler proxies API calls to the refresh service.
type RefreshHandler struct {
	service   RefreshService
	scheduler SchedulerStatus
	periods   []league.Period
}

// NewRefreshHandler wires the REST layer to the refresh service. periods
// are refreshed when a request names none.
func NewRefreshHandler(service RefreshService, scheduler SchedulerStatus, periods []league.Period) *RefreshHandler {
	return &RefreshHandler{service: service, scheduler: scheduler, periods: periods}
}

type apiRefreshRequest struct {
	Periods []string `json:"periods"`
}

// HandleRefreshRequest handles POST /api/v1/refresh-league
func (h *RefreshHandler) HandleRefreshRequest(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		respondError(w, http.StatusServiceUnavailable, "Refresh jobs are disabled", nil)
		return
	}

	var req apiRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	periods := h.periods
	if len(req.Periods) > 0 {
		periods = make([]league.Period, 0, len(req.Periods))
		for _, raw := range req.Periods {
			p, err := league.ParsePeriod(raw)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid period", err)
				return
			}
			periods = append(periods, p)
		}
	}

	job, err := h.service.Enqueue(r.Context(), refresh.Request{Trigger: refresh.TriggerManual, Periods: periods})
	if err != nil {
		if errors.Is(err, refresh.ErrJobPending) {
			respondError(w, http.StatusConflict, "A refresh is already queued or running", err)
			return
		}
		respondError(w, http.StatusBadRequest, "Failed to enqueue refresh job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": job,
	})
}

// HandleRefreshStatus handles GET /api/v1/refresh/status
func (h *RefreshHandler) HandleRefreshStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
		"history": []*refresh.JobView{},
	}

	if h.service != nil {
		summary, err := h.service.GetStatus(r.Context())
		if err != nil {
			respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
			return
		}
		if summary.ActiveJob != nil {
			response["status"] = summary.ActiveJob.Status
			if summary.ActiveJob.StatusMessage != "" {
				response["message"] = summary.ActiveJob.StatusMessage
			}
			response["active_job"] = summary.ActiveJob
		}
		if len(summary.History) > 0 {
			response["history"] = summary.History
		}
	}

	if h.scheduler != nil {
		response["scheduler"] = h.scheduler.GetStatus()
	}
	respondJSON(w, http.StatusOK, response)
}
