package handlers

import (
	"net/http"

	"github.com/ukydev/machinery-dashboard/internal/scheduler"
)

// StatusProvider reports the state of the background scheduler.
type StatusProvider interface {
	Status() scheduler.Status
}

// SchedulerHandler exposes the scheduler state.
type SchedulerHandler struct {
	scheduler StatusProvider
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(s StatusProvider) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

// Status returns {"running"} to everyone and the full status to admins.
func (h *SchedulerHandler) Status(w http.ResponseWriter, r *http.Request) {
	claims, ok := sessionClaims(w, r)
	if !ok {
		return
	}

	status := h.scheduler.Status()
	if !claims.IsAdmin() {
		respondJSON(w, http.StatusOK, map[string]bool{"running": status.Running})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"running":   status.Running,
		"interval":  status.Interval.String(),
		"lastRun":   status.LastRun,
		"runs":      status.Runs,
		"lastError": status.LastError,
	})
}
