package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bookbliss/internal/email"
	"bookbliss/internal/types"
)

// ScheduleLister exposes the live schedule registry for the admin surface.
type ScheduleLister interface {
	Active() []types.ScheduleRecord
}

// AdminHandler serves the monitoring endpoints: live schedules, the recent
// send log, and send statistics.
type AdminHandler struct {
	schedules ScheduleLister
	sendLog   *email.SendLog
	logger    *slog.Logger
}

// NewAdminHandler creates a new AdminHandler with the provided dependencies.
func NewAdminHandler(schedules ScheduleLister, sendLog *email.SendLog, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		schedules: schedules,
		sendLog:   sendLog,
		logger:    logger,
	}
}

// RegisterRoutes mounts the monitoring routes on the provided chi.Router.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/schedules", h.ListSchedules)
	r.Get("/email-log", h.EmailLog)
	r.Get("/email-log/stats", h.EmailLogStats)
}

// ListSchedules handles GET /v1/admin/schedules, returning the live schedule
// registry ordered by order ID.
func (h *AdminHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	records := h.schedules.Active()
	JSON(w, r, http.StatusOK, APIResponse{Data: map[string]any{
		"count":     len(records),
		"schedules": records,
	}})
}

// EmailLog handles GET /v1/admin/email-log, returning recent send attempts
// newest first. The failed=true query parameter narrows to failures only.
func (h *AdminHandler) EmailLog(w http.ResponseWriter, r *http.Request) {
	var entries []email.LogEntry
	if r.URL.Query().Get("failed") == "true" {
		entries = h.sendLog.Failed()
	} else {
		entries = h.sendLog.Entries()
	}
	if entries == nil {
		entries = []email.LogEntry{}
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: map[string]any{
		"count":   len(entries),
		"entries": entries,
	}})
}

// EmailLogStats handles GET /v1/admin/email-log/stats.
func (h *AdminHandler) EmailLogStats(w http.ResponseWriter, r *http.Request) {
	JSON(w, r, http.StatusOK, APIResponse{Data: h.sendLog.Stats()})
}
