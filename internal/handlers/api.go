package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/common"
)

// APIHandler serves system endpoints
type APIHandler struct {
	logger    arbor.ILogger
	startedAt time.Time
}

// NewAPIHandler creates the system API handler
func NewAPIHandler(logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		logger:    logger,
		startedAt: time.Now(),
	}
}

// HealthHandler handles GET /api/health
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"uptime":  time.Since(h.startedAt).String(),
	})
}

// VersionHandler handles GET /api/version
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"full":    common.GetFullVersion(),
	})
}

// NotFoundHandler handles unmatched API routes
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not found: "+r.URL.Path)
}
