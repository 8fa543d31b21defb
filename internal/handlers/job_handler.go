package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/precis/internal/common"
	"github.com/ternarybob/precis/internal/interfaces"
	"github.com/ternarybob/precis/internal/jobs"
	"github.com/ternarybob/precis/internal/models"
)

// JobHandler serves the job lifecycle API
type JobHandler struct {
	orchestrator *jobs.Orchestrator
	config       *common.Config
	logger       arbor.ILogger
}

// NewJobHandler creates a job API handler
func NewJobHandler(orchestrator *jobs.Orchestrator, config *common.Config, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		orchestrator: orchestrator,
		config:       config,
		logger:       logger,
	}
}

// createJobRequest is the submission payload
type createJobRequest struct {
	ItemIDs []string `json:"item_ids"`
	Publish string   `json:"publish,omitempty"`
	Length  string   `json:"length,omitempty"`
}

// CreateJobHandler handles POST /api/jobs
func (h *JobHandler) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.ItemIDs) == 0 {
		writeError(w, http.StatusBadRequest, "item_ids cannot be empty")
		return
	}

	publish := models.PublishMode(req.Publish)
	if publish == "" {
		publish = models.PublishMode(h.config.Summarize.DefaultPublish)
	}
	if publish != models.PublishModeNote && publish != models.PublishModeLocal {
		writeError(w, http.StatusBadRequest, "publish must be 'note' or 'local'")
		return
	}

	length := models.SummaryLength(req.Length)
	if length == "" {
		length = models.SummaryLength(h.config.Summarize.DefaultLength)
	}
	switch length {
	case models.SummaryLengthBrief, models.SummaryLengthStandard, models.SummaryLengthDetailed:
	default:
		writeError(w, http.StatusBadRequest, "length must be 'brief', 'standard' or 'detailed'")
		return
	}

	job, err := h.orchestrator.StartJob(r.Context(), req.ItemIDs, publish, length)
	if err != nil {
		writeJobError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

// ListJobsHandler handles GET /api/jobs
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	opts := &interfaces.JobListOptions{}
	if status := r.URL.Query().Get("status"); status != "" {
		opts.Status = models.JobStatus(status)
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			opts.Offset = n
		}
	}

	list, err := h.orchestrator.ListJobs(r.Context(), opts)
	if err != nil {
		writeJobError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}

// GetJobHandler handles GET /api/jobs/{id}
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := jobIDFromPath(r.URL.Path)
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	job, err := h.orchestrator.GetJob(r.Context(), jobID)
	if err != nil {
		writeJobError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// PauseJobHandler handles POST /api/jobs/{id}/pause
func (h *JobHandler) PauseJobHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orchestrator.PauseJob)
}

// ResumeJobHandler handles POST /api/jobs/{id}/resume
func (h *JobHandler) ResumeJobHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orchestrator.ResumeJob)
}

// CancelJobHandler handles POST /api/jobs/{id}/cancel
func (h *JobHandler) CancelJobHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orchestrator.CancelJob)
}

// RetryJobHandler handles POST /api/jobs/{id}/retry
func (h *JobHandler) RetryJobHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.orchestrator.RetryFailedItems)
}

// GetJobSummariesHandler handles GET /api/jobs/{id}/summaries
func (h *JobHandler) GetJobSummariesHandler(w http.ResponseWriter, r *http.Request) {
	jobID := jobIDFromPath(r.URL.Path)
	summaries, err := h.orchestrator.GetJobSummaries(r.Context(), jobID)
	if err != nil {
		writeJobError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":    jobID,
		"summaries": summaries,
		"count":     len(summaries),
	})
}

// DeleteJobHandler handles DELETE /api/jobs/{id}
func (h *JobHandler) DeleteJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := jobIDFromPath(r.URL.Path)
	if err := h.orchestrator.DeleteJob(r.Context(), jobID); err != nil {
		writeJobError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "job_id": jobID})
}

// GetJobStatsHandler handles GET /api/jobs/stats
func (h *JobHandler) GetJobStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats := make(map[string]int)
	for _, status := range []models.JobStatus{
		models.JobStatusQueued,
		models.JobStatusProcessing,
		models.JobStatusPaused,
		models.JobStatusCompleted,
		models.JobStatusFailed,
		models.JobStatusCancelled,
	} {
		count, err := h.orchestrator.CountJobsByStatus(r.Context(), status)
		if err != nil {
			writeJobError(w, err)
			return
		}
		stats[string(status)] = count
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *JobHandler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, jobID string) (*models.SummaryJob, error)) {
	jobID := jobIDFromPath(r.URL.Path)
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	job, err := op(r.Context(), jobID)
	if err != nil {
		writeJobError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// jobIDFromPath extracts the job ID segment from /api/jobs/{id}[/action]
func jobIDFromPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/api/jobs/")
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeJobError maps typed orchestrator errors onto HTTP statuses
func writeJobError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interfaces.ErrJobNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, interfaces.ErrJobAlreadyRunning):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, interfaces.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
