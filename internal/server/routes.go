package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - live job progress feed
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Jobs
	mux.HandleFunc("/api/jobs/stats", s.app.JobHandler.GetJobStatsHandler)
	mux.HandleFunc("/api/jobs", s.handleJobsCollection)
	mux.HandleFunc("/api/jobs/", s.handleJobRoutes) // Handles /api/jobs/{id} and subpaths

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleJobsCollection routes /api/jobs by method
func (s *Server) handleJobsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.app.JobHandler.ListJobsHandler(w, r)
	case http.MethodPost:
		s.app.JobHandler.CreateJobHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobRoutes routes /api/jobs/{id} and its lifecycle actions
func (s *Server) handleJobRoutes(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if r.Method == http.MethodPost {
		switch {
		case strings.HasSuffix(path, "/pause"):
			s.app.JobHandler.PauseJobHandler(w, r)
		case strings.HasSuffix(path, "/resume"):
			s.app.JobHandler.ResumeJobHandler(w, r)
		case strings.HasSuffix(path, "/cancel"):
			s.app.JobHandler.CancelJobHandler(w, r)
		case strings.HasSuffix(path, "/retry"):
			s.app.JobHandler.RetryJobHandler(w, r)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
		return
	}

	if r.Method == http.MethodGet {
		if strings.HasSuffix(path, "/summaries") {
			s.app.JobHandler.GetJobSummariesHandler(w, r)
			return
		}
		s.app.JobHandler.GetJobHandler(w, r)
		return
	}

	if r.Method == http.MethodDelete {
		s.app.JobHandler.DeleteJobHandler(w, r)
		return
	}

	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
